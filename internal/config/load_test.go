package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"membench/internal/planner"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		chdir(t, t.TempDir())
		v := viper.New()
		require.NoError(t, Load(v, ""))

		cfg, err := FromViper(v)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "../build/try-", cfg.BuildPrefix)
		assert.Equal(t, "file", cfg.Cache.Type)
		assert.Empty(t, cfg.Cache.Path)
		assert.Equal(t, "cache.txt", cfg.BackendConfig().ResolvedLocation())
		assert.Equal(t, planner.DefaultTop, cfg.Sweep.Top)
		assert.Equal(t, planner.DefaultSteps, cfg.Sweep.Steps)
		assert.Equal(t, planner.DefaultAlignments, cfg.Sweep.Alignments)
		assert.Equal(t, 5e7, cfg.Calibration.Budget)
		assert.Equal(t, 5*time.Second, cfg.Calibration.Target)
		assert.Equal(t, planner.DefaultCapabilities(), cfg.CapabilityTable())
		assert.Equal(t, planner.DefaultCapabilities().Variants(), cfg.SweepVariants())

		// No config file is written as a side effect.
		_, err = os.Stat("config.yaml")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("From File", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		yaml := `
build_prefix: /opt/bench/try-
cache:
  type: sqlite
  path: bench.db
sweep:
  top: 4096
  steps: [2.0]
  alignments: [8]
  default_variant: mine
  variants: [mine]
calibration:
  target: 500ms
capabilities:
  - variant: mine
    functions: [memcpy, memset]
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

		v := viper.New()
		require.NoError(t, Load(v, ""))
		cfg, err := FromViper(v)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "/opt/bench/try-", cfg.BuildPrefix)
		assert.Equal(t, "sqlite", cfg.BackendConfig().Type)
		assert.Equal(t, "bench.db", cfg.BackendConfig().Location)
		assert.Equal(t, 4096, cfg.Sweep.Top)
		assert.Equal(t, 500*time.Millisecond, cfg.Calibration.Target)
		assert.Equal(t, []string{"mine"}, cfg.SweepVariants())
		assert.Equal(t, []string{"memcpy", "memset"}, cfg.CapabilityTable().Functions())
	})

	t.Run("From Env", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("MEMBENCH_CACHE_PATH", "/tmp/other.txt")
		t.Setenv("MEMBENCH_BUILD_PREFIX", "./try-")

		v := viper.New()
		require.NoError(t, Load(v, ""))
		cfg, err := FromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "/tmp/other.txt", cfg.Cache.Path)
		assert.Equal(t, "./try-", cfg.BuildPrefix)
	})

	t.Run("Explicit Missing File", func(t *testing.T) {
		chdir(t, t.TempDir())
		err := Load(viper.New(), "does-not-exist.yaml")
		assert.Error(t, err)
	})
}
