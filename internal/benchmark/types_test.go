package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("glibc:memcpy:1024:1562500:8:2.5013:extra:fields\n")
	require.NoError(t, err)

	assert.Equal(t, "glibc", rec.Variant)
	assert.Equal(t, "memcpy", rec.Function)
	assert.Equal(t, 1024, rec.Bytes)
	assert.Equal(t, 1562500, rec.Loops)
	assert.Equal(t, 8, rec.Alignment)
	assert.Equal(t, 2.5013, rec.Elapsed)
	assert.Equal(t, "glibc:memcpy:1024:1562500:8:2.5013:extra:fields", rec.Line)
	assert.Equal(t, "glibc:memcpy:1024:1562500:8", rec.Key().String())
}

func TestParseRecord_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"Empty", "", "count"},
		{"TooFewFields", "glibc:memcpy:1024:100:8", "count"},
		{"EmptyVariant", ":memcpy:1024:100:8:1.0", "variant"},
		{"EmptyFunction", "glibc::1024:100:8:1.0", "function"},
		{"BadBytes", "glibc:memcpy:lots:100:8:1.0", "bytes"},
		{"NegativeBytes", "glibc:memcpy:-1:100:8:1.0", "bytes"},
		{"ZeroLoops", "glibc:memcpy:1024:0:8:1.0", "loops"},
		{"ZeroAlignment", "glibc:memcpy:1024:100:0:1.0", "alignment"},
		{"BadElapsed", "glibc:memcpy:1024:100:8:fast", "elapsed"},
		{"NegativeElapsed", "glibc:memcpy:1024:100:8:-1", "elapsed"},
		{"NaNElapsed", "glibc:memcpy:1024:100:8:NaN", "elapsed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestKeyStability(t *testing.T) {
	key := Key{Variant: "this", Function: "strcmp", Bytes: 64, Loops: 6250000, Alignment: 32}
	line := key.String() + ":1.25"

	rec, err := ParseRecord(line)
	require.NoError(t, err)
	assert.Equal(t, key, rec.Key())

	again, err := ParseRecord(rec.Line)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestRecordRate(t *testing.T) {
	rec := Record{Bytes: 1024, Loops: 1024, Elapsed: 0.5}
	assert.InDelta(t, 2.0, rec.Rate(), 1e-9)

	assert.Equal(t, 0.0, Record{Bytes: 1024, Loops: 1}.Rate())
}
