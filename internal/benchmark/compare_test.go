package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	records := []Record{
		{Variant: "this", Function: "memcpy", Bytes: 64, Loops: 100, Alignment: 8, Elapsed: 1.0},
		{Variant: "this", Function: "memcpy", Bytes: 128, Loops: 100, Alignment: 8, Elapsed: 1.0},
		{Variant: "glibc", Function: "memcpy", Bytes: 64, Loops: 100, Alignment: 8, Elapsed: 2.0}, // half the rate
		{Variant: "glibc", Function: "memset", Bytes: 64, Loops: 100, Alignment: 8, Elapsed: 1.0}, // no baseline
		{Variant: "plain", Function: "memcpy", Bytes: 128, Loops: 100, Alignment: 8, Elapsed: 0.5}, // twice the rate
	}

	comps := Compare(records, "this")
	require.Len(t, comps, 2)

	assert.Equal(t, "glibc", comps[0].Variant)
	assert.Equal(t, 64, comps[0].Bytes)
	assert.InDelta(t, -50.0, comps[0].RateDiff, 0.01)

	assert.Equal(t, "plain", comps[1].Variant)
	assert.Equal(t, 128, comps[1].Bytes)
	assert.InDelta(t, 100.0, comps[1].RateDiff, 0.01)
	assert.Contains(t, comps[1].String(), "+100.00% vs this")
}

func TestCompare_LastRecordWins(t *testing.T) {
	records := []Record{
		{Variant: "this", Function: "strlen", Bytes: 16, Loops: 10, Alignment: 1, Elapsed: 1.0},
		{Variant: "csl", Function: "strlen", Bytes: 16, Loops: 10, Alignment: 1, Elapsed: 4.0},
		{Variant: "csl", Function: "strlen", Bytes: 16, Loops: 20, Alignment: 1, Elapsed: 1.0},
	}

	comps := Compare(records, "this")
	require.Len(t, comps, 1)
	assert.Equal(t, 20, comps[0].Curr.Loops)
	assert.InDelta(t, 100.0, comps[0].RateDiff, 0.01)
}
