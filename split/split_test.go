package split

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/histogram"
	"github.com/BinbinSongg/SparkGBM/pardata"
)

func TestSeqSearchScenario(t *testing.T) {
	grad := []float64{0, 1, -1, 1, -1}
	hess := []float64{0, 1, 1, 1, 1}

	idx, gain, stats, ok := SeqSearch(grad, hess, 0, 0, 0, 0)
	require.True(t, ok)
	assert.Greater(t, gain, 0.0)
	assert.GreaterOrEqual(t, stats[2], 0.0) // leftHess
	assert.GreaterOrEqual(t, stats[5], 0.0) // rightHess
	assert.True(t, idx >= 0 && idx <= 3)
}

func TestSeqSearchDeterministic(t *testing.T) {
	grad := []float64{0, 1, -1, 1, -1}
	hess := []float64{0, 1, 1, 1, 1}
	idx1, gain1, stats1, ok1 := SeqSearch(grad, hess, 0.1, 1.0, 0.01, 0)
	idx2, gain2, stats2, ok2 := SeqSearch(grad, hess, 0.1, 1.0, 0.01, 0)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, idx1, idx2)
	assert.Equal(t, gain1, gain2)
	assert.Equal(t, stats1, stats2)
}

func TestSeqSearchRejectsBelowMinGain(t *testing.T) {
	grad := []float64{1, 1}
	hess := []float64{1, 1}
	_, _, _, ok := SeqSearch(grad, hess, 0, 0, 0, 1000)
	assert.False(t, ok)
}

func TestSeqSearchFeasibility(t *testing.T) {
	grad := []float64{5, -5, 5, -5}
	hess := []float64{1, 1, 1, 1}
	_, _, stats, ok := SeqSearch(grad, hess, 0, 0, 1.5, 0)
	require.True(t, ok)
	assert.GreaterOrEqual(t, stats[2], 1.5)
	assert.GreaterOrEqual(t, stats[5], 1.5)
}

func TestSplitSeqMissingRoutingDefaultsLeft(t *testing.T) {
	hist := histogram.Histogram[float64]{0, 0, 5, 1, -5, 1}
	s, ok := SplitSeq[float64](0, hist, 0, 0, 0, 0)
	require.True(t, ok)
	assert.True(t, s.MissingGoLeft && s.GoLeft(0))
}

func TestSplitSetBruteAndHeuristicAgreeOnSmallInput(t *testing.T) {
	hist := histogram.Histogram[float64]{0, 0, 3, 1, -3, 1, 2, 1}
	brute, okB := SplitSetBrute[float64](0, hist, 0, 0, 0, 0)
	heuristic, okH := SplitSetHeuristic[float64](0, hist, 0, 0, 0, 0)
	require.True(t, okB)
	require.True(t, okH)
	assert.GreaterOrEqual(t, brute.GainVal, 0.0)
	assert.InDelta(t, brute.GainVal, heuristic.GainVal, 1e-9)
}

func TestSetSplitMissingRouting(t *testing.T) {
	hist := histogram.Histogram[float64]{4, 1, 3, 1, -3, 1, 2, 1}
	s, ok := SplitSetBrute[float64](0, hist, 0, 0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, s.MissingGoLeft, s.GoLeft(0))
}

func TestFindSplitsPerNodeMaxGain(t *testing.T) {
	entries := []pardata.KV[histogram.HistKey, histogram.Histogram[float64]]{
		{Key: histogram.HistKey{NodeID: 1, FeatureID: 0}, Val: histogram.Histogram[float64]{0, 0, 1, 1, -1, 1}},
		{Key: histogram.HistKey{NodeID: 1, FeatureID: 1}, Val: histogram.Histogram[float64]{0, 0, 5, 1, -5, 1}},
	}
	ds := pardata.NewDataset(entries, 1)

	isSeq := map[int32]bool{0: true, 1: true}
	cfg := Config{RegAlpha: 0, RegLambda: 0, MinGain: 0, MinNodeHess: 0, MaxBruteBins: 4, ColSampleByLevel: 1, Seed: 1}

	result, err := FindSplits[float64](context.Background(), ds, isSeq, cfg)
	require.NoError(t, err)
	require.Contains(t, result, uint64(1))
	assert.Equal(t, int32(1), result[1].FeatureID(), "feature 1 has the larger magnitude split and should win on gain")
}

func TestFindSplitsEmptyWhenNoAdmissibleSplit(t *testing.T) {
	entries := []pardata.KV[histogram.HistKey, histogram.Histogram[float64]]{
		{Key: histogram.HistKey{NodeID: 1, FeatureID: 0}, Val: histogram.Histogram[float64]{1, 1}},
	}
	ds := pardata.NewDataset(entries, 1)
	cfg := Config{MaxBruteBins: 4, ColSampleByLevel: 1, Seed: 1}

	result, err := FindSplits[float64](context.Background(), ds, map[int32]bool{0: true}, cfg)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestSeqSplitGoLeftBoundary(t *testing.T) {
	s := &SeqSplit{Feature: 0, MissingGoLeft: true, Threshold: discretize.BinId(2)}
	assert.True(t, s.GoLeft(0))
	assert.True(t, s.GoLeft(2))
	assert.False(t, s.GoLeft(3))
}
