package histogram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/pardata"
)

func TestComputeHistsConservation(t *testing.T) {
	instances := []NodeInstance[float64]{
		{NodeID: 1, Instance: Instance[float64]{Grad: 1, Hess: 2, Bins: []discretize.BinId{1, 2}}},
		{NodeID: 1, Instance: Instance[float64]{Grad: 3, Hess: 4, Bins: []discretize.BinId{2, 1}}},
		{NodeID: 1, Instance: Instance[float64]{Grad: -1, Hess: 1, Bins: []discretize.BinId{1, 1}}},
	}
	ds := pardata.NewDataset(instances, 2)

	hists, err := ComputeHists[float64](context.Background(), ds, []int32{0, 1}, 2)
	require.NoError(t, err)

	byKey := make(map[HistKey]Histogram[float64])
	for _, kv := range hists.Collect() {
		byKey[kv.Key] = kv.Val
	}

	feature0 := byKey[HistKey{NodeID: 1, FeatureID: 0}]
	var g, h float64
	for i := 0; i+1 < len(feature0); i += 2 {
		g += feature0[i]
		h += feature0[i+1]
	}
	assert.InDelta(t, 1+3-1, g, 1e-9)
	assert.InDelta(t, 2+4+1, h, 1e-9)
}

func TestSubtractHistogramsScenario(t *testing.T) {
	parent := Histogram[float64]{3, 3, 5, 5, 2, 2}
	left := Histogram[float64]{1, 1, 2, 2}

	parentDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{
		{Key: HistKey{NodeID: 1, FeatureID: 0}, Val: parent},
	}, 1)
	leftDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{
		{Key: HistKey{NodeID: 2, FeatureID: 0}, Val: left},
	}, 1)

	out, err := SubtractHistograms[float64](context.Background(), parentDS, leftDS, 0)
	require.NoError(t, err)

	byKey := make(map[HistKey]Histogram[float64])
	for _, kv := range out.Collect() {
		byKey[kv.Key] = kv.Val
	}

	right := byKey[HistKey{NodeID: 3, FeatureID: 0}]
	require.NotNil(t, right)
	assert.Equal(t, Histogram[float64]{2, 2, 3, 3, 2, 2}, right)

	gotLeft := byKey[HistKey{NodeID: 2, FeatureID: 0}]
	assert.Equal(t, left, gotLeft)
}

func TestSubtractHistogramsPruning(t *testing.T) {
	parent := Histogram[float64]{10, 10, 10, 10, 10, 10}
	left := Histogram[float64]{8, 3, 2, 2} // nnz=2, hessSum=5

	parentDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{
		{Key: HistKey{NodeID: 1, FeatureID: 0}, Val: parent},
	}, 1)
	leftDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{
		{Key: HistKey{NodeID: 2, FeatureID: 0}, Val: left},
	}, 1)

	out, err := SubtractHistograms[float64](context.Background(), parentDS, leftDS, 10)
	require.NoError(t, err)

	byKey := make(map[HistKey]Histogram[float64])
	for _, kv := range out.Collect() {
		byKey[kv.Key] = kv.Val
	}
	_, leftPresent := byKey[HistKey{NodeID: 2, FeatureID: 0}]
	assert.False(t, leftPresent, "left child hess_sum=5 < 2*min_node_hess=20 must be pruned")
}

// TestSubtractHistogramsAbsentLeftChild covers a left child that received
// zero instances at this level (legal whenever minNodeHess==0 lets a split
// route every instance right): ComputeHists never emits a row for it, so
// leftHists has no entry at all for this (parent, feature) -- right must
// still come out equal to parent rather than silently vanishing.
func TestSubtractHistogramsAbsentLeftChild(t *testing.T) {
	parent := Histogram[float64]{3, 3, 5, 5, 2, 2}

	parentDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{
		{Key: HistKey{NodeID: 1, FeatureID: 0}, Val: parent},
	}, 1)
	leftDS := pardata.NewDataset([]pardata.KV[HistKey, Histogram[float64]]{}, 1)

	out, err := SubtractHistograms[float64](context.Background(), parentDS, leftDS, 0)
	require.NoError(t, err)

	byKey := make(map[HistKey]Histogram[float64])
	for _, kv := range out.Collect() {
		byKey[kv.Key] = kv.Val
	}

	_, leftPresent := byKey[HistKey{NodeID: 2, FeatureID: 0}]
	assert.False(t, leftPresent, "an absent left child must not be synthesized")

	right, rightPresent := byKey[HistKey{NodeID: 3, FeatureID: 0}]
	require.True(t, rightPresent, "right must still be derivable as parent-0==parent")
	assert.Equal(t, parent, right)
}

func TestParallelismHeuristic(t *testing.T) {
	assert.Equal(t, 1, Parallelism(100, 1))
	assert.Equal(t, 4, Parallelism(4, 5))
	assert.Equal(t, 128*3, Parallelism(100000, 4))
}

func TestNNZAndHessSum(t *testing.T) {
	h := Histogram[float64]{1, 2, 0, 0, 3, 4}
	nnz, hessSum := NNZAndHessSum(h)
	assert.Equal(t, 2, nnz)
	assert.InDelta(t, 6, hessSum, 1e-9)
}
