package histogram

import (
	"context"
	"sort"

	"github.com/BinbinSongg/SparkGBM/metrics"
	"github.com/BinbinSongg/SparkGBM/pardata"
	"github.com/BinbinSongg/SparkGBM/partition"
)

// leftRekey re-keys a left-child histogram entry under its parent's
// (node_id, feature_id), while retaining the child's own node id so both
// child histograms can be re-emitted under their own keys after the join.
type leftRekey[H Number] struct {
	ParentKey HistKey
	ChildID   uint64
	Hist      Histogram[H]
}

// SubtractHistograms re-keys leftHists from child-id to parent-id, joins
// with parentHists — bucketed by a range partitioner over parent node ids
// rather than a key hash, so a parent lands in the same bucket as both of
// its children's rekeyed left histograms — derives each right-child
// histogram as parent-left, and emits both children re-keyed by their own
// node ids, pruning any emitted histogram that fails the growth
// feasibility check (§4.3): nnz >= 2 && hess_sum >= 2*minNodeHess.
//
// The join is left-outer on parentHists: a left child can legitimately
// receive zero instances at this level (an admissible split with
// minNodeHess==0 can send every instance right), in which case rekeyed has
// no row at all for that (parent, feature). A strict inner join would
// silently drop the right histogram too, even though right == parent
// elementwise is still derivable and still feasible. LeftJoinRanged keeps
// every parent row and reports the miss via HasB.
func SubtractHistograms[H Number](
	ctx context.Context,
	parentHists *pardata.Dataset[pardata.KV[HistKey, Histogram[H]]],
	leftHists *pardata.Dataset[pardata.KV[HistKey, Histogram[H]]],
	minNodeHess float64,
) (*pardata.Dataset[pardata.KV[HistKey, Histogram[H]]], error) {
	rekeyed, err := pardata.Map(ctx, leftHists, func(kv pardata.KV[HistKey, Histogram[H]]) leftRekey[H] {
		return leftRekey[H]{
			ParentKey: HistKey{NodeID: kv.Key.NodeID >> 1, FeatureID: kv.Key.FeatureID},
			ChildID:   kv.Key.NodeID,
			Hist:      kv.Val,
		}
	})
	if err != nil {
		return nil, err
	}

	parentIDs := make(map[uint64]struct{})
	for _, kv := range parentHists.Collect() {
		parentIDs[kv.Key.NodeID] = struct{}{}
	}
	splits := make([]uint64, 0, len(parentIDs))
	for id := range parentIDs {
		splits = append(splits, id)
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i] < splits[j] })
	rp := partition.New(splits)

	joined, err := pardata.LeftJoinRanged(
		parentHists,
		rekeyed,
		func(kv pardata.KV[HistKey, Histogram[H]]) HistKey { return kv.Key },
		func(lr leftRekey[H]) HistKey { return lr.ParentKey },
		func(k HistKey) uint64 { return k.NodeID },
		rp,
	)
	if err != nil {
		return nil, err
	}

	return pardata.FlatMap(ctx, joined, func(p pardata.LeftJoinPair[HistKey, pardata.KV[HistKey, Histogram[H]], leftRekey[H]]) []pardata.KV[HistKey, Histogram[H]] {
		parent := p.A.Val
		leftID := p.Key.NodeID << 1
		rightID := leftID | 1

		var left Histogram[H]
		if p.HasB {
			left = p.B.Hist
			leftID = p.B.ChildID
			rightID = leftID | 1
		}

		n := len(left)
		if len(parent) < n {
			n = len(parent)
		}
		right := make(Histogram[H], len(parent))
		copy(right, parent)
		for i := 0; i < n; i++ {
			right[i] -= left[i]
		}

		var out []pardata.KV[HistKey, Histogram[H]]
		if p.HasB && feasible(left, minNodeHess) {
			out = append(out, pardata.KV[HistKey, Histogram[H]]{Key: HistKey{NodeID: leftID, FeatureID: p.Key.FeatureID}, Val: left})
		}
		if feasible(right, minNodeHess) {
			metrics.HistogramsBuilt.WithLabelValues("subtracted").Inc()
			out = append(out, pardata.KV[HistKey, Histogram[H]]{Key: HistKey{NodeID: rightID, FeatureID: p.Key.FeatureID}, Val: right})
		}
		return out
	})
}

// feasible reports whether a histogram is fit to keep growing:
// nnz >= 2 and hess_sum >= 2*minNodeHess.
func feasible[H Number](h Histogram[H], minNodeHess float64) bool {
	nnz, hessSum := NNZAndHessSum(h)
	return nnz >= 2 && hessSum >= 2*minNodeHess
}
