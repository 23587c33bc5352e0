package histogram

import (
	"context"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/metrics"
	"github.com/BinbinSongg/SparkGBM/pardata"
)

// Instance is one discretized training row: its per-instance gradient and
// hessian at the current boosting iteration, plus its bin vector.
type Instance[H Number] struct {
	Grad H
	Hess H
	Bins []discretize.BinId
}

// NodeInstance pairs an Instance with the id of the node it currently
// resides at (the "node_id" half of the spec's
// parallel_dataset<((grad,hess,bins), node_id)>).
type NodeInstance[H Number] struct {
	Instance Instance[H]
	NodeID   uint64
}

// bump is one (key, bin, grad, hess) contribution emitted by flattening
// an instance across its sampled feature columns.
type bump[H Number] struct {
	Key  HistKey
	Bin  discretize.BinId
	Grad H
	Hess H
}

// ComputeHists groups data's instances by (node_id, feature_id) — one
// group per id in featureIDs, each indexing directly into Instance.Bins
// (Bins is the full per-instance bin vector, indexed by original column
// id) — and accumulates per-bin (grad, hess) sums, per the §4.3
// compute_hists contract. parallelism sets AggregateByKey's output
// partition count.
func ComputeHists[H Number](
	ctx context.Context,
	data *pardata.Dataset[NodeInstance[H]],
	featureIDs []int32,
	parallelism int,
) (*pardata.Dataset[pardata.KV[HistKey, Histogram[H]]], error) {
	bumps, err := pardata.FlatMap(ctx, data, func(ni NodeInstance[H]) []bump[H] {
		out := make([]bump[H], 0, len(featureIDs))
		for _, fid := range featureIDs {
			if int(fid) >= len(ni.Instance.Bins) {
				continue
			}
			out = append(out, bump[H]{
				Key:  HistKey{NodeID: ni.NodeID, FeatureID: fid},
				Bin:  ni.Instance.Bins[fid],
				Grad: ni.Instance.Grad,
				Hess: ni.Instance.Hess,
			})
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	hists, err := pardata.AggregateByKey(
		ctx,
		bumps,
		func(b bump[H]) HistKey { return b.Key },
		func(b bump[H]) Histogram[H] {
			return addBin(nil, b.Bin, b.Grad, b.Hess)
		},
		func(a, b Histogram[H]) Histogram[H] { return Merge(a, b) },
		parallelism,
	)
	if err != nil {
		return nil, err
	}
	metrics.HistogramsBuilt.WithLabelValues("direct").Add(float64(hists.Len()))
	return hists, nil
}
