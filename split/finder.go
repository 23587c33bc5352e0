package split

import (
	"context"
	"sort"

	"github.com/BinbinSongg/SparkGBM/histogram"
	"github.com/BinbinSongg/SparkGBM/metrics"
	"github.com/BinbinSongg/SparkGBM/pardata"
	"github.com/BinbinSongg/SparkGBM/partition"
)

// Config carries the regularization and search-strategy parameters the
// split finder needs per level; it is the TreeBuilder-facing subset of
// BoostConfig plus TreeConfig's per-feature strategy flags.
type Config struct {
	RegAlpha         float64
	RegLambda        float64
	MinGain          float64
	MinNodeHess      float64
	MaxBruteBins     int
	ColSampleByLevel float64
	Seed             int64
}

// candidate is one (node, split) pair produced before the per-node
// max-gain reduce.
type candidate struct {
	NodeID uint64
	Split  Split
}

// FindSplits searches every (node, feature) histogram in hists for its
// best admissible split — dispatching to SplitSeq for features flagged
// sequential in isSeq, otherwise to the brute or heuristic set search
// depending on the histogram's nonzero-bin count versus MaxBruteBins —
// then reduces to the single highest-gain split per node.
//
// isSeq is indexed by feature id (TreeConfig's per-selected-column
// is_seq flag). col_sample_by_level < 1 Bernoulli-samples the input
// histograms with Config.Seed before searching, reproducing the level's
// column subsample.
func FindSplits[H histogram.Number](
	ctx context.Context,
	hists *pardata.Dataset[pardata.KV[histogram.HistKey, histogram.Histogram[H]]],
	isSeq map[int32]bool,
	cfg Config,
) (map[uint64]Split, error) {
	sampled := hists
	if cfg.ColSampleByLevel < 1 {
		s, err := hists.Sample(ctx, cfg.ColSampleByLevel, cfg.Seed)
		if err != nil {
			return nil, err
		}
		sampled = s
	}

	mapped, err := pardata.Map(ctx, sampled, func(kv pardata.KV[histogram.HistKey, histogram.Histogram[H]]) candidate {
		return candidate{NodeID: kv.Key.NodeID, Split: searchOne(kv.Key.FeatureID, kv.Val, isSeq, cfg)}
	})
	if err != nil {
		return nil, err
	}

	filtered, err := mapped.Filter(ctx, func(c candidate) bool { return c.Split != nil })
	if err != nil {
		return nil, err
	}

	// Candidates are keyed directly by node id, already an ordered id
	// space, so the max-gain reduce buckets by range rather than by hash:
	// splits belonging to the same subtree land in the same bucket.
	ids := make(map[uint64]struct{})
	for _, c := range filtered.Collect() {
		ids[c.NodeID] = struct{}{}
	}
	splits := make([]uint64, 0, len(ids))
	for id := range ids {
		splits = append(splits, id)
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i] < splits[j] })
	rp := partition.New(splits)

	grouped, err := pardata.AggregateByKeyRanged(
		ctx,
		filtered,
		func(c candidate) uint64 { return c.NodeID },
		func(id uint64) uint64 { return id },
		func(c candidate) candidate { return c },
		func(a, b candidate) candidate {
			if b.Split.Gain() > a.Split.Gain() {
				return b
			}
			return a
		},
		rp,
	)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]Split)
	for _, kv := range grouped.Collect() {
		out[kv.Key] = kv.Val.Split
	}
	return out, nil
}

func searchOne[H histogram.Number](featureID int32, hist histogram.Histogram[H], isSeq map[int32]bool, cfg Config) Split {
	if isSeq[featureID] {
		metrics.SplitsEvaluated.WithLabelValues("seq").Inc()
		if s, ok := SplitSeq(featureID, hist, cfg.RegAlpha, cfg.RegLambda, cfg.MinNodeHess, cfg.MinGain); ok {
			return s
		}
		return nil
	}

	nnz, _ := histogram.NNZAndHessSum(hist)
	if nnz <= cfg.MaxBruteBins {
		metrics.SplitsEvaluated.WithLabelValues("set_brute").Inc()
		if s, ok := SplitSetBrute(featureID, hist, cfg.RegAlpha, cfg.RegLambda, cfg.MinNodeHess, cfg.MinGain); ok {
			return s
		}
		return nil
	}
	metrics.SplitsEvaluated.WithLabelValues("set_heuristic").Inc()
	if s, ok := SplitSetHeuristic(featureID, hist, cfg.RegAlpha, cfg.RegLambda, cfg.MinNodeHess, cfg.MinGain); ok {
		return s
	}
	return nil
}
