package boost

import (
	"context"
	"runtime"
	"sort"

	"github.com/BinbinSongg/SparkGBM/checkpoint"
	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/histogram"
	"github.com/BinbinSongg/SparkGBM/metrics"
	"github.com/BinbinSongg/SparkGBM/pardata"
	"github.com/BinbinSongg/SparkGBM/split"
)

// GrowTree grows one tree over instances from a single root by repeated
// frontier expansion (§4.5): at level 0 it computes the root histogram
// directly; every level after that it computes only left-child histograms
// and recovers right children by subtraction, searches every frontier
// histogram for its best admissible split, applies the highest-gain splits
// up to MaxLeaves, and re-routes instances to their new node ids before
// the next level.
func GrowTree[H histogram.Number](
	ctx context.Context,
	instances *pardata.Dataset[histogram.Instance[H]],
	treeCfg *TreeConfig,
	cfg *BoostConfig,
	ckpt *checkpoint.Checkpointer,
) (*TreeModel, error) {
	data, err := pardata.Map(ctx, instances, func(inst histogram.Instance[H]) histogram.NodeInstance[H] {
		return histogram.NodeInstance[H]{Instance: inst, NodeID: 1}
	})
	if err != nil {
		return nil, err
	}

	nodes := map[uint64]*LearningNode{1: newRoot()}
	numLeaves := int64(1)
	frontier := []uint64{1}

	var prevHists *pardata.Dataset[pardata.KV[histogram.HistKey, histogram.Histogram[H]]]

	workerCount := runtime.GOMAXPROCS(0)

	isSeq := make(map[int32]bool, len(treeCfg.Columns))
	for i, fid := range treeCfg.Columns {
		isSeq[fid] = treeCfg.IsSeq[i]
	}

	for level := 0; level < cfg.MaxDepth && len(frontier) > 0 && numLeaves < cfg.MaxLeaves; level++ {
		approx := histogram.ApproxHistCount(len(frontier), treeCfg.NumCols, cfg.ColSampleByLevel)
		parallelism := histogram.Parallelism(approx, workerCount)

		var hists *pardata.Dataset[pardata.KV[histogram.HistKey, histogram.Histogram[H]]]
		if level == 0 {
			hists, err = histogram.ComputeHists(ctx, data, treeCfg.Columns, parallelism)
			if err != nil {
				return nil, err
			}
		} else {
			leftData, ferr := data.Filter(ctx, func(ni histogram.NodeInstance[H]) bool { return ni.NodeID&1 == 0 })
			if ferr != nil {
				return nil, ferr
			}
			leftHists, herr := histogram.ComputeHists(ctx, leftData, treeCfg.Columns, parallelism)
			if herr != nil {
				return nil, herr
			}
			hists, err = histogram.SubtractHistograms(ctx, prevHists, leftHists, cfg.MinNodeHess)
			if err != nil {
				return nil, err
			}
		}

		ckpt.Update(checkpoint.Wrap(data))
		if _, cerr := checkpoint.Checkpoint(ckpt, data); cerr != nil {
			return nil, cerr
		}
		ckpt.Update(checkpoint.Wrap(hists))
		if _, cerr := checkpoint.Checkpoint(ckpt, hists); cerr != nil {
			return nil, cerr
		}

		scfg := split.Config{
			RegAlpha:         cfg.RegAlpha,
			RegLambda:        cfg.RegLambda,
			MinGain:          cfg.MinGain,
			MinNodeHess:      cfg.MinNodeHess,
			MaxBruteBins:     cfg.MaxBruteBins,
			ColSampleByLevel: cfg.ColSampleByLevel,
			Seed:             cfg.Seed + int64(treeCfg.TreeIndex)*9973 + int64(level),
		}
		candidates, err := split.FindSplits[H](ctx, hists, isSeq, scfg)
		if err != nil {
			return nil, err
		}

		type ranked struct {
			nodeID uint64
			s      split.Split
		}
		ranks := make([]ranked, 0, len(candidates))
		for id, s := range candidates {
			ranks = append(ranks, ranked{nodeID: id, s: s})
		}
		sort.Slice(ranks, func(i, j int) bool { return ranks[i].s.Gain() > ranks[j].s.Gain() })

		applied := make(map[uint64]split.Split, len(ranks))
		for _, r := range ranks {
			if numLeaves+1 > cfg.MaxLeaves {
				break
			}
			n, ok := nodes[r.nodeID]
			if !ok || !n.IsLeaf {
				continue
			}
			n.applySplit(r.s)
			nodes[n.Left.NodeID] = n.Left
			nodes[n.Right.NodeID] = n.Right
			applied[r.nodeID] = r.s
			numLeaves++
		}

		if len(applied) == 0 {
			break
		}

		data, err = pardata.Map(ctx, data, func(ni histogram.NodeInstance[H]) histogram.NodeInstance[H] {
			s, ok := applied[ni.NodeID]
			if !ok {
				return ni
			}
			var bin discretize.BinId
			fid := s.FeatureID()
			if int(fid) < len(ni.Instance.Bins) {
				bin = ni.Instance.Bins[fid]
			}
			if s.GoLeft(bin) {
				ni.NodeID = LeftChildID(ni.NodeID)
			} else {
				ni.NodeID = RightChildID(ni.NodeID)
			}
			return ni
		})
		if err != nil {
			return nil, err
		}
		data, err = data.Filter(ctx, func(ni histogram.NodeInstance[H]) bool {
			return Depth(ni.NodeID) == Depth(frontier[0])+1
		})
		if err != nil {
			return nil, err
		}

		next := make([]uint64, 0, 2*len(applied))
		nextFrontier, err := hists.Filter(ctx, func(kv pardata.KV[histogram.HistKey, histogram.Histogram[H]]) bool {
			_, ok := applied[kv.Key.NodeID]
			return ok
		})
		if err != nil {
			return nil, err
		}
		prevHists = nextFrontier
		for id := range applied {
			next = append(next, LeftChildID(id), RightChildID(id))
		}
		frontier = next
	}

	ckpt.UnpersistAll()
	ckpt.DeleteAllCheckpoints()

	root := nodes[1]
	metrics.TreeDepthReached.Observe(float64(root.subtreeDepth()))

	return materialize(root, treeCfg.Columns), nil
}
