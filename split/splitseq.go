package split

import (
	"math"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/histogram"
)

// SplitSeq searches a sequential (numerical/rank) feature's histogram for
// the best threshold split, running seq_search on the histogram as-is
// (a missing-goes-left candidate) and, when bin 0 carries meaningful
// mass, again on the bin-0-rotated sequence (a missing-goes-right
// candidate). The higher-gain candidate wins; ties favor missing-left.
func SplitSeq[H histogram.Number](featureID int32, hist histogram.Histogram[H], alpha, lambda, minNodeHess, minGain float64) (*SeqSplit, bool) {
	B := hist.NumBins()
	if B <= 1 {
		return nil, false
	}

	grad := make([]float64, B)
	hess := make([]float64, B)
	nnz := 0
	var sumAbsG, sumAbsH float64
	for b := 0; b < B; b++ {
		g := float64(hist.Grad(discretize.BinId(b)))
		h := float64(hist.Hess(discretize.BinId(b)))
		grad[b], hess[b] = g, h
		if g != 0 || h != 0 {
			nnz++
		}
		sumAbsG += math.Abs(g)
		sumAbsH += math.Abs(h)
	}
	if nnz <= 1 {
		return nil, false
	}

	var best *SeqSplit
	if idx, gain, stats, ok := SeqSearch(grad, hess, alpha, lambda, minNodeHess, minGain); ok {
		best = &SeqSplit{Feature: featureID, MissingGoLeft: true, Threshold: discretize.BinId(idx), GainVal: gain, StatsVal: stats}
	}

	meaningful := math.Abs(grad[0]) >= 1e-3*sumAbsG || math.Abs(hess[0]) >= 1e-3*sumAbsH
	if meaningful {
		rotG := append(append([]float64{}, grad[1:]...), grad[0])
		rotH := append(append([]float64{}, hess[1:]...), hess[0])
		if idx, gain, stats, ok := SeqSearch(rotG, rotH, alpha, lambda, minNodeHess, minGain); ok {
			if best == nil || gain > best.GainVal {
				best = &SeqSplit{Feature: featureID, MissingGoLeft: false, Threshold: discretize.BinId(idx + 1), GainVal: gain, StatsVal: stats}
			}
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}
