package split

import (
	"math"
	"sort"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/histogram"
)

// histogramArrays flattens a histogram into dense grad/hess arrays and
// the sorted list of its nonzero bin indices.
func histogramArrays[H histogram.Number](hist histogram.Histogram[H]) (grad, hess []float64, nonzero []int) {
	B := hist.NumBins()
	grad = make([]float64, B)
	hess = make([]float64, B)
	for b := 0; b < B; b++ {
		g := float64(hist.Grad(discretize.BinId(b)))
		h := float64(hist.Hess(discretize.BinId(b)))
		grad[b], hess[b] = g, h
		if g != 0 || h != 0 {
			nonzero = append(nonzero, b)
		}
	}
	return grad, hess, nonzero
}

// SplitSetBrute enumerates all 2^(nnz-1)-1 non-empty proper subsets of
// the nonzero bins (one bin is always held outside the candidate subset
// to avoid enumerating mirror-image duplicates), retaining the best
// admissible partition.
func SplitSetBrute[H histogram.Number](featureID int32, hist histogram.Histogram[H], alpha, lambda, minNodeHess, minGain float64) (*SetSplit, bool) {
	grad, hess, nonzero := histogramArrays(hist)
	nnz := len(nonzero)
	if len(grad) <= 1 || nnz <= 1 {
		return nil, false
	}

	rest := nonzero[:nnz-1] // nonzero[nnz-1] stays fixed outside every candidate subset
	var G, H float64
	for _, b := range nonzero {
		G += grad[b]
		H += hess[b]
	}
	_, baseScore := score(G, H, alpha, lambda)

	bestGain := math.Inf(-1)
	var bestChosen []int
	var bestStats [6]float64
	for mask := 1; mask < (1 << uint(len(rest))); mask++ {
		var gL, hL float64
		var chosen []int
		for i, b := range rest {
			if mask&(1<<uint(i)) != 0 {
				gL += grad[b]
				hL += hess[b]
				chosen = append(chosen, b)
			}
		}
		gR, hR := G-gL, H-hL
		if hL < minNodeHess || hR < minNodeHess {
			continue
		}
		wL, scL := score(gL, hL, alpha, lambda)
		wR, scR := score(gR, hR, alpha, lambda)
		if !finite(wL) || !finite(wR) || !finite(scL) || !finite(scR) {
			continue
		}
		g := scL + scR - baseScore
		if !finite(g) {
			continue
		}
		if g > bestGain {
			bestGain = g
			bestChosen = chosen
			bestStats = [6]float64{wL, gL, hL, wR, gR, hR}
		}
	}
	if bestChosen == nil || bestGain < minGain {
		return nil, false
	}
	return createSetSplit(featureID, grad, hess, bestChosen, bestGain, bestStats)
}

// SplitSetHeuristic sorts the nonzero bins by grad/(hess + lambda/B)
// ascending and reduces set search to a prefix-cut problem via
// SeqSearch over that reordering.
func SplitSetHeuristic[H histogram.Number](featureID int32, hist histogram.Histogram[H], alpha, lambda, minNodeHess, minGain float64) (*SetSplit, bool) {
	grad, hess, nonzero := histogramArrays(hist)
	nnz := len(nonzero)
	if len(grad) <= 1 || nnz <= 1 {
		return nil, false
	}
	B := float64(len(grad))

	ordered := append([]int{}, nonzero...)
	sort.Slice(ordered, func(i, j int) bool {
		bi, bj := ordered[i], ordered[j]
		ri := grad[bi] / (hess[bi] + lambda/B)
		rj := grad[bj] / (hess[bj] + lambda/B)
		return ri < rj
	})

	seqGrad := make([]float64, nnz)
	seqHess := make([]float64, nnz)
	for i, b := range ordered {
		seqGrad[i] = grad[b]
		seqHess[i] = hess[b]
	}

	idx, gain, stats, ok := SeqSearch(seqGrad, seqHess, alpha, lambda, minNodeHess, minGain)
	if !ok {
		return nil, false
	}
	chosen := append([]int{}, ordered[:idx+1]...)
	return createSetSplit(featureID, grad, hess, chosen, gain, stats)
}

// createSetSplit finalizes a chosen subset of nonzero bins into a
// SetSplit: set1 is the chosen subset, set2 the remaining nonzero bins;
// the smaller of the two becomes LeftSet, swapping stats halves if so,
// and bin 0's membership (if observed) decides MissingGoLeft.
func createSetSplit(featureID int32, grad, hess []float64, chosen []int, gain float64, stats [6]float64) (*SetSplit, bool) {
	chosenSet := make(map[int]bool, len(chosen))
	for _, b := range chosen {
		chosenSet[b] = true
	}

	var set1, set2 []int
	for b := range grad {
		if grad[b] == 0 && hess[b] == 0 {
			continue
		}
		if chosenSet[b] {
			set1 = append(set1, b)
		} else {
			set2 = append(set2, b)
		}
	}
	sort.Ints(set1)
	sort.Ints(set2)

	missingInSet1 := chosenSet[0]
	left, missingGoLeft := set1, missingInSet1
	if len(set2) < len(set1) {
		left, missingGoLeft = set2, !missingInSet1
		stats = [6]float64{stats[3], stats[4], stats[5], stats[0], stats[1], stats[2]}
	}

	binIDs := make([]discretize.BinId, len(left))
	for i, b := range left {
		binIDs[i] = discretize.BinId(b)
	}
	return &SetSplit{Feature: featureID, MissingGoLeft: missingGoLeft, LeftSet: binIDs, GainVal: gain, StatsVal: stats}, true
}
