package split

import "math"

// SeqSearch scans the B-1 possible prefix cuts of grad/hess (length B),
// tracking the admissible cut (hL, hR both >= minNodeHess, all derived
// weights/scores finite) with the highest gain over base_score =
// score(G, H). Returns ok=false if no admissible cut clears minGain.
//
// stats is laid out [leftWeight, leftGrad, leftHess, rightWeight,
// rightGrad, rightHess], matching the Split.Stats() contract.
func SeqSearch(grad, hess []float64, alpha, lambda, minNodeHess, minGain float64) (idx int, gain float64, stats [6]float64, ok bool) {
	B := len(grad)
	var G, H float64
	for i := 0; i < B; i++ {
		G += grad[i]
		H += hess[i]
	}
	_, baseScore := score(G, H, alpha, lambda)

	bestGain := math.Inf(-1)
	bestIdx := -1
	var bestStats [6]float64
	var gL, hL float64
	for i := 0; i < B-1; i++ {
		gL += grad[i]
		hL += hess[i]
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
			bestIdx = i
			bestStats = [6]float64{wL, gL, hL, wR, gR, hR}
		}
	}
	if bestIdx < 0 || bestGain < minGain {
		return 0, 0, [6]float64{}, false
	}
	return bestIdx, bestGain, bestStats, true
}
