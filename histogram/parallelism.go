package histogram

import "math"

// Parallelism implements the heuristic: clamp(ceil(approxHistCount /
// (workerCount-1)), 1, 128) * (workerCount-1). workerCount <= 1 is
// driver-only: parallelism is 1 regardless of approxHistCount.
func Parallelism(approxHistCount, workerCount int) int {
	if workerCount <= 1 {
		return 1
	}
	denom := workerCount - 1
	factor := int(math.Ceil(float64(approxHistCount) / float64(denom)))
	if factor < 1 {
		factor = 1
	}
	if factor > 128 {
		factor = 128
	}
	return factor * denom
}

// ApproxHistCount estimates the (node, feature) pair count a level will
// produce, the input Parallelism scales against.
func ApproxHistCount(numLeaves, numCols int, colSampleByLevel float64) int {
	n := float64(numLeaves) * float64(numCols) * colSampleByLevel
	return int(math.Ceil(n))
}
