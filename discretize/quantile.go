// Greenwald-Khanna epsilon-approximate quantile summary, as described in
// Greenwald, M. and Khanna, S. (2001) "Space-efficient online computation
// of quantile summaries", SIGMOD '01.
//
// The summary holds an ordered sequence of tuples (v, g, delta) where g is
// the minimum possible rank gap since the previous tuple and delta is the
// maximum possible additional gap; a value's true rank lies within
// [rank-g, rank+delta] of the tuple preceding it in sorted order.
package discretize

import "sort"

const quantileTargetError = 0.001

type gkTuple struct {
	v     float64
	g     int
	delta int
}

// QuantileNumAgg maintains an approximate quantile summary for a single
// numerical column, used to fit equal-depth (Depth) bin boundaries.
type QuantileNumAgg struct {
	maxBins int
	eps     float64
	count   int
	tuples  []gkTuple
	// buffered values not yet folded into tuples; folding is deferred to
	// compress(), matching the GK paper's batch-insert friendly structure.
	buffered []float64
}

// NewQuantileNumAgg constructs a summary targeting maxBins equal-depth
// splits with relative error bounded by quantileTargetError.
func NewQuantileNumAgg(maxBins int) *QuantileNumAgg {
	return &QuantileNumAgg{maxBins: maxBins, eps: quantileTargetError}
}

func (a *QuantileNumAgg) Update(v float64) error {
	a.buffered = append(a.buffered, v)
	a.count++
	if len(a.buffered) >= 1000 {
		a.compress()
	}
	return nil
}

// compress folds buffered values into the tuple summary and then merges
// adjacent tuples whose combined band still satisfies the error bound,
// bounding the summary's size to O(1/eps * log(eps*n)).
func (a *QuantileNumAgg) compress() {
	if len(a.buffered) == 0 {
		return
	}
	sort.Float64s(a.buffered)

	merged := make([]gkTuple, 0, len(a.tuples)+len(a.buffered))
	i, j := 0, 0
	for i < len(a.tuples) || j < len(a.buffered) {
		if j >= len(a.buffered) || (i < len(a.tuples) && a.tuples[i].v <= a.buffered[j]) {
			merged = append(merged, a.tuples[i])
			i++
			continue
		}
		v := a.buffered[j]
		g := 1
		delta := 0
		if len(merged) > 0 || i < len(a.tuples) {
			// conservative delta bound per the GK insertion rule
			delta = int(2 * a.eps * float64(a.count))
			if delta < 0 {
				delta = 0
			}
		}
		merged = append(merged, gkTuple{v: v, g: g, delta: delta})
		j++
	}
	a.tuples = compressBands(merged, a.eps, a.count)
	a.buffered = a.buffered[:0]
}

// compressBands removes tuples that are redundant for answering any
// quantile query within the error bound, keeping the first and last tuple
// always.
func compressBands(t []gkTuple, eps float64, n int) []gkTuple {
	if len(t) < 3 {
		return t
	}
	threshold := int(2 * eps * float64(n))
	out := make([]gkTuple, 0, len(t))
	out = append(out, t[0])
	for i := 1; i < len(t)-1; i++ {
		combined := out[len(out)-1].g + t[i].g + t[i].delta
		if combined <= threshold {
			out[len(out)-1].g += t[i].g
		} else {
			out = append(out, t[i])
		}
	}
	out = append(out, t[len(t)-1])
	return out
}

// Merge compresses both summaries and concatenates their tuple sequences,
// re-sorting by value, as specified for QuantileNumAgg.merge.
func (a *QuantileNumAgg) Merge(other ColAgg) error {
	o, ok := other.(*QuantileNumAgg)
	if !ok {
		return newConfigError("QuantileNumAgg.Merge: mismatched aggregator type")
	}
	a.compress()
	o.compress()

	all := make([]gkTuple, 0, len(a.tuples)+len(o.tuples))
	all = append(all, a.tuples...)
	all = append(all, o.tuples...)
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	a.tuples = compressBands(all, a.eps, a.count+o.count)
	a.count += o.count
	return nil
}

// query returns an estimate of the value at quantile q in [0, 1].
func (a *QuantileNumAgg) query(q float64) float64 {
	a.compress()
	if len(a.tuples) == 0 {
		return 0
	}
	rank := int(q * float64(a.count))
	var rSum int
	for i, t := range a.tuples {
		rSum += t.g
		if rSum+t.delta > rank+int(a.eps*float64(a.count)) || i == len(a.tuples)-1 {
			return t.v
		}
	}
	return a.tuples[len(a.tuples)-1].v
}

// ToDiscretizer queries quantiles at (i+0.5)/maxBins for i in
// [0, maxBins-2], dedupes and sorts, and yields a Quantile ColDiscretizer.
// An empty column (count == 0) yields an empty-split discretizer, which
// always transforms to bin 1.
func (a *QuantileNumAgg) ToDiscretizer() ColDiscretizer {
	a.compress()
	if a.count == 0 {
		return &QuantileDiscretizer{Splits: nil}
	}

	splits := make([]float64, 0, a.maxBins-1)
	for i := 0; i <= a.maxBins-2; i++ {
		q := (float64(i) + 0.5) / float64(a.maxBins)
		splits = append(splits, a.query(q))
	}

	sort.Float64s(splits)
	dedup := splits[:0:0]
	for i, s := range splits {
		if i == 0 || s != dedup[len(dedup)-1] {
			dedup = append(dedup, s)
		}
	}

	return &QuantileDiscretizer{Splits: dedup}
}

// QuantileDiscretizer transforms by counting split points strictly less
// than v, clamped to [1, len(Splits)+1].
type QuantileDiscretizer struct {
	Splits []float64
}

func (d *QuantileDiscretizer) NumBins() int           { return len(d.Splits) + 1 }
func (d *QuantileDiscretizer) Kind() DiscretizerKind  { return KindQuantile }
func (d *QuantileDiscretizer) Transform(v float64) (BinId, error) {
	n := 0
	for _, s := range d.Splits {
		if v > s {
			n++
		}
	}
	return clampBin(BinId(1+n), 1, BinId(d.NumBins())), nil
}
