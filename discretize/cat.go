package discretize

import (
	"bytes"
	"encoding/gob"
	"sort"
)

// CatAgg counts occurrences of each distinct integral value in a
// categorical column. Update returns ErrCardinalityOverflow once the
// distinct-value count would exceed max_bins, per the resolved open
// question favoring a reported error over a silent drop or panic.
//
// order records each distinct value's first-seen position, so that
// ToDiscretizer can break frequency ties by insertion order rather than by
// raw value: counts alone can't express that, since map iteration order is
// unspecified.
type CatAgg struct {
	maxBins int
	counts  map[int64]int64
	order   map[int64]int
	next    int
}

func NewCatAgg(maxBins int) *CatAgg {
	return &CatAgg{maxBins: maxBins, counts: make(map[int64]int64), order: make(map[int64]int)}
}

func (a *CatAgg) observe(k int64) {
	if _, ok := a.order[k]; !ok {
		a.order[k] = a.next
		a.next++
	}
}

func (a *CatAgg) Update(v float64) error {
	k := int64(v)
	if _, ok := a.counts[k]; !ok && len(a.counts) >= a.maxBins {
		return ErrCardinalityOverflow
	}
	a.observe(k)
	a.counts[k]++
	return nil
}

func (a *CatAgg) Merge(other ColAgg) error {
	o, ok := other.(*CatAgg)
	if !ok {
		return newConfigError("CatAgg.Merge: mismatched aggregator type")
	}
	// Walk o's keys in its own insertion order so that, when a key is new
	// to both sides, the earlier-observed operand's position wins.
	keys := make([]int64, len(o.order))
	for k, i := range o.order {
		keys[i] = k
	}
	for _, k := range keys {
		if _, exists := a.counts[k]; !exists && len(a.counts) >= a.maxBins {
			return ErrCardinalityOverflow
		}
		a.observe(k)
		a.counts[k] += o.counts[k]
	}
	return nil
}

// ToDiscretizer assigns bins 1..N in descending frequency order, ties
// broken by first-seen (insertion) order rather than raw value, per the
// stable-tie-break contract. The most common category lands in bin 1.
func (a *CatAgg) ToDiscretizer() ColDiscretizer {
	keys := make([]int64, 0, len(a.counts))
	for k := range a.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := a.counts[keys[i]], a.counts[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return a.order[keys[i]] < a.order[keys[j]]
	})

	bin := make(map[int64]BinId, len(keys))
	for i, k := range keys {
		bin[k] = BinId(i + 1)
	}
	return &CategoricalDiscretizer{bin: bin, numBins: len(keys)}
}

// CategoricalDiscretizer maps previously observed integral values to their
// frequency-rank bin; unseen values yield ErrUnknownCategory.
type CategoricalDiscretizer struct {
	bin     map[int64]BinId
	numBins int
}

func (d *CategoricalDiscretizer) NumBins() int          { return d.numBins }
func (d *CategoricalDiscretizer) Kind() DiscretizerKind { return KindCategorical }

func (d *CategoricalDiscretizer) Transform(v float64) (BinId, error) {
	b, ok := d.bin[int64(v)]
	if !ok {
		return 0, ErrUnknownCategory
	}
	return b, nil
}

// GobEncode/GobDecode hooks let CategoricalDiscretizer round-trip through
// encoding/gob despite its unexported map field; the persisted columnar
// layout (DiscretizerRow) stores the exported form directly instead, but
// these keep the type itself gob-safe for direct use in tests and ad hoc
// serialization.
type categoricalDiscretizerGob struct {
	Keys    []int64
	Bins    []BinId
	NumBins int
}

func (d *CategoricalDiscretizer) toGob() categoricalDiscretizerGob {
	g := categoricalDiscretizerGob{NumBins: d.numBins}
	for k, b := range d.bin {
		g.Keys = append(g.Keys, k)
		g.Bins = append(g.Bins, b)
	}
	return g
}

func (g categoricalDiscretizerGob) toDiscretizer() *CategoricalDiscretizer {
	bin := make(map[int64]BinId, len(g.Keys))
	for i, k := range g.Keys {
		bin[k] = g.Bins[i]
	}
	return &CategoricalDiscretizer{bin: bin, numBins: g.NumBins}
}

// GobEncode/GobDecode route through categoricalDiscretizerGob: gob only
// ever sees bin/numBins's exported shadow, since unexported fields are
// otherwise silently dropped rather than encoded.
func (d *CategoricalDiscretizer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d.toGob()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *CategoricalDiscretizer) GobDecode(data []byte) error {
	var g categoricalDiscretizerGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	*d = *g.toDiscretizer()
	return nil
}
