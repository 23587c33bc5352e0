package discretize

import (
	"bytes"
	"encoding/gob"
	"sort"
)

// RankAgg tracks the distinct integral values observed in an ordinal
// ("rank") column. Update returns ErrCardinalityOverflow once the distinct
// count would exceed max_bins, matching CatAgg's overflow policy.
type RankAgg struct {
	maxBins int
	set     map[int64]struct{}
}

func NewRankAgg(maxBins int) *RankAgg {
	return &RankAgg{maxBins: maxBins, set: make(map[int64]struct{})}
}

func (a *RankAgg) Update(v float64) error {
	k := int64(v)
	if _, ok := a.set[k]; !ok && len(a.set) >= a.maxBins {
		return ErrCardinalityOverflow
	}
	a.set[k] = struct{}{}
	return nil
}

func (a *RankAgg) Merge(other ColAgg) error {
	o, ok := other.(*RankAgg)
	if !ok {
		return newConfigError("RankAgg.Merge: mismatched aggregator type")
	}
	for k := range o.set {
		if _, exists := a.set[k]; !exists && len(a.set) >= a.maxBins {
			return ErrCardinalityOverflow
		}
		a.set[k] = struct{}{}
	}
	return nil
}

// ToDiscretizer sorts the distinct values ascending and assigns bins 1..N
// in that order, preserving the column's natural rank ordering.
func (a *RankAgg) ToDiscretizer() ColDiscretizer {
	values := make([]int64, 0, len(a.set))
	for k := range a.set {
		values = append(values, k)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return &RankDiscretizer{values: values}
}

// RankDiscretizer maps a previously observed integral value to its
// position in the ascending sorted set of distinct values via binary
// search; unseen values yield ErrUnknownCategory.
type RankDiscretizer struct {
	values []int64
}

func (d *RankDiscretizer) NumBins() int          { return len(d.values) }
func (d *RankDiscretizer) Kind() DiscretizerKind { return KindRank }

func (d *RankDiscretizer) Transform(v float64) (BinId, error) {
	k := int64(v)
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= k })
	if i >= len(d.values) || d.values[i] != k {
		return 0, ErrUnknownCategory
	}
	return BinId(i + 1), nil
}

// rankDiscretizerGob exports RankDiscretizer's unexported values slice for
// gob, matching CategoricalDiscretizer's toGob convention.
type rankDiscretizerGob struct {
	Values []int64
}

func (d *RankDiscretizer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rankDiscretizerGob{Values: d.values}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *RankDiscretizer) GobDecode(data []byte) error {
	var g rankDiscretizerGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	d.values = g.Values
	return nil
}
