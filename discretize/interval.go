package discretize

import "math"

// IntervalNumAgg tracks the running min/max of a numerical column to fit
// equal-width (Interval) bin boundaries. Per the resolved open question on
// degenerate init, min starts at +Inf and max at -Inf so that a
// zero-observation column degenerates to a single-bin discretizer rather
// than reporting a bogus [0,0] range.
type IntervalNumAgg struct {
	maxBins int
	min     float64
	max     float64
	seen    bool
}

func NewIntervalNumAgg(maxBins int) *IntervalNumAgg {
	return &IntervalNumAgg{maxBins: maxBins, min: math.Inf(1), max: math.Inf(-1)}
}

func (a *IntervalNumAgg) Update(v float64) error {
	a.seen = true
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	return nil
}

func (a *IntervalNumAgg) Merge(other ColAgg) error {
	o, ok := other.(*IntervalNumAgg)
	if !ok {
		return newConfigError("IntervalNumAgg.Merge: mismatched aggregator type")
	}
	if o.seen {
		a.seen = true
		if o.min < a.min {
			a.min = o.min
		}
		if o.max > a.max {
			a.max = o.max
		}
	}
	return nil
}

// ToDiscretizer partitions [min, max] into maxBins equal-width intervals,
// bin centers offset so that start = min + step/2. A column with no
// spread (max <= min, including the unseen case) yields a degenerate
// single-bin discretizer.
func (a *IntervalNumAgg) ToDiscretizer() ColDiscretizer {
	if !a.seen || a.max <= a.min {
		return &IntervalDiscretizer{Start: 0, Step: 0, Bins: 1}
	}
	step := (a.max - a.min) / float64(a.maxBins-1)
	return &IntervalDiscretizer{
		Start: a.min + step/2,
		Step:  step,
		Bins:  a.maxBins,
	}
}

// IntervalDiscretizer transforms via
// clamp(floor((v-Start)/Step)+2, 1, Bins); Step == 0 always yields bin 1.
type IntervalDiscretizer struct {
	Start, Step float64
	Bins        int
}

func (d *IntervalDiscretizer) NumBins() int          { return d.Bins }
func (d *IntervalDiscretizer) Kind() DiscretizerKind { return KindInterval }

func (d *IntervalDiscretizer) Transform(v float64) (BinId, error) {
	if d.Step == 0 {
		return 1, nil
	}
	n := int(math.Floor((v-d.Start)/d.Step)) + 2
	return clampBin(BinId(n), 1, BinId(d.Bins)), nil
}
