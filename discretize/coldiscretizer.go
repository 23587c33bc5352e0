package discretize

import "encoding/gob"

func init() {
	gob.Register(&QuantileDiscretizer{})
	gob.Register(&IntervalDiscretizer{})
	gob.Register(&CategoricalDiscretizer{})
	gob.Register(&RankDiscretizer{})
}

// BinId is a small non-negative integer bin index. Bin 0 is reserved
// dataset-wide for missing values (NaN/±Inf); column discretizers never
// emit it themselves, only the dataset-level Transform wrapper does.
type BinId int32

// ColDiscretizer maps one column's raw values to bins in [1, NumBins()].
// It is a closed, four-variant tagged union (Quantile, Interval,
// Categorical, Rank); Kind reports which.
type ColDiscretizer interface {
	// Transform maps a non-missing raw value to a bin in [1, NumBins()].
	// Categorical and Rank variants require v to be integral and
	// previously observed, returning ErrUnknownCategory otherwise.
	Transform(v float64) (BinId, error)
	// NumBins is the count of non-missing bins this discretizer produces
	// (bin 0 for missing is additional, accounted for by the caller).
	NumBins() int
	// Kind reports which of the four closed variants this is.
	Kind() DiscretizerKind
}

// DiscretizerKind tags which ColDiscretizer variant a value is, used for
// gob round-tripping through the persisted columnar row layout (§6).
type DiscretizerKind int

const (
	KindQuantile DiscretizerKind = iota
	KindInterval
	KindCategorical
	KindRank
)

func (k DiscretizerKind) String() string {
	switch k {
	case KindQuantile:
		return "quantile"
	case KindInterval:
		return "interval"
	case KindCategorical:
		return "cat"
	case KindRank:
		return "rank"
	default:
		return "unknown"
	}
}

func clampBin(b, lo, hi BinId) BinId {
	if b < lo {
		return lo
	}
	if b > hi {
		return hi
	}
	return b
}
