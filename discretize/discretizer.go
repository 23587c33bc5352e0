package discretize

import (
	"context"
	"math"

	"github.com/BinbinSongg/SparkGBM/pardata"
)

// ColumnSpec describes how one raw feature column should be discretized.
type ColumnSpec struct {
	Name          string
	MaxBins       int
	IsCategorical bool
	IsRank        bool
	NumericalKind NumericalBinKind
}

// Discretizer holds one fitted ColDiscretizer per feature column, in
// column order, and is the unit transformed against every training and
// scoring row.
type Discretizer struct {
	Names  []string
	Cols   []ColDiscretizer
}

// NumCols reports the number of feature columns this Discretizer covers.
func (d *Discretizer) NumCols() int { return len(d.Cols) }

// Fit aggregates rows (one []float64 per observation, column-aligned with
// specs) over a parallel dataset via tree-aggregate, then finalizes every
// column's aggregator into its ColDiscretizer. NaN and ±Inf entries are
// skipped per column rather than folded into the aggregator, since bin 0
// is reserved dataset-wide for missing values.
func Fit(ctx context.Context, rows *pardata.Dataset[[]float64], specs []ColumnSpec, aggregationDepth int) (*Discretizer, error) {
	// Validate specs eagerly so a bad spec fails before any partition work
	// starts, rather than surfacing as a ConfigError deep inside seqOp.
	for _, s := range specs {
		if _, err := NewAgg(s.MaxBins, s.IsCategorical, s.IsRank, s.NumericalKind); err != nil {
			return nil, err
		}
	}

	errBox := newFitErrorBox()

	// aggAcc clones its aggregator slice on first touch so that concurrent
	// partitions never share the same ColAgg instances: TreeAggregate's
	// zero value is copied by slice header only, so mutating its backing
	// array directly would alias every partition's accumulator onto one
	// set of pointers.
	type aggAcc struct {
		aggs   []ColAgg
		cloned bool
	}
	newAggs := func() []ColAgg {
		fresh := make([]ColAgg, len(specs))
		for i, s := range specs {
			fresh[i], _ = NewAgg(s.MaxBins, s.IsCategorical, s.IsRank, s.NumericalKind)
		}
		return fresh
	}

	zero := aggAcc{}
	seqOp := func(acc aggAcc, row []float64) aggAcc {
		if !acc.cloned {
			acc = aggAcc{aggs: newAggs(), cloned: true}
		}
		for i, v := range row {
			if i >= len(acc.aggs) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			// Update errors (cardinality overflow) are deferred: the first
			// offending column is recorded and surfaced after the fold
			// completes, since seqOp here has no error return of its own.
			if err := acc.aggs[i].Update(v); err != nil {
				errBox.set(err)
			}
		}
		return acc
	}
	combOp := func(a, b aggAcc) aggAcc {
		switch {
		case !a.cloned:
			return b
		case !b.cloned:
			return a
		}
		for i := range a.aggs {
			if err := a.aggs[i].Merge(b.aggs[i]); err != nil {
				errBox.set(err)
			}
		}
		return a
	}

	result, err := pardata.TreeAggregate(ctx, rows, zero, seqOp, combOp, aggregationDepth)
	if err != nil {
		return nil, err
	}
	if e := errBox.get(); e != nil {
		return nil, e
	}
	if !result.cloned {
		// empty dataset: every column's aggregator saw zero observations
		result.aggs = newAggs()
	}

	names := make([]string, len(specs))
	cols := make([]ColDiscretizer, len(specs))
	for i, s := range specs {
		names[i] = s.Name
		cols[i] = result.aggs[i].ToDiscretizer()
	}
	return &Discretizer{Names: names, Cols: cols}, nil
}

// Transform maps one raw observation to its per-column bin vector.
// Missing entries (NaN, ±Inf, or a row shorter than NumCols) map to bin 0.
func (d *Discretizer) Transform(vec []float64) ([]BinId, error) {
	out := make([]BinId, len(d.Cols))
	for i, col := range d.Cols {
		if i >= len(vec) || math.IsNaN(vec[i]) || math.IsInf(vec[i], 0) {
			out[i] = 0
			continue
		}
		b, err := col.Transform(vec[i])
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// fitErrorBox lets seqOp/combOp closures (which must match pardata's
// error-free fold signatures) surface the first ColAgg error encountered
// during a Fit call without a data race, since TreeAggregate's reduction
// fans in across goroutines.
type fitErrorBox struct {
	ch chan error
}

func newFitErrorBox() *fitErrorBox {
	return &fitErrorBox{ch: make(chan error, 1)}
}

func (b *fitErrorBox) reset() {
	for {
		select {
		case <-b.ch:
		default:
			return
		}
	}
}

func (b *fitErrorBox) set(err error) {
	select {
	case b.ch <- err:
	default:
	}
}

func (b *fitErrorBox) get() error {
	select {
	case err := <-b.ch:
		b.set(err)
		return err
	default:
		return nil
	}
}
