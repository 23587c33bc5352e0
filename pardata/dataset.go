// Package pardata implements the abstract parallel-dataset contract the
// training core is specified against: map, zip, filter, flat_map, sample,
// aggregate_by_key, join, tree_aggregate, tree_reduce, persist/unpersist,
// and checkpoint. It is an in-process stand-in for a cluster shuffle
// engine, backed by a goroutine pool coordinated through errgroup.
//
// A real deployment would swap this package for one backed by a cluster
// shuffle engine; the core (discretize, histogram, split, boost) only ever
// talks to the *Dataset[T] API below.
package pardata

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// StorageLevel mirrors the external collaborator's persistence hint; this
// in-process runtime keeps everything in memory regardless of the value,
// but records it so Persist/Unpersist bookkeeping matches a real backend.
type StorageLevel int

const (
	MemoryOnly StorageLevel = iota
	MemoryAndDisk
	DiskOnly
)

// Dataset is a partitioned, immutable collection of T. All transforms
// return a new Dataset; nothing is mutated in place.
type Dataset[T any] struct {
	partitions [][]T

	persisted    bool
	storageLevel StorageLevel
	checkpoint   string // non-empty once Checkpoint has materialized a file
}

// NewDataset partitions items into numPartitions roughly-even slices.
// numPartitions < 1 is treated as 1.
func NewDataset[T any](items []T, numPartitions int) *Dataset[T] {
	if numPartitions < 1 {
		numPartitions = 1
	}
	if numPartitions > len(items) && len(items) > 0 {
		numPartitions = len(items)
	}

	parts := make([][]T, numPartitions)
	if len(items) == 0 {
		for i := range parts {
			parts[i] = []T{}
		}
		return &Dataset[T]{partitions: parts}
	}

	base := len(items) / numPartitions
	rem := len(items) % numPartitions
	off := 0
	for i := 0; i < numPartitions; i++ {
		n := base
		if i < rem {
			n++
		}
		parts[i] = items[off : off+n]
		off += n
	}
	return &Dataset[T]{partitions: parts}
}

// defaultParallelism mirrors runtime.GOMAXPROCS(0), the worker-count E used
// throughout the core's parallelism heuristics.
func defaultParallelism() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// NumPartitions reports the current partition count.
func (d *Dataset[T]) NumPartitions() int { return len(d.partitions) }

// Collect flattens all partitions into a single slice. This is an action:
// it forces materialization, analogous to the blocking points named in the
// concurrency model.
func (d *Dataset[T]) Collect() []T {
	total := 0
	for _, p := range d.partitions {
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range d.partitions {
		out = append(out, p...)
	}
	return out
}

// Len returns the total element count across all partitions.
func (d *Dataset[T]) Len() int {
	n := 0
	for _, p := range d.partitions {
		n += len(p)
	}
	return n
}

// Persist marks the dataset as persisted at the given storage level. The
// in-process runtime has no separate persist step, but the flag lets the
// Checkpointer (package checkpoint) track lineage the way a cluster-backed
// implementation would.
func (d *Dataset[T]) Persist(level StorageLevel) *Dataset[T] {
	d.persisted = true
	d.storageLevel = level
	return d
}

// Unpersist clears the persisted flag.
func (d *Dataset[T]) Unpersist() { d.persisted = false }

// IsPersisted reports whether Persist has been called without a matching
// Unpersist.
func (d *Dataset[T]) IsPersisted() bool { return d.persisted }

// mapPartitions runs fn over every partition concurrently, collecting
// results in partition order. It is the workhorse every other combinator
// in this package is built from.
func mapPartitions[T, U any](ctx context.Context, d *Dataset[T], fn func(partition []T) ([]U, error)) ([][]U, error) {
	out := make([][]U, len(d.partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultParallelism())
	for i, p := range d.partitions {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := fn(p)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Map applies fn to every element, preserving partitioning.
func Map[T, U any](ctx context.Context, d *Dataset[T], fn func(T) U) (*Dataset[U], error) {
	parts, err := mapPartitions(ctx, d, func(p []T) ([]U, error) {
		r := make([]U, len(p))
		for i, v := range p {
			r[i] = fn(v)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &Dataset[U]{partitions: parts}, nil
}

// FlatMap applies fn to every element, flattening the results.
func FlatMap[T, U any](ctx context.Context, d *Dataset[T], fn func(T) []U) (*Dataset[U], error) {
	parts, err := mapPartitions(ctx, d, func(p []T) ([]U, error) {
		var r []U
		for _, v := range p {
			r = append(r, fn(v)...)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &Dataset[U]{partitions: parts}, nil
}

// Filter retains elements for which pred returns true.
func (d *Dataset[T]) Filter(ctx context.Context, pred func(T) bool) (*Dataset[T], error) {
	parts, err := mapPartitions(ctx, d, func(p []T) ([]T, error) {
		var r []T
		for _, v := range p {
			if pred(v) {
				r = append(r, v)
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &Dataset[T]{partitions: parts}, nil
}

// Zip pairs elements positionally across two datasets with identical
// partition layouts (as produced by deriving one from the other via Map).
// It is an error to Zip datasets whose partition element counts differ.
func Zip[A, B any](a *Dataset[A], b *Dataset[B]) (*Dataset[ZipPair[A, B]], error) {
	if len(a.partitions) != len(b.partitions) {
		return nil, errMismatchedPartitions
	}
	parts := make([][]ZipPair[A, B], len(a.partitions))
	for i := range a.partitions {
		pa, pb := a.partitions[i], b.partitions[i]
		if len(pa) != len(pb) {
			return nil, errMismatchedPartitions
		}
		r := make([]ZipPair[A, B], len(pa))
		for j := range pa {
			r[j] = ZipPair[A, B]{A: pa[j], B: pb[j]}
		}
		parts[i] = r
	}
	return &Dataset[ZipPair[A, B]]{partitions: parts}, nil
}

// ZipPair is the element type produced by Zip.
type ZipPair[A, B any] struct {
	A A
	B B
}

// Sample retains each element independently with probability fraction,
// using a per-partition deterministic RNG seeded from (seed, partition
// index) so results are reproducible regardless of goroutine scheduling.
func (d *Dataset[T]) Sample(ctx context.Context, fraction float64, seed int64) (*Dataset[T], error) {
	type job struct {
		idx int
		p   []T
	}
	parts := make([][]T, len(d.partitions))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(defaultParallelism())
	for i, p := range d.partitions {
		i, p := i, p
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(i)*1_000_003))
			var r []T
			for _, v := range p {
				if rng.Float64() < fraction {
					r = append(r, v)
				}
			}
			parts[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Dataset[T]{partitions: parts}, nil
}
