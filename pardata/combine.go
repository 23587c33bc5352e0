package pardata

import (
	"cmp"
	"context"
	"errors"

	"github.com/BinbinSongg/SparkGBM/partition"
)

var errMismatchedPartitions = errors.New("pardata: zip requires datasets with identical partition layout")

// KV is the element type produced by AggregateByKey.
type KV[K comparable, V any] struct {
	Key K
	Val V
}

// partitionFor hash-buckets a key into one of numPartitions output
// partitions. Key grouping only needs to be stable within one call, so a
// FNV-1a hash of the key's printed form (hashAny) suffices;
// partition.Range is used instead wherever the key
// space has an externally meaningful order, such as node ids.
func partitionFor[K comparable](k K, numPartitions int) int {
	h := hashAny(k)
	if numPartitions < 1 {
		numPartitions = 1
	}
	m := h % uint64(numPartitions)
	return int(m)
}

// AggregateByKey groups d's elements by keyFn, folding each group with zero
// and combine. Grouping is a shuffle boundary: elements are first combined
// within a partition (map-side combine), then re-bucketed into
// numPartitions output groups and combined again, so combine must be
// associative and commutative. Buckets are assigned by hashing the key; use
// AggregateByKeyRanged when the key space has a meaningful order instead.
func AggregateByKey[T any, K comparable, V any](
	ctx context.Context,
	d *Dataset[T],
	keyFn func(T) K,
	seed func(T) V,
	combine func(V, V) V,
	numPartitions int,
) (*Dataset[KV[K, V]], error) {
	if numPartitions < 1 {
		numPartitions = 1
	}
	return aggregateByKey(ctx, d, keyFn, seed, combine, numPartitions, func(k K) int {
		return partitionFor(k, numPartitions)
	})
}

// AggregateByKeyRanged is AggregateByKey bucketed by rp instead of a key
// hash, for key spaces with an externally meaningful order (node ids,
// feature ids) where grouping by range keeps related keys co-located. rankFn
// projects the (possibly composite) key K down to the ordered quantity rp
// was built over, e.g. a HistKey's NodeID.
func AggregateByKeyRanged[T any, K comparable, P cmp.Ordered, V any](
	ctx context.Context,
	d *Dataset[T],
	keyFn func(T) K,
	rankFn func(K) P,
	seed func(T) V,
	combine func(V, V) V,
	rp *partition.Range[P],
) (*Dataset[KV[K, V]], error) {
	return aggregateByKey(ctx, d, keyFn, seed, combine, rp.NumPartitions(), func(k K) int {
		return rp.GetPartition(rankFn(k))
	})
}

func aggregateByKey[T any, K comparable, V any](
	ctx context.Context,
	d *Dataset[T],
	keyFn func(T) K,
	seed func(T) V,
	combine func(V, V) V,
	numPartitions int,
	partitionOf func(K) int,
) (*Dataset[KV[K, V]], error) {
	// map-side: local combine per partition
	type local struct {
		m    map[K]V
		keys []K
	}
	locals, err := mapPartitions(ctx, d, func(p []T) ([]local, error) {
		l := local{m: make(map[K]V)}
		for _, v := range p {
			k := keyFn(v)
			if cur, ok := l.m[k]; ok {
				l.m[k] = combine(cur, seed(v))
			} else {
				l.m[k] = seed(v)
				l.keys = append(l.keys, k)
			}
		}
		return []local{l}, nil
	})
	if err != nil {
		return nil, err
	}

	// shuffle: re-bucket by key into numPartitions output buckets
	buckets := make([]map[K]V, numPartitions)
	for i := range buckets {
		buckets[i] = make(map[K]V)
	}
	for _, ls := range locals {
		for _, l := range ls {
			for _, k := range l.keys {
				v := l.m[k]
				b := partitionOf(k)
				if cur, ok := buckets[b][k]; ok {
					buckets[b][k] = combine(cur, v)
				} else {
					buckets[b][k] = v
				}
			}
		}
	}

	parts := make([][]KV[K, V], numPartitions)
	for i, b := range buckets {
		r := make([]KV[K, V], 0, len(b))
		for k, v := range b {
			r = append(r, KV[K, V]{Key: k, Val: v})
		}
		parts[i] = r
	}
	return &Dataset[KV[K, V]]{partitions: parts}, nil
}

// JoinPair is the element type produced by Join.
type JoinPair[K comparable, A, B any] struct {
	Key K
	A   A
	B   B
}

// Join performs an inner equi-join of a and b keyed by keyA/keyB. Like
// AggregateByKey, this is a shuffle: both sides are re-bucketed by key into
// numPartitions buckets, by key hash, before the local join. Use JoinRanged
// when the key space has a meaningful order instead.
func Join[T, U any, K comparable](
	ctx context.Context,
	a *Dataset[T],
	b *Dataset[U],
	keyA func(T) K,
	keyB func(U) K,
	numPartitions int,
) (*Dataset[JoinPair[K, T, U]], error) {
	if numPartitions < 1 {
		numPartitions = 1
	}
	return join(a, b, keyA, keyB, numPartitions, func(k K) int { return partitionFor(k, numPartitions) })
}

// JoinRanged is Join bucketed by rp instead of a key hash, for key spaces
// with an externally meaningful order — grouping joins by (e.g.) node id
// co-locates sibling and parent histograms in the same output bucket. rankFn
// projects the join key K down to the ordered quantity rp was built over,
// letting K itself stay a composite (non-Ordered) type such as HistKey.
func JoinRanged[T, U any, K comparable, P cmp.Ordered](
	a *Dataset[T],
	b *Dataset[U],
	keyA func(T) K,
	keyB func(U) K,
	rankFn func(K) P,
	rp *partition.Range[P],
) (*Dataset[JoinPair[K, T, U]], error) {
	return join(a, b, keyA, keyB, rp.NumPartitions(), func(k K) int {
		return rp.GetPartition(rankFn(k))
	})
}

// LeftJoinPair is the element type produced by LeftJoinRanged. HasB
// reports whether a matching B-side row existed; when false, B holds its
// zero value.
type LeftJoinPair[K comparable, A, B any] struct {
	Key  K
	A    A
	B    B
	HasB bool
}

// LeftJoinRanged is JoinRanged's left-outer counterpart, bucketed by rp:
// every row of a is preserved in the output even when b has no matching
// key, with HasB reporting which case applied. Use this instead of
// JoinRanged whenever the right side can legitimately be absent for a key
// that must still appear in the result (e.g. a parent node whose left
// child received no instances).
func LeftJoinRanged[T, U any, K comparable, P cmp.Ordered](
	a *Dataset[T],
	b *Dataset[U],
	keyA func(T) K,
	keyB func(U) K,
	rankFn func(K) P,
	rp *partition.Range[P],
) (*Dataset[LeftJoinPair[K, T, U]], error) {
	return leftJoin(a, b, keyA, keyB, rp.NumPartitions(), func(k K) int {
		return rp.GetPartition(rankFn(k))
	})
}

func leftJoin[T, U any, K comparable](
	a *Dataset[T],
	b *Dataset[U],
	keyA func(T) K,
	keyB func(U) K,
	numPartitions int,
	partitionOf func(K) int,
) (*Dataset[LeftJoinPair[K, T, U]], error) {
	aFlat := a.Collect()
	bFlat := b.Collect()

	bucketsA := make([]map[K][]T, numPartitions)
	bucketsB := make([]map[K][]U, numPartitions)
	for i := range bucketsA {
		bucketsA[i] = make(map[K][]T)
		bucketsB[i] = make(map[K][]U)
	}
	for _, v := range aFlat {
		k := keyA(v)
		p := partitionOf(k)
		bucketsA[p][k] = append(bucketsA[p][k], v)
	}
	for _, v := range bFlat {
		k := keyB(v)
		p := partitionOf(k)
		bucketsB[p][k] = append(bucketsB[p][k], v)
	}

	parts := make([][]LeftJoinPair[K, T, U], numPartitions)
	for i := 0; i < numPartitions; i++ {
		var r []LeftJoinPair[K, T, U]
		for k, avs := range bucketsA[i] {
			bvs, ok := bucketsB[i][k]
			if !ok {
				var zero U
				for _, av := range avs {
					r = append(r, LeftJoinPair[K, T, U]{Key: k, A: av, B: zero, HasB: false})
				}
				continue
			}
			for _, av := range avs {
				for _, bv := range bvs {
					r = append(r, LeftJoinPair[K, T, U]{Key: k, A: av, B: bv, HasB: true})
				}
			}
		}
		parts[i] = r
	}
	return &Dataset[LeftJoinPair[K, T, U]]{partitions: parts}, nil
}

func join[T, U any, K comparable](
	a *Dataset[T],
	b *Dataset[U],
	keyA func(T) K,
	keyB func(U) K,
	numPartitions int,
	partitionOf func(K) int,
) (*Dataset[JoinPair[K, T, U]], error) {
	aFlat := a.Collect()
	bFlat := b.Collect()

	bucketsA := make([]map[K][]T, numPartitions)
	bucketsB := make([]map[K][]U, numPartitions)
	for i := range bucketsA {
		bucketsA[i] = make(map[K][]T)
		bucketsB[i] = make(map[K][]U)
	}
	for _, v := range aFlat {
		k := keyA(v)
		p := partitionOf(k)
		bucketsA[p][k] = append(bucketsA[p][k], v)
	}
	for _, v := range bFlat {
		k := keyB(v)
		p := partitionOf(k)
		bucketsB[p][k] = append(bucketsB[p][k], v)
	}

	parts := make([][]JoinPair[K, T, U], numPartitions)
	for i := 0; i < numPartitions; i++ {
		i := i
		var r []JoinPair[K, T, U]
		for k, avs := range bucketsA[i] {
			bvs, ok := bucketsB[i][k]
			if !ok {
				continue
			}
			for _, av := range avs {
				for _, bv := range bvs {
					r = append(r, JoinPair[K, T, U]{Key: k, A: av, B: bv})
				}
			}
		}
		parts[i] = r
	}
	return &Dataset[JoinPair[K, T, U]]{partitions: parts}, nil
}

// TreeAggregate folds d down to a single U via seqOp within partitions,
// then combines partition accumulators pairwise in depth-bounded rounds
// (comb_op), capping driver-side fan-in the way the spec's tree_aggregate
// does.
func TreeAggregate[T, U any](ctx context.Context, d *Dataset[T], zero U, seqOp func(U, T) U, combOp func(U, U) U, depth int) (U, error) {
	accs, err := mapPartitions(ctx, d, func(p []T) ([]U, error) {
		acc := zero
		for _, v := range p {
			acc = seqOp(acc, v)
		}
		return []U{acc}, nil
	})
	if err != nil {
		var zeroU U
		return zeroU, err
	}
	flat := make([]U, len(accs))
	for i, a := range accs {
		if len(a) > 0 {
			flat[i] = a[0]
		} else {
			flat[i] = zero
		}
	}
	return treeFold(flat, zero, combOp, depth), nil
}

// TreeReduce is TreeAggregate specialized to U == T with no seed element;
// d must be non-empty.
func TreeReduce[T any](d *Dataset[T], f func(T, T) T, depth int) T {
	flat := d.Collect()
	if len(flat) == 0 {
		var zero T
		return zero
	}
	return treeFold(flat[1:], flat[0], f, depth)
}

// treeFold combines values pairwise across up to depth rounds, halving the
// active set each round, then linearly folds any remainder. depth < 1 is
// treated as 1.
func treeFold[U any](vals []U, zero U, combine func(U, U) U, depth int) U {
	if len(vals) == 0 {
		return zero
	}
	cur := vals
	rounds := depth
	if rounds < 1 {
		rounds = 1
	}
	for r := 0; r < rounds && len(cur) > 1; r++ {
		next := make([]U, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, combine(cur[i], cur[i+1]))
			} else {
				next = append(next, cur[i])
			}
		}
		cur = next
	}
	acc := cur[0]
	for _, v := range cur[1:] {
		acc = combine(acc, v)
	}
	return acc
}
