package pardata

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinbinSongg/SparkGBM/partition"
)

func TestMapFilterCollect(t *testing.T) {
	ctx := context.Background()
	d := NewDataset([]int{1, 2, 3, 4, 5, 6}, 3)

	squared, err := Map(ctx, d, func(v int) int { return v * v })
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 4, 9, 16, 25, 36}, squared.Collect())

	even, err := d.Filter(ctx, func(v int) bool { return v%2 == 0 })
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 4, 6}, even.Collect())
}

func TestZipRequiresMatchingLayout(t *testing.T) {
	ctx := context.Background()
	a := NewDataset([]int{1, 2, 3}, 1)
	b, err := Map(ctx, a, func(v int) int { return v * 10 })
	require.NoError(t, err)

	zipped, err := Zip(a, b)
	require.NoError(t, err)
	got := zipped.Collect()
	assert.Equal(t, []ZipPair[int, int]{{1, 10}, {2, 20}, {3, 30}}, got)

	mismatched := NewDataset([]int{1, 2}, 2)
	_, err = Zip(a, mismatched)
	assert.Error(t, err)
}

func TestAggregateByKey(t *testing.T) {
	ctx := context.Background()
	d := NewDataset([]int{1, 2, 3, 4, 5, 6, 7, 8}, 4)

	sums, err := AggregateByKey(ctx, d,
		func(v int) int { return v % 2 },
		func(v int) int { return v },
		func(a, b int) int { return a + b },
		2,
	)
	require.NoError(t, err)

	got := map[int]int{}
	for _, kv := range sums.Collect() {
		got[kv.Key] = kv.Val
	}
	assert.Equal(t, map[int]int{0: 20, 1: 16}, got)
}

func TestTreeAggregateAndTreeReduce(t *testing.T) {
	ctx := context.Background()
	d := NewDataset([]int{1, 2, 3, 4, 5}, 3)

	sum, err := TreeAggregate(ctx, d, 0, func(acc int, v int) int { return acc + v }, func(a, b int) int { return a + b }, 2)
	require.NoError(t, err)
	assert.Equal(t, 15, sum)

	max := TreeReduce(d, func(a, b int) int {
		if a > b {
			return a
		}
		return b
	}, 2)
	assert.Equal(t, 5, max)
}

func TestJoin(t *testing.T) {
	ctx := context.Background()
	a := NewDataset([]int{1, 2, 3}, 2)
	b := NewDataset([]string{"a1", "b2", "c3", "d4"}, 2)

	joined, err := Join(ctx, a, b,
		func(v int) int { return v },
		func(v string) int { return int(v[1] - '0') },
		2,
	)
	require.NoError(t, err)

	got := joined.Collect()
	sort.Slice(got, func(i, j int) bool { return got[i].Key < got[j].Key })
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Key)
	assert.Equal(t, "a1", got[0].B)
}

func TestLeftJoinRanged(t *testing.T) {
	a := NewDataset([]int{1, 2, 3}, 2)
	b := NewDataset([]string{"a1", "c3"}, 1) // no match for key 2

	rp := partition.New([]int{1, 2, 3})
	joined, err := LeftJoinRanged(a, b,
		func(v int) int { return v },
		func(v string) int { return int(v[1] - '0') },
		func(k int) int { return k },
		rp,
	)
	require.NoError(t, err)

	got := joined.Collect()
	sort.Slice(got, func(i, j int) bool { return got[i].Key < got[j].Key })
	require.Len(t, got, 3, "every row of a must survive, matched or not")

	assert.True(t, got[0].HasB)
	assert.Equal(t, "a1", got[0].B)

	assert.False(t, got[1].HasB, "key 2 has no match in b")
	assert.Equal(t, "", got[1].B, "unmatched B must be its zero value")

	assert.True(t, got[2].HasB)
	assert.Equal(t, "c3", got[2].B)
}

func TestSampleIsDeterministic(t *testing.T) {
	ctx := context.Background()
	d := NewDataset(make([]int, 1000), 4)
	for i := range d.partitions {
		for j := range d.partitions[i] {
			d.partitions[i][j] = j
		}
	}

	s1, err := d.Sample(ctx, 0.3, 42)
	require.NoError(t, err)
	s2, err := d.Sample(ctx, 0.3, 42)
	require.NoError(t, err)

	assert.Equal(t, s1.Collect(), s2.Collect())
}
