package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPartitionLinear(t *testing.T) {
	r := New([]int{10, 20, 30})
	assert.Equal(t, 4, r.NumPartitions())
	assert.Equal(t, 0, r.GetPartition(5))
	assert.Equal(t, 0, r.GetPartition(10))
	assert.Equal(t, 1, r.GetPartition(15))
	assert.Equal(t, 1, r.GetPartition(20))
	assert.Equal(t, 2, r.GetPartition(30))
	assert.Equal(t, 3, r.GetPartition(100))
}

func TestGetPartitionBinarySearchPath(t *testing.T) {
	splits := make([]int, 200)
	for i := range splits {
		splits[i] = i * 10
	}
	r := New(splits)

	assert.Equal(t, 0, r.GetPartition(-1))
	assert.Equal(t, 5, r.GetPartition(50))
	assert.Equal(t, len(splits), r.GetPartition(1_000_000))
}
