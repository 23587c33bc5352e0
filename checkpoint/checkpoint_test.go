package checkpoint

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinbinSongg/SparkGBM/pardata"
)

func TestUpdateEvictsOldestOverPersistQueueSize(t *testing.T) {
	c := New(-1, pardata.MemoryOnly, "")

	var dsets []*pardata.Dataset[int]
	for i := 0; i < 5; i++ {
		ds := pardata.NewDataset([]int{i}, 1)
		dsets = append(dsets, ds)
		c.Update(Wrap(ds))
	}

	assert.False(t, dsets[0].IsPersisted())
	assert.False(t, dsets[1].IsPersisted())
	assert.True(t, dsets[2].IsPersisted())
	assert.True(t, dsets[3].IsPersisted())
	assert.True(t, dsets[4].IsPersisted())
}

func TestCheckpointWritesAndDeletesPrevious(t *testing.T) {
	dir := t.TempDir()
	c := New(1, pardata.MemoryOnly, dir)

	ds1 := pardata.NewDataset([]int{1, 2, 3}, 1)
	c.Update(Wrap(ds1))
	path1, err := Checkpoint(c, ds1)
	require.NoError(t, err)
	require.NotEmpty(t, path1)
	_, err = os.Stat(path1)
	require.NoError(t, err)

	ds2 := pardata.NewDataset([]int{4, 5, 6}, 1)
	c.Update(Wrap(ds2))
	path2, err := Checkpoint(c, ds2)
	require.NoError(t, err)
	require.NotEmpty(t, path2)

	c.DeleteAllCheckpoints()

	_, err = os.Stat(path1)
	assert.True(t, os.IsNotExist(err))
}

func TestIntervalDisablesCheckpointing(t *testing.T) {
	dir := t.TempDir()
	c := New(-1, pardata.MemoryOnly, dir)

	ds := pardata.NewDataset([]int{1}, 1)
	c.Update(Wrap(ds))
	path, err := Checkpoint(c, ds)
	require.NoError(t, err)
	assert.Empty(t, path)
}
