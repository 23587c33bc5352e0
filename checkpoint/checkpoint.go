// Package checkpoint implements the Checkpointer contract (§6): a
// lineage-truncation helper maintaining small FIFO queues of
// persisted/checkpointed datasets, with asynchronous, best-effort cleanup
// of superseded checkpoint files.
package checkpoint

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/BinbinSongg/SparkGBM/metrics"
	"github.com/BinbinSongg/SparkGBM/pardata"
)

const persistQueueSize = 3

// dataset is the minimal surface the Checkpointer needs from a
// pardata.Dataset[T], expressed without a type parameter so one
// Checkpointer instance can track datasets of different element types
// across a tree's lifetime (node-ids, histograms, ...).
type dataset interface {
	Persist(pardata.StorageLevel) // returns itself in pardata, ignored here
	Unpersist()
}

// handle adapts a concrete *pardata.Dataset[T] to the dataset interface.
type handle[T any] struct{ ds *pardata.Dataset[T] }

func (h handle[T]) Persist(level pardata.StorageLevel) { h.ds.Persist(level) }
func (h handle[T]) Unpersist()                         { h.ds.Unpersist() }

// Wrap adapts a *pardata.Dataset[T] for use with a Checkpointer.
func Wrap[T any](ds *pardata.Dataset[T]) dataset { return handle[T]{ds: ds} }

// Checkpointer persists a bounded window of recent datasets and, every
// checkpoint_interval updates, checkpoints the current dataset to disk,
// deleting the previous checkpoint file once the new one lands.
// interval = -1 disables checkpointing entirely.
type Checkpointer struct {
	interval     int
	storageLevel pardata.StorageLevel
	dir          string

	mu           sync.Mutex
	persistQueue []dataset
	updateCount  int
	lastCkptFile string

	deleteWG sync.WaitGroup
}

// New constructs a Checkpointer. dir is the checkpoint directory; an empty
// dir disables file checkpointing even if interval > 0 (persistence-only
// mode).
func New(interval int, storageLevel pardata.StorageLevel, dir string) *Checkpointer {
	return &Checkpointer{interval: interval, storageLevel: storageLevel, dir: dir}
}

// Update persists ds if not already tracked, evicting the oldest entry
// from the persist queue once it exceeds persistQueueSize, and counts the
// update toward the checkpoint interval; Checkpoint writes the file when
// that count reaches a multiple of the interval.
func (c *Checkpointer) Update(ds dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tracked := false
	for _, q := range c.persistQueue {
		if q == ds {
			tracked = true
			break
		}
	}
	if !tracked {
		ds.Persist(c.storageLevel)
		c.persistQueue = append(c.persistQueue, ds)
		if len(c.persistQueue) > persistQueueSize {
			evicted := c.persistQueue[0]
			c.persistQueue = c.persistQueue[1:]
			evicted.Unpersist()
		}
	}
	metrics.CheckpointQueueDepth.Set(float64(len(c.persistQueue)))

	if c.interval < 0 || c.dir == "" {
		return
	}
	c.updateCount++
	if c.updateCount%c.interval != 0 {
		return
	}
}

// Checkpoint writes ds to a uuid-named file under the checkpointer's
// directory and asynchronously deletes the previous checkpoint file once
// the new one has materialized. Intended to be called by the Tree Builder
// alongside Update, for dataset types pardata can gob-encode.
func Checkpoint[T any](c *Checkpointer, ds *pardata.Dataset[T]) (string, error) {
	c.mu.Lock()
	dir := c.dir
	interval := c.interval
	shouldCheckpoint := interval > 0 && dir != "" && c.updateCount%interval == 0
	prev := c.lastCkptFile
	c.mu.Unlock()

	if !shouldCheckpoint {
		return "", nil
	}

	name := fmt.Sprintf("ckpt-%s.gob", uuid.NewString())
	path, err := ds.Checkpoint(dir, name)
	if err != nil {
		slog.Warn("checkpoint write failed, continuing without it", "dir", dir, "error", err)
		return "", nil
	}

	c.mu.Lock()
	c.lastCkptFile = path
	c.mu.Unlock()

	if prev != "" && prev != path {
		c.deleteWG.Add(1)
		go func() {
			defer c.deleteWG.Done()
			if err := os.Remove(prev); err != nil && !os.IsNotExist(err) {
				slog.Warn("checkpoint delete failed, continuing", "path", prev, "error", err)
				metrics.CheckpointDeleteFailures.Inc()
			}
		}()
	}

	return path, nil
}

// UnpersistAll drops the persisted flag on every tracked dataset and empties
// the persist queue. Called at tree teardown.
func (c *Checkpointer) UnpersistAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ds := range c.persistQueue {
		ds.Unpersist()
	}
	c.persistQueue = nil
	metrics.CheckpointQueueDepth.Set(0)
}

// DeleteAllCheckpoints removes any outstanding checkpoint file and waits for
// in-flight async deletions dispatched by Checkpoint to finish. Failures are
// logged and swallowed, never returned.
func (c *Checkpointer) DeleteAllCheckpoints() {
	c.deleteWG.Wait()

	c.mu.Lock()
	last := c.lastCkptFile
	c.lastCkptFile = ""
	c.mu.Unlock()

	if last == "" {
		return
	}
	if err := os.Remove(last); err != nil && !os.IsNotExist(err) {
		slog.Warn("final checkpoint delete failed, continuing", "path", last, "error", err)
		metrics.CheckpointDeleteFailures.Inc()
	}
}
