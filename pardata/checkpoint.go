package pardata

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
)

// Checkpoint gob-encodes the dataset's flattened contents to a new file
// under dir and records the path, truncating the lineage the way a
// cluster-backed RDD checkpoint would. The caller supplies the file name
// (the checkpoint package names these with a uuid to avoid collisions).
func (d *Dataset[T]) Checkpoint(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(d.Collect()); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	d.checkpoint = path
	return path, nil
}

// CheckpointPath returns the most recent checkpoint file, or "" if none.
func (d *Dataset[T]) CheckpointPath() string { return d.checkpoint }
