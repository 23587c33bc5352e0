package pardata

import (
	"fmt"
	"hash/fnv"
)

// hashAny produces a stable, deterministic hash for any comparable key by
// hashing its default string representation. This keeps AggregateByKey and
// Join generic over arbitrary comparable key types without requiring a
// bespoke Hash method on every key the core uses (uint64 node ids, struct
// (nodeID, featureID) pairs, ...).
func hashAny[K comparable](k K) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%v", k)
	return h.Sum64()
}
