package boost

import (
	"math/bits"

	"github.com/BinbinSongg/SparkGBM/split"
)

// LearningNode is a node of the tree under growth. Root has NodeID 1;
// LeftChild(id) = id<<1, RightChild(id) = id<<1|1, Parent(id) = id>>1 —
// the numeric layout makes the tree a binary-heap-style pointer-free
// structure during growth, with no back-references needed.
type LearningNode struct {
	NodeID     uint64
	IsLeaf     bool
	Prediction float64
	Split      split.Split
	Left       *LearningNode
	Right      *LearningNode
}

func newRoot() *LearningNode {
	return &LearningNode{NodeID: 1, IsLeaf: true}
}

// LeftChildID, RightChildID, ParentID implement the node-id arithmetic
// §3 specifies.
func LeftChildID(id uint64) uint64  { return id << 1 }
func RightChildID(id uint64) uint64 { return id<<1 | 1 }
func ParentID(id uint64) uint64     { return id >> 1 }

// Depth returns floor(log2(id))+1, the 1-indexed depth of a node id.
func Depth(id uint64) int {
	if id == 0 {
		return 0
	}
	return bits.Len64(id)
}

// applySplit turns a leaf into an internal node with two new leaf
// children, predicting the split's left/right weights.
func (n *LearningNode) applySplit(s split.Split) {
	stats := s.Stats()
	n.IsLeaf = false
	n.Split = s
	n.Left = &LearningNode{NodeID: LeftChildID(n.NodeID), IsLeaf: true, Prediction: stats[0]}
	n.Right = &LearningNode{NodeID: RightChildID(n.NodeID), IsLeaf: true, Prediction: stats[3]}
}

// leaves collects every leaf node reachable from n.
func (n *LearningNode) leaves(out *[]*LearningNode) {
	if n == nil {
		return
	}
	if n.IsLeaf {
		*out = append(*out, n)
		return
	}
	n.Left.leaves(out)
	n.Right.leaves(out)
}

// subtreeDepth returns the maximum depth of any leaf under n.
func (n *LearningNode) subtreeDepth() int {
	if n == nil {
		return 0
	}
	if n.IsLeaf {
		return Depth(n.NodeID)
	}
	ld := n.Left.subtreeDepth()
	rd := n.Right.subtreeDepth()
	if ld > rd {
		return ld
	}
	return rd
}
