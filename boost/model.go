package boost

import (
	"sort"

	"github.com/BinbinSongg/SparkGBM/discretize"
)

// TreeModel is the immutable tree produced once a LearningNode graph
// finishes growing: an owning node tree plus a dense leaf-id table,
// materialized once and never mutated again.
type TreeModel struct {
	Root      *LearningNode
	Columns   []int32 // selected column -> original feature id, as trained
	LeafIndex map[uint64]int
}

// materialize freezes a grown LearningNode tree into a TreeModel,
// assigning leaves a dense index by sorting their node ids ascending.
func materialize(root *LearningNode, columns []int32) *TreeModel {
	var leaves []*LearningNode
	root.leaves(&leaves)
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].NodeID < leaves[j].NodeID })

	idx := make(map[uint64]int, len(leaves))
	for i, l := range leaves {
		idx[l.NodeID] = i
	}
	return &TreeModel{Root: root, Columns: columns, LeafIndex: idx}
}

// Predict walks bins from the root, following each internal node's split
// until a leaf is reached, and returns that leaf's prediction. bins is
// indexed by original feature id (the same indexing Split.FeatureID
// refers to).
func (m *TreeModel) Predict(bins []discretize.BinId) float64 {
	n := m.Root
	for !n.IsLeaf {
		fid := n.Split.FeatureID()
		var bin discretize.BinId
		if int(fid) < len(bins) {
			bin = bins[fid]
		}
		if n.Split.GoLeft(bin) {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prediction
}

// LeafID returns the dense leaf index bins routes to.
func (m *TreeModel) LeafID(bins []discretize.BinId) int {
	n := m.Root
	for !n.IsLeaf {
		fid := n.Split.FeatureID()
		var bin discretize.BinId
		if int(fid) < len(bins) {
			bin = bins[fid]
		}
		if n.Split.GoLeft(bin) {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return m.LeafIndex[n.NodeID]
}

// NumLeaves reports the number of distinct leaves in the tree.
func (m *TreeModel) NumLeaves() int { return len(m.LeafIndex) }

// addGainTo accumulates this tree's internal-node split gains into acc,
// indexed by original feature id, for GBMModel.FeatureImportance.
func (m *TreeModel) addGainTo(acc []float64) {
	var walk func(n *LearningNode)
	walk = func(n *LearningNode) {
		if n == nil || n.IsLeaf {
			return
		}
		if fid := n.Split.FeatureID(); int(fid) < len(acc) {
			acc[fid] += n.Split.Gain()
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(m.Root)
}
