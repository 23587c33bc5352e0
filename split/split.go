// Package split searches per-(node, feature) histograms for the
// candidate split that maximally reduces a regularized second-order
// training objective, then reduces across features to the single best
// split per node.
package split

import (
	"sort"

	"github.com/BinbinSongg/SparkGBM/discretize"
)

// Kind tags which of the two closed Split variants a value is.
type Kind int

const (
	KindSeq Kind = iota
	KindSet
)

// Split is a closed, two-variant tagged union (Seq, Set); dispatch is by
// Kind rather than open inheritance, matching ColDiscretizer's shape.
type Split interface {
	FeatureID() int32
	Gain() float64
	Stats() [6]float64
	GoLeft(bin discretize.BinId) bool
	Kind() Kind
}

// SeqSplit routes by a threshold over ordered bin ids: bin <= Threshold
// goes left (numerical/rank features).
type SeqSplit struct {
	Feature       int32
	MissingGoLeft bool
	Threshold     discretize.BinId
	GainVal       float64
	StatsVal      [6]float64
}

func (s *SeqSplit) FeatureID() int32     { return s.Feature }
func (s *SeqSplit) Gain() float64        { return s.GainVal }
func (s *SeqSplit) Stats() [6]float64    { return s.StatsVal }
func (s *SeqSplit) Kind() Kind           { return KindSeq }
func (s *SeqSplit) GoLeft(bin discretize.BinId) bool {
	if bin == 0 {
		return s.MissingGoLeft
	}
	return bin <= s.Threshold
}

// SetSplit routes by set membership over bin ids (categorical features).
// LeftSet is kept sorted ascending so GoLeft can binary search it.
type SetSplit struct {
	Feature       int32
	MissingGoLeft bool
	LeftSet       []discretize.BinId
	GainVal       float64
	StatsVal      [6]float64
}

func (s *SetSplit) FeatureID() int32  { return s.Feature }
func (s *SetSplit) Gain() float64     { return s.GainVal }
func (s *SetSplit) Stats() [6]float64 { return s.StatsVal }
func (s *SetSplit) Kind() Kind        { return KindSet }
func (s *SetSplit) GoLeft(bin discretize.BinId) bool {
	if bin == 0 {
		return s.MissingGoLeft
	}
	i := sort.Search(len(s.LeftSet), func(i int) bool { return s.LeftSet[i] >= bin })
	return i < len(s.LeftSet) && s.LeftSet[i] == bin
}
