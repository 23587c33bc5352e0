package boost

import (
	"fmt"

	"github.com/BinbinSongg/SparkGBM/pardata"
)

// BoostConfig holds the regularization, search, and resource parameters
// shared by every tree in a training run. Zero value is invalid; use
// NewBoostConfig with functional options, mirroring the teacher's
// configer idiom.
type BoostConfig struct {
	MaxDepth         int
	MaxLeaves        int64
	MinGain          float64
	MinNodeHess      float64
	RegAlpha         float64
	RegLambda        float64
	ColSampleByLevel float64
	MaxBruteBins     int
	AggregationDepth int
	StorageLevel     pardata.StorageLevel
	CheckpointInterval int
	CheckpointDir    string
	Seed             int64
	MaxBins          int
	NumericalBinKind string // "depth" or "width"

	Shrinkage float64
	NTrees    int

	// CatColumns and RankColumns name (by original column index) which
	// feature columns are categorical / ranking rather than numerical;
	// everything else is numerical under NumericalBinKind.
	CatColumns  []int32
	RankColumns []int32

	// Callback, if set, runs after every tree and stops Fit early when it
	// returns true.
	Callback Callback
}

// BoostOption mutates a BoostConfig under construction.
type BoostOption func(*BoostConfig)

// NewBoostConfig applies opts over sane defaults and validates the
// result, returning a *ConfigError for the first violated constraint.
func NewBoostConfig(opts ...BoostOption) (*BoostConfig, error) {
	c := &BoostConfig{
		MaxDepth:           6,
		MaxLeaves:          64,
		MinGain:            0,
		MinNodeHess:        1e-3,
		RegAlpha:           0,
		RegLambda:          1,
		ColSampleByLevel:   1,
		MaxBruteBins:       8,
		AggregationDepth:   2,
		StorageLevel:       pardata.MemoryOnly,
		CheckpointInterval: -1,
		Seed:               0,
		MaxBins:            32,
		NumericalBinKind:   "depth",
		Shrinkage:          0.1,
		NTrees:             100,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func WithMaxDepth(d int) BoostOption           { return func(c *BoostConfig) { c.MaxDepth = d } }
func WithMaxLeaves(n int64) BoostOption        { return func(c *BoostConfig) { c.MaxLeaves = n } }
func WithMinGain(g float64) BoostOption        { return func(c *BoostConfig) { c.MinGain = g } }
func WithMinNodeHess(h float64) BoostOption    { return func(c *BoostConfig) { c.MinNodeHess = h } }
func WithRegAlpha(a float64) BoostOption       { return func(c *BoostConfig) { c.RegAlpha = a } }
func WithRegLambda(l float64) BoostOption      { return func(c *BoostConfig) { c.RegLambda = l } }
func WithColSampleByLevel(f float64) BoostOption {
	return func(c *BoostConfig) { c.ColSampleByLevel = f }
}
func WithMaxBruteBins(n int) BoostOption       { return func(c *BoostConfig) { c.MaxBruteBins = n } }
func WithAggregationDepth(d int) BoostOption   { return func(c *BoostConfig) { c.AggregationDepth = d } }
func WithStorageLevel(l pardata.StorageLevel) BoostOption {
	return func(c *BoostConfig) { c.StorageLevel = l }
}
func WithCheckpoint(interval int, dir string) BoostOption {
	return func(c *BoostConfig) { c.CheckpointInterval = interval; c.CheckpointDir = dir }
}
func WithSeed(seed int64) BoostOption        { return func(c *BoostConfig) { c.Seed = seed } }
func WithMaxBins(n int) BoostOption          { return func(c *BoostConfig) { c.MaxBins = n } }
func WithNumericalBinKind(k string) BoostOption {
	return func(c *BoostConfig) { c.NumericalBinKind = k }
}
func WithShrinkage(s float64) BoostOption { return func(c *BoostConfig) { c.Shrinkage = s } }
func WithNTrees(n int) BoostOption        { return func(c *BoostConfig) { c.NTrees = n } }
func WithCatColumns(cols ...int32) BoostOption {
	return func(c *BoostConfig) { c.CatColumns = cols }
}
func WithRankColumns(cols ...int32) BoostOption {
	return func(c *BoostConfig) { c.RankColumns = cols }
}
func WithCallback(cb Callback) BoostOption { return func(c *BoostConfig) { c.Callback = cb } }

// ConfigError reports an invalid BoostConfig, surfaced eagerly before any
// partition work starts.
type ConfigError struct{ msg string }

func (e *ConfigError) Error() string { return "boost: " + e.msg }

func cfgErr(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// Validate enforces every BoostConfig constraint named in the external
// configuration surface, failing fast rather than letting a bad
// parameter surface deep inside tree growth.
func (c *BoostConfig) Validate() error {
	switch {
	case c.MaxDepth < 1:
		return cfgErr("max_depth must be >= 1, got %d", c.MaxDepth)
	case c.MaxLeaves < 2:
		return cfgErr("max_leaves must be >= 2, got %d", c.MaxLeaves)
	case c.MinGain < 0:
		return cfgErr("min_gain must be >= 0, got %v", c.MinGain)
	case c.MinNodeHess < 0:
		return cfgErr("min_node_hess must be >= 0, got %v", c.MinNodeHess)
	case c.RegAlpha < 0:
		return cfgErr("reg_alpha must be >= 0, got %v", c.RegAlpha)
	case c.RegLambda < 0:
		return cfgErr("reg_lambda must be >= 0, got %v", c.RegLambda)
	case c.ColSampleByLevel <= 0 || c.ColSampleByLevel > 1:
		return cfgErr("col_sample_by_level must be in (0,1], got %v", c.ColSampleByLevel)
	case c.MaxBruteBins < 2:
		return cfgErr("max_brute_bins must be >= 2, got %d", c.MaxBruteBins)
	case c.AggregationDepth < 2:
		return cfgErr("aggregation_depth must be >= 2, got %d", c.AggregationDepth)
	case c.MaxBins < 4:
		return cfgErr("max_bins must be >= 4, got %d", c.MaxBins)
	case c.NumericalBinKind != "depth" && c.NumericalBinKind != "width":
		return cfgErr("numerical_bin_kind must be 'depth' or 'width', got %q", c.NumericalBinKind)
	case c.Shrinkage <= 0 || c.Shrinkage > 1:
		return cfgErr("shrinkage must be in (0,1], got %v", c.Shrinkage)
	case c.NTrees < 1:
		return cfgErr("n_trees must be >= 1, got %d", c.NTrees)
	}
	return nil
}

// TreeConfig is the per-tree view of column selection: columns maps a
// selected column's position to its original feature id, and IsSeq is
// indexed the same way (true selects sequential search, false set
// search).
type TreeConfig struct {
	Iteration  int
	TreeIndex  int
	Columns    []int32
	NumCols    int
	IsSeq      []bool
}

// FeatureID translates a selected-column position to its original
// feature id.
func (tc *TreeConfig) FeatureID(selected int) int32 { return tc.Columns[selected] }
