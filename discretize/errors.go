package discretize

import "errors"

// ErrCardinalityOverflow is returned by CatAgg/RankAgg.Update when a column
// observes more distinct values than max_bins allows.
var ErrCardinalityOverflow = errors.New("discretize: column cardinality exceeds max_bins")

// ErrUnknownCategory is returned by a Categorical or Rank ColDiscretizer's
// Transform when the value was never observed during fitting.
var ErrUnknownCategory = errors.New("discretize: value not seen during fit")

// ConfigError reports an invalid aggregator or dataset-fit configuration,
// surfaced before any work starts.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "discretize: " + e.msg }

func newConfigError(msg string) error { return &ConfigError{msg: msg} }
