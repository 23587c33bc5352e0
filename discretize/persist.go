package discretize

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// DiscretizerRow is the persisted columnar-row form of one column's fitted
// ColDiscretizer: one row per feature, `doubles`/`ints` populated per
// Type as described in §6's interoperability layout.
type DiscretizerRow struct {
	FeatureIndex int32
	Type         DiscretizerKind
	Doubles      []float64
	Ints         []int32
}

// toRow flattens a named, indexed ColDiscretizer into its row form.
//   - quantile: doubles = splits, ints = []
//   - interval: doubles = [start, step], ints = [num_bins]
//   - cat: doubles = [], ints = categories sorted by their assigned bin
//   - rank: doubles = [], ints = sorted values
func toRow(featureIndex int32, d ColDiscretizer) (DiscretizerRow, error) {
	row := DiscretizerRow{FeatureIndex: featureIndex, Type: d.Kind()}
	switch v := d.(type) {
	case *QuantileDiscretizer:
		row.Doubles = v.Splits
	case *IntervalDiscretizer:
		row.Doubles = []float64{v.Start, v.Step}
		row.Ints = []int32{int32(v.Bins)}
	case *CategoricalDiscretizer:
		g := v.toGob()
		cats := make([]int32, g.NumBins)
		for i, k := range g.Keys {
			cats[g.Bins[i]-1] = int32(k)
		}
		row.Ints = cats
	case *RankDiscretizer:
		ints := make([]int32, len(v.values))
		for i, val := range v.values {
			ints[i] = int32(val)
		}
		row.Ints = ints
	default:
		return DiscretizerRow{}, fmt.Errorf("discretize: unknown ColDiscretizer concrete type %T", d)
	}
	return row, nil
}

// fromRow reconstructs the ColDiscretizer a row describes.
func fromRow(row DiscretizerRow) (ColDiscretizer, error) {
	switch row.Type {
	case KindQuantile:
		return &QuantileDiscretizer{Splits: row.Doubles}, nil
	case KindInterval:
		if len(row.Doubles) != 2 || len(row.Ints) != 1 {
			return nil, fmt.Errorf("discretize: malformed interval row for feature %d", row.FeatureIndex)
		}
		return &IntervalDiscretizer{Start: row.Doubles[0], Step: row.Doubles[1], Bins: int(row.Ints[0])}, nil
	case KindCategorical:
		bin := make(map[int64]BinId, len(row.Ints))
		for i, k := range row.Ints {
			bin[int64(k)] = BinId(i + 1)
		}
		return &CategoricalDiscretizer{bin: bin, numBins: len(row.Ints)}, nil
	case KindRank:
		values := make([]int64, len(row.Ints))
		for i, v := range row.Ints {
			values[i] = int64(v)
		}
		return &RankDiscretizer{values: values}, nil
	default:
		return nil, fmt.Errorf("discretize: unknown DiscretizerKind %d in persisted row", row.Type)
	}
}

// ColumnStore persists and retrieves the flat row form of a Discretizer.
// The canonical implementation (FileColumnStore) round-trips through
// encoding/gob on the local filesystem; callers may supply another
// implementation (e.g. backed by a columnar object store) behind the same
// interface.
type ColumnStore interface {
	WriteRows(rows []DiscretizerRow) error
	ReadRows() ([]DiscretizerRow, error)
}

// FileColumnStore is a ColumnStore backed by a single gob-encoded file.
type FileColumnStore struct {
	Path string
}

func (s FileColumnStore) WriteRows(rows []DiscretizerRow) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rows); err != nil {
		return fmt.Errorf("discretize: encode rows: %w", err)
	}
	return os.WriteFile(s.Path, buf.Bytes(), 0o644)
}

func (s FileColumnStore) ReadRows() ([]DiscretizerRow, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("discretize: read rows: %w", err)
	}
	var rows []DiscretizerRow
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("discretize: decode rows: %w", err)
	}
	return rows, nil
}

// Save flattens d to rows, feature_index assigned by column position, and
// writes them through store. The invariant that feature_index forms the
// contiguous range [0, N-1] with no duplicates holds by construction.
func (d *Discretizer) Save(store ColumnStore) error {
	rows := make([]DiscretizerRow, len(d.Cols))
	for i, col := range d.Cols {
		row, err := toRow(int32(i), col)
		if err != nil {
			return err
		}
		rows[i] = row
	}
	return store.WriteRows(rows)
}

// Load reads rows from store and reconstructs a Discretizer, ordering
// columns by feature_index. Names are not part of the persisted layout
// and are left blank; callers that need names track them separately.
func Load(store ColumnStore) (*Discretizer, error) {
	rows, err := store.ReadRows()
	if err != nil {
		return nil, err
	}
	cols := make([]ColDiscretizer, len(rows))
	names := make([]string, len(rows))
	for _, row := range rows {
		if row.FeatureIndex < 0 || int(row.FeatureIndex) >= len(rows) {
			return nil, fmt.Errorf("discretize: feature_index %d out of range [0,%d)", row.FeatureIndex, len(rows))
		}
		col, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		cols[row.FeatureIndex] = col
	}
	return &Discretizer{Names: names, Cols: cols}, nil
}
