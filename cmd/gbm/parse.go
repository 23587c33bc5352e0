package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// parsedInput is the CSV-ingested training set: feature matrix X, a
// real-valued target y (classification targets are label-encoded into
// {0,1} before reaching the boosting core, which only ever fits a single
// real-valued GBM), and the column header for reporting.
type parsedInput struct {
	IsRegression bool
	X            [][]float64
	Y            []float64
	Classes      []string // empty when IsRegression
	VarNames     []string
}

// parseCSV reads a label/target column followed by numeric feature
// columns, auto-detecting regression vs. classification the way the
// teacher's parser does: numeric targets are regression until one fails
// to parse as a float, at which point every row is treated as a label.
// forceClf skips the auto-detection and always treats column 0 as a label.
func parseCSV(r io.Reader, forceClf bool) (*parsedInput, error) {
	reader := csv.NewReader(r)

	p := &parsedInput{IsRegression: !forceClf}
	var labels []string

	row, err := reader.Read()
	if err != nil {
		return p, err
	}

	varNames, herr := parseHeader(row)
	if herr == nil {
		p.VarNames = varNames
	} else {
		for i := range row[1:] {
			p.VarNames = append(p.VarNames, fmt.Sprintf("X%d", i+1))
		}
		if err := p.parseRow(row, &labels); err != nil {
			return p, err
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, err
		}
		if err := p.parseRow(row, &labels); err != nil {
			return p, err
		}
	}

	if !p.IsRegression {
		if err := p.encodeLabels(labels); err != nil {
			return p, err
		}
	}

	return p, nil
}

func (p *parsedInput) parseRow(row []string, labels *[]string) error {
	xi, err := parseFeatureVals(row)
	if err != nil {
		return err
	}
	p.X = append(p.X, xi)

	if p.IsRegression {
		yi, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			p.IsRegression = false
		} else {
			p.Y = append(p.Y, yi)
		}
	}
	*labels = append(*labels, row[0])

	return nil
}

// encodeLabels label-encodes a binary classification target into {0,1},
// ordering classes by first occurrence; more than two distinct labels is
// rejected since the core fits a single GBM under LogLoss.
func (p *parsedInput) encodeLabels(labels []string) error {
	seen := make(map[string]int)
	var classes []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = len(classes)
			classes = append(classes, l)
		}
	}
	if len(classes) > 2 {
		sort.Strings(classes)
		return fmt.Errorf("gbm: classification target has %d classes %v, only binary targets are supported", len(classes), classes)
	}
	p.Classes = classes
	p.Y = make([]float64, len(labels))
	for i, l := range labels {
		p.Y[i] = float64(seen[l])
	}
	return nil
}

func parseFeatureVals(row []string) ([]float64, error) {
	var xi []float64
	if len(row) < 2 {
		return xi, errors.New("row only has one column")
	}
	for _, val := range row[1:] {
		fv, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return xi, err
		}
		xi = append(xi, fv)
	}
	return xi, nil
}

func parseHeader(row []string) ([]string, error) {
	colNames := []string{}

	if len(row) > 1 {
		for _, val := range row[1:] {
			if _, err := strconv.ParseFloat(val, 64); err == nil {
				return colNames, errors.New("not a header row")
			}
			colNames = append(colNames, val)
		}
	}

	return colNames, nil
}
