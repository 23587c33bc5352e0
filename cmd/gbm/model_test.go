package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitSyntheticModel(t *testing.T) *Model {
	t.Helper()
	d := &parsedInput{
		IsRegression: true,
		VarNames:     []string{"x0", "x1"},
	}
	for i := 0; i < 200; i++ {
		x0 := float64(i % 13)
		x1 := float64(i % 5)
		d.X = append(d.X, []float64{x0, x1})
		d.Y = append(d.Y, 2*x0-x1)
	}

	opt := modelOptions{
		nTrees:    5,
		maxDepth:  3,
		maxLeaves: 16,
		shrinkage: 0.3,
		regLambda: 1,
		maxBins:   16,
		seed:      3,
	}

	m := &Model{}
	require.NoError(t, m.Fit(d, opt))
	return m
}

func TestModelVarImpFavorsInformativeColumn(t *testing.T) {
	m := fitSyntheticModel(t)

	imp := m.VarImp()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1], "x0 carries twice x1's coefficient and should accumulate more gain")
}

func TestModelSaveVarImpWritesCSVRows(t *testing.T) {
	m := fitSyntheticModel(t)

	var buf bytes.Buffer
	require.NoError(t, m.SaveVarImp(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "x0,")
	assert.Contains(t, lines[1], "x1,")
}

func TestModelReportVarImpRanksDescending(t *testing.T) {
	m := fitSyntheticModel(t)

	var buf bytes.Buffer
	m.ReportVarImp(&buf, 2)

	out := buf.String()
	assert.True(t, strings.Index(out, "x0") < strings.Index(out, "x1"), "higher-gain feature must print first")
}
