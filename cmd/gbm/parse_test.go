package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVDetectsRegression(t *testing.T) {
	r := strings.NewReader(bostonCSV)

	p, err := parseCSV(r, false)
	require.NoError(t, err)

	assert.True(t, p.IsRegression)
	assert.Empty(t, p.Classes)
	assert.Equal(t, "crim", p.VarNames[0])
	require.Len(t, p.X, 9)
	assert.Len(t, p.X[0], 13)
	assert.Equal(t, 33.4, p.Y[3])
}

func TestParseCSVDetectsClassification(t *testing.T) {
	r := strings.NewReader(irisBinaryCSV)

	p, err := parseCSV(r, false)
	require.NoError(t, err)

	assert.False(t, p.IsRegression)
	assert.Equal(t, "Sepal.Length", p.VarNames[0])
	require.Len(t, p.X, 9)
	assert.Len(t, p.X[0], 4)
	assert.ElementsMatch(t, []string{"setosa", "virginica"}, p.Classes)
	assert.Equal(t, 1.0, p.Y[4], "5th row (virginica) must encode to the second-seen class")
}

func TestParseCSVForceClassification(t *testing.T) {
	// numeric 0/1 targets would auto-detect as regression; forcing makes
	// them labels
	r := strings.NewReader("y,x1,x2\n0,1.5,2\n1,2.5,3\n0,3.5,4\n")

	p, err := parseCSV(r, true)
	require.NoError(t, err)
	assert.False(t, p.IsRegression)
}

func TestParseCSVRejectsMoreThanTwoClasses(t *testing.T) {
	r := strings.NewReader(irisThreeClassCSV)

	_, err := parseCSV(r, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only binary targets are supported")
}

func TestEncodeLabelsOrdersByFirstOccurrence(t *testing.T) {
	p := &parsedInput{}
	err := p.encodeLabels([]string{"b", "a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, p.Classes)
	assert.Equal(t, []float64{0, 1, 0, 1}, p.Y)
}

func TestParseFeatureValsRejectsNonNumeric(t *testing.T) {
	_, err := parseFeatureVals([]string{"label", "1.0", "oops"})
	assert.Error(t, err)
}

var bostonCSV = `"medv","crim","zn","indus","chas","nox","rm","age","dis","rad","tax","ptratio","black","lstat"
24,0.00632,18,2.31,0,0.538,6.575,65.2,4.09,1,296,15.3,396.9,4.98
21.6,0.02731,0,7.07,0,0.469,6.421,78.9,4.9671,2,242,17.8,396.9,9.14
34.7,0.02729,0,7.07,0,0.469,7.185,61.1,4.9671,2,242,17.8,392.83,4.03
33.4,0.03237,0,2.18,0,0.458,6.998,45.8,6.0622,3,222,18.7,394.63,2.94
36.2,0.06905,0,2.18,0,0.458,7.147,54.2,6.0622,3,222,18.7,396.9,5.33
28.7,0.02985,0,2.18,0,0.458,6.43,58.7,6.0622,3,222,18.7,394.12,5.21
22.9,0.08829,12.5,7.87,0,0.524,6.012,66.6,5.5605,5,311,15.2,395.6,12.43
27.1,0.14455,12.5,7.87,0,0.524,6.172,96.1,5.9505,5,311,15.2,396.9,19.15
16.5,0.21124,12.5,7.87,0,0.524,5.631,100,6.0821,5,311,15.2,386.63,29.93
`

var irisBinaryCSV = `"Species","Sepal.Length","Sepal.Width","Petal.Length","Petal.Width"
"setosa",5.1,3.5,1.4,0.2
"setosa",4.9,3,1.4,0.2
"setosa",4.7,3.2,1.3,0.2
"setosa",4.6,3.1,1.5,0.2
"virginica",5,3.6,1.4,0.2
"setosa",5.4,3.9,1.7,0.4
"setosa",4.6,3.4,1.4,0.3
"setosa",5,3.4,1.5,0.2
"setosa",4.4,2.9,1.4,0.2
`

var irisThreeClassCSV = `"Species","Sepal.Length","Sepal.Width","Petal.Length","Petal.Width"
"setosa",5.1,3.5,1.4,0.2
"virginica",5,3.6,1.4,0.2
"versicolor",6.1,2.8,4.7,1.2
`
