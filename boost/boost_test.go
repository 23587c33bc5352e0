package boost

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/split"
)

func synthData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 10
		X[i] = []float64{x0, x1}
		y[i] = x0*2 - x1 + rng.NormFloat64()*0.1
	}
	return X, y
}

func TestGBMFitMonotoneImprovement(t *testing.T) {
	X, y := synthData(200, 1)

	gbm, err := NewGBM(
		WithNTrees(10),
		WithMaxDepth(3),
		WithMaxLeaves(8),
		WithShrinkage(0.3),
		WithSeed(7),
	)
	require.NoError(t, err)

	model, err := gbm.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)
	require.Len(t, model.TrainLoss, 10)

	for i := 1; i < len(model.TrainLoss); i++ {
		assert.LessOrEqual(t, model.TrainLoss[i], model.TrainLoss[i-1]+1e-9)
	}
}

func TestGBMFitDeterministic(t *testing.T) {
	X, y := synthData(120, 2)

	opts := []BoostOption{WithNTrees(5), WithMaxDepth(3), WithSeed(42)}

	g1, err := NewGBM(opts...)
	require.NoError(t, err)
	m1, err := g1.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	g2, err := NewGBM(opts...)
	require.NoError(t, err)
	m2, err := g2.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	p1, err := m1.Predict(X)
	require.NoError(t, err)
	p2, err := m2.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestGBMPredictImprovesOverBaseScore(t *testing.T) {
	X, y := synthData(150, 3)

	gbm, err := NewGBM(WithNTrees(15), WithMaxDepth(4), WithMaxLeaves(16), WithShrinkage(0.3), WithSeed(9))
	require.NoError(t, err)
	model, err := gbm.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	pred, err := model.Predict(X)
	require.NoError(t, err)

	var baseErr, modelErr float64
	for i := range y {
		baseErr += (y[i] - model.BaseScore) * (y[i] - model.BaseScore)
		modelErr += (y[i] - pred[i]) * (y[i] - pred[i])
	}
	assert.Less(t, modelErr, baseErr)
}

func TestGBMModelSaveLoadRoundTrip(t *testing.T) {
	X, y := synthData(60, 4)
	gbm, err := NewGBM(WithNTrees(3), WithMaxDepth(2), WithSeed(1))
	require.NoError(t, err)
	model, err := gbm.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.Save(&buf))

	loaded := &GBMModel{}
	require.NoError(t, loaded.Load(&buf))

	want, err := model.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGBMFitCallbackStopsEarly(t *testing.T) {
	X, y := synthData(80, 5)

	var calls []int
	cb := Callback(func(iter int, trainLoss float64) bool {
		calls = append(calls, iter)
		return iter == 3
	})

	gbm, err := NewGBM(WithNTrees(10), WithMaxDepth(2), WithCallback(cb))
	require.NoError(t, err)
	model, err := gbm.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, 3, model.Iterations)
	assert.Len(t, model.Trees, 3)
}

func TestGBMModelFeatureImportanceFavorsInformativeColumn(t *testing.T) {
	X, y := synthData(300, 6)

	gbm, err := NewGBM(WithNTrees(10), WithMaxDepth(3), WithMaxLeaves(8), WithShrinkage(0.3), WithSeed(11))
	require.NoError(t, err)
	model, err := gbm.Fit(context.Background(), X, y, SquaredError{})
	require.NoError(t, err)

	imp := model.FeatureImportance()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], 0.0)
	assert.Greater(t, imp[0], imp[1], "x0 carries twice x1's coefficient in synthData and should accumulate more gain")
}

func TestLearningNodeDepthAndIDs(t *testing.T) {
	assert.Equal(t, uint64(2), LeftChildID(1))
	assert.Equal(t, uint64(3), RightChildID(1))
	assert.Equal(t, uint64(1), ParentID(2))
	assert.Equal(t, 1, Depth(1))
	assert.Equal(t, 2, Depth(2))
	assert.Equal(t, 2, Depth(3))
	assert.Equal(t, 3, Depth(4))
}

func TestBoostConfigValidateRejectsBadValues(t *testing.T) {
	_, err := NewBoostConfig(WithMaxDepth(0))
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewBoostConfig(WithShrinkage(0))
	assert.Error(t, err)

	_, err = NewBoostConfig(WithColSampleByLevel(1.5))
	assert.Error(t, err)
}

type fakeSplit struct {
	feature   int32
	threshold discretize.BinId
}

func (s *fakeSplit) FeatureID() int32  { return s.feature }
func (s *fakeSplit) Gain() float64     { return 1 }
func (s *fakeSplit) Stats() [6]float64 { return [6]float64{} }
func (s *fakeSplit) GoLeft(bin discretize.BinId) bool {
	return bin <= s.threshold
}
func (s *fakeSplit) Kind() split.Kind { return split.KindSeq }

func TestTreeModelPredictMatchesLeafPrediction(t *testing.T) {
	root := newRoot()
	s := &fakeSplit{feature: 0, threshold: 1}
	root.applySplit(s)
	root.Left.Prediction = -1
	root.Right.Prediction = 1

	m := materialize(root, []int32{0, 1})
	assert.Equal(t, -1.0, m.Predict([]discretize.BinId{1}))
	assert.Equal(t, 1.0, m.Predict([]discretize.BinId{2}))
	assert.Equal(t, 2, m.NumLeaves())
}
