package boost

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/BinbinSongg/SparkGBM/checkpoint"
	"github.com/BinbinSongg/SparkGBM/discretize"
	"github.com/BinbinSongg/SparkGBM/histogram"
	"github.com/BinbinSongg/SparkGBM/pardata"
	"github.com/BinbinSongg/SparkGBM/split"
)

func init() {
	gob.Register(&split.SeqSplit{})
	gob.Register(&split.SetSplit{})
}

// Loss is the one opaque external collaborator the boosting driver needs:
// a differentiable objective supplying per-instance gradient/hessian pairs
// and an initial base score. SquaredError and LogLoss are minimal concrete
// implementations, not a general loss-function library.
type Loss interface {
	Name() string
	BaseScore(y []float64) float64
	Gradients(y, pred []float64) (grad, hess []float64)
	Eval(y, pred []float64) float64
}

// SquaredError fits pred toward y under 1/2*(pred-y)^2.
type SquaredError struct{}

func (SquaredError) Name() string { return "squared_error" }

func (SquaredError) BaseScore(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func (SquaredError) Gradients(y, pred []float64) (grad, hess []float64) {
	grad = make([]float64, len(y))
	hess = make([]float64, len(y))
	for i := range y {
		grad[i] = pred[i] - y[i]
		hess[i] = 1
	}
	return grad, hess
}

func (SquaredError) Eval(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		d := pred[i] - y[i]
		sum += d * d
	}
	if len(y) == 0 {
		return 0
	}
	return sum / (2 * float64(len(y)))
}

// LogLoss fits pred (interpreted as log-odds) toward binary targets y in
// {0,1} under negative log-likelihood.
type LogLoss struct{}

func (LogLoss) Name() string { return "log_loss" }

func (LogLoss) BaseScore(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	p := sum / float64(len(y))
	p = math.Min(math.Max(p, 1e-6), 1-1e-6)
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func (LogLoss) Gradients(y, pred []float64) (grad, hess []float64) {
	grad = make([]float64, len(y))
	hess = make([]float64, len(y))
	for i := range y {
		p := sigmoid(pred[i])
		grad[i] = p - y[i]
		hess[i] = math.Max(p*(1-p), 1e-6)
	}
	return grad, hess
}

func (LogLoss) Eval(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		p := sigmoid(pred[i])
		p = math.Min(math.Max(p, 1e-12), 1-1e-12)
		sum -= y[i]*math.Log(p) + (1-y[i])*math.Log(1-p)
	}
	if len(y) == 0 {
		return 0
	}
	return sum / float64(len(y))
}

// Callback mirrors the training-time callback collaborator (early
// stopping, external checkpointing) named out of scope in the core's
// contract: it is invoked with the current iteration and training loss
// after every tree, and stops the loop early when it returns true.
type Callback func(iter int, trainLoss float64) (stop bool)

// GBM is the boosting orchestrator: it owns BoostConfig and drives the
// sequential per-tree loop that the Tree Builder and Split Finder don't
// know anything about.
type GBM struct {
	cfg *BoostConfig
}

// NewGBM applies opts over BoostConfig's defaults, in the teacher's
// functional-options configer idiom.
func NewGBM(opts ...BoostOption) (*GBM, error) {
	cfg, err := NewBoostConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &GBM{cfg: cfg}, nil
}

// GBMModel is the ambient addition the distilled spec treats as out of
// scope for the core proper: the trained ensemble plus enough bookkeeping
// to predict and to round-trip via encoding/gob, matching the teacher's
// Classifier.Save/Load convention.
type GBMModel struct {
	Trees       []*TreeModel
	Shrinkage   float64
	Discretizer *discretize.Discretizer
	Columns     []int32 // selected-to-original column map
	BaseScore   float64
	LossName    string
	Iterations  int
	FitDuration time.Duration
	TrainLoss   []float64
}

// Save serializes the model using encoding/gob to an io.Writer.
func (m *GBMModel) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(m)
}

// Load deserializes a model using encoding/gob from an io.Reader.
func (m *GBMModel) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(m)
}

// Fit trains NTrees trees sequentially against X/y under loss, discretizing
// X once up front and reusing the bin vectors for every boosting iteration.
func (g *GBM) Fit(ctx context.Context, X [][]float64, y []float64, loss Loss) (*GBMModel, error) {
	start := time.Now()
	if len(X) != len(y) {
		return nil, fmt.Errorf("boost: X has %d rows but y has %d", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("boost: cannot fit on an empty dataset")
	}
	numCols := len(X[0])

	isCat := make(map[int32]bool, len(g.cfg.CatColumns))
	for _, c := range g.cfg.CatColumns {
		isCat[c] = true
	}
	isRank := make(map[int32]bool, len(g.cfg.RankColumns))
	for _, c := range g.cfg.RankColumns {
		isRank[c] = true
	}
	var numKind discretize.NumericalBinKind
	if g.cfg.NumericalBinKind == "width" {
		numKind = discretize.Width
	} else {
		numKind = discretize.Depth
	}

	specs := make([]discretize.ColumnSpec, numCols)
	columns := make([]int32, numCols)
	isSeq := make([]bool, numCols)
	for i := 0; i < numCols; i++ {
		fid := int32(i)
		columns[i] = fid
		specs[i] = discretize.ColumnSpec{
			Name:          fmt.Sprintf("f%d", i),
			MaxBins:       g.cfg.MaxBins,
			IsCategorical: isCat[fid],
			IsRank:        isRank[fid],
			NumericalKind: numKind,
		}
		isSeq[i] = !isCat[fid]
	}

	rows := pardata.NewDataset(X, defaultParallelismFor(len(X)))
	disc, err := discretize.Fit(ctx, rows, specs, g.cfg.AggregationDepth)
	if err != nil {
		return nil, err
	}

	bins := make([][]discretize.BinId, len(X))
	for i, row := range X {
		b, terr := disc.Transform(row)
		if terr != nil {
			return nil, terr
		}
		bins[i] = b
	}

	baseScore := loss.BaseScore(y)
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = baseScore
	}

	ckptDir := g.cfg.CheckpointDir

	model := &GBMModel{
		Shrinkage:   g.cfg.Shrinkage,
		Discretizer: disc,
		Columns:     columns,
		BaseScore:   baseScore,
		LossName:    loss.Name(),
	}

	for k := 0; k < g.cfg.NTrees; k++ {
		grad, hess := loss.Gradients(y, pred)

		instances := make([]histogram.Instance[float64], len(X))
		for i := range X {
			instances[i] = histogram.Instance[float64]{Grad: grad[i], Hess: hess[i], Bins: bins[i]}
		}
		instData := pardata.NewDataset(instances, defaultParallelismFor(len(instances)))

		treeCfg := &TreeConfig{
			Iteration: k,
			TreeIndex: k,
			Columns:   columns,
			NumCols:   numCols,
			IsSeq:     isSeq,
		}
		ckpt := checkpoint.New(g.cfg.CheckpointInterval, g.cfg.StorageLevel, ckptDir)

		tree, err := GrowTree[float64](ctx, instData, treeCfg, g.cfg, ckpt)
		if err != nil {
			return nil, err
		}
		model.Trees = append(model.Trees, tree)

		for i := range pred {
			pred[i] += g.cfg.Shrinkage * tree.Predict(bins[i])
		}

		trainLoss := loss.Eval(y, pred)
		model.TrainLoss = append(model.TrainLoss, trainLoss)
		model.Iterations = k + 1

		if g.cfg.Callback != nil && g.cfg.Callback(k+1, trainLoss) {
			break
		}

		select {
		case <-ctx.Done():
			model.FitDuration = time.Since(start)
			return model, ctx.Err()
		default:
		}
	}

	model.FitDuration = time.Since(start)
	return model, nil
}

// FeatureImportance reports total split gain attributed to each original
// feature column (indexed the same way as m.Columns), summed across every
// tree in the ensemble. This is the teacher's variable-importance report
// adapted from CART split improvement to gradient-boosting split gain
// (split.Split.Gain, the §4.4 regularized leaf-weight/loss formula); every
// Split already carries the Gain/FeatureID a total-gain accumulator needs.
func (m *GBMModel) FeatureImportance() []float64 {
	imp := make([]float64, len(m.Columns))
	for _, t := range m.Trees {
		t.addGainTo(imp)
	}
	return imp
}

// Predict walks every tree per Predict's leaf-weight sum, scaled by
// shrinkage, plus the model's base score.
func (m *GBMModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		bins, err := m.Discretizer.Transform(row)
		if err != nil {
			return nil, err
		}
		p := m.BaseScore
		for _, t := range m.Trees {
			p += m.Shrinkage * t.Predict(bins)
		}
		out[i] = p
	}
	return out, nil
}

// defaultParallelismFor picks a partition count proportional to dataset
// size without over-splitting tiny inputs into single-row partitions.
func defaultParallelismFor(n int) int {
	p := n / 256
	if p < 1 {
		p = 1
	}
	return p
}
