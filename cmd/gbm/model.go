package main

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/BinbinSongg/SparkGBM/boost"
)

type modelOptions struct {
	nTrees           int
	maxDepth         int
	maxLeaves        int64
	shrinkage        float64
	regLambda        float64
	regAlpha         float64
	colSampleByLevel float64
	maxBins          int
	seed             int64
}

// Model wraps a boost.GBMModel with the CLI-facing bookkeeping the
// teacher's random-forest Model carries: fit timing, sample count, and
// label decoding for classification targets.
type Model struct {
	IsRegression bool
	GBM          *boost.GBMModel
	Classes      []string
	VarNames     []string
	fitTime      time.Duration
	opt          modelOptions
	nSample      int
}

func (m *Model) Fit(d *parsedInput, opt modelOptions) error {
	start := time.Now()

	gbm, err := boost.NewGBM(
		boost.WithNTrees(opt.nTrees),
		boost.WithMaxDepth(opt.maxDepth),
		boost.WithMaxLeaves(opt.maxLeaves),
		boost.WithShrinkage(opt.shrinkage),
		boost.WithRegLambda(opt.regLambda),
		boost.WithRegAlpha(opt.regAlpha),
		boost.WithColSampleByLevel(opt.colSampleByLevel),
		boost.WithMaxBins(opt.maxBins),
		boost.WithSeed(opt.seed),
	)
	if err != nil {
		return err
	}

	var loss boost.Loss = boost.SquaredError{}
	if !d.IsRegression {
		loss = boost.LogLoss{}
	}

	gbmModel, err := gbm.Fit(context.Background(), d.X, d.Y, loss)
	if err != nil {
		return err
	}

	m.GBM = gbmModel
	m.IsRegression = d.IsRegression
	m.Classes = d.Classes
	m.VarNames = d.VarNames
	m.fitTime = time.Since(start)
	m.nSample = len(d.X)
	m.opt = opt
	return nil
}

func (m *Model) Predict(d *parsedInput) ([]string, error) {
	pred, err := m.GBM.Predict(d.X)
	if err != nil {
		return nil, err
	}

	pStr := make([]string, len(pred))
	if m.IsRegression {
		for i, v := range pred {
			pStr[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return pStr, nil
	}

	for i, v := range pred {
		idx := 0
		if 1/(1+math.Exp(-v)) > 0.5 {
			idx = 1
		}
		pStr[i] = m.Classes[idx]
	}
	return pStr, nil
}

func (m *Model) Report(w io.Writer) {
	fmt.Fprintf(w, "Fit %d trees (%d iterations reached) using %d examples in %.2f seconds\n",
		m.opt.nTrees, m.GBM.Iterations, m.nSample, m.fitTime.Seconds())
	fmt.Fprintf(w, "\n")

	n := len(m.GBM.TrainLoss)
	if n > 0 {
		fmt.Fprintf(w, "Training loss (%s): first=%.4f last=%.4f\n", m.GBM.LossName, m.GBM.TrainLoss[0], m.GBM.TrainLoss[n-1])
	}
	fmt.Fprintf(w, "\n")
	m.ReportVarImp(w, len(m.VarNames))
}

// VarImp returns total split gain per feature, in m.VarNames order.
func (m *Model) VarImp() []float64 {
	return m.GBM.FeatureImportance()
}

// SaveVarImp writes VarImp as name,score CSV rows, matching the teacher's
// SaveVarImp convention.
func (m *Model) SaveVarImp(w io.Writer) error {
	writer := csv.NewWriter(w)

	for i, score := range m.VarImp() {
		if err := writer.Write([]string{m.VarNames[i], strconv.FormatFloat(score, 'f', -1, 64)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReportVarImp prints the top maxVars features by descending gain.
func (m *Model) ReportVarImp(w io.Writer, maxVars int) {
	fmt.Fprintf(w, "Variable Importance\n")
	fmt.Fprintf(w, "-------------------\n")

	varImp := m.VarImp()
	varNames := make([]string, len(m.VarNames))
	copy(varNames, m.VarNames) // don't sort the orig.
	sortByImportance(varImp, varNames)

	if maxVars > len(varImp) {
		maxVars = len(varImp)
	}

	for i, imp := range varImp[:maxVars] {
		fmt.Fprintf(w, "%-15s: %-10.2f\n", varNames[i], imp)
	}
	fmt.Fprintf(w, "\n")
}

type varImpSort struct {
	varName []string
	imp     []float64
}

func (v varImpSort) Len() int { return len(v.imp) }

func (v varImpSort) Less(i, j int) bool { return v.imp[i] < v.imp[j] }

func (v varImpSort) Swap(i, j int) {
	v.imp[i], v.imp[j] = v.imp[j], v.imp[i]
	v.varName[i], v.varName[j] = v.varName[j], v.varName[i]
}

func sortByImportance(imp []float64, names []string) {
	sort.Sort(sort.Reverse(varImpSort{imp: imp, varName: names}))
}

func (m *Model) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(m)
}

func (m *Model) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(m)
}
