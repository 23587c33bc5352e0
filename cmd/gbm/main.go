package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/davecheney/profile"

	flag "github.com/docker/docker/pkg/mflag"
)

var (
	// model/prediction files
	dataFile    = flag.String([]string{"d", "-data"}, "", "example data")
	predictFile = flag.String([]string{"p", "-predictions"}, "", "file to output predictions")
	modelFile   = flag.String([]string{"f", "-final_model"}, "gbm.model", "file to output fitted model")
	impFile     = flag.String([]string{"-var_importance"}, "", "file to output variable importance estimates")
	// model params
	nTrees           = flag.Int([]string{"-trees"}, 100, "number of boosting iterations")
	maxDepth         = flag.Int([]string{"-max_depth"}, 6, "maximum tree depth")
	maxLeaves        = flag.Int([]string{"-max_leaves"}, 64, "maximum leaves per tree")
	shrinkage        = flag.Float64([]string{"-shrinkage"}, 0.1, "learning rate applied to each tree")
	regLambda        = flag.Float64([]string{"-reg_lambda"}, 1.0, "L2 regularization")
	regAlpha         = flag.Float64([]string{"-reg_alpha"}, 0.0, "L1 regularization")
	colSampleByLevel = flag.Float64([]string{"-col_sample_by_level"}, 1.0, "fraction of columns sampled per tree level")
	maxBins          = flag.Int([]string{"-max_bins"}, 32, "maximum bins per feature column")
	seed             = flag.Int64([]string{"-seed"}, 0, "random seed")
	// force classification
	forceClf = flag.Bool([]string{"c", "-classification"}, false, "force parser to use string targets/labels for binary classification")
	// runtime params
	runProfile = flag.Bool([]string{"-profile"}, false, "cpu profile")
)

func parseModelOpts() modelOptions {
	return modelOptions{
		nTrees:           *nTrees,
		maxDepth:         *maxDepth,
		maxLeaves:        int64(*maxLeaves),
		shrinkage:        *shrinkage,
		regLambda:        *regLambda,
		regAlpha:         *regAlpha,
		colSampleByLevel: *colSampleByLevel,
		maxBins:          *maxBins,
		seed:             *seed,
	}
}

func main() {
	flag.Parse()

	if *runProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if *dataFile == "" {
		fmt.Fprintf(os.Stderr, "Usage of gbm:\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*dataFile)
	if err != nil {
		fatal("error opening data file", err.Error())
	}
	defer f.Close()

	d, err := parseCSV(f, *forceClf)
	if err != nil {
		fatal("error parsing input data", err.Error())
	}

	if *predictFile != "" {
		m, err := loadModel(*modelFile)
		if err != nil {
			fatal("error opening model file", err.Error())
		}

		pred, err := m.Predict(d)
		if err != nil {
			fatal(err.Error())
		}

		o, err := os.Create(*predictFile)
		if err != nil {
			fatal("error creating", *predictFile, err.Error())
		}
		defer o.Close()

		if err := writePred(o, pred); err != nil {
			fatal("error writing predictions", err.Error())
		}
		os.Exit(0)
	}

	opt := parseModelOpts()

	m := new(Model)
	if err := m.Fit(d, opt); err != nil {
		fatal("error fitting model", err.Error())
	}

	o, err := os.Create(*modelFile)
	if err != nil {
		fatal("error saving model", err.Error())
	}
	defer o.Close()

	if err := m.Save(o); err != nil {
		fatal("error saving model", err.Error())
	}

	if *impFile != "" {
		f, err := os.Create(*impFile)
		if err != nil {
			fatal("error saving variable importance", err.Error())
		}
		defer f.Close()
		if err := m.SaveVarImp(f); err != nil {
			fatal("error saving variable importance", err.Error())
		}
	}

	m.Report(os.Stderr)
}

func loadModel(fName string) (*Model, error) {
	f, err := os.Open(fName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := new(Model)
	err = m.Load(f)
	return m, err
}

func fatal(a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(1)
}

func writePred(w io.Writer, prediction []string) error {
	wtr := bufio.NewWriter(w)

	for _, pred := range prediction {
		if _, err := wtr.WriteString(pred); err != nil {
			return err
		}
		if err := wtr.WriteByte('\n'); err != nil {
			return err
		}
	}

	return wtr.Flush()
}
