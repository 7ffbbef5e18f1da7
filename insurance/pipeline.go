package insurance

import (
	"time"

	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/preprocessing"
	"github.com/ezoic/medcost/sklearn/model_selection"
)

// Options configures Preprocess. Zero fields take the defaults.
type Options struct {
	Target         string   // default "charges"
	TestSize       float64  // default 0.2
	Seed           uint64   // default 42; use SeedSet to request seed 0
	SeedSet        bool     // Seed is used as given, even when 0
	NumericColumns []string // default age, bmi, children
}

// DefaultOptions returns the options used by the original training run.
func DefaultOptions() Options {
	return Options{
		Target:         TargetColumn,
		TestSize:       model_selection.DefaultTestSize,
		Seed:           model_selection.DefaultSeed,
		SeedSet:        true,
		NumericColumns: append([]string{}, NumericColumns...),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Target == "" {
		o.Target = d.Target
	}
	if o.TestSize == 0 {
		o.TestSize = d.TestSize
	}
	if !o.SeedSet && o.Seed == 0 {
		o.Seed = d.Seed
	}
	if len(o.NumericColumns) == 0 {
		o.NumericColumns = d.NumericColumns
	}
	return o
}

// Split is the output of the preprocessing pipeline.
type Split struct {
	XTrain, XTest *Frame
	YTrain, YTest *mat.VecDense
	// Scaler was fit on the numeric columns of XTrain only.
	Scaler *preprocessing.StandardScaler
}

// SplitFeaturesTarget separates target from the remaining columns.
// A frame with no column besides target has no features and wraps ErrEmptyData.
func SplitFeaturesTarget(f *Frame, target string) (*Frame, *mat.VecDense, error) {
	y, err := f.Column(target)
	if err != nil {
		return nil, nil, err
	}
	if f.Width() < 2 {
		return nil, nil, medErrors.Wrapf(medErrors.ErrEmptyData, "no feature columns besides %q", target)
	}
	X, err := f.Drop(target)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// SplitTrainTest partitions X and y with a seeded shuffle.
func SplitTrainTest(X *Frame, y *mat.VecDense, testSize float64, seed uint64) (
	XTrain, XTest *Frame, yTrain, yTest *mat.VecDense, err error,
) {
	if y.Len() != X.Len() {
		return nil, nil, nil, nil, medErrors.NewDimensionError("SplitTrainTest", X.Len(), y.Len(), 0)
	}
	train, test, err := model_selection.TrainTestSplit(X.Len(), testSize, seed)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	XTrain, XTest = X.Rows(train), X.Rows(test)
	return XTrain, XTest, takeVec(y, train), takeVec(y, test), nil
}

func takeVec(y *mat.VecDense, idx []int) *mat.VecDense {
	if len(idx) == 0 {
		return &mat.VecDense{}
	}
	out := mat.NewVecDense(len(idx), nil)
	for i, row := range idx {
		out.SetVec(i, y.AtVec(row))
	}
	return out
}

// ScaleNumericFeatures fits a StandardScaler on the numeric columns of XTrain and
// applies it to both frames. XTest never contributes to the fitted statistics.
func ScaleNumericFeatures(XTrain, XTest *Frame, numeric []string) (
	trainScaled, testScaled *Frame, scaler *preprocessing.StandardScaler, err error,
) {
	trainNum, err := XTrain.Select(numeric...)
	if err != nil {
		return nil, nil, nil, err
	}
	testNum, err := XTest.Select(numeric...)
	if err != nil {
		return nil, nil, nil, err
	}

	scaler = preprocessing.NewStandardScalerDefault()
	scaledTrain, err := scaler.FitTransform(trainNum.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	scaler.FeatureNames = append([]string{}, numeric...)

	if trainScaled, err = XTrain.ReplaceColumns(numeric, scaledTrain); err != nil {
		return nil, nil, nil, err
	}

	if testNum.Len() == 0 {
		return trainScaled, XTest, scaler, nil
	}
	scaledTest, err := scaler.Transform(testNum.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	if testScaled, err = XTest.ReplaceColumns(numeric, scaledTest); err != nil {
		return nil, nil, nil, err
	}
	return trainScaled, testScaled, scaler, nil
}

// SplitBySmoker partitions an encoded frame by its smoker indicator.
// Both results are renumbered from 0.
func SplitBySmoker(f *Frame) (smokers, nonsmokers *Frame, err error) {
	j := f.ColumnIndex(ColSmoker)
	if j < 0 {
		return nil, nil, missingColumn(ColSmoker)
	}
	smokers = f.Where(func(row []float64) bool { return row[j] == 1 })
	nonsmokers = f.Where(func(row []float64) bool { return row[j] == 0 })
	return smokers, nonsmokers, nil
}

// Preprocess runs split-features-target, train/test split and numeric scaling
// on an encoded frame.
func Preprocess(f *Frame, opts Options) (_ *Split, err error) {
	defer medErrors.Recover(&err, "Preprocess")
	opts = opts.withDefaults()
	start := time.Now()

	X, y, err := SplitFeaturesTarget(f, opts.Target)
	if err != nil {
		return nil, err
	}
	XTrain, XTest, yTrain, yTest, err := SplitTrainTest(X, y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	XTrain, XTest, scaler, err := ScaleNumericFeatures(XTrain, XTest, opts.NumericColumns)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("insurance").Debug("Preprocessing completed",
		log.OperationKey, log.OperationTransform,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, f.Len(),
		"train", XTrain.Len(),
		"test", XTest.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &Split{
		XTrain: XTrain,
		XTest:  XTest,
		YTrain: yTrain,
		YTest:  yTest,
		Scaler: scaler,
	}, nil
}

// PreprocessPipeline loads the CSV at path, encodes it and runs Preprocess.
func PreprocessPipeline(path string, opts Options) (*Split, error) {
	ds, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	f, err := ds.Encode()
	if err != nil {
		return nil, err
	}
	return Preprocess(f, opts)
}
