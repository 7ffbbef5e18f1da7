// Package trainer runs the offline training that produces the segment
// artifacts loaded by the router.
//
// One run loads and encodes the dataset once, splits it by smoker status and,
// for each of the smokers, nonsmokers and all segments, preprocesses the rows,
// fits a LinearRegression, evaluates it on the held-out split and writes
// model_<segment> and scaler_<segment> to the output directory.
package trainer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/medcost/core/model"
	"github.com/ezoic/medcost/insurance"
	"github.com/ezoic/medcost/linear"
	"github.com/ezoic/medcost/metrics"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/report"
	"github.com/ezoic/medcost/router"
)

// SummaryFile is written next to the artifacts.
const SummaryFile = "training_summary.json"

// Options configures Run.
type Options struct {
	Dataset string // CSV path
	OutDir  string // artifact directory, created if missing
	PlotDir string // empty disables charts
	Format  string // router.FormatJSON (default) or router.FormatGob
	Split   insurance.Options
	Logger  log.Logger
}

func (o Options) validate() error {
	if o.Dataset == "" {
		return medErrors.NewValidationError("dataset", "must not be empty", o.Dataset)
	}
	if o.OutDir == "" {
		return medErrors.NewValidationError("out_dir", "must not be empty", o.OutDir)
	}
	switch o.Format {
	case "", router.FormatJSON, router.FormatGob:
	default:
		return medErrors.NewValidationError("format", "must be .json or .gob", o.Format)
	}
	return nil
}

// TargetStats describes the target column of the whole dataset.
type TargetStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// SegmentResult is the outcome of training one segment.
type SegmentResult struct {
	Segment    router.Segment      `json:"segment"`
	Rows       int                 `json:"rows"`
	TrainRows  int                 `json:"train_rows"`
	TestRows   int                 `json:"test_rows"`
	Intercept  float64             `json:"intercept"`
	Weights    map[string]float64  `json:"weights"`
	Evaluation *metrics.Evaluation `json:"evaluation"`
	ModelPath  string              `json:"model_path"`
	ScalerPath string              `json:"scaler_path"`
	PlotPath   string              `json:"plot_path,omitempty"`
}

// Summary is the report of a training run.
type Summary struct {
	Dataset  string          `json:"dataset"`
	Rows     int             `json:"rows"`
	Target   TargetStats     `json:"target"`
	Segments []SegmentResult `json:"segments"`
	Duration time.Duration   `json:"duration"`
}

// Segment returns the result for seg.
func (s *Summary) Segment(seg router.Segment) (SegmentResult, bool) {
	for _, r := range s.Segments {
		if r.Segment == seg {
			return r, true
		}
	}
	return SegmentResult{}, false
}

// Run trains every segment and writes its artifacts. It stops at the first
// failing segment and between segments when ctx is done.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = router.FormatJSON
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("trainer")
	}
	start := time.Now()

	ds, err := insurance.LoadCSV(opts.Dataset)
	if err != nil {
		return nil, err
	}
	if !ds.HasTarget() {
		return nil, medErrors.Wrapf(medErrors.ErrMissingColumn, "%s has no %s column", opts.Dataset, insurance.TargetColumn)
	}
	frame, err := ds.Encode()
	if err != nil {
		return nil, err
	}
	smokers, nonsmokers, err := insurance.SplitBySmoker(frame)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, medErrors.Wrapf(err, "create %s", opts.OutDir)
	}

	summary := &Summary{
		Dataset: opts.Dataset,
		Rows:    ds.Len(),
		Target:  describe(ds.Charges),
	}
	frames := map[router.Segment]*insurance.Frame{
		router.SegmentSmokers:    smokers,
		router.SegmentNonsmokers: nonsmokers,
		router.SegmentAll:        frame,
	}

	for _, seg := range router.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := trainSegment(seg, frames[seg], opts, logger)
		if err != nil {
			return nil, medErrors.Wrapf(err, "segment %s", seg)
		}
		summary.Segments = append(summary.Segments, *res)
	}
	summary.Duration = time.Since(start)

	if err := writeSummary(filepath.Join(opts.OutDir, SummaryFile), summary); err != nil {
		return nil, err
	}
	logger.Info("Training completed",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, summary.Rows,
		log.DurationMsKey, summary.Duration.Milliseconds(),
		log.PathKey, opts.OutDir,
	)
	return summary, nil
}

func trainSegment(seg router.Segment, f *insurance.Frame, opts Options, logger log.Logger) (*SegmentResult, error) {
	logger = logger.With(log.SegmentKey, string(seg))

	split, err := insurance.Preprocess(f, opts.Split)
	if err != nil {
		return nil, err
	}

	lr := linear.NewLinearRegression()
	if err := lr.Fit(split.XTrain.Data, split.YTrain); err != nil {
		return nil, err
	}
	lr.FeatureNames = slices.Clone(split.XTrain.Columns)
	logger.Info("Segment model fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, split.XTrain.Len(),
		log.FeaturesKey, split.XTrain.Width(),
	)

	pred, err := lr.Predict(split.XTest.Data)
	if err != nil {
		return nil, err
	}
	yPred := metrics.ColumnVector(pred)
	eval, err := metrics.Evaluate(split.YTest, yPred)
	if err != nil {
		return nil, medErrors.Wrap(err, "evaluate")
	}
	logger.Info("Segment model evaluated",
		log.PhaseKey, log.PhaseEvaluation,
		log.PredsKey, eval.N,
		"r2", eval.R2,
		"mae", eval.MAE,
		"rmse", eval.RMSE,
	)

	res := &SegmentResult{
		Segment:    seg,
		Rows:       f.Len(),
		TrainRows:  split.XTrain.Len(),
		TestRows:   split.XTest.Len(),
		Intercept:  lr.GetIntercept(),
		Weights:    make(map[string]float64, len(lr.FeatureNames)),
		Evaluation: eval,
		ModelPath:  filepath.Join(opts.OutDir, seg.ModelFile(opts.Format)),
		ScalerPath: filepath.Join(opts.OutDir, seg.ScalerFile(opts.Format)),
	}
	for i, w := range lr.GetWeights() {
		res.Weights[lr.FeatureNames[i]] = w
	}

	if err := save(lr, res.ModelPath, opts.Format, lr.ExportToSKLearn); err != nil {
		return nil, medErrors.NewArtifactError(string(seg), res.ModelPath, err)
	}
	if err := save(split.Scaler, res.ScalerPath, opts.Format, split.Scaler.ExportToSKLearn); err != nil {
		return nil, medErrors.NewArtifactError(string(seg), res.ScalerPath, err)
	}
	for _, name := range []string{seg.ModelFile(otherFormat(opts.Format)), seg.ScalerFile(otherFormat(opts.Format))} {
		stale := filepath.Join(opts.OutDir, name)
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return nil, medErrors.NewArtifactError(string(seg), stale, err)
		}
	}
	logger.Info("Segment artifacts written",
		log.OperationKey, log.OperationSave,
		log.PathKey, opts.OutDir,
	)

	if opts.PlotDir != "" {
		res.PlotPath = filepath.Join(opts.PlotDir, "predictions_"+string(seg)+".png")
		title := "Actual vs predicted charges (" + string(seg) + ")"
		if err := report.PredictionScatter(split.YTest.RawVector().Data, yPred.RawVector().Data, title, res.PlotPath); err != nil {
			return nil, err
		}
		resid := filepath.Join(opts.PlotDir, "residuals_"+string(seg)+".png")
		if err := report.ResidualHistogram(split.YTest.RawVector().Data, yPred.RawVector().Data, "Residuals ("+string(seg)+")", resid); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func save(m interface{}, path, format string, exportJSON func(string) error) error {
	if format == router.FormatGob {
		return model.SaveModel(m, path)
	}
	return exportJSON(path)
}

// otherFormat is the artifact format a run must not leave behind.
func otherFormat(format string) string {
	if format == router.FormatGob {
		return router.FormatJSON
	}
	return router.FormatGob
}

func describe(y []float64) TargetStats {
	if len(y) == 0 {
		return TargetStats{}
	}
	sorted := slices.Clone(y)
	slices.Sort(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	return TargetStats{
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

func writeSummary(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return medErrors.Wrap(err, "encode summary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return medErrors.Wrapf(err, "write %s", path)
	}
	return nil
}
