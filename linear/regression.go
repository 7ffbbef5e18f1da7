// Package linear provides the ordinary least squares regressor used for charge prediction.
//
//   - LinearRegression: least squares with an intercept, fit the way scikit-learn does it
//     (center, then minimum-norm solve), so rank-deficient designs still fit
//   - scikit-learn compatible JSON import/export of fitted coefficients
//   - gob persistence through core/model
//
// Example usage:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(X, y); err != nil { // X: features, y: target values
//		log.Fatal(err)
//	}
//	predictions, err := lr.Predict(XTest)
//
//	// Save trained model
//	err = lr.ExportToSKLearn("models/model_all.json")
//
//	// Load it (or a model exported from Python) at serving time
//	err = lr.LoadFromSKLearn("models/model_all.json")
package linear

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/medcost/core/model"
	"github.com/ezoic/medcost/core/parallel"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
)

var (
	_ model.Regressor       = (*LinearRegression)(nil)
	_ model.SKLearnExporter = (*LinearRegression)(nil)
	_ model.SKLearnLoader   = (*LinearRegression)(nil)
)

// LinearRegression is a linear regression model
type LinearRegression struct {
	State        *model.StateManager // Public for gob encoding
	Weights      *mat.VecDense       // Model weights (coefficients)
	Intercept    float64             // Model intercept
	NFeatures    int                 // Number of features
	FeatureNames []string            // Optional input column names
	logger       log.Logger
}

// NewLinearRegression creates an untrained linear regression model.
//
// Example:
//
//	lr := linear.NewLinearRegression()
//	err := lr.Fit(X, y)
//	predictions, err := lr.Predict(X_test)
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)

	return lr
}

// Fit trains the model by least squares.
//
// X and y are centered, the minimum-norm solution of Xc·w = yc is obtained from a thin
// SVD, and the intercept is mean(y) - mean(X)·w. A column that is constant in the
// training data (e.g. the smoker indicator inside the smoker-only subset) therefore
// gets weight 0 instead of making the system singular.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Target column of shape (n_samples, 1)
//
// Errors:
//   - ErrEmptyData: if X or y are empty
//   - ErrDimensionMismatch: if the number of samples in X and y don't match
//   - ErrSingularMatrix: if the SVD fails to converge
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer medErrors.Recover(&err, "LinearRegression.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	if lr.logger != nil {
		lr.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return medErrors.NewModelError("LinearRegression.Fit", "empty data", medErrors.ErrEmptyData)
	}

	if ry != r {
		return medErrors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}

	if cy != 1 {
		return medErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	xMean := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			xMean[j] += X.At(i, j)
		}
		xMean[j] /= float64(r)
	}
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewDense(r, 1, nil)

	// Parallelization threshold (use sequential processing for row counts below this value)
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.Set(i, 0, y.At(i, 0)-yMean)
		}
	})

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return medErrors.NewModelError("LinearRegression.Fit", "svd did not converge", medErrors.ErrSingularMatrix)
	}

	// same cutoff as numpy.linalg.lstsq: eps * max(M, N)
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(r, c))
	rank := svd.Rank(rcond)

	lr.NFeatures = c
	lr.Weights = mat.NewVecDense(c, nil)
	if rank > 0 {
		var w mat.Dense
		svd.SolveTo(&w, yc, rank)
		for j := 0; j < c; j++ {
			lr.Weights.SetVec(j, w.At(j, 0))
		}
	}

	lr.Intercept = yMean
	for j := 0; j < c; j++ {
		lr.Intercept -= xMean[j] * lr.Weights.AtVec(j)
	}

	lr.State.SetFitted()
	lr.State.SetDimensions(lr.NFeatures, r)

	if lr.logger != nil {
		lr.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.SamplesKey, r,
			log.FeaturesKey, c,
			"rank", rank,
		)
	}

	return nil
}

// Predict computes y_pred = X·weights + intercept.
//
// Returns a (n_samples, 1) matrix.
//
// Errors:
//   - ErrNotFitted: if the model hasn't been trained yet
//   - ErrDimensionMismatch: if X has a different number of features than training data
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "LinearRegression.Predict")
	if !lr.State.IsFitted() {
		return nil, medErrors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, medErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	if lr.logger != nil {
		lr.logger.Debug("Prediction started",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}

	return predictions, nil
}

// GetWeights returns the learned coefficients
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}

	weights := make([]float64, lr.Weights.Len())
	for i := 0; i < lr.Weights.Len(); i++ {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the learned intercept
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.State.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score calculates the coefficient of determination (R²) of the model
func (lr *LinearRegression) Score(X, y mat.Matrix) (_ float64, err error) {
	defer medErrors.Recover(&err, "LinearRegression.Score")
	if !lr.State.IsFitted() {
		return 0, medErrors.NewNotFittedError("LinearRegression", "Score")
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		yPredVal := yPred.At(i, 0)

		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPredVal) * (yTrue - yPredVal)
	}

	if tss == 0 {
		return 0, medErrors.NewValueError("LinearRegression.Score", "total sum of squares is zero")
	}

	return 1 - rss/tss, nil
}

// LoadFromSKLearn loads a model from a JSON artifact.
//
// Example:
//
//	lr := NewLinearRegression()
//	err := lr.LoadFromSKLearn("models/model_smokers.json")
func (lr *LinearRegression) LoadFromSKLearn(filename string) (err error) {
	defer medErrors.Recover(&err, "LinearRegression.LoadFromSKLearn")
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return lr.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader loads a JSON artifact from r.
func (lr *LinearRegression) LoadFromSKLearnReader(r io.Reader) (err error) {
	defer medErrors.Recover(&err, "LinearRegression.LoadFromSKLearnReader")
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to load sklearn model: %w", err)
	}

	params, err := model.LoadLinearRegressionParams(skModel)
	if err != nil {
		return fmt.Errorf("failed to load linear regression params: %w", err)
	}

	lr.NFeatures = params.NFeatures
	lr.Intercept = params.Intercept
	lr.FeatureNames = params.FeatureNames
	lr.Weights = mat.NewVecDense(len(params.Coefficients), params.Coefficients)

	lr.State.SetFitted()
	// sample count is not stored in the artifact
	lr.State.SetDimensions(lr.NFeatures, 0)

	if lr.logger != nil {
		lr.logger.Debug("Model loaded",
			log.OperationKey, log.OperationLoad,
			log.FeaturesKey, lr.NFeatures,
		)
	}

	return nil
}

// ExportToSKLearn writes the model as a JSON artifact.
func (lr *LinearRegression) ExportToSKLearn(filename string) (err error) {
	defer medErrors.Recover(&err, "LinearRegression.ExportToSKLearn")
	if !lr.State.IsFitted() {
		return medErrors.NewNotFittedError("LinearRegression", "ExportToSKLearn")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return lr.ExportToSKLearnWriter(file)
}

// ExportToSKLearnWriter writes the model as a JSON artifact to w.
func (lr *LinearRegression) ExportToSKLearnWriter(w io.Writer) (err error) {
	defer medErrors.Recover(&err, "LinearRegression.ExportToSKLearnWriter")
	if !lr.State.IsFitted() {
		return medErrors.NewNotFittedError("LinearRegression", "ExportToSKLearnWriter")
	}

	params := model.SKLearnLinearRegressionParams{
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		NFeatures:    lr.NFeatures,
		FeatureNames: lr.FeatureNames,
	}

	return model.ExportSKLearnModel("LinearRegression", params, w)
}

// IsFitted returns whether the model has been fitted.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_features": lr.NFeatures,
		"fitted":     lr.State.IsFitted(),
	}
}
