// Package preprocessing provides the feature transforms shared by training and serving.
//
// This package implements scikit-learn compatible preprocessing components:
//
//   - StandardScaler: standardizes numeric columns to zero mean and unit variance
//   - OrdinalEncoder: maps each categorical value to its index in a declared category list
//   - OneHotEncoder: expands categorical values into indicator columns, optionally dropping
//     the first (baseline) category
//
// Scalers follow the Fit / Transform / FitTransform pattern. A fitted scaler is an
// artifact: it is fit once on a training split, persisted, and only ever Transform-ed
// afterwards. Encoders are built from an explicit category list and are fitted on
// construction, so training and serving share exactly one mapping.
//
// Example usage:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	if err := scaler.Fit(trainNumeric); err != nil {
//		log.Fatal(err)
//	}
//	scaledTest, err := scaler.Transform(testNumeric)
package preprocessing

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/medcost/core/model"
	medErrors "github.com/ezoic/medcost/pkg/errors"
)

var (
	_ model.FittableTransformer = (*StandardScaler)(nil)
	_ model.SKLearnExporter     = (*StandardScaler)(nil)
	_ model.SKLearnLoader       = (*StandardScaler)(nil)
)

// StandardScaler standardizes features: (x - mean) / scale.
// Scale is the population standard deviation (ddof=0), as in scikit-learn.
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean learned by Fit
	Mean []float64

	// Scale is the per-feature standard deviation learned by Fit
	Scale []float64

	// NFeatures is the number of columns seen by Fit
	NFeatures int

	// WithMean controls centering (default: true)
	WithMean bool

	// WithStd controls scaling to unit variance (default: true)
	WithStd bool

	// FeatureNames optionally records the column names seen by Fit
	FeatureNames []string
}

// NewStandardScaler creates a new StandardScaler for feature standardization.
//
// Parameters:
//   - withMean: whether to center the data at zero by removing the mean
//   - withStd: whether to scale the data to unit variance
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(XTrain)
//	XScaled, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with centering and scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-column mean and standard deviation from the training data.
//
// A column with (near) zero variance gets scale 1 so Transform never divides by zero.
//
// Errors:
//   - ErrEmptyData: if X is empty
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer medErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return medErrors.NewModelError("StandardScaler.Fit", "empty data", medErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	for j := 0; j < c; j++ {
		if !s.WithStd {
			s.Scale[j] = 1.0
			continue
		}
		// variance is always taken around the true column mean, even when WithMean is false
		mean := s.Mean[j]
		if !s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			mean = sum / float64(r)
		}
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - mean
			sumSquares += diff * diff
		}
		s.Scale[j] = math.Sqrt(sumSquares / float64(r))
		if math.Abs(s.Scale[j]) < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform applies X_scaled = (X - mean) / scale using the fitted statistics.
// It never refits.
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't have NFeatures columns
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, medErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, medErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits on X and returns X transformed.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back: X = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, medErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, medErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// ExportToSKLearn writes the fitted scaler as a JSON artifact.
func (s *StandardScaler) ExportToSKLearn(filename string) (err error) {
	defer medErrors.Recover(&err, "StandardScaler.ExportToSKLearn")
	if !s.IsFitted() {
		return medErrors.NewNotFittedError("StandardScaler", "ExportToSKLearn")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return s.ExportToSKLearnWriter(file)
}

// ExportToSKLearnWriter writes the fitted scaler as a JSON artifact to w.
func (s *StandardScaler) ExportToSKLearnWriter(w io.Writer) (err error) {
	defer medErrors.Recover(&err, "StandardScaler.ExportToSKLearnWriter")
	if !s.IsFitted() {
		return medErrors.NewNotFittedError("StandardScaler", "ExportToSKLearnWriter")
	}

	params := model.SKLearnStandardScalerParams{
		Mean:         append([]float64(nil), s.Mean...),
		Scale:        append([]float64(nil), s.Scale...),
		NFeatures:    s.NFeatures,
		WithMean:     s.WithMean,
		WithStd:      s.WithStd,
		FeatureNames: s.FeatureNames,
	}
	return model.ExportSKLearnModel("StandardScaler", params, w)
}

// LoadFromSKLearn restores a fitted scaler from a JSON artifact.
func (s *StandardScaler) LoadFromSKLearn(filename string) (err error) {
	defer medErrors.Recover(&err, "StandardScaler.LoadFromSKLearn")
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return s.LoadFromSKLearnReader(file)
}

// LoadFromSKLearnReader restores a fitted scaler from r.
func (s *StandardScaler) LoadFromSKLearnReader(r io.Reader) (err error) {
	defer medErrors.Recover(&err, "StandardScaler.LoadFromSKLearnReader")
	skModel, err := model.LoadSKLearnModelFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to load sklearn model: %w", err)
	}

	params, err := model.LoadStandardScalerParams(skModel)
	if err != nil {
		return fmt.Errorf("failed to load standard scaler params: %w", err)
	}

	s.Mean = params.Mean
	s.Scale = params.Scale
	s.NFeatures = params.NFeatures
	s.WithMean = params.WithMean
	s.WithStd = params.WithStd
	s.FeatureNames = params.FeatureNames
	s.SetFitted()

	return nil
}
