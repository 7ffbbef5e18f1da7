package model

import (
	"gonum.org/v1/gonum/mat"
)

// Predictor maps a feature matrix to a column of predictions.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer applies fitted parameters to a feature matrix. It never refits.
type Transformer interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes the coefficient of determination R^2 of a fitted regressor.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor is a supervised estimator producing continuous predictions.
type Regressor interface {
	Fit(X, y mat.Matrix) error
	Predictor
	Scorer
	IsFitted() bool
}

// FittableTransformer is an unsupervised transformer such as a scaler.
type FittableTransformer interface {
	Fit(X mat.Matrix) error
	Transformer
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
}

// SKLearnExporter writes an estimator in the scikit-learn compatible JSON format.
type SKLearnExporter interface {
	ExportToSKLearn(filename string) error
}

// SKLearnLoader restores an estimator from the scikit-learn compatible JSON format.
type SKLearnLoader interface {
	LoadFromSKLearn(filename string) error
}
