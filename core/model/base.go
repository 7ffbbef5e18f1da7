// Package model provides the shared building blocks for medcost estimators.
//
// It defines:
//
//   - BaseEstimator and StateManager: fitted-state tracking so that an untrained
//     scaler or regressor refuses to Transform or Predict
//   - Predictor / Transformer interfaces consumed by the prediction router
//   - The scikit-learn compatible JSON artifact format (model_spec + params) used to
//     persist fitted models and scalers, and a gob based alternative
//
// Example usage:
//
//	type MyScaler struct {
//		model.BaseEstimator
//		// fitted statistics
//	}
//
//	func (s *MyScaler) Fit(X mat.Matrix) error {
//		// compute statistics
//		s.SetFitted()
//		return nil
//	}
package model

// EstimatorState represents the learning state of an estimator
type EstimatorState int

const (
	// NotFitted indicates the estimator is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the estimator has been trained
	Fitted
)

// BaseEstimator is embedded by estimators that only need fitted-state tracking.
type BaseEstimator struct {
	// State holds the learning state. Public for gob encoding.
	State EstimatorState
}

// IsFitted returns whether the estimator has been fitted with training data.
//
// Transform and Predict implementations check this first and return a
// NotFittedError when it is false.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Called by Fit implementations and by
// artifact loaders after the fitted parameters have been restored.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
