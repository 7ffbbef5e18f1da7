// Package metrics provides the regression metrics used to evaluate charge models.
//
//   - MSE / RMSE: squared error, RMSE in the target's unit (currency)
//   - MAE: mean absolute error
//   - R²: coefficient of determination
//   - MAPE: mean absolute percentage error
//   - Explained Variance Score
//   - Evaluate: all of the above for one test split, as logged by the trainer
//
// Example usage:
//
//	r2, err := metrics.R2Score(yTest, yPred)
//
//	// prediction matrices from LinearRegression.Predict are (n, 1)
//	ev, err := metrics.Evaluate(yTest, metrics.ColumnVector(predMatrix))
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, medErrors.NewModelError(op, "empty vector", medErrors.ErrEmptyData)
	}
	if yPred.Len() != n {
		return 0, medErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix calculates MSE for column matrices (n×1), such as the output of Predict.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, medErrors.NewModelError("MSEMatrix", "empty matrix", medErrors.ErrEmptyData)
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, medErrors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, medErrors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	return MSE(ColumnVector(yTrue), ColumnVector(yPred))
}

// RMSE calculates the Root Mean Squared Error, in the unit of the target.
//
// Example:
//
//	rmse, err := metrics.RMSE(yTrue, yPred)
//	fmt.Printf("RMSE: $%.2f\n", rmse)
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination (R²).
//
// 1 is a perfect fit, 0 is no better than predicting the mean, and negative values
// are worse than the mean.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
//   - ValueError: if all yTrue values are identical (no variance)
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, medErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE calculates the Mean Absolute Percentage Error, as a percentage.
// Samples whose true value is zero are skipped.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	validCount := 0

	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal != 0 {
			sum += math.Abs(yTrueVal-yPred.AtVec(i)) / math.Abs(yTrueVal)
			validCount++
		}
	}

	if validCount == 0 {
		return 0, medErrors.NewValueError("MAPE", "all yTrue values are zero")
	}

	return (sum / float64(validCount)) * 100, nil
}

// ExplainedVarianceScore calculates 1 - Var(yTrue - yPred) / Var(yTrue).
//
// Unlike R² it ignores a constant offset in the predictions.
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yTrueMean, diffMean float64
	for i := 0; i < n; i++ {
		yTrueMean += yTrue.AtVec(i)
		diffMean += yTrue.AtVec(i) - yPred.AtVec(i)
	}
	yTrueMean /= float64(n)
	diffMean /= float64(n)

	var varYTrue, varDiff float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		diff := yTrueVal - yPred.AtVec(i)

		varYTrue += (yTrueVal - yTrueMean) * (yTrueVal - yTrueMean)
		varDiff += (diff - diffMean) * (diff - diffMean)
	}
	varYTrue /= float64(n)
	varDiff /= float64(n)

	if varYTrue == 0 {
		return 0, medErrors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}

	return 1 - varDiff/varYTrue, nil
}

// Evaluation bundles the metrics reported for one test split.
type Evaluation struct {
	N                 int     `json:"n"`
	R2                float64 `json:"r2"`
	MAE               float64 `json:"mae"`
	RMSE              float64 `json:"rmse"`
	MAPE              float64 `json:"mape"`
	ExplainedVariance float64 `json:"explained_variance"`
}

// Evaluate computes every regression metric for yTrue and yPred.
func Evaluate(yTrue, yPred *mat.VecDense) (*Evaluation, error) {
	n, err := checkPair("Evaluate", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{N: n}
	if ev.R2, err = R2Score(yTrue, yPred); err != nil {
		return nil, err
	}
	if ev.MAE, err = MAE(yTrue, yPred); err != nil {
		return nil, err
	}
	if ev.RMSE, err = RMSE(yTrue, yPred); err != nil {
		return nil, err
	}
	if ev.MAPE, err = MAPE(yTrue, yPred); err != nil {
		return nil, err
	}
	if ev.ExplainedVariance, err = ExplainedVarianceScore(yTrue, yPred); err != nil {
		return nil, err
	}
	return ev, nil
}

func (e Evaluation) String() string {
	return fmt.Sprintf("n=%d r2=%.4f mae=%.2f rmse=%.2f mape=%.2f%%", e.N, e.R2, e.MAE, e.RMSE, e.MAPE)
}

// ColumnVector copies the first column of m into a vector.
func ColumnVector(m mat.Matrix) *mat.VecDense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return &mat.VecDense{}
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
