// Package model_selection provides reproducible dataset splitting.
//
// The split follows scikit-learn's ShuffleSplit convention: the test set holds
// ceil(test_size * n) rows, the train set the remaining rows, and both are taken
// from a single seeded permutation so the same (n, test_size, seed) always yields
// the same partition.
//
// Example usage:
//
//	train, test, err := model_selection.TrainTestSplit(1338, 0.2, 42)
//	// len(test) == 268, len(train) == 1070
package model_selection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// DefaultTestSize and DefaultSeed are the values used by the training pipeline.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// SplitSizes returns (nTrain, nTest) for n samples.
func SplitSizes(n int, testSize float64) (int, int, error) {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return 0, 0, medErrors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return 0, 0, medErrors.NewModelError("TrainTestSplit",
			"too few samples for the requested test_size", medErrors.ErrEmptyData)
	}
	return nTrain, nTest, nil
}

// TrainTestSplit returns disjoint train and test row indices covering [0, n).
func TrainTestSplit(n int, testSize float64, seed uint64) (train, test []int, err error) {
	nTrain, nTest, err := SplitSizes(n, testSize)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	test = append(make([]int, 0, nTest), perm[:nTest]...)
	train = append(make([]int, 0, nTrain), perm[nTest:]...)
	return train, test, nil
}

// TrainTestSplitMatrix splits the rows of X and y with TrainTestSplit.
func TrainTestSplitMatrix(X mat.Matrix, y mat.Vector, testSize float64, seed uint64) (
	XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error,
) {
	defer medErrors.Recover(&err, "TrainTestSplitMatrix")
	r, _ := X.Dims()
	if y.Len() != r {
		return nil, nil, nil, nil, medErrors.NewDimensionError("TrainTestSplitMatrix", r, y.Len(), 0)
	}

	train, test, err := TrainTestSplit(r, testSize, seed)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	XTrain, yTrain = TakeRows(X, y, train)
	XTest, yTest = TakeRows(X, y, test)
	return XTrain, XTest, yTrain, yTest, nil
}

// TakeRows copies the rows at idx, in order, from X and y. y may be nil.
func TakeRows(X mat.Matrix, y mat.Vector, idx []int) (*mat.Dense, *mat.VecDense) {
	_, c := X.Dims()
	if len(idx) == 0 || c == 0 {
		return &mat.Dense{}, &mat.VecDense{}
	}
	out := mat.NewDense(len(idx), c, nil)
	for i, row := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(row, j))
		}
	}
	if y == nil {
		return out, nil
	}
	yOut := mat.NewVecDense(len(idx), nil)
	for i, row := range idx {
		yOut.SetVec(i, y.AtVec(row))
	}
	return out, yOut
}
