package preprocessing_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/preprocessing"
)

// age, bmi, children
var trainNumeric = mat.NewDense(6, 3, []float64{
	19, 27.9, 0,
	18, 33.77, 1,
	28, 33.0, 3,
	33, 22.705, 0,
	32, 28.88, 0,
	31, 25.74, 0,
})

func TestStandardScaler_TrainingColumnsStandardized(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(trainNumeric)
	require.NoError(t, err)

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, scaled)
		require.Len(t, col, r)
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0.0, mean, 1e-12, "column %d mean", j)
		assert.InDelta(t, 1.0, std, 1e-12, "column %d std", j)
	}
}

func TestStandardScaler_TransformDoesNotRefit(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	require.NoError(t, scaler.Fit(trainNumeric))
	mean := append([]float64(nil), scaler.Mean...)
	scale := append([]float64(nil), scaler.Scale...)

	test := mat.NewDense(2, 3, []float64{60, 45.0, 5, 100, 15.0, 10})
	first, err := scaler.Transform(test)
	require.NoError(t, err)
	second, err := scaler.Transform(test)
	require.NoError(t, err)

	assert.Equal(t, mean, scaler.Mean)
	assert.Equal(t, scale, scaler.Scale)
	assert.True(t, mat.Equal(first, second))
}

func TestStandardScaler_SKLearnArtifactRoundTrip(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	scaler.FeatureNames = []string{"age", "bmi", "children"}
	require.NoError(t, scaler.Fit(trainNumeric))

	path := filepath.Join(t.TempDir(), "scaler_all.json")
	require.NoError(t, scaler.ExportToSKLearn(path))

	loaded := preprocessing.NewStandardScalerDefault()
	require.NoError(t, loaded.LoadFromSKLearn(path))

	assert.True(t, loaded.IsFitted())
	assert.Equal(t, scaler.Mean, loaded.Mean)
	assert.Equal(t, scaler.Scale, loaded.Scale)
	assert.Equal(t, []string{"age", "bmi", "children"}, loaded.FeatureNames)

	row := mat.NewDense(1, 3, []float64{30, 25.0, 1})
	want, _ := scaler.Transform(row)
	got, err := loaded.Transform(row)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestStandardScaler_ExportUnfitted(t *testing.T) {
	var buf bytes.Buffer
	err := preprocessing.NewStandardScalerDefault().ExportToSKLearnWriter(&buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, medErrors.ErrNotFitted))
	assert.Zero(t, buf.Len())
}

func TestStandardScaler_LoadRejectsModelArtifact(t *testing.T) {
	body := `{"model_spec":{"name":"LinearRegression","format_version":"1.0"},"params":{"coefficients":[1],"intercept":0,"n_features":1}}`
	err := preprocessing.NewStandardScalerDefault().LoadFromSKLearnReader(bytes.NewBufferString(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected StandardScaler")
}
