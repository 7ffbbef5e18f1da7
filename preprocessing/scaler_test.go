package preprocessing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/preprocessing"
)

const epsilon = 1e-10

// applicants holds [age, bmi, children] for three rows.
func applicants() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		18, 20, 0,
		30, 25, 1,
		42, 30, 2,
	})
}

func TestStandardScaler_Statistics(t *testing.T) {
	tests := []struct {
		name      string
		withMean  bool
		withStd   bool
		wantMean  []float64
		wantScale []float64
	}{
		{
			name:      "center and scale",
			withMean:  true,
			withStd:   true,
			wantMean:  []float64{30, 25, 1},
			wantScale: []float64{math.Sqrt(96), math.Sqrt(50.0 / 3), math.Sqrt(2.0 / 3)},
		},
		{
			name:      "scale only",
			withMean:  false,
			withStd:   true,
			wantMean:  []float64{0, 0, 0},
			wantScale: []float64{math.Sqrt(96), math.Sqrt(50.0 / 3), math.Sqrt(2.0 / 3)},
		},
		{
			name:      "center only",
			withMean:  true,
			withStd:   false,
			wantMean:  []float64{30, 25, 1},
			wantScale: []float64{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := preprocessing.NewStandardScaler(tt.withMean, tt.withStd)
			require.NoError(t, s.Fit(applicants()))

			assert.True(t, s.IsFitted())
			assert.Equal(t, 3, s.NFeatures)
			assert.InDeltaSlice(t, tt.wantMean, s.Mean, epsilon)
			assert.InDeltaSlice(t, tt.wantScale, s.Scale, epsilon)

			scaled, err := s.Transform(applicants())
			require.NoError(t, err)
			for j := 0; j < 3; j++ {
				for i := 0; i < 3; i++ {
					want := (applicants().At(i, j) - tt.wantMean[j]) / tt.wantScale[j]
					assert.InDelta(t, want, scaled.At(i, j), epsilon, "[%d,%d]", i, j)
				}
			}
		})
	}
}

func TestStandardScaler_FitTransformEqualsFitThenTransform(t *testing.T) {
	a := preprocessing.NewStandardScalerDefault()
	got, err := a.FitTransform(applicants())
	require.NoError(t, err)

	b := preprocessing.NewStandardScalerDefault()
	require.NoError(t, b.Fit(applicants()))
	want, err := b.Transform(applicants())
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(want, got, epsilon))
}

func TestStandardScaler_InverseTransform(t *testing.T) {
	s := preprocessing.NewStandardScalerDefault()
	scaled, err := s.FitTransform(applicants())
	require.NoError(t, err)

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(applicants(), back, 1e-9))
}

// A single applicant row is transformed with the training statistics.
func TestStandardScaler_SingleRow(t *testing.T) {
	s := preprocessing.NewStandardScalerDefault()
	require.NoError(t, s.Fit(applicants()))

	out, err := s.Transform(mat.NewDense(1, 3, []float64{30, 25, 1}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 0, out))
}

func TestStandardScaler_Errors(t *testing.T) {
	s := preprocessing.NewStandardScalerDefault()
	row := mat.NewDense(1, 3, []float64{40, 28, 1})

	_, err := s.Transform(row)
	assert.True(t, medErrors.Is(err, medErrors.ErrNotFitted))
	_, err = s.InverseTransform(row)
	assert.True(t, medErrors.Is(err, medErrors.ErrNotFitted))

	require.NoError(t, s.Fit(applicants()))
	_, err = s.Transform(mat.NewDense(1, 8, nil))
	assert.True(t, medErrors.Is(err, medErrors.ErrDimensionMismatch))
	_, err = s.InverseTransform(mat.NewDense(1, 2, nil))
	assert.True(t, medErrors.Is(err, medErrors.ErrDimensionMismatch))

	err = preprocessing.NewStandardScalerDefault().Fit(&mat.Dense{})
	assert.True(t, medErrors.Is(err, medErrors.ErrEmptyData))
}

// Within a segment a column can be constant, e.g. children=0 for every row.
func TestStandardScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		23, 0,
		35, 0,
		51, 0,
	})
	s := preprocessing.NewStandardScalerDefault()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Scale[1])
	for i := 0; i < 3; i++ {
		assert.Zero(t, scaled.At(i, 1))
		assert.False(t, math.IsNaN(scaled.At(i, 0)))
	}
}

func TestStandardScaler_ParamsAndString(t *testing.T) {
	s := preprocessing.NewStandardScaler(true, false)
	assert.Equal(t, map[string]interface{}{"with_mean": true, "with_std": false}, s.GetParams())
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=false)", s.String())

	require.NoError(t, s.Fit(applicants()))
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=false, n_features=3)", s.String())
}
