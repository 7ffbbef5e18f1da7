package trainer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/router"
)

const samplePath = "../insurance/testdata/insurance_sample.csv"

func TestRun_WritesLoadableArtifacts(t *testing.T) {
	out := t.TempDir()

	summary, err := Run(context.Background(), Options{Dataset: samplePath, OutDir: out})
	require.NoError(t, err)

	assert.Equal(t, 40, summary.Rows)
	require.Len(t, summary.Segments, len(router.Segments))

	rows := map[router.Segment]int{}
	for _, res := range summary.Segments {
		rows[res.Segment] = res.Rows
		assert.Equal(t, res.Rows, res.TrainRows+res.TestRows, res.Segment)
		assert.Len(t, res.Weights, insurance.NumFeatures)
		require.NotNil(t, res.Evaluation)
		assert.Equal(t, res.TestRows, res.Evaluation.N)
		assert.FileExists(t, res.ModelPath)
		assert.FileExists(t, res.ScalerPath)
		assert.Empty(t, res.PlotPath)
	}
	assert.Equal(t, map[router.Segment]int{
		router.SegmentSmokers:    10,
		router.SegmentNonsmokers: 30,
		router.SegmentAll:        40,
	}, rows)

	reg, err := router.LoadRegistry(out)
	require.NoError(t, err)

	rec := insurance.Record{Age: 19, BMI: 27.9, Children: 0, Sex: insurance.SexFemale, Smoker: insurance.SmokerYes, Region: insurance.RegionSouthwest}
	p, err := router.New(reg).Predict(context.Background(), router.Request{Record: rec})
	require.NoError(t, err)
	assert.Equal(t, router.SegmentSmokers, p.Segment)
	assert.False(t, p.Charges.IsNegative())
}

func TestRun_SmokerModelLearnsSmokerPremium(t *testing.T) {
	summary, err := Run(context.Background(), Options{Dataset: samplePath, OutDir: t.TempDir()})
	require.NoError(t, err)

	all, ok := summary.Segment(router.SegmentAll)
	require.True(t, ok)
	// smoking is by far the largest effect on charges
	assert.Greater(t, all.Weights[insurance.ColSmoker], 10000.0)

	// inside a single smoker segment the smoker column is constant
	smokers, _ := summary.Segment(router.SegmentSmokers)
	assert.InDelta(t, 0.0, smokers.Weights[insurance.ColSmoker], 1e-6)
}

func TestRun_Summary(t *testing.T) {
	out := t.TempDir()
	summary, err := Run(context.Background(), Options{Dataset: samplePath, OutDir: out})
	require.NoError(t, err)

	assert.Less(t, summary.Target.Min, summary.Target.Median)
	assert.Less(t, summary.Target.Median, summary.Target.Max)
	assert.Positive(t, summary.Target.StdDev)

	data, err := os.ReadFile(filepath.Join(out, SummaryFile))
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary.Rows, decoded.Rows)
	assert.Len(t, decoded.Segments, 3)
}

func TestRun_GobAndPlots(t *testing.T) {
	out := t.TempDir()
	plots := filepath.Join(t.TempDir(), "plots")

	summary, err := Run(context.Background(), Options{
		Dataset: samplePath,
		OutDir:  out,
		PlotDir: plots,
		Format:  router.FormatGob,
	})
	require.NoError(t, err)

	for _, res := range summary.Segments {
		assert.Equal(t, filepath.Join(out, res.Segment.ModelFile(router.FormatGob)), res.ModelPath)
		assert.FileExists(t, res.PlotPath)
		assert.FileExists(t, filepath.Join(plots, "residuals_"+string(res.Segment)+".png"))
	}

	_, err = router.LoadRegistry(out)
	require.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no dataset", Options{OutDir: "out"}},
		{"no out dir", Options{Dataset: samplePath}},
		{"bad format", Options{Dataset: samplePath, OutDir: "out", Format: ".pkl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.opts)
			var ve *medErrors.ValidationError
			assert.True(t, medErrors.As(err, &ve), "got %v", err)
		})
	}

	_, err := Run(context.Background(), Options{Dataset: "missing.csv", OutDir: t.TempDir()})
	assert.Error(t, err)
}

func TestRun_NoTargetColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applicants.csv")
	csv := "age,sex,bmi,children,smoker,region\n19,female,27.9,0,yes,southwest\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	_, err := Run(context.Background(), Options{Dataset: path, OutDir: t.TempDir()})
	assert.True(t, medErrors.Is(err, medErrors.ErrMissingColumn))
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Dataset: samplePath, OutDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RetrainInOtherFormatReplacesArtifacts(t *testing.T) {
	out := t.TempDir()

	split := insurance.DefaultOptions()
	split.Seed = 1
	_, err := Run(context.Background(), Options{Dataset: samplePath, OutDir: out, Split: split})
	require.NoError(t, err)

	summary, err := Run(context.Background(), Options{Dataset: samplePath, OutDir: out, Format: router.FormatGob})
	require.NoError(t, err)

	for _, seg := range router.Segments {
		assert.NoFileExists(t, filepath.Join(out, seg.ModelFile(router.FormatJSON)))
		assert.NoFileExists(t, filepath.Join(out, seg.ScalerFile(router.FormatJSON)))
		assert.FileExists(t, filepath.Join(out, seg.ModelFile(router.FormatGob)))
	}

	reg, err := router.LoadRegistry(out)
	require.NoError(t, err)

	all, ok := summary.Segment(router.SegmentAll)
	require.True(t, ok)
	pair, ok := reg.Pair(router.SegmentAll)
	require.True(t, ok)
	served, ok := pair.Model.(interface{ GetIntercept() float64 })
	require.True(t, ok)
	assert.Equal(t, all.Intercept, served.GetIntercept())
}
