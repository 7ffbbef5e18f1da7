package insurance

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	medErrors "github.com/ezoic/medcost/pkg/errors"
)

const samplePath = "testdata/insurance_sample.csv"

func TestLoadCSV_Sample(t *testing.T) {
	ds, err := LoadCSV(samplePath)
	require.NoError(t, err)

	assert.Equal(t, 40, ds.Len())
	require.True(t, ds.HasTarget())
	assert.Len(t, ds.Charges, 40)

	first := ds.Records[0]
	assert.Equal(t, Record{Age: 19, BMI: 27.9, Children: 0, Sex: SexFemale, Smoker: SmokerYes, Region: RegionSouthwest}, first)
	assert.InDelta(t, 16884.924, ds.Charges[0], 1e-9)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "empty input",
			csv:     "",
			wantErr: medErrors.ErrEmptyData,
		},
		{
			name:    "header only",
			csv:     "age,sex,bmi,children,smoker,region,charges\n",
			wantErr: medErrors.ErrEmptyData,
		},
		{
			name:    "missing region column",
			csv:     "age,sex,bmi,children,smoker,charges\n19,female,27.9,0,yes,100\n",
			wantErr: medErrors.ErrMissingColumn,
		},
		{
			name:    "unknown region",
			csv:     "age,sex,bmi,children,smoker,region,charges\n19,female,27.9,0,yes,midwest,100\n",
			wantErr: medErrors.ErrUnknownCategory,
			wantMsg: "line 2",
		},
		{
			name:    "bad number",
			csv:     "age,sex,bmi,children,smoker,region,charges\nnineteen,female,27.9,0,yes,southwest,100\n",
			wantMsg: "invalid number",
		},
		{
			name:    "fractional children",
			csv:     "age,sex,bmi,children,smoker,region,charges\n19,female,27.9,1.5,yes,southwest,100\n",
			wantMsg: "expected an integer",
		},
		{
			name:    "negative charges",
			csv:     "age,sex,bmi,children,smoker,region,charges\n19,female,27.9,1,yes,southwest,-5\n",
			wantErr: medErrors.ErrOutOfRange,
		},
		{
			name:    "ragged row",
			csv:     "age,sex,bmi,children,smoker,region,charges\n19,female,27.9\n",
			wantMsg: "read row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.csv))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, medErrors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestReadCSV_ColumnOrderAndNoTarget(t *testing.T) {
	in := "Region,Smoker,Children,BMI,Sex,Age,id\nnortheast,no,2,30.5,male,45,a1\n"
	ds, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.False(t, ds.HasTarget())
	assert.Equal(t, Record{Age: 45, BMI: 30.5, Children: 2, Sex: SexMale, Smoker: SmokerNo, Region: RegionNortheast}, ds.Records[0])

	f, err := ds.Encode()
	require.NoError(t, err)
	assert.Equal(t, FeatureNames, f.Columns)
	assert.Equal(t, []float64{45, 30.5, 2, 0, 0, 0, 0, 0}, f.Row(0))
}

func TestDataset_Encode(t *testing.T) {
	ds, err := LoadCSV(samplePath)
	require.NoError(t, err)

	f, err := ds.Encode()
	require.NoError(t, err)

	assert.Equal(t, 40, f.Len())
	assert.Equal(t, append(append([]string{}, FeatureNames...), TargetColumn), f.Columns)

	// 19,female,27.9,0,yes,southwest,16884.924
	assert.Equal(t, []float64{19, 27.9, 0, 1, 1, 0, 0, 1, 16884.924}, f.Row(0))
	// 37,male,29.83,2,no,northeast,6406.4107
	assert.Equal(t, []float64{37, 29.83, 2, 0, 0, 0, 0, 0, 6406.4107}, f.Row(8))
}
