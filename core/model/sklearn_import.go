package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ezoic/medcost/pkg/errors"
)

// SKLearnFormatVersion is the only artifact format version understood by the loaders.
const SKLearnFormatVersion = "1.0"

// SKLearnModelSpec is the metadata block of an artifact.
type SKLearnModelSpec struct {
	Name           string `json:"name"`           // estimator name, e.g. "LinearRegression"
	FormatVersion  string `json:"format_version"` // SKLearnFormatVersion
	SKLearnVersion string `json:"sklearn_version,omitempty"`
}

// SKLearnLinearRegressionParams holds fitted LinearRegression parameters.
type SKLearnLinearRegressionParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
	FeatureNames []string  `json:"feature_names_in,omitempty"`
}

// SKLearnStandardScalerParams holds fitted StandardScaler parameters.
// Names follow the sklearn attributes mean_, scale_ and n_features_in_.
type SKLearnStandardScalerParams struct {
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
	NFeatures    int       `json:"n_features"`
	WithMean     bool      `json:"with_mean"`
	WithStd      bool      `json:"with_std"`
	FeatureNames []string  `json:"feature_names_in,omitempty"`
}

// SKLearnModel is one artifact: a spec plus estimator-specific params.
type SKLearnModel struct {
	ModelSpec SKLearnModelSpec `json:"model_spec"`
	Params    json.RawMessage  `json:"params"`
}

// LoadSKLearnModelFromFile reads an artifact from filename.
//
// Example:
//
//	m, err := model.LoadSKLearnModelFromFile("models/model_all.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadSKLearnModelFromFile(filename string) (*SKLearnModel, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadSKLearnModelFromReader(file)
}

// LoadSKLearnModelFromReader decodes an artifact and validates its spec block.
func LoadSKLearnModelFromReader(r io.Reader) (*SKLearnModel, error) {
	var model SKLearnModel
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if model.ModelSpec.FormatVersion == "" {
		return nil, errors.NewValueError("LoadSKLearnModel", "format_version is required")
	}

	if model.ModelSpec.FormatVersion != SKLearnFormatVersion {
		return nil, errors.NewValueError("LoadSKLearnModel",
			fmt.Sprintf("unsupported format version: %s", model.ModelSpec.FormatVersion))
	}

	if model.ModelSpec.Name == "" {
		return nil, errors.NewValueError("LoadSKLearnModel", "model name is required")
	}

	return &model, nil
}

// LoadLinearRegressionParams extracts and validates LinearRegression params.
func LoadLinearRegressionParams(model *SKLearnModel) (*SKLearnLinearRegressionParams, error) {
	if model.ModelSpec.Name != "LinearRegression" {
		return nil, errors.NewValueError("LoadLinearRegressionParams",
			fmt.Sprintf("expected LinearRegression, got %s", model.ModelSpec.Name))
	}

	var params SKLearnLinearRegressionParams
	if err := json.Unmarshal(model.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	if len(params.Coefficients) == 0 {
		return nil, errors.NewValueError("LoadLinearRegressionParams",
			"coefficients cannot be empty")
	}

	if params.NFeatures != len(params.Coefficients) {
		return nil, errors.NewValueError("LoadLinearRegressionParams",
			fmt.Sprintf("n_features (%d) does not match coefficients length (%d)",
				params.NFeatures, len(params.Coefficients)))
	}

	return &params, nil
}

// LoadStandardScalerParams extracts and validates StandardScaler params.
func LoadStandardScalerParams(model *SKLearnModel) (*SKLearnStandardScalerParams, error) {
	if model.ModelSpec.Name != "StandardScaler" {
		return nil, errors.NewValueError("LoadStandardScalerParams",
			fmt.Sprintf("expected StandardScaler, got %s", model.ModelSpec.Name))
	}

	var params SKLearnStandardScalerParams
	if err := json.Unmarshal(model.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	if params.NFeatures == 0 {
		return nil, errors.NewValueError("LoadStandardScalerParams", "n_features must be positive")
	}
	if len(params.Mean) != params.NFeatures || len(params.Scale) != params.NFeatures {
		return nil, errors.NewValueError("LoadStandardScalerParams",
			fmt.Sprintf("n_features (%d) does not match mean (%d) / scale (%d) length",
				params.NFeatures, len(params.Mean), len(params.Scale)))
	}
	for i, s := range params.Scale {
		if s == 0 {
			return nil, errors.NewValueError("LoadStandardScalerParams",
				fmt.Sprintf("scale[%d] is zero", i))
		}
	}

	return &params, nil
}

// ExportSKLearnModel writes params under modelName as an indented artifact.
func ExportSKLearnModel(modelName string, params interface{}, w io.Writer) error {
	model := SKLearnModel{
		ModelSpec: SKLearnModelSpec{
			Name:          modelName,
			FormatVersion: SKLearnFormatVersion,
		},
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	model.Params = paramsJSON

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	return nil
}
