// Package router selects one of three segment models for an applicant and
// turns its record into a charge prediction.
//
// The Registry holds the model/scaler pair of each segment. It is built once at
// startup, never mutated afterwards, and shared by every request.
package router

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ezoic/medcost/core/model"
	"github.com/ezoic/medcost/insurance"
	"github.com/ezoic/medcost/linear"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/preprocessing"
)

// Segment is the population a model was trained on.
type Segment string

const (
	SegmentSmokers    Segment = "smokers"
	SegmentNonsmokers Segment = "nonsmokers"
	SegmentAll        Segment = "all"
)

// Segments lists every segment a registry must hold.
var Segments = []Segment{SegmentSmokers, SegmentNonsmokers, SegmentAll}

// Artifact formats, by file extension.
const (
	FormatJSON = ".json"
	FormatGob  = ".gob"
)

// ModelFile returns the artifact name of the segment model, e.g. model_smokers.json.
func (s Segment) ModelFile(format string) string { return "model_" + string(s) + format }

// ScalerFile returns the artifact name of the segment scaler, e.g. scaler_all.json.
func (s Segment) ScalerFile(format string) string { return "scaler_" + string(s) + format }

// Pair is the fitted model and scaler of one segment. The router only ever calls
// Scaler.Transform and Model.Predict.
type Pair struct {
	Model  model.Predictor
	Scaler model.Transformer
}

// Registry maps every segment to its pair.
type Registry struct {
	pairs map[Segment]Pair
}

// NewRegistry builds a registry from explicit pairs; all segments are required.
func NewRegistry(pairs map[Segment]Pair) (*Registry, error) {
	reg := &Registry{pairs: make(map[Segment]Pair, len(Segments))}
	for _, seg := range Segments {
		p, ok := pairs[seg]
		if !ok || p.Model == nil || p.Scaler == nil {
			return nil, medErrors.NewArtifactError(string(seg), "", medErrors.New("model/scaler pair not provided"))
		}
		reg.pairs[seg] = p
	}
	return reg, nil
}

// Pair returns the pair of seg.
func (r *Registry) Pair(seg Segment) (Pair, bool) {
	p, ok := r.pairs[seg]
	return p, ok
}

// LoadRegistry loads model_<segment> and scaler_<segment> for every segment from
// dir. Each artifact must exist in exactly one format, JSON or gob. Any missing,
// ambiguous, unreadable or inconsistent artifact is an *ArtifactError.
func LoadRegistry(dir string) (*Registry, error) {
	logger := log.GetLoggerWithName("router")
	pairs := make(map[Segment]Pair, len(Segments))

	for _, seg := range Segments {
		lr := linear.NewLinearRegression()
		path, err := loadArtifact(dir, seg.ModelFile, lr.LoadFromSKLearn, lr)
		if err != nil {
			return nil, medErrors.NewArtifactError(string(seg), path, err)
		}
		if err := checkModel(lr); err != nil {
			return nil, medErrors.NewArtifactError(string(seg), path, err)
		}

		scaler := preprocessing.NewStandardScalerDefault()
		spath, err := loadArtifact(dir, seg.ScalerFile, scaler.LoadFromSKLearn, scaler)
		if err != nil {
			return nil, medErrors.NewArtifactError(string(seg), spath, err)
		}
		if err := checkScaler(scaler); err != nil {
			return nil, medErrors.NewArtifactError(string(seg), spath, err)
		}

		pairs[seg] = Pair{Model: lr, Scaler: scaler}
		logger.Info("Segment artifacts loaded",
			log.OperationKey, log.OperationLoad,
			log.PhaseKey, log.PhaseStartup,
			log.SegmentKey, string(seg),
			log.PathKey, path,
		)
	}

	return NewRegistry(pairs)
}

func loadArtifact(dir string, name func(string) string, loadJSON func(string) error, target interface{}) (string, error) {
	jsonPath := filepath.Join(dir, name(FormatJSON))
	gobPath := filepath.Join(dir, name(FormatGob))
	_, jsonErr := os.Stat(jsonPath)
	_, gobErr := os.Stat(gobPath)

	switch {
	case jsonErr == nil && gobErr == nil:
		return jsonPath, medErrors.Newf("both %s and %s present", name(FormatJSON), name(FormatGob))
	case jsonErr == nil:
		return jsonPath, loadJSON(jsonPath)
	case gobErr == nil:
		return gobPath, model.LoadModel(target, gobPath)
	}
	return jsonPath, medErrors.Wrapf(os.ErrNotExist, "neither %s nor %s", name(FormatJSON), name(FormatGob))
}

func checkModel(lr *linear.LinearRegression) error {
	if !lr.IsFitted() {
		return medErrors.NewNotFittedError("LinearRegression", "LoadRegistry")
	}
	if lr.NFeatures != insurance.NumFeatures {
		return medErrors.NewDimensionError("LoadRegistry", insurance.NumFeatures, lr.NFeatures, 1)
	}
	if lr.FeatureNames != nil && !slices.Equal(lr.FeatureNames, insurance.FeatureNames) {
		return medErrors.NewValueError("LoadRegistry",
			fmt.Sprintf("model feature order %v, expected %v", lr.FeatureNames, insurance.FeatureNames))
	}
	return nil
}

func checkScaler(s *preprocessing.StandardScaler) error {
	if !s.IsFitted() {
		return medErrors.NewNotFittedError("StandardScaler", "LoadRegistry")
	}
	if s.NFeatures != insurance.NumNumeric {
		return medErrors.NewDimensionError("LoadRegistry", insurance.NumNumeric, s.NFeatures, 1)
	}
	if s.FeatureNames != nil && !slices.Equal(s.FeatureNames, insurance.NumericColumns) {
		return medErrors.NewValueError("LoadRegistry",
			fmt.Sprintf("scaler column order %v, expected %v", s.FeatureNames, insurance.NumericColumns))
	}
	return nil
}
