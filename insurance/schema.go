// Package insurance holds the medical insurance domain: the applicant Record, the
// single categorical encoding table shared by training and serving, CSV loading,
// and the preprocessing pipeline that produces scaled train/test splits.
//
// Every encoded row, whether it comes from the training CSV or from one serving
// request, is built by the same two functions (EncodeRecord and AssembleFeatures)
// so the column order a model was fitted with is the order it is queried with:
//
//	age, bmi, children, sex, smoker, region_northwest, region_southeast, region_southwest
package insurance

import (
	"slices"
	"strings"

	"github.com/ezoic/medcost/preprocessing"
	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// Sex of the primary beneficiary.
type Sex string

// Smoker status.
type Smoker string

// Region of residence in the US.
type Region string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"

	SmokerYes Smoker = "yes"
	SmokerNo  Smoker = "no"

	RegionNortheast Region = "northeast"
	RegionNorthwest Region = "northwest"
	RegionSoutheast Region = "southeast"
	RegionSouthwest Region = "southwest"
)

// Column names of the raw dataset.
const (
	ColAge      = "age"
	ColSex      = "sex"
	ColBMI      = "bmi"
	ColChildren = "children"
	ColSmoker   = "smoker"
	ColRegion   = "region"

	// TargetColumn is the regression target.
	TargetColumn = "charges"
)

// Category lists in code order. For sex and smoker the position is the encoded
// value; for region the first entry is the one-hot baseline.
var (
	SexCategories    = []string{string(SexMale), string(SexFemale)}
	SmokerCategories = []string{string(SmokerNo), string(SmokerYes)}
	RegionCategories = []string{
		string(RegionNortheast),
		string(RegionNorthwest),
		string(RegionSoutheast),
		string(RegionSouthwest),
	}
)

// Encoded vector layout.
const (
	NumNumeric     = 3
	NumCategorical = 5
	NumFeatures    = NumNumeric + NumCategorical
)

var (
	// NumericColumns are the columns standardized by the segment scaler.
	NumericColumns = []string{ColAge, ColBMI, ColChildren}

	// FeatureNames is the encoded feature order used for fitting and serving.
	FeatureNames = []string{
		ColAge, ColBMI, ColChildren,
		ColSex, ColSmoker,
		"region_northwest", "region_southeast", "region_southwest",
	}
)

// Encoding is the declared category-to-number table.
type Encoding struct {
	sex    *preprocessing.OrdinalEncoder
	smoker *preprocessing.OrdinalEncoder
	region *preprocessing.OneHotEncoder
}

// NewEncoding builds the table from the package category lists.
func NewEncoding() (*Encoding, error) {
	sex, err := preprocessing.NewOrdinalEncoder([]string{ColSex}, [][]string{SexCategories})
	if err != nil {
		return nil, err
	}
	smoker, err := preprocessing.NewOrdinalEncoder([]string{ColSmoker}, [][]string{SmokerCategories})
	if err != nil {
		return nil, err
	}
	region, err := preprocessing.NewOneHotEncoder([]string{ColRegion}, [][]string{RegionCategories}, true)
	if err != nil {
		return nil, err
	}
	return &Encoding{sex: sex, smoker: smoker, region: region}, nil
}

// shared is read-only after init.
var shared = mustEncoding()

func mustEncoding() *Encoding {
	e, err := NewEncoding()
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultEncoding returns the process-wide encoding table.
func DefaultEncoding() *Encoding { return shared }

// Categorical encodes [sex, smoker, region_northwest, region_southeast, region_southwest].
func (e *Encoding) Categorical(sex Sex, smoker Smoker, region Region) ([NumCategorical]float64, error) {
	var out [NumCategorical]float64

	s, err := e.sex.EncodeRow([]string{string(sex)})
	if err != nil {
		return out, err
	}
	sm, err := e.smoker.EncodeRow([]string{string(smoker)})
	if err != nil {
		return out, err
	}
	r, err := e.region.EncodeRow([]string{string(region)})
	if err != nil {
		return out, err
	}

	out[0] = s[0]
	out[1] = sm[0]
	copy(out[2:], r)
	return out, nil
}

// RegionColumns returns the one-hot column names, baseline excluded.
func (e *Encoding) RegionColumns() []string {
	return e.region.GetFeatureNamesOut()
}

// ParseSex normalizes and validates a sex value.
func ParseSex(s string) (Sex, error) {
	v := normalize(s)
	if !slices.Contains(SexCategories, v) {
		return "", medErrors.NewUnknownCategoryError(ColSex, s, SexCategories)
	}
	return Sex(v), nil
}

// ParseSmoker normalizes and validates a smoker value.
func ParseSmoker(s string) (Smoker, error) {
	v := normalize(s)
	if !slices.Contains(SmokerCategories, v) {
		return "", medErrors.NewUnknownCategoryError(ColSmoker, s, SmokerCategories)
	}
	return Smoker(v), nil
}

// ParseRegion normalizes and validates a region value.
func ParseRegion(s string) (Region, error) {
	v := normalize(s)
	if !slices.Contains(RegionCategories, v) {
		return "", medErrors.NewUnknownCategoryError(ColRegion, s, RegionCategories)
	}
	return Region(v), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
