package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/medcost/core/model"
	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// OrdinalEncoder maps each categorical value to its position in a declared
// category list, one list per input column. Unknown values are rejected.
type OrdinalEncoder struct {
	model.BaseEstimator

	// Categories holds the declared categories per input column, in code order
	Categories [][]string

	// FeatureNames names the input columns, used in error messages
	FeatureNames []string

	categoryToIdx []map[string]int
}

// NewOrdinalEncoder builds a fitted encoder from explicit categories.
//
// Example:
//
//	// male -> 0, female -> 1
//	enc, err := preprocessing.NewOrdinalEncoder([]string{"sex"}, [][]string{{"male", "female"}})
func NewOrdinalEncoder(featureNames []string, categories [][]string) (*OrdinalEncoder, error) {
	idx, err := indexCategories("OrdinalEncoder", featureNames, categories)
	if err != nil {
		return nil, err
	}
	e := &OrdinalEncoder{
		Categories:    categories,
		FeatureNames:  featureNames,
		categoryToIdx: idx,
	}
	e.SetFitted()
	return e, nil
}

// NFeatures returns the number of input columns.
func (e *OrdinalEncoder) NFeatures() int { return len(e.Categories) }

// EncodeRow encodes one sample.
func (e *OrdinalEncoder) EncodeRow(row []string) ([]float64, error) {
	if len(row) != len(e.Categories) {
		return nil, medErrors.NewDimensionError("OrdinalEncoder.EncodeRow", len(e.Categories), len(row), 1)
	}
	out := make([]float64, len(row))
	for j, v := range row {
		code, ok := e.categoryToIdx[j][v]
		if !ok {
			return nil, medErrors.NewUnknownCategoryError(e.FeatureNames[j], v, e.Categories[j])
		}
		out[j] = float64(code)
	}
	return out, nil
}

// Transform encodes every row of data.
func (e *OrdinalEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "OrdinalEncoder.Transform")
	if !e.IsFitted() {
		return nil, medErrors.NewNotFittedError("OrdinalEncoder", "Transform")
	}
	if len(data) == 0 {
		return &mat.Dense{}, nil
	}
	result := mat.NewDense(len(data), len(e.Categories), nil)
	for i, row := range data {
		codes, err := e.EncodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		result.SetRow(i, codes)
	}
	return result, nil
}

// OneHotEncoder expands categorical columns into 0/1 indicator columns.
//
// Categories are declared up front rather than learned, so output column order is
// stable across training and serving. With DropFirst the first category of each
// column is the baseline and encodes as all zeros, avoiding collinearity with the
// intercept.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories holds the declared categories per input column
	Categories [][]string

	// FeatureNames names the input columns
	FeatureNames []string

	// DropFirst omits the indicator of the first category of each column
	DropFirst bool

	// NOutputs is the number of output columns
	NOutputs int

	categoryToIdx []map[string]int
}

// NewOneHotEncoder builds a fitted encoder from explicit categories.
//
// Example:
//
//	enc, err := preprocessing.NewOneHotEncoder(
//		[]string{"region"},
//		[][]string{{"northeast", "northwest", "southeast", "southwest"}},
//		true,
//	)
//	row, err := enc.EncodeRow([]string{"southeast"}) // [0 1 0]
func NewOneHotEncoder(featureNames []string, categories [][]string, dropFirst bool) (*OneHotEncoder, error) {
	idx, err := indexCategories("OneHotEncoder", featureNames, categories)
	if err != nil {
		return nil, err
	}
	e := &OneHotEncoder{
		Categories:    categories,
		FeatureNames:  featureNames,
		DropFirst:     dropFirst,
		categoryToIdx: idx,
	}
	for _, cats := range categories {
		e.NOutputs += e.width(cats)
	}
	e.SetFitted()
	return e, nil
}

func (e *OneHotEncoder) width(cats []string) int {
	if e.DropFirst {
		return len(cats) - 1
	}
	return len(cats)
}

// EncodeRow encodes one sample into NOutputs indicator values.
func (e *OneHotEncoder) EncodeRow(row []string) ([]float64, error) {
	if len(row) != len(e.Categories) {
		return nil, medErrors.NewDimensionError("OneHotEncoder.EncodeRow", len(e.Categories), len(row), 1)
	}
	out := make([]float64, e.NOutputs)
	offset := 0
	for j, v := range row {
		idx, ok := e.categoryToIdx[j][v]
		if !ok {
			return nil, medErrors.NewUnknownCategoryError(e.FeatureNames[j], v, e.Categories[j])
		}
		if e.DropFirst {
			idx--
		}
		if idx >= 0 {
			out[offset+idx] = 1
		}
		offset += e.width(e.Categories[j])
	}
	return out, nil
}

// Transform encodes every row of data.
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer medErrors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, medErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(data) == 0 {
		return &mat.Dense{}, nil
	}
	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i, row := range data {
		enc, err := e.EncodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		result.SetRow(i, enc)
	}
	return result, nil
}

// GetFeatureNamesOut returns "<feature>_<category>" for every output column.
//
// For feature "region" with DropFirst the output is
// ["region_northwest", "region_southeast", "region_southwest"].
func (e *OneHotEncoder) GetFeatureNamesOut() []string {
	names := make([]string, 0, e.NOutputs)
	for j, cats := range e.Categories {
		start := 0
		if e.DropFirst {
			start = 1
		}
		for _, c := range cats[start:] {
			names = append(names, fmt.Sprintf("%s_%s", e.FeatureNames[j], c))
		}
	}
	return names
}

func indexCategories(op string, featureNames []string, categories [][]string) ([]map[string]int, error) {
	if len(categories) == 0 {
		return nil, medErrors.NewModelError(op, "no categories", medErrors.ErrEmptyData)
	}
	if len(featureNames) != len(categories) {
		return nil, medErrors.NewDimensionError(op, len(categories), len(featureNames), 1)
	}
	out := make([]map[string]int, len(categories))
	for j, cats := range categories {
		if len(cats) < 2 {
			return nil, medErrors.NewValidationError("categories", "each feature needs at least two categories", featureNames[j])
		}
		m := make(map[string]int, len(cats))
		for i, c := range cats {
			if _, dup := m[c]; dup {
				return nil, medErrors.NewValidationError("categories", "duplicate category", c)
			}
			m[c] = i
		}
		out[j] = m
	}
	return out, nil
}
