package insurance

import (
	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// EncodeRecord returns the raw numeric values [age, bmi, children] and the
// encoded categorical values of rec, using the shared encoding table.
func EncodeRecord(rec Record) ([NumNumeric]float64, [NumCategorical]float64, error) {
	numeric := [NumNumeric]float64{float64(rec.Age), rec.BMI, float64(rec.Children)}
	categorical, err := shared.Categorical(rec.Sex, rec.Smoker, rec.Region)
	return numeric, categorical, err
}

// AssembleFeatures concatenates numeric and categorical values in FeatureNames order.
// numeric is scaled at serving time and raw when building the training frame.
func AssembleFeatures(numeric []float64, categorical [NumCategorical]float64) ([]float64, error) {
	if len(numeric) != NumNumeric {
		return nil, medErrors.NewDimensionError("AssembleFeatures", NumNumeric, len(numeric), 1)
	}
	out := make([]float64, 0, NumFeatures)
	out = append(out, numeric...)
	out = append(out, categorical[:]...)
	return out, nil
}
