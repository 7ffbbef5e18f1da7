package insurance

import (
	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// Record is one applicant.
type Record struct {
	Age      int     `json:"age" form:"age"`
	BMI      float64 `json:"bmi" form:"bmi"`
	Children int     `json:"children" form:"children"`
	Sex      Sex     `json:"sex" form:"sex"`
	Smoker   Smoker  `json:"smoker" form:"smoker"`
	Region   Region  `json:"region" form:"region"`
}

// Bounds are the accepted input ranges, inclusive.
type Bounds struct {
	AgeMin, AgeMax           int
	BMIMin, BMIMax           float64
	ChildrenMin, ChildrenMax int
}

// DefaultBounds match the ranges offered by the input form.
var DefaultBounds = Bounds{
	AgeMin: 18, AgeMax: 100,
	BMIMin: 15.0, BMIMax: 50.0,
	ChildrenMin: 0, ChildrenMax: 10,
}

// Validate checks rec against DefaultBounds and the category lists.
func (rec Record) Validate() error {
	return rec.ValidateWithin(DefaultBounds)
}

// ValidateWithin checks rec against b and the category lists.
func (rec Record) ValidateWithin(b Bounds) error {
	if rec.Age < b.AgeMin || rec.Age > b.AgeMax {
		return medErrors.NewOutOfRangeError(ColAge, float64(rec.Age), float64(b.AgeMin), float64(b.AgeMax))
	}
	if rec.BMI < b.BMIMin || rec.BMI > b.BMIMax {
		return medErrors.NewOutOfRangeError(ColBMI, rec.BMI, b.BMIMin, b.BMIMax)
	}
	if rec.Children < b.ChildrenMin || rec.Children > b.ChildrenMax {
		return medErrors.NewOutOfRangeError(ColChildren, float64(rec.Children), float64(b.ChildrenMin), float64(b.ChildrenMax))
	}
	return rec.validateCategories()
}

func (rec Record) validateCategories() error {
	if _, err := ParseSex(string(rec.Sex)); err != nil {
		return err
	}
	if _, err := ParseSmoker(string(rec.Smoker)); err != nil {
		return err
	}
	if _, err := ParseRegion(string(rec.Region)); err != nil {
		return err
	}
	return nil
}

// Normalize returns rec with categorical values lower-cased and trimmed.
// Values that do not parse are left as they are for Validate to report.
func (rec Record) Normalize() Record {
	rec.Sex = Sex(normalize(string(rec.Sex)))
	rec.Smoker = Smoker(normalize(string(rec.Smoker)))
	rec.Region = Region(normalize(string(rec.Region)))
	return rec
}
