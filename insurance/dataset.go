package insurance

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/log"
)

// Dataset is a parsed insurance CSV.
type Dataset struct {
	Records []Record
	// Charges is nil when the file has no charges column.
	Charges []float64
}

// RequiredColumns must be present in every dataset header.
var RequiredColumns = []string{ColAge, ColSex, ColBMI, ColChildren, ColSmoker, ColRegion}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// HasTarget reports whether charges were loaded.
func (d *Dataset) HasTarget() bool { return d.Charges != nil }

// LoadCSV reads the dataset at path.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, medErrors.Wrapf(err, "open dataset %s", path)
	}
	defer func() { _ = file.Close() }()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, medErrors.Wrapf(err, "read dataset %s", path)
	}

	log.GetLoggerWithName("insurance").Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.SamplesKey, ds.Len(),
	)
	return ds, nil
}

// ReadCSV parses a header-first CSV. Columns are matched by name, extra columns
// are ignored and the charges column is optional.
//
// Categorical values must belong to the declared categories. Numeric ranges are
// not checked against DefaultBounds here: the bounds apply to form input, and the
// public dataset has BMI values above 50.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, medErrors.NewModelError("ReadCSV", "no header", medErrors.ErrEmptyData)
	}
	if err != nil {
		return nil, medErrors.Wrap(err, "read header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalize(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, missingColumn(name)
		}
	}
	chargesIdx, hasCharges := cols[TargetColumn]

	ds := &Dataset{}
	if hasCharges {
		ds.Charges = []float64{}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, medErrors.Wrap(err, "read row")
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRecord(row, cols)
		if err != nil {
			return nil, medErrors.Wrapf(err, "line %d", line)
		}
		ds.Records = append(ds.Records, rec)

		if hasCharges {
			charge, err := parseFloat(TargetColumn, row[chargesIdx])
			if err != nil {
				return nil, medErrors.Wrapf(err, "line %d", line)
			}
			if charge < 0 {
				return nil, medErrors.Wrapf(
					medErrors.NewOutOfRangeError(TargetColumn, charge, 0, math.Inf(1)), "line %d", line)
			}
			ds.Charges = append(ds.Charges, charge)
		}
	}

	if len(ds.Records) == 0 {
		return nil, medErrors.NewModelError("ReadCSV", "no data rows", medErrors.ErrEmptyData)
	}
	return ds, nil
}

func parseRecord(row []string, cols map[string]int) (Record, error) {
	var rec Record
	var err error

	if rec.Age, err = parseInt(ColAge, row[cols[ColAge]]); err != nil {
		return rec, err
	}
	if rec.BMI, err = parseFloat(ColBMI, row[cols[ColBMI]]); err != nil {
		return rec, err
	}
	if rec.Children, err = parseInt(ColChildren, row[cols[ColChildren]]); err != nil {
		return rec, err
	}
	if rec.Sex, err = ParseSex(row[cols[ColSex]]); err != nil {
		return rec, err
	}
	if rec.Smoker, err = ParseSmoker(row[cols[ColSmoker]]); err != nil {
		return rec, err
	}
	if rec.Region, err = ParseRegion(row[cols[ColRegion]]); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseFloat(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, medErrors.NewValueError("ReadCSV", fmt.Sprintf("%s: invalid number %q", col, s))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, medErrors.NewValueError("ReadCSV", fmt.Sprintf("%s: non-finite value %q", col, s))
	}
	return v, nil
}

// parseInt accepts integral floats such as "3.0".
func parseInt(col, s string) (int, error) {
	v, err := parseFloat(col, s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, medErrors.NewValueError("ReadCSV", fmt.Sprintf("%s: expected an integer, got %q", col, s))
	}
	return int(v), nil
}

// Encode turns the dataset into a numeric frame with columns FeatureNames,
// followed by charges when the dataset has a target. Numeric columns are raw.
func (d *Dataset) Encode() (*Frame, error) {
	columns := append([]string{}, FeatureNames...)
	if d.HasTarget() {
		columns = append(columns, TargetColumn)
	}
	if d.Len() == 0 {
		return NewFrame(columns, nil)
	}

	data := mat.NewDense(d.Len(), len(columns), nil)
	for i, rec := range d.Records {
		numeric, categorical, err := EncodeRecord(rec)
		if err != nil {
			return nil, medErrors.Wrapf(err, "record %d", i)
		}
		row, err := AssembleFeatures(numeric[:], categorical)
		if err != nil {
			return nil, err
		}
		if d.HasTarget() {
			row = append(row, d.Charges[i])
		}
		data.SetRow(i, row)
	}
	return NewFrame(columns, data)
}
