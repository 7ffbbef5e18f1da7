package insurance

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/sklearn/model_selection"
)

// Frame is a dense numeric table with named columns.
// Data is nil or empty when the frame has no rows.
type Frame struct {
	Columns []string
	Data    *mat.Dense
}

// NewFrame checks that data has one column per name.
func NewFrame(columns []string, data *mat.Dense) (*Frame, error) {
	if data == nil || data.IsEmpty() {
		return &Frame{Columns: slices.Clone(columns), Data: &mat.Dense{}}, nil
	}
	_, c := data.Dims()
	if c != len(columns) {
		return nil, medErrors.NewDimensionError("NewFrame", len(columns), c, 1)
	}
	return &Frame{Columns: slices.Clone(columns), Data: data}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f.Data == nil || f.Data.IsEmpty() {
		return 0
	}
	r, _ := f.Data.Dims()
	return r
}

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.Columns) }

// ColumnIndex returns the position of name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	return slices.Index(f.Columns, name)
}

// HasColumn reports whether name is a column of f.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// Column copies one column.
func (f *Frame) Column(name string) (*mat.VecDense, error) {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil, missingColumn(name)
	}
	n := f.Len()
	if n == 0 {
		return &mat.VecDense{}, nil
	}
	v := mat.NewVecDense(n, nil)
	mat.Col(v.RawVector().Data, j, f.Data)
	return v, nil
}

// Row copies row i.
func (f *Frame) Row(i int) []float64 {
	return mat.Row(nil, i, f.Data)
}

// Select returns a new frame with the named columns, in the given order.
// Selecting no columns from a non-empty frame is an error.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j := f.ColumnIndex(name)
		if j < 0 {
			return nil, missingColumn(name)
		}
		idx[k] = j
	}

	n := f.Len()
	if n == 0 {
		return NewFrame(names, nil)
	}
	if len(names) == 0 {
		return nil, medErrors.NewValueError("Frame.Select", fmt.Sprintf("no columns selected from %d rows", n))
	}
	out := mat.NewDense(n, len(idx), nil)
	for i := 0; i < n; i++ {
		for k, j := range idx {
			out.Set(i, k, f.Data.At(i, j))
		}
	}
	return NewFrame(names, out)
}

// Drop returns a new frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	for _, name := range names {
		if !f.HasColumn(name) {
			return nil, missingColumn(name)
		}
	}
	keep := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		if !slices.Contains(names, c) {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// Rows returns a new frame with the rows at idx, renumbered from 0.
func (f *Frame) Rows(idx []int) *Frame {
	if len(idx) == 0 || f.Len() == 0 {
		return &Frame{Columns: slices.Clone(f.Columns), Data: &mat.Dense{}}
	}
	data, _ := model_selection.TakeRows(f.Data, nil, idx)
	return &Frame{Columns: slices.Clone(f.Columns), Data: data}
}

// Where returns the rows for which keep returns true.
func (f *Frame) Where(keep func(row []float64) bool) *Frame {
	var idx []int
	for i := 0; i < f.Len(); i++ {
		if keep(f.Data.RawRowView(i)) {
			idx = append(idx, i)
		}
	}
	return f.Rows(idx)
}

// ReplaceColumns overwrites the named columns with the columns of values.
func (f *Frame) ReplaceColumns(names []string, values mat.Matrix) (*Frame, error) {
	r, c := values.Dims()
	if c != len(names) {
		return nil, medErrors.NewDimensionError("Frame.ReplaceColumns", len(names), c, 1)
	}
	if r != f.Len() {
		return nil, medErrors.NewDimensionError("Frame.ReplaceColumns", f.Len(), r, 0)
	}
	idx := make([]int, len(names))
	for k, name := range names {
		if idx[k] = f.ColumnIndex(name); idx[k] < 0 {
			return nil, missingColumn(name)
		}
	}

	if r == 0 {
		return NewFrame(f.Columns, nil)
	}

	out := mat.DenseCopyOf(f.Data)
	for i := 0; i < r; i++ {
		for k, j := range idx {
			out.Set(i, j, values.At(i, k))
		}
	}
	return NewFrame(f.Columns, out)
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%d rows, columns=%v)", f.Len(), f.Columns)
}

func missingColumn(name string) error {
	return medErrors.Wrapf(medErrors.ErrMissingColumn, "column %q", name)
}
