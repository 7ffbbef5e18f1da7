// Package errors provides the error taxonomy shared by every medcost package.
//
// It is a thin layer over github.com/cockroachdb/errors: sentinel errors identify
// a failure class, typed errors carry the structured context (operation, dimensions,
// offending value), and everything stays compatible with errors.Is / errors.As.
//
// The four failure classes of the system map onto it as follows:
//
//   - StartupFailure: *ArtifactError (a model or scaler artifact could not be loaded)
//   - InputOutOfRange: *OutOfRangeError
//   - UnknownCategory: *UnknownCategoryError
//   - DataFileError: errors wrapping ErrMissingColumn, ErrEmptyData or a CSV parse error
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	ErrEmptyData         = errors.New("empty data")
	ErrSingularMatrix    = errors.New("singular matrix")
	ErrNotImplemented    = errors.New("not implemented")
	ErrNotFitted         = errors.New("not fitted")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrMissingColumn     = errors.New("missing column")
	ErrOutOfRange        = errors.New("value out of range")
	ErrArtifact          = errors.New("artifact unavailable")
)

// Re-exports so callers need a single errors import.
var (
	New    = errors.New
	Newf   = errors.Newf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// ModelError is a failure inside an estimator operation.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError creates a ModelError.
func NewModelError(op, kind string, err error) *ModelError {
	return &ModelError{Op: op, Kind: kind, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("medcost: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("medcost: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// DimensionError reports a shape mismatch. Axis 0 means rows, 1 means columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "features"
	}
	return fmt.Sprintf("%s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NotFittedError is returned when an estimator is used before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: this instance is not fitted yet, call Fit before %s", e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError creates a ValidationError.
func NewValidationError(paramName, reason string, value interface{}) *ValidationError {
	return &ValidationError{ParamName: paramName, Reason: reason, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (got %v)", e.ParamName, e.Reason, e.Value)
}

// UnknownCategoryError reports a categorical value outside its enumeration.
type UnknownCategoryError struct {
	Feature string
	Value   string
	Known   []string
}

// NewUnknownCategoryError creates an UnknownCategoryError.
func NewUnknownCategoryError(feature, value string, known []string) *UnknownCategoryError {
	return &UnknownCategoryError{Feature: feature, Value: value, Known: known}
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q (expected one of: %s)", e.Feature, e.Value, strings.Join(e.Known, ", "))
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// OutOfRangeError reports a numeric field outside its inclusive bounds.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

// NewOutOfRangeError creates an OutOfRangeError.
func NewOutOfRangeError(field string, value, min, max float64) *OutOfRangeError {
	return &OutOfRangeError{Field: field, Value: value, Min: min, Max: max}
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// ArtifactError reports a model or scaler artifact that could not be loaded.
type ArtifactError struct {
	Segment string
	Path    string
	Err     error
}

// NewArtifactError creates an ArtifactError.
func NewArtifactError(segment, path string, err error) *ArtifactError {
	return &ArtifactError{Segment: segment, Path: path, Err: err}
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Segment, e.Path, e.Err)
}

// Is makes every ArtifactError match ErrArtifact in addition to its cause.
func (e *ArtifactError) Is(target error) bool { return target == ErrArtifact }

func (e *ArtifactError) Unwrap() error { return e.Err }

// Recover converts a panic raised inside op into a ModelError stored in *err.
// It must be deferred directly:
//
//	defer errors.Recover(&err, "StandardScaler.Fit")
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		var cause error
		switch v := r.(type) {
		case error:
			cause = v
		default:
			cause = errors.Newf("%v", v)
		}
		*err = NewModelError(op, "panic recovered", errors.WithStack(cause))
	}
}
