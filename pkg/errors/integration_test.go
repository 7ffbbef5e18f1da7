package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	medErrors "github.com/ezoic/medcost/pkg/errors"
)

func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := medErrors.NewNotFittedError("StandardScaler", "Transform")

	wrappedErr := fmt.Errorf("router step failed: %w", originalErr)

	assert.True(t, errors.Is(wrappedErr, originalErr))
	assert.True(t, errors.Is(wrappedErr, medErrors.ErrNotFitted))

	var notFittedErr *medErrors.NotFittedError
	require.True(t, errors.As(wrappedErr, &notFittedErr))
	assert.Equal(t, "StandardScaler", notFittedErr.ModelName)
}

func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")

	customErr := medErrors.NewModelError("TestOp", "test failure", stdErr)
	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	assert.True(t, errors.Is(wrappedErr, stdErr))

	var modelErr *medErrors.ModelError
	require.True(t, errors.As(wrappedErr, &modelErr))
	assert.Equal(t, stdErr, modelErr.Unwrap())
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"empty data", medErrors.NewModelError("Op", "empty data", medErrors.ErrEmptyData), medErrors.ErrEmptyData},
		{"dimension", medErrors.NewDimensionError("Op", 3, 2, 1), medErrors.ErrDimensionMismatch},
		{"out of range", medErrors.NewOutOfRangeError("age", 120, 18, 100), medErrors.ErrOutOfRange},
		{"unknown category", medErrors.NewUnknownCategoryError("sex", "x", nil), medErrors.ErrUnknownCategory},
		{"artifact", medErrors.NewArtifactError("all", "p", medErrors.ErrEmptyData), medErrors.ErrArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := medErrors.Wrap(tt.err, "outer")
			assert.True(t, medErrors.Is(wrapped, tt.sentinel))
		})
	}
}

func TestArtifactErrorKeepsCause(t *testing.T) {
	err := medErrors.NewArtifactError("all", "models/model_all.json", medErrors.ErrEmptyData)

	assert.True(t, errors.Is(err, medErrors.ErrArtifact))
	assert.True(t, errors.Is(err, medErrors.ErrEmptyData))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer medErrors.Recover(&err, "Panicky.Op")
		panic("boom")
	}

	err := run()
	require.Error(t, err)

	var modelErr *medErrors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "Panicky.Op", modelErr.Op)
	assert.Contains(t, err.Error(), "boom")
}

func TestOutOfRangeMessage(t *testing.T) {
	err := medErrors.NewOutOfRangeError("bmi", 55.5, 15, 50)
	assert.Equal(t, "bmi 55.5 outside [15, 50]", err.Error())
}
