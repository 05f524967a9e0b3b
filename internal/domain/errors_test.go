package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluationError(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		row       int
		err       error
		wantMsg   string
		wantKind  ErrorKind
	}{
		{
			name:      "predict before fit",
			operation: "predict",
			row:       -1,
			err:       ErrNotFitted,
			wantMsg:   "evaluation error: operation=predict, err=model not fitted",
			wantKind:  KindNotFitted,
		},
		{
			name:      "row shape mismatch",
			operation: "predict",
			row:       3,
			err:       fmt.Errorf("%w: got 2 readings, want 3", ErrShapeMismatch),
			wantMsg:   "evaluation error: operation=predict, row=3, err=shape mismatch: got 2 readings, want 3",
			wantKind:  KindShapeMismatch,
		},
		{
			name:      "invalid reading",
			operation: "predict",
			row:       0,
			err:       ErrInvalidReading,
			wantMsg:   "evaluation error: operation=predict, row=0, err=invalid reading",
			wantKind:  KindInvalidReading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEvaluationError(tt.operation, tt.row, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error(), "Error message mismatch")
			assert.Equal(t, tt.operation, err.Op, "Operation mismatch")
			assert.Equal(t, tt.row, err.Row, "Row mismatch")
			assert.Equal(t, tt.wantKind, err.Kind(), "Kind mismatch")

			// Test error unwrapping
			assert.True(t, errors.Is(err, tt.err), "Should unwrap to underlying error")
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("KPI")
		err.AddError("missing labels")

		assert.Equal(t, "validation error for KPI: missing labels", err.Error())
		assert.True(t, err.HasErrors(), "Should have errors")
		assert.Len(t, err.Errors, 1, "Should have one error")
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("Category")
		err.AddError("no KPIs")
		err.AddErrorf("weight %d is not finite", 2)

		assert.Equal(t, "validation errors for Category: [no KPIs weight 2 is not finite]", err.Error())
		assert.Len(t, err.Errors, 2)
	})

	t.Run("no errors", func(t *testing.T) {
		err := NewValidationError("Goal")
		assert.False(t, err.HasErrors())
	})

	t.Run("unwraps to invalid configuration", func(t *testing.T) {
		err := NewValidationError("Goal")
		err.AddError("bad")
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFitted, KindOf(fmt.Errorf("wrap: %w", ErrNotFitted)))
	assert.Equal(t, KindInvalidConfiguration, KindOf(ErrInvalidConfiguration))

	assert.Equal(t, "not_fitted", KindNotFitted.String())
	assert.Equal(t, "invalid_configuration", KindInvalidConfiguration.String())
	assert.Equal(t, "shape_mismatch", KindShapeMismatch.String())
	assert.Equal(t, "invalid_reading", KindInvalidReading.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
