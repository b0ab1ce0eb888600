package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidationErrorsKeysOnJSONNames(t *testing.T) {
	type item struct {
		ID      string `json:"id" validate:"required,uuid"`
		Order   int    `json:"order" validate:"gte=0"`
		DueDate *int   `json:"dueDate,omitempty" validate:"required"`
	}

	v := NewValidator()
	err := v.ValidateStruct(item{Order: -1})
	require.Error(t, err)

	fieldErrors := FormatValidationErrors(err)
	assert.Contains(t, fieldErrors, "id")
	assert.Contains(t, fieldErrors, "order")
	assert.Contains(t, fieldErrors, "dueDate")
	assert.NotContains(t, fieldErrors, "iD")
	assert.NotContains(t, fieldErrors, "ID")
}

func TestFormatValidationErrorsReportsAllViolations(t *testing.T) {
	type form struct {
		Title  string `json:"title" validate:"required"`
		Status string `json:"status" validate:"required,oneof=todo in_progress done"`
	}

	v := NewValidator()
	err := v.ValidateStruct(form{})
	require.Error(t, err)

	fieldErrors := FormatValidationErrors(err)
	assert.Len(t, fieldErrors, 2)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello \x00 "))
	assert.Equal(t, "", SanitizeString(" \x00 "))
}
