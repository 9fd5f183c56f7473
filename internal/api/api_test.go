package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/validation"
)

func TestNewValidationReport(t *testing.T) {
	var result validation.Result
	result.AddError("duration", validation.ErrorTypeInvalidValue, "Duration must be greater than 0", 0)
	result.AddWarning("date", validation.ErrorTypeBusinessRule, "Entry is recorded on a weekend", "2024-01-20")

	report := newValidationReport(result)

	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, Finding{Field: "duration", Type: string(validation.ErrorTypeInvalidValue), Message: "Duration must be greater than 0"}, report.Errors[0])
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "date", report.Warnings[0].Field)
}

func TestNewValidationReportEmptyResult(t *testing.T) {
	report := newValidationReport(validation.Result{})

	assert.True(t, report.Valid)
	assert.NotNil(t, report.Errors)
	assert.NotNil(t, report.Warnings)
}

func TestRequireIDs(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		field string
	}{
		{name: "all present", pairs: []string{"tenant_id", "t1", "id", "e1"}},
		{name: "blank tenant", pairs: []string{"tenant_id", "", "id", "e1"}, field: "tenant_id"},
		{name: "whitespace id", pairs: []string{"tenant_id", "t1", "id", "  "}, field: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireIDs(tt.pairs...)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assertInvalidInput(t, err, tt.field)
		})
	}
}

func TestEntryPtrsShareBackingArray(t *testing.T) {
	entries := []domain.TimeEntry{{ID: "a"}, {ID: "b"}}

	ptrs := entryPtrs(entries)

	require.Len(t, ptrs, 2)
	assert.Equal(t, "b", ptrs[1].ID)
	ptrs[0].Description = "changed"
	assert.Equal(t, "changed", entries[0].Description)
}
