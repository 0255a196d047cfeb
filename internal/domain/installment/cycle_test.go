package installment

import (
	"testing"
	"time"

	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(t *testing.T) *CycleDateCalculator {
	t.Helper()
	calc, err := NewCycleDateCalculator(DefaultCyclePolicy())
	require.NoError(t, err)
	return calc
}

func TestCycleDateCalculator_Compute(t *testing.T) {
	tests := []struct {
		name      string
		anchor    string
		frequency int
		expected  CycleDates
	}{
		{
			name:      "mid_february_monthly",
			anchor:    "2026-02-09",
			frequency: 1,
			expected: CycleDates{
				Issue:            types.MustParseDate("2026-02-09"),
				InvoiceMonth:     types.MustParseDate("2026-03-01"),
				Generation:       types.MustParseDate("2026-03-25"),
				Due:              types.MustParseDate("2026-04-05"),
				NextIssue:        types.MustParseDate("2026-04-25"),
				NextInvoiceMonth: types.MustParseDate("2026-04-01"),
				NextGeneration:   types.MustParseDate("2026-04-25"),
				NextDue:          types.MustParseDate("2026-05-05"),
			},
		},
		{
			name:      "november_bimonthly_crosses_year",
			anchor:    "2025-11-20",
			frequency: 2,
			expected: CycleDates{
				Issue:            types.MustParseDate("2025-11-20"),
				InvoiceMonth:     types.MustParseDate("2025-12-01"),
				Generation:       types.MustParseDate("2025-12-25"),
				Due:              types.MustParseDate("2026-01-05"),
				NextIssue:        types.MustParseDate("2026-02-25"),
				NextInvoiceMonth: types.MustParseDate("2026-02-01"),
				NextGeneration:   types.MustParseDate("2026-02-25"),
				NextDue:          types.MustParseDate("2026-03-05"),
			},
		},
		{
			name:      "december_anchor_bills_january",
			anchor:    "2025-12-31",
			frequency: 3,
			expected: CycleDates{
				Issue:            types.MustParseDate("2025-12-31"),
				InvoiceMonth:     types.MustParseDate("2026-01-01"),
				Generation:       types.MustParseDate("2026-01-25"),
				Due:              types.MustParseDate("2026-02-05"),
				NextIssue:        types.MustParseDate("2026-04-25"),
				NextInvoiceMonth: types.MustParseDate("2026-04-01"),
				NextGeneration:   types.MustParseDate("2026-04-25"),
				NextDue:          types.MustParseDate("2026-05-05"),
			},
		},
		{
			name:      "end_of_january_is_not_clamped",
			anchor:    "2024-01-31",
			frequency: 1,
			expected: CycleDates{
				Issue:            types.MustParseDate("2024-01-31"),
				InvoiceMonth:     types.MustParseDate("2024-02-01"),
				Generation:       types.MustParseDate("2024-02-25"),
				Due:              types.MustParseDate("2024-03-05"),
				NextIssue:        types.MustParseDate("2024-03-25"),
				NextInvoiceMonth: types.MustParseDate("2024-03-01"),
				NextGeneration:   types.MustParseDate("2024-03-25"),
				NextDue:          types.MustParseDate("2024-04-05"),
			},
		},
		{
			name:      "yearly",
			anchor:    "2026-06-15",
			frequency: 12,
			expected: CycleDates{
				Issue:            types.MustParseDate("2026-06-15"),
				InvoiceMonth:     types.MustParseDate("2026-07-01"),
				Generation:       types.MustParseDate("2026-07-25"),
				Due:              types.MustParseDate("2026-08-05"),
				NextIssue:        types.MustParseDate("2027-07-25"),
				NextInvoiceMonth: types.MustParseDate("2027-07-01"),
				NextGeneration:   types.MustParseDate("2027-07-25"),
				NextDue:          types.MustParseDate("2027-08-05"),
			},
		},
	}

	calc := newTestCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Compute(types.MustParseDate(tt.anchor), tt.frequency)
			require.NoError(t, err)
			assert.Equal(t, tt.expected.Issue.String(), got.Issue.String(), "issue")
			assert.Equal(t, tt.expected.InvoiceMonth.String(), got.InvoiceMonth.String(), "invoice_month")
			assert.Equal(t, tt.expected.Generation.String(), got.Generation.String(), "generation")
			assert.Equal(t, tt.expected.Due.String(), got.Due.String(), "due")
			assert.Equal(t, tt.expected.NextIssue.String(), got.NextIssue.String(), "next_issue")
			assert.Equal(t, tt.expected.NextInvoiceMonth.String(), got.NextInvoiceMonth.String(), "next_invoice_month")
			assert.Equal(t, tt.expected.NextGeneration.String(), got.NextGeneration.String(), "next_generation")
			assert.Equal(t, tt.expected.NextDue.String(), got.NextDue.String(), "next_due")
		})
	}
}

func TestCycleDateCalculator_OrderingAndSpacing(t *testing.T) {
	calc := newTestCalculator(t)
	start := types.NewDate(2024, time.January, 1)
	end := types.NewDate(2027, time.January, 1)

	for _, freq := range []int{1, 2, 3, 6, 12} {
		for anchor := start; anchor.Before(end); anchor = types.DateOf(anchor.Time().AddDate(0, 0, 1)) {
			got, err := calc.Compute(anchor, freq)
			require.NoError(t, err)

			assert.False(t, got.Generation.Before(got.Issue), "issue after generation for %s freq %d", anchor, freq)
			assert.False(t, got.Due.Before(got.Generation), "generation after due for %s freq %d", anchor, freq)
			assert.Equal(t, 5, got.Due.Day())
			assert.Equal(t, 5, got.NextDue.Day())
			assert.Equal(t, 25, got.Generation.Day())
			assert.Equal(t, 25, got.NextGeneration.Day())
			assert.Equal(t, 1, got.InvoiceMonth.Day())
			assert.Equal(t, 1, got.NextInvoiceMonth.Day())
			assert.Equal(t, freq, got.InvoiceMonth.MonthsUntil(got.NextInvoiceMonth), "spacing for %s freq %d", anchor, freq)
			assert.True(t, got.NextIssue.Equal(got.NextGeneration))
		}
	}
}

func TestCycleDateCalculator_InvalidFrequency(t *testing.T) {
	calc := newTestCalculator(t)
	for _, freq := range []int{0, -1, -12} {
		_, err := calc.Compute(types.MustParseDate("2026-02-09"), freq)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
		assert.Contains(t, ierr.ReportableDetails(err), "frequency_months")
	}
}

func TestCycleDateCalculator_ZeroAnchor(t *testing.T) {
	calc := newTestCalculator(t)
	_, err := calc.Compute(types.Date{}, 1)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestCycleDateCalculator_CustomPolicy(t *testing.T) {
	calc, err := NewCycleDateCalculator(CyclePolicy{DueDay: 10, GenerationDay: 20})
	require.NoError(t, err)

	got, err := calc.Compute(types.MustParseDate("2026-02-09"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got.InvoiceMonth.String())
	assert.Equal(t, "2026-03-20", got.Generation.String())
	assert.Equal(t, "2026-04-10", got.Due.String())
	assert.Equal(t, "2026-05-10", got.NextDue.String())
}

func TestCyclePolicy_Validate(t *testing.T) {
	_, err := NewCycleDateCalculator(CyclePolicy{DueDay: 31, GenerationDay: 0})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	details := ierr.ReportableDetails(err)
	assert.Contains(t, details, "due_day")
	assert.Contains(t, details, "generation_day")
}

func TestCycleDateCalculator_ComputeFromPointer(t *testing.T) {
	calc := newTestCalculator(t)
	asOf := types.MustParseDate("2026-05-02")

	t.Run("continues_stored_pointer", func(t *testing.T) {
		plan := &Plan{
			FrequencyMonths:    1,
			NextInvoiceMonth:   lo.ToPtr(types.MustParseDate("2026-04-01")),
			NextGenerationDate: lo.ToPtr(types.MustParseDate("2026-04-25")),
		}

		got, err := calc.ComputeFromPointer(plan, asOf)
		require.NoError(t, err)
		assert.Equal(t, "2026-04-25", got.Issue.String())
		assert.Equal(t, "2026-04-01", got.InvoiceMonth.String())
		assert.Equal(t, "2026-04-25", got.Generation.String())
		assert.Equal(t, "2026-05-05", got.Due.String())
		assert.Equal(t, "2026-05-01", got.NextInvoiceMonth.String())
		assert.Equal(t, "2026-05-25", got.NextGeneration.String())
	})

	t.Run("late_override_pointer_keeps_ordering", func(t *testing.T) {
		plan := &Plan{
			FrequencyMonths:    1,
			NextInvoiceMonth:   lo.ToPtr(types.MustParseDate("2026-04-01")),
			NextGenerationDate: lo.ToPtr(types.MustParseDate("2026-05-10")),
		}

		got, err := calc.ComputeFromPointer(plan, types.MustParseDate("2026-05-10"))
		require.NoError(t, err)
		assert.Equal(t, "2026-04-25", got.Issue.String())
		assert.Equal(t, "2026-04-25", got.Generation.String())
		assert.Equal(t, "2026-05-05", got.Due.String())
		assert.False(t, got.Issue.After(got.Generation))
		assert.False(t, got.Generation.After(got.Due))
	})

	t.Run("early_override_pointer_issues_on_stored_date", func(t *testing.T) {
		plan := &Plan{
			FrequencyMonths:    1,
			NextInvoiceMonth:   lo.ToPtr(types.MustParseDate("2026-04-01")),
			NextGenerationDate: lo.ToPtr(types.MustParseDate("2026-04-12")),
		}

		got, err := calc.ComputeFromPointer(plan, asOf)
		require.NoError(t, err)
		assert.Equal(t, "2026-04-12", got.Issue.String())
		assert.Equal(t, "2026-04-25", got.Generation.String())
	})

	t.Run("without_pointer_anchors_on_as_of", func(t *testing.T) {
		got, err := calc.ComputeFromPointer(&Plan{FrequencyMonths: 2}, asOf)
		require.NoError(t, err)
		assert.Equal(t, "2026-05-02", got.Issue.String())
		assert.Equal(t, "2026-06-01", got.InvoiceMonth.String())
		assert.Equal(t, "2026-08-01", got.NextInvoiceMonth.String())
	})
}
