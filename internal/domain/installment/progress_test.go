package installment

import (
	"testing"
	"time"

	"github.com/branchschool/installments/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseProgressTracker_IsGenerationAllowed(t *testing.T) {
	tracker := NewPhaseProgressTracker()

	tests := []struct {
		name      string
		total     *int
		generated int
		allowed   bool
		remaining int
		bounded   bool
	}{
		{name: "fresh_plan", total: lo.ToPtr(3), generated: 0, allowed: true, remaining: 3, bounded: true},
		{name: "last_phase_left", total: lo.ToPtr(3), generated: 2, allowed: true, remaining: 1, bounded: true},
		{name: "exhausted", total: lo.ToPtr(3), generated: 3, allowed: false, remaining: 0, bounded: true},
		{name: "over_limit_never_negative", total: lo.ToPtr(3), generated: 5, allowed: false, remaining: 0, bounded: true},
		{name: "unbounded_fresh", total: nil, generated: 0, allowed: true, bounded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &Plan{TotalPhases: tt.total, GeneratedPhases: tt.generated}
			assert.Equal(t, tt.allowed, tracker.IsGenerationAllowed(plan))

			remaining, bounded := tracker.RemainingPhases(plan)
			assert.Equal(t, tt.bounded, bounded)
			if bounded {
				assert.Equal(t, tt.remaining, remaining)
			}
		})
	}
}

func TestPhaseProgressTracker_UnboundedNeverExhausts(t *testing.T) {
	tracker := NewPhaseProgressTracker()
	for _, generated := range []int{0, 1, 12, 120, 100000} {
		plan := &Plan{GeneratedPhases: generated}
		assert.True(t, tracker.IsGenerationAllowed(plan), "generated=%d", generated)
		assert.Equal(t, types.InstallmentPlanStateActive, tracker.State(plan))
	}
}

func TestPhaseProgressTracker_State(t *testing.T) {
	tracker := NewPhaseProgressTracker()
	paidAt := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	downpayment := lo.ToPtr(decimal.NewFromInt(500))

	assert.Equal(t, types.InstallmentPlanStateAwaitingDownpayment,
		tracker.State(&Plan{TotalPhases: lo.ToPtr(3), DownpaymentAmount: downpayment}))
	assert.Equal(t, types.InstallmentPlanStateActive,
		tracker.State(&Plan{TotalPhases: lo.ToPtr(3), DownpaymentAmount: downpayment, DownpaymentPaidAt: &paidAt}))
	assert.Equal(t, types.InstallmentPlanStateActive,
		tracker.State(&Plan{TotalPhases: lo.ToPtr(3), DownpaymentAmount: lo.ToPtr(decimal.Zero)}))
	assert.Equal(t, types.InstallmentPlanStateExhausted,
		tracker.State(&Plan{TotalPhases: lo.ToPtr(3), GeneratedPhases: 3, DownpaymentAmount: downpayment}))
}

func TestPhaseProgressTracker_Progress(t *testing.T) {
	tracker := NewPhaseProgressTracker()
	plan := &Plan{
		ID:                 "iplan_1",
		FrequencyMonths:    2,
		TotalPhases:        lo.ToPtr(6),
		GeneratedPhases:    2,
		NextGenerationDate: lo.ToPtr(types.MustParseDate("2026-06-25")),
		NextInvoiceMonth:   lo.ToPtr(types.MustParseDate("2026-06-01")),
	}

	p := tracker.Progress(plan)
	require.NotNil(t, p.RemainingPhases)
	assert.Equal(t, 4, *p.RemainingPhases)
	assert.True(t, p.Bounded)
	assert.Equal(t, types.InstallmentPlanStateActive, p.State)
	assert.Equal(t, 2, p.FrequencyMonths)
	assert.Equal(t, "2026-06-25", p.NextGenerationDate.String())

	unbounded := tracker.Progress(&Plan{ID: "iplan_2", FrequencyMonths: 1})
	assert.Nil(t, unbounded.RemainingPhases)
	assert.False(t, unbounded.Bounded)
}
