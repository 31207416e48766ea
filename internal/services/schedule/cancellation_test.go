package schedule

import (
	"testing"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"

	"github.com/stretchr/testify/assert"
)

func istTime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, config.DeliveryLocation())
}

func TestCanCancelDelivery(t *testing.T) {
	today := istDate(2025, 3, 10)

	tests := []struct {
		name     string
		now      time.Time
		delivery time.Time
		slot     string
		want     bool
	}{
		{"past delivery", istTime(2025, 3, 10, 9, 0), istDate(2025, 3, 9), models.SlotLunch, false},
		{"far future delivery", istTime(2025, 3, 10, 9, 0), istDate(2025, 3, 14), models.SlotLunch, false},
		{"two days ahead always allowed", istTime(2025, 3, 10, 23, 59), istDate(2025, 3, 12), models.SlotDinner, true},

		{"same-day breakfast before 7am", istTime(2025, 3, 10, 6, 59), today, models.SlotBreakfast, true},
		{"same-day breakfast at 7am", istTime(2025, 3, 10, 7, 0), today, models.SlotBreakfast, false},
		{"same-day breakfast after 7am", istTime(2025, 3, 10, 8, 30), today, models.SlotBreakfast, false},
		{"same-day lunch before 11am", istTime(2025, 3, 10, 10, 59), today, models.SlotLunch, true},
		{"same-day lunch after 11am", istTime(2025, 3, 10, 11, 0), today, models.SlotLunch, false},
		{"same-day dinner before 6pm", istTime(2025, 3, 10, 17, 59), today, models.SlotDinner, true},
		{"same-day dinner after 6pm", istTime(2025, 3, 10, 18, 0), today, models.SlotDinner, false},

		{"next-day breakfast always allowed", istTime(2025, 3, 10, 23, 0), istDate(2025, 3, 11), models.SlotBreakfast, true},
		{"next-day lunch before cutoff", istTime(2025, 3, 10, 10, 0), istDate(2025, 3, 11), models.SlotLunch, true},
		{"next-day lunch after cutoff", istTime(2025, 3, 10, 12, 0), istDate(2025, 3, 11), models.SlotLunch, false},
		{"next-day dinner before cutoff", istTime(2025, 3, 10, 17, 0), istDate(2025, 3, 11), models.SlotDinner, true},
		{"next-day dinner after cutoff", istTime(2025, 3, 10, 19, 0), istDate(2025, 3, 11), models.SlotDinner, false},

		{"unknown slot", istTime(2025, 3, 10, 6, 0), today, "brunch", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := CanCancelDelivery(tt.now, tt.delivery, tt.slot)
			assert.Equal(t, tt.want, got)
			if !got {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCanCancelDelivery_PastRegardlessOfSlot(t *testing.T) {
	now := istTime(2025, 3, 10, 0, 1)
	yesterday := istDate(2025, 3, 9)

	for _, slot := range []string{models.SlotBreakfast, models.SlotLunch, models.SlotDinner} {
		ok, _ := CanCancelDelivery(now, yesterday, slot)
		assert.False(t, ok, "slot %s", slot)
	}
}

func TestCanCancelDelivery_DeterministicForSameInputs(t *testing.T) {
	now := istTime(2025, 3, 10, 10, 30)
	delivery := istDate(2025, 3, 11)

	first, reason1 := CanCancelDelivery(now, delivery, models.SlotLunch)
	second, reason2 := CanCancelDelivery(now, delivery, models.SlotLunch)
	assert.Equal(t, first, second)
	assert.Equal(t, reason1, reason2)
}

func TestCanCancelWithCutoffs_CustomTable(t *testing.T) {
	cutoffs := map[string]Cutoff{
		models.SlotLunch: {Hour: 9, Minute: 30},
	}
	now := istTime(2025, 3, 10, 9, 29)
	ok, _ := CanCancelWithCutoffs(now, istDate(2025, 3, 10), models.SlotLunch, cutoffs)
	assert.True(t, ok)

	now = istTime(2025, 3, 10, 9, 30)
	ok, _ = CanCancelWithCutoffs(now, istDate(2025, 3, 10), models.SlotLunch, cutoffs)
	assert.False(t, ok)
}
