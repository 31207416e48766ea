package schedule

import (
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
)

// Cutoff is the wall-clock time after which a slot can no longer be
// cancelled for same-day (and next-day lunch/dinner) deliveries.
type Cutoff struct {
	Hour   int
	Minute int
}

// DefaultCutoffs maps each time slot to its cancellation cutoff.
var DefaultCutoffs = map[string]Cutoff{
	models.SlotBreakfast: {Hour: 7, Minute: 0},
	models.SlotLunch:     {Hour: 11, Minute: 0},
	models.SlotDinner:    {Hour: 18, Minute: 0},
}

// CanCancelDelivery decides whether a delivery date/slot pair may still be
// cancelled at the given moment, using the default cutoff table.
func CanCancelDelivery(now, deliveryDate time.Time, slot string) (bool, string) {
	return CanCancelWithCutoffs(now, deliveryDate, slot, DefaultCutoffs)
}

// CanCancelWithCutoffs is the policy proper. The window is exactly
// today..today+2:
//   - past deliveries can never be cancelled
//   - more than 2 days out is too early to cancel
//   - two days ahead is always allowed
//   - next-day breakfast is always allowed; next-day lunch/dinner close once
//     today's clock passes that slot's cutoff
//   - same-day closes once the clock passes the slot's cutoff
func CanCancelWithCutoffs(now, deliveryDate time.Time, slot string, cutoffs map[string]Cutoff) (bool, string) {
	loc := config.DeliveryLocation()
	nowLocal := now.In(loc)

	daysAhead := civilDaysBetween(nowLocal, deliveryDate.In(loc))
	switch {
	case daysAhead < 0:
		return false, "delivery date is in the past"
	case daysAhead > 2:
		return false, "cancellation opens 2 days before delivery"
	case daysAhead == 2:
		return true, ""
	}

	cutoff, ok := cutoffs[slot]
	if !ok {
		return false, "unknown time slot"
	}

	if daysAhead == 1 {
		if slot == models.SlotBreakfast {
			return true, ""
		}
		if beforeCutoff(nowLocal, cutoff) {
			return true, ""
		}
		return false, "cutoff for tomorrow's " + slot + " has passed"
	}

	// Same day
	if beforeCutoff(nowLocal, cutoff) {
		return true, ""
	}
	return false, "cutoff for today's " + slot + " has passed"
}

func beforeCutoff(now time.Time, c Cutoff) bool {
	minutes := now.Hour()*60 + now.Minute()
	return minutes < c.Hour*60+c.Minute
}

// civilDaysBetween counts calendar-day boundaries between two instants in
// the same zone.
func civilDaysBetween(from, to time.Time) int {
	fromMidnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toMidnight := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toMidnight.Sub(fromMidnight) / (24 * time.Hour))
}
