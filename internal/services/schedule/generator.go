// Package schedule expands an order's delivery schedule into concrete dates
// and decides cancellation windows. Everything here is pure: no storage, no
// clock reads, all date arithmetic anchored to the configured civil zone.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
)

const (
	// MonthWindowDays is how many consecutive dates a month schedule yields.
	MonthWindowDays = 30
	// SpecificDaysWindow is the forward window scanned for weekday matches.
	SpecificDaysWindow = 30

	dateLayout = "2006-01-02"
)

var (
	ErrUnknownScheduleType = errors.New("unknown schedule type")
	ErrNoDeliveryDates     = errors.New("schedule produced no delivery dates")
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// GenerateDeliveryDates expands a schedule descriptor into individual
// delivery dates. Every returned instant is midnight in the delivery zone;
// constructing raw UTC dates here would shift the weekday for zones ahead of
// UTC and silently break specific_days matching.
func GenerateDeliveryDates(info models.DeliveryInfo, now time.Time) ([]time.Time, error) {
	loc := config.DeliveryLocation()
	anchor, err := anchorDate(info.StartDate, now, loc)
	if err != nil {
		return nil, err
	}

	switch info.Type {
	case models.ScheduleTypeMonth:
		dates := make([]time.Time, 0, MonthWindowDays)
		for i := 0; i < MonthWindowDays; i++ {
			dates = append(dates, anchor.AddDate(0, 0, i))
		}
		return dates, nil

	case models.ScheduleTypeSpecificDays:
		wanted := make(map[time.Weekday]bool, len(info.Days))
		for _, name := range info.Days {
			wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, fmt.Errorf("invalid weekday name %q", name)
			}
			wanted[wd] = true
		}
		if len(wanted) == 0 {
			return nil, ErrNoDeliveryDates
		}

		var dates []time.Time
		for i := 0; i < SpecificDaysWindow; i++ {
			day := anchor.AddDate(0, 0, i)
			if wanted[day.Weekday()] {
				dates = append(dates, day)
			}
		}
		if len(dates) == 0 {
			return nil, ErrNoDeliveryDates
		}
		return dates, nil

	case models.ScheduleTypeCustomDates:
		if len(info.Dates) == 0 {
			return nil, ErrNoDeliveryDates
		}
		dates := make([]time.Time, 0, len(info.Dates))
		for _, raw := range info.Dates {
			d, err := time.ParseInLocation(dateLayout, raw, loc)
			if err != nil {
				return nil, fmt.Errorf("invalid delivery date %q: %w", raw, err)
			}
			dates = append(dates, d)
		}
		return dates, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheduleType, info.Type)
	}
}

// anchorDate resolves the schedule start to a zone-local midnight.
func anchorDate(startDate string, now time.Time, loc *time.Location) (time.Time, error) {
	if startDate != "" {
		d, err := time.ParseInLocation(dateLayout, startDate, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		return d, nil
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}
