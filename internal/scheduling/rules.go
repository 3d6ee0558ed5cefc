package scheduling

import (
	"fmt"
	"time"
)

// Rules is the immutable scheduling policy: business hours, operating days,
// and the buffers padded around every appointment. Built once at startup from
// configuration and injected wherever slots are computed.
type Rules struct {
	location          *time.Location
	openHour          int
	closeHour         int
	operatingWeekdays map[time.Weekday]bool
	appointmentBuffer time.Duration
	travelBuffer      time.Duration
}

// NewRules validates and builds the scheduling policy. The travel buffer is
// the base travel estimate inflated by travelInflationPct; no live routing is
// consulted.
func NewRules(timezone string, openHour, closeHour int, weekdays []time.Weekday, appointmentBuffer, travelBase time.Duration, travelInflationPct int) (*Rules, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load timezone %q: %w", timezone, err)
	}
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return nil, fmt.Errorf("scheduling: invalid business hours %d-%d", openHour, closeHour)
	}
	if len(weekdays) == 0 {
		return nil, fmt.Errorf("scheduling: at least one operating weekday required")
	}
	operating := make(map[time.Weekday]bool, len(weekdays))
	for _, day := range weekdays {
		operating[day] = true
	}
	travel := travelBase + travelBase*time.Duration(travelInflationPct)/100
	return &Rules{
		location:          loc,
		openHour:          openHour,
		closeHour:         closeHour,
		operatingWeekdays: operating,
		appointmentBuffer: appointmentBuffer,
		travelBuffer:      travel,
	}, nil
}

// Buffer is the total padding applied after every appointment: the
// inter-appointment gap plus the inflated travel estimate.
func (r *Rules) Buffer() time.Duration {
	return r.appointmentBuffer + r.travelBuffer
}

// Fits reports whether an appointment of the given duration, plus the
// trailing buffer, can fit inside one business-hours window at all. Searches
// reject durations that fail this check before touching any calendar.
func (r *Rules) Fits(duration time.Duration) bool {
	window := time.Duration(r.closeHour-r.openHour) * time.Hour
	return duration > 0 && duration+r.Buffer() <= window
}

// openAt returns the business opening instant for the day containing t,
// evaluated in the business timezone.
func (r *Rules) openAt(t time.Time) time.Time {
	local := t.In(r.location)
	return time.Date(local.Year(), local.Month(), local.Day(), r.openHour, 0, 0, 0, r.location)
}

// closeAt returns the business closing instant for the day containing t.
func (r *Rules) closeAt(t time.Time) time.Time {
	local := t.In(r.location)
	return time.Date(local.Year(), local.Month(), local.Day(), r.closeHour, 0, 0, 0, r.location)
}

// isOperatingDay reports whether t falls on an operating weekday.
func (r *Rules) isOperatingDay(t time.Time) bool {
	return r.operatingWeekdays[t.In(r.location).Weekday()]
}

// nextOpening returns the opening time of the next operating day after the
// day containing t.
func (r *Rules) nextOpening(t time.Time) time.Time {
	day := r.openAt(t).AddDate(0, 0, 1)
	for !r.isOperatingDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// alignToBusinessHours moves the cursor forward until an appointment of the
// given duration fits inside an operating day's window. The returned instant
// is in UTC. Callers must reject durations failing Fits first; no day ever
// satisfies those.
func (r *Rules) alignToBusinessHours(cursor time.Time, duration time.Duration) time.Time {
	for {
		if !r.isOperatingDay(cursor) {
			cursor = r.nextOpening(cursor)
			continue
		}
		open := r.openAt(cursor)
		if cursor.Before(open) {
			cursor = open
		}
		if r.fitsBusinessDay(cursor, duration) {
			return cursor.UTC()
		}
		cursor = r.nextOpening(cursor)
	}
}

// fitsBusinessDay reports whether an appointment starting at cursor, plus the
// trailing buffer, completes before close of the same operating day.
func (r *Rules) fitsBusinessDay(cursor time.Time, duration time.Duration) bool {
	if !r.isOperatingDay(cursor) {
		return false
	}
	open := r.openAt(cursor)
	if cursor.Before(open) {
		return false
	}
	return !cursor.Add(duration + r.Buffer()).After(r.closeAt(cursor))
}
