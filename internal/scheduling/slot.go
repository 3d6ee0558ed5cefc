// Package scheduling computes appointment slots against technician calendars.
// It owns the slot search over busy intervals and the cross-technician
// availability merge; all instants are handled in UTC and business-hours
// checks are evaluated in the configured business timezone.
package scheduling

import (
	"fmt"
	"time"
)

// SlotStatus describes the state of a time slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
	SlotPast      SlotStatus = "past"
)

// TimeSlot is a candidate or committed appointment window for one technician.
type TimeSlot struct {
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Status       SlotStatus `json:"status"`
	TechnicianID string     `json:"technician_id,omitempty"`
	JobID        string     `json:"job_id,omitempty"`
}

// Validate enforces the slot invariants before any external mutation.
func (s TimeSlot) Validate(minDuration time.Duration) error {
	if !s.Start.Before(s.End) {
		return fmt.Errorf("scheduling: slot start %s not before end %s", s.Start, s.End)
	}
	if s.End.Sub(s.Start) < minDuration {
		return fmt.Errorf("scheduling: slot shorter than requested duration %s", minDuration)
	}
	return nil
}

// Overlaps reports whether the slot intersects [start, end).
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

// BusyInterval is a committed time range sourced from the external calendar.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the interval intersects [start, end).
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}

// Offer is the provisional result returned to a caller: up to two
// non-overlapping slots, each bound to its technician. Nothing is reserved
// until the caller confirms one of them.
type Offer struct {
	Slots []TimeSlot `json:"slots"`
}

// Empty reports whether the search exhausted every technician's calendar.
func (o Offer) Empty() bool {
	return len(o.Slots) == 0
}
