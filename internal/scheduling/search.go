package scheduling

import (
	"sort"
	"time"
)

// NextSlot finds the earliest slot of the given duration for one technician,
// starting no earlier than after. The candidate window includes the trailing
// buffer, so a returned slot never forces back-to-back jobs. Returns false
// when conflict resolution pushes the cursor out of the business day; callers
// widen the search by advancing after past the blocking interval.
func (r *Rules) NextSlot(after time.Time, duration time.Duration, technicianID string, busy []BusyInterval) (TimeSlot, bool) {
	if !r.Fits(duration) {
		return TimeSlot{}, false
	}

	intervals := make([]BusyInterval, len(busy))
	copy(intervals, busy)
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	cursor := r.alignToBusinessHours(after, duration)

	// Each conflict advances the cursor past one interval's end, so the
	// loop terminates after at most len(intervals) passes.
	for range len(intervals) + 1 {
		candidateEnd := cursor.Add(duration + r.Buffer())
		conflict, found := firstOverlap(intervals, cursor, candidateEnd)
		if !found {
			return TimeSlot{
				Start:        cursor,
				End:          cursor.Add(duration),
				Status:       SlotAvailable,
				TechnicianID: technicianID,
			}, true
		}
		cursor = conflict.End.Add(r.Buffer()).UTC()
		if !r.fitsBusinessDay(cursor, duration) {
			return TimeSlot{}, false
		}
	}
	return TimeSlot{}, false
}

// NextTwoSlots returns up to two distinct, non-overlapping slots in strictly
// increasing start order, each starting before until. The search restarts
// past each found slot's end plus the buffer, and rolls to the next operating
// day when a day is exhausted so a fully booked morning still yields a second
// offer. The until bound matches the busy-interval fetch window; slots past
// it would be computed against calendar state that was never read.
func (r *Rules) NextTwoSlots(after, until time.Time, duration time.Duration, technicianID string, busy []BusyInterval) []TimeSlot {
	const want = 2
	if !r.Fits(duration) {
		return nil
	}
	var slots []TimeSlot

	cursor := after
	for len(slots) < want && cursor.Before(until) {
		slot, ok := r.NextSlot(cursor, duration, technicianID, busy)
		if !ok {
			next := r.nextOpening(r.alignToBusinessHours(cursor, duration))
			if !next.After(cursor) {
				break
			}
			cursor = next
			continue
		}
		if !slot.Start.Before(until) {
			break
		}
		slots = append(slots, slot)
		cursor = slot.End.Add(r.Buffer()).UTC()
	}
	return slots
}

func firstOverlap(sorted []BusyInterval, start, end time.Time) (BusyInterval, bool) {
	for _, interval := range sorted {
		if interval.Overlaps(start, end) {
			return interval, true
		}
		if !interval.Start.Before(end) {
			break
		}
	}
	return BusyInterval{}, false
}
