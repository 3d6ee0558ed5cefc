package scheduling

import (
	"testing"
	"time"
)

var weekdaysMF = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// testRules: UTC business hours 08:00-17:00 Mon-Fri, 15m appointment buffer,
// 20m travel base inflated 25% => total buffer 40m.
func testRules(t *testing.T) *Rules {
	t.Helper()
	rules, err := NewRules("UTC", 8, 17, weekdaysMF, 15*time.Minute, 20*time.Minute, 25)
	if err != nil {
		t.Fatalf("NewRules: %v", err)
	}
	return rules
}

// Monday 2026-03-02 in UTC.
func monday(hour, minute int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, time.UTC)
}

func TestBufferCombinesTravelAndGap(t *testing.T) {
	rules := testRules(t)
	if rules.Buffer() != 40*time.Minute {
		t.Fatalf("expected 40m buffer, got %s", rules.Buffer())
	}
}

func TestNextSlotSkipsBusyInterval(t *testing.T) {
	rules := testRules(t)
	busy := []BusyInterval{{Start: monday(10, 0), End: monday(12, 0)}}

	slot, ok := rules.NextSlot(monday(9, 30), time.Hour, "tech-a", busy)
	if !ok {
		t.Fatal("expected a slot")
	}
	earliest := monday(12, 0).Add(rules.Buffer())
	if slot.Start.Before(earliest) {
		t.Fatalf("slot %s starts inside or too close to busy interval, want >= %s", slot.Start, earliest)
	}
	for _, b := range busy {
		if b.Overlaps(slot.Start, slot.End) {
			t.Fatalf("slot %s-%s overlaps busy %s-%s", slot.Start, slot.End, b.Start, b.End)
		}
	}
}

func TestNextSlotRollsToNextOperatingDayOpening(t *testing.T) {
	rules := testRules(t)

	// 16:55 with a 17:00 close cannot fit 60 minutes; expect Tuesday 08:00,
	// never a truncated same-day slot.
	slot, ok := rules.NextSlot(monday(16, 55), time.Hour, "tech-a", nil)
	if !ok {
		t.Fatal("expected a slot")
	}
	want := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	if !slot.Start.Equal(want) {
		t.Fatalf("expected next day opening %s, got %s", want, slot.Start)
	}
}

func TestNextSlotSkipsWeekend(t *testing.T) {
	rules := testRules(t)

	friday := time.Date(2026, time.March, 6, 16, 30, 0, 0, time.UTC)
	slot, ok := rules.NextSlot(friday, time.Hour, "tech-a", nil)
	if !ok {
		t.Fatal("expected a slot")
	}
	wantMonday := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	if !slot.Start.Equal(wantMonday) {
		t.Fatalf("expected Monday opening %s, got %s", wantMonday, slot.Start)
	}
}

func TestNextSlotExhaustsDayOnConflictOverflow(t *testing.T) {
	rules := testRules(t)

	// Afternoon fully blocked: conflict advancement runs past close.
	busy := []BusyInterval{{Start: monday(13, 0), End: monday(17, 0)}}
	_, ok := rules.NextSlot(monday(14, 0), time.Hour, "tech-a", busy)
	if ok {
		t.Fatal("expected exhaustion when conflicts push past close")
	}
}

func TestNextSlotNeverViolatesInvariants(t *testing.T) {
	rules := testRules(t)

	busySets := [][]BusyInterval{
		nil,
		{{Start: monday(8, 0), End: monday(9, 0)}},
		{{Start: monday(8, 0), End: monday(10, 0)}, {Start: monday(10, 30), End: monday(11, 0)}},
		{{Start: monday(9, 0), End: monday(9, 30)}, {Start: monday(11, 0), End: monday(14, 0)}},
		// Multi-day block bleeding into Tuesday morning.
		{{Start: monday(8, 0), End: time.Date(2026, time.March, 3, 7, 0, 0, 0, time.UTC)}},
	}
	starts := []time.Time{monday(7, 0), monday(8, 0), monday(9, 45), monday(12, 10)}

	for _, busy := range busySets {
		for _, after := range starts {
			slot, ok := rules.NextSlot(after, 90*time.Minute, "tech-a", busy)
			if !ok {
				continue
			}
			if err := slot.Validate(90 * time.Minute); err != nil {
				t.Fatalf("invalid slot: %v", err)
			}
			if slot.Start.Before(after) {
				t.Fatalf("slot %s before requested after %s", slot.Start, after)
			}
			if !rules.isOperatingDay(slot.Start) {
				t.Fatalf("slot %s on non-operating day", slot.Start)
			}
			if slot.Start.Before(rules.openAt(slot.Start)) || slot.End.After(rules.closeAt(slot.Start)) {
				t.Fatalf("slot %s-%s outside business hours", slot.Start, slot.End)
			}
			for _, b := range busy {
				if b.Overlaps(slot.Start, slot.End) {
					t.Fatalf("slot %s-%s overlaps busy %s-%s", slot.Start, slot.End, b.Start, b.End)
				}
			}
		}
	}
}

func TestNextTwoSlotsOrderedAndBuffered(t *testing.T) {
	rules := testRules(t)
	busy := []BusyInterval{{Start: monday(10, 0), End: monday(11, 0)}}

	slots := rules.NextTwoSlots(monday(8, 0), monday(8, 0).AddDate(0, 0, 7), time.Hour, "tech-a", busy)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Start.Before(slots[1].Start) {
		t.Fatalf("slots not strictly increasing: %s then %s", slots[0].Start, slots[1].Start)
	}
	if slots[1].Start.Before(slots[0].End.Add(rules.Buffer())) {
		t.Fatalf("second slot %s ignores buffer after first end %s", slots[1].Start, slots[0].End)
	}
}

// A duration that can never fit between open and close must be rejected up
// front, not chased day after day.
func TestNextSlotOversizedDurationReturnsImmediately(t *testing.T) {
	rules := testRules(t)

	done := make(chan bool, 1)
	go func() {
		_, ok := rules.NextSlot(monday(8, 0), 10*time.Hour, "tech-a", nil)
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("10h appointment cannot fit a 9h business day")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("NextSlot did not return for an oversized duration")
	}
}

func TestNextTwoSlotsRejectsOversizedDuration(t *testing.T) {
	rules := testRules(t)

	until := monday(8, 0).AddDate(0, 0, 7)
	if slots := rules.NextTwoSlots(monday(8, 0), until, 10*time.Hour, "tech-a", nil); slots != nil {
		t.Fatalf("expected no slots for an oversized duration, got %d", len(slots))
	}
}

func TestNextTwoSlotsStopsAtHorizon(t *testing.T) {
	rules := testRules(t)

	// Only one appointment fits before Tuesday; the day-roll must not search
	// past the horizon for a second.
	tuesday := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	slots := rules.NextTwoSlots(monday(14, 30), tuesday, time.Hour, "tech-a", nil)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot inside the horizon, got %d", len(slots))
	}
	if !slots[0].Start.Before(tuesday) {
		t.Fatalf("slot %s starts past the horizon %s", slots[0].Start, tuesday)
	}
}

func TestNextTwoSlotsSpansDaysWhenFirstDayFull(t *testing.T) {
	rules := testRules(t)

	// Only one appointment fits late Monday; second offer must land Tuesday.
	slots := rules.NextTwoSlots(monday(14, 30), monday(14, 30).AddDate(0, 0, 7), time.Hour, "tech-a", nil)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[1].Start.Day() == slots[0].Start.Day() {
		// 14:30 + 1h + 40m buffer = 16:10; 16:10 + 1h + 40m > 17:00.
		t.Fatalf("expected second slot on a later day, got %s and %s", slots[0].Start, slots[1].Start)
	}
}
