package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/apexhvac/dispatch-ai-platform/internal/roster"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("dispatch.internal.scheduling")

// CalendarReader fetches committed busy intervals from the external calendar
// for one technician over a bounded horizon.
type CalendarReader interface {
	GetBusyIntervals(ctx context.Context, technicianUserRef int, from, to time.Time) ([]BusyInterval, error)
}

// Aggregator merges per-technician slot searches into globally ordered
// offers. Calendar state is read fresh on every call; nothing is cached or
// reserved here.
type Aggregator struct {
	rules      *Rules
	calendar   CalendarReader
	revalidate CalendarReader
	horizon    time.Duration
	logger     *logging.Logger
}

// AggregatorOption customizes an aggregator.
type AggregatorOption func(*Aggregator)

// WithRevalidationReader routes SlotStillFree through the given reader
// instead of the search calendar. Deployments that cache busy intervals pass
// the uncached client here so the pre-commit re-check always reads live
// calendar state.
func WithRevalidationReader(reader CalendarReader) AggregatorOption {
	return func(a *Aggregator) {
		if reader != nil {
			a.revalidate = reader
		}
	}
}

// NewAggregator creates an aggregator searching the given number of days
// ahead.
func NewAggregator(rules *Rules, calendar CalendarReader, horizonDays int, logger *logging.Logger, opts ...AggregatorOption) *Aggregator {
	if rules == nil {
		panic("scheduling: rules required")
	}
	if calendar == nil {
		panic("scheduling: calendar reader required")
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	if logger == nil {
		logger = logging.Default()
	}
	a := &Aggregator{
		rules:      rules,
		calendar:   calendar,
		revalidate: calendar,
		horizon:    time.Duration(horizonDays) * 24 * time.Hour,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules exposes the scheduling policy the aggregator searches with.
func (a *Aggregator) Rules() *Rules { return a.rules }

// FindOffers searches every eligible technician's calendar and returns the
// two globally earliest slots across the whole roster, each tagged with its
// owning technician. An empty offer signals exhaustion and routes the caller
// to human scheduling.
func (a *Aggregator) FindOffers(ctx context.Context, after time.Time, duration time.Duration, technicians []roster.Technician) (Offer, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.find_offers")
	defer span.End()
	span.SetAttributes(
		attribute.Int("dispatch.technician_count", len(technicians)),
		attribute.String("dispatch.after", after.UTC().Format(time.RFC3339)),
		attribute.Int64("dispatch.duration_minutes", int64(duration/time.Minute)),
	)

	from := after.UTC()
	to := from.Add(a.horizon)

	var candidates []TimeSlot
	for _, tech := range technicians {
		busy, err := a.calendar.GetBusyIntervals(ctx, tech.OdooUserRef, from, to)
		if err != nil {
			span.RecordError(err)
			return Offer{}, fmt.Errorf("scheduling: busy intervals for %s: %w", tech.ID, err)
		}
		slots := a.rules.NextTwoSlots(from, to, duration, tech.ID, busy)
		candidates = append(candidates, slots...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Start.Equal(candidates[j].Start) {
			return candidates[i].TechnicianID < candidates[j].TechnicianID
		}
		return candidates[i].Start.Before(candidates[j].Start)
	})

	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	if len(candidates) == 0 {
		a.logger.Warn("availability exhausted",
			"after", from,
			"duration", duration.String(),
			"technicians", len(technicians),
		)
		return Offer{}, nil
	}

	a.logger.Info("offers computed",
		"count", len(candidates),
		"first_start", candidates[0].Start,
		"first_technician", candidates[0].TechnicianID,
	)
	return Offer{Slots: candidates}, nil
}

// SlotStillFree re-checks one technician's calendar immediately before a
// mutation commits, closing the race window between offer and confirmation.
func (a *Aggregator) SlotStillFree(ctx context.Context, technicianUserRef int, slot TimeSlot) (bool, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.revalidate_slot")
	defer span.End()

	busy, err := a.revalidate.GetBusyIntervals(ctx, technicianUserRef, slot.Start, slot.End)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("scheduling: revalidate slot: %w", err)
	}
	for _, interval := range busy {
		if interval.Overlaps(slot.Start, slot.End) {
			return false, nil
		}
	}
	return true, nil
}
