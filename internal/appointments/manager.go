package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/apexhvac/dispatch-ai-platform/internal/audit"
	"github.com/apexhvac/dispatch-ai-platform/internal/handoff"
	"github.com/apexhvac/dispatch-ai-platform/internal/idempotency"
	"github.com/apexhvac/dispatch-ai-platform/internal/observability/metrics"
	"github.com/apexhvac/dispatch-ai-platform/internal/odoo"
	"github.com/apexhvac/dispatch-ai-platform/internal/roster"
	"github.com/apexhvac/dispatch-ai-platform/internal/scheduling"
	"github.com/apexhvac/dispatch-ai-platform/internal/triage"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

var appointmentsTracer = otel.Tracer("dispatch.internal.appointments")

// ErrValidation marks locally rejected requests; no external call was made.
var ErrValidation = errors.New("appointments: invalid request")

// ErrInProgress is re-exported so callers match one package's sentinel.
var ErrInProgress = idempotency.ErrInProgress

// Idempotency scopes, one per mutating operation.
const (
	scopeConfirm    = "confirm"
	scopeReschedule = "reschedule"
	scopeCancel     = "cancel"
)

type claimStore interface {
	Start(ctx context.Context, scope, key string) (idempotency.StartResult, error)
	Complete(ctx context.Context, scope, key string, response []byte) error
	Fail(ctx context.Context, scope, key string) error
}

type auditTrail interface {
	Append(ctx context.Context, event audit.Event) error
}

type handoffCapturer interface {
	Capture(ctx context.Context, req handoff.Request) (uuid.UUID, error)
}

// Manager drives the appointment lifecycle against the external calendar.
// It holds no in-process scheduling state: busy intervals are read fresh on
// every search, and the only mutual exclusion is the idempotency claim, which
// guards retries of the same logical request, not two callers racing for one
// slot. The re-validation step covers that second race.
type Manager struct {
	qualifier  *triage.Qualifier
	directory  roster.Directory
	aggregator *scheduling.Aggregator
	calendar   odoo.Calendar
	claims     claimStore
	trail      auditTrail
	handoffs   handoffCapturer
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger
}

// NewManager wires the lifecycle manager. Metrics may be nil.
func NewManager(
	qualifier *triage.Qualifier,
	directory roster.Directory,
	aggregator *scheduling.Aggregator,
	calendar odoo.Calendar,
	claims claimStore,
	trail auditTrail,
	handoffs handoffCapturer,
	m *metrics.SchedulingMetrics,
	logger *logging.Logger,
) *Manager {
	if qualifier == nil {
		panic("appointments: qualifier required")
	}
	if directory == nil {
		panic("appointments: roster directory required")
	}
	if aggregator == nil {
		panic("appointments: aggregator required")
	}
	if calendar == nil {
		panic("appointments: calendar required")
	}
	if claims == nil {
		panic("appointments: claim store required")
	}
	if trail == nil {
		panic("appointments: audit trail required")
	}
	if handoffs == nil {
		panic("appointments: handoff service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		qualifier:  qualifier,
		directory:  directory,
		aggregator: aggregator,
		calendar:   calendar,
		claims:     claims,
		trail:      trail,
		handoffs:   handoffs,
		metrics:    m,
		logger:     logger,
	}
}

// Dispatch routes a request to its handler. The type switch is exhaustive
// over the sealed Request union.
func (m *Manager) Dispatch(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case CheckAvailabilityRequest:
		return m.CheckAvailability(ctx, r)
	case ConfirmRequest:
		return m.Confirm(ctx, r)
	case RescheduleRequest:
		return m.Reschedule(ctx, r)
	case CancelRequest:
		return m.Cancel(ctx, r)
	default:
		return Result{}, fmt.Errorf("appointments: unhandled request kind %q", req.Kind())
	}
}

// CheckAvailability qualifies the problem, selects eligible technicians, and
// returns the two earliest slots across the roster. Safe to repeat: the
// offers are provisional and nothing is reserved.
func (m *Manager) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (Result, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.check_availability")
	defer span.End()

	if req.Duration <= 0 {
		return Result{}, fmt.Errorf("%w: duration is required", ErrValidation)
	}
	if !m.aggregator.Rules().Fits(req.Duration) {
		return Result{}, fmt.Errorf("%w: duration %s cannot fit inside business hours", ErrValidation, req.Duration)
	}
	if req.Location == "" {
		return Result{}, fmt.Errorf("%w: location is required", ErrValidation)
	}
	after := req.RequestedAfter
	if after.IsZero() {
		after = time.Now().UTC()
	}

	qual := m.qualifier.Qualify(req.ProblemText, req.StatedUrgency, req.Temperature)
	span.SetAttributes(
		attribute.Bool("dispatch.is_emergency", qual.IsEmergency),
		attribute.Int("dispatch.priority", qual.PriorityRank),
	)

	technicians, err := m.eligibleTechnicians(ctx, req.Location, qual.IsEmergency, req.IsCommercial, req.PreferredTechID)
	if err != nil {
		return Result{}, err
	}
	if len(technicians) == 0 {
		return m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.Caller,
			intent:      string(req.Kind()),
			reason:      handoff.ReasonNoTechnician,
			detail:      fmt.Sprintf("no eligible technician for %s (emergency=%v commercial=%v)", req.Location, qual.IsEmergency, req.IsCommercial),
			payload:     req,
			isEmergency: qual.IsEmergency,
		}), nil
	}

	offer, err := m.aggregator.FindOffers(ctx, after, req.Duration, technicians)
	if err != nil {
		return m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.Caller,
			intent:      string(req.Kind()),
			reason:      handoff.ReasonBackendFailure,
			detail:      err.Error(),
			payload:     req,
			isEmergency: qual.IsEmergency,
		}), nil
	}
	if offer.Empty() {
		res := m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.Caller,
			intent:      string(req.Kind()),
			reason:      handoff.ReasonExhausted,
			detail:      fmt.Sprintf("no slot within horizon after %s", after.Format(time.RFC3339)),
			payload:     req,
			isEmergency: qual.IsEmergency,
		})
		res.Status = StatusExhausted
		return res, nil
	}

	m.appendAudit(ctx, audit.Event{
		RequestID:       requestID(req),
		Actor:           req.Caller,
		Intent:          string(req.Kind()),
		DecisionSummary: fmt.Sprintf("offered %d slots, earliest %s with %s (%s)", len(offer.Slots), offer.Slots[0].Start.Format(time.RFC3339), offer.Slots[0].TechnicianID, qual.Reason),
		Status:          audit.OutcomeOffered,
	})
	m.metrics.ObserveRequest(string(req.Kind()), string(StatusOffered))
	m.metrics.ObserveOffers(len(offer.Slots))
	return Result{Status: StatusOffered, Offer: &offer}, nil
}

// Confirm commits a previously offered slot. The slot is re-validated
// against the live calendar immediately before the create; when it has been
// taken in the meantime the caller receives fresh offers, never a duplicate
// event and never an error.
func (m *Manager) Confirm(ctx context.Context, req ConfirmRequest) (Result, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.confirm")
	defer span.End()

	if req.ChosenStart.IsZero() || req.Duration <= 0 {
		return Result{}, fmt.Errorf("%w: chosen start and duration are required", ErrValidation)
	}
	if req.TechnicianID == "" {
		return Result{}, fmt.Errorf("%w: technician id from the offer is required", ErrValidation)
	}
	if req.CustomerRef == "" || req.Location == "" {
		return Result{}, fmt.Errorf("%w: customer ref and location are required", ErrValidation)
	}

	fp := req.Fingerprint
	if fp == "" {
		fp = idempotency.Fingerprint(req.Caller, string(req.Kind()),
			req.ChosenStart.UTC().Format(time.RFC3339), req.Duration.String(), req.TechnicianID, req.CustomerRef)
	}
	span.SetAttributes(attribute.String("dispatch.fingerprint", fp))

	claim, err := m.claims.Start(ctx, scopeConfirm, fp)
	if err != nil {
		return Result{}, err
	}
	if claim.Replayed {
		return m.replay(req.Kind(), claim.Response)
	}

	tech, found, err := m.directory.Get(ctx, req.TechnicianID)
	if err != nil {
		return Result{}, m.failClaim(ctx, scopeConfirm, fp, err)
	}
	if !found {
		_ = m.claims.Fail(ctx, scopeConfirm, fp)
		return Result{}, fmt.Errorf("%w: unknown technician %q", ErrValidation, req.TechnicianID)
	}

	slot := scheduling.TimeSlot{
		Start:        req.ChosenStart.UTC(),
		End:          req.ChosenStart.UTC().Add(req.Duration),
		Status:       scheduling.SlotBooked,
		TechnicianID: tech.ID,
	}
	// Fatal guard: malformed windows must never reach the backend.
	if err := slot.Validate(req.Duration); err != nil {
		_ = m.claims.Fail(ctx, scopeConfirm, fp)
		return Result{}, err
	}

	free, err := m.aggregator.SlotStillFree(ctx, tech.OdooUserRef, slot)
	if err != nil {
		return m.backendFailure(ctx, scopeConfirm, fp, req, req.IsEmergency, err), nil
	}
	if !free {
		return m.reOffer(ctx, scopeConfirm, fp, req, slot, req.Duration)
	}

	eventID, err := m.calendar.CreateEvent(ctx, odoo.CreateEventParams{
		Title:             fmt.Sprintf("Service call: %s", req.CustomerRef),
		Start:             slot.Start,
		Stop:              slot.End,
		TechnicianUserRef: tech.OdooUserRef,
		Location:          req.Location,
		Description:       req.Description,
	})
	if err != nil {
		return m.backendFailure(ctx, scopeConfirm, fp, req, req.IsEmergency, err), nil
	}

	result := Result{
		Status: StatusConfirmed,
		Confirmation: &Confirmation{
			EventID:      eventID,
			Start:        slot.Start,
			End:          slot.End,
			TechnicianID: tech.ID,
			Technician:   tech,
		},
	}
	m.completeClaim(ctx, scopeConfirm, fp, result)
	m.appendAudit(ctx, audit.Event{
		RequestID:         requestID(req),
		Actor:             req.Caller,
		Intent:            string(req.Kind()),
		DecisionSummary:   fmt.Sprintf("confirmed %s-%s with %s", slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339), tech.ID),
		OdooResultSummary: fmt.Sprintf("calendar event %d created", eventID),
		Status:            audit.OutcomeConfirmed,
	})
	m.metrics.ObserveRequest(string(req.Kind()), string(StatusConfirmed))
	return result, nil
}

// Reschedule moves an existing event to the earliest slot after the new
// preference, preserving the event's current duration.
func (m *Manager) Reschedule(ctx context.Context, req RescheduleRequest) (Result, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	if req.EventID <= 0 {
		return Result{}, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	after := req.NewPreferredAfter
	if after.IsZero() {
		after = time.Now().UTC()
	}

	fp := req.Fingerprint
	if fp == "" {
		// Hash the raw preference, zero value included. Hashing the
		// defaulted time would mint a fresh key on every retry.
		fp = idempotency.Fingerprint(req.Caller, string(req.Kind()),
			fmt.Sprintf("%d", req.EventID), req.NewPreferredAfter.UTC().Format(time.RFC3339))
	}

	claim, err := m.claims.Start(ctx, scopeReschedule, fp)
	if err != nil {
		return Result{}, err
	}
	if claim.Replayed {
		return m.replay(req.Kind(), claim.Response)
	}

	start, stop, err := m.calendar.GetEvent(ctx, req.EventID)
	if err != nil {
		return m.backendFailure(ctx, scopeReschedule, fp, req, req.IsEmergency, err), nil
	}
	duration := stop.Sub(start)
	if duration <= 0 {
		_ = m.claims.Fail(ctx, scopeReschedule, fp)
		return Result{}, fmt.Errorf("appointments: event %d has non-positive duration", req.EventID)
	}

	technicians, err := m.eligibleTechnicians(ctx, req.Location, req.IsEmergency, req.IsCommercial, "")
	if err != nil {
		return Result{}, m.failClaim(ctx, scopeReschedule, fp, err)
	}
	if len(technicians) == 0 {
		res := m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.Caller,
			intent:      string(req.Kind()),
			reason:      handoff.ReasonNoTechnician,
			detail:      fmt.Sprintf("no eligible technician to reschedule event %d", req.EventID),
			payload:     req,
			isEmergency: req.IsEmergency,
		})
		m.completeClaim(ctx, scopeReschedule, fp, res)
		return res, nil
	}

	offer, err := m.aggregator.FindOffers(ctx, after, duration, technicians)
	if err != nil {
		return m.backendFailure(ctx, scopeReschedule, fp, req, req.IsEmergency, err), nil
	}
	if offer.Empty() {
		res := m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.Caller,
			intent:      string(req.Kind()),
			reason:      handoff.ReasonExhausted,
			detail:      fmt.Sprintf("no slot to reschedule event %d after %s", req.EventID, after.Format(time.RFC3339)),
			payload:     req,
			isEmergency: req.IsEmergency,
		})
		res.Status = StatusExhausted
		m.completeClaim(ctx, scopeReschedule, fp, res)
		return res, nil
	}

	slot := offer.Slots[0]
	tech, found, err := m.directory.Get(ctx, slot.TechnicianID)
	if err != nil || !found {
		return Result{}, m.failClaim(ctx, scopeReschedule, fp, fmt.Errorf("appointments: technician %q vanished from roster: %w", slot.TechnicianID, err))
	}

	// Same re-validate-then-mutate pattern as Confirm; another caller may
	// have taken the slot since the search.
	free, err := m.aggregator.SlotStillFree(ctx, tech.OdooUserRef, slot)
	if err != nil {
		return m.backendFailure(ctx, scopeReschedule, fp, req, req.IsEmergency, err), nil
	}
	if !free {
		return m.reOffer(ctx, scopeReschedule, fp, req, slot, duration)
	}

	ok, err := m.calendar.UpdateEvent(ctx, req.EventID, slot.Start, slot.End, tech.OdooUserRef)
	if err != nil {
		return m.backendFailure(ctx, scopeReschedule, fp, req, req.IsEmergency, err), nil
	}
	if !ok {
		return m.backendFailure(ctx, scopeReschedule, fp, req, req.IsEmergency, fmt.Errorf("odoo rejected update of event %d", req.EventID)), nil
	}

	result := Result{
		Status: StatusConfirmed,
		Confirmation: &Confirmation{
			EventID:      req.EventID,
			Start:        slot.Start,
			End:          slot.End,
			TechnicianID: tech.ID,
			Technician:   tech,
		},
	}
	m.completeClaim(ctx, scopeReschedule, fp, result)
	m.appendAudit(ctx, audit.Event{
		RequestID:         requestID(req),
		Actor:             req.Caller,
		Intent:            string(req.Kind()),
		DecisionSummary:   fmt.Sprintf("rescheduled event %d to %s with %s", req.EventID, slot.Start.Format(time.RFC3339), tech.ID),
		OdooResultSummary: fmt.Sprintf("calendar event %d moved", req.EventID),
		Status:            audit.OutcomeRescheduled,
	})
	m.metrics.ObserveRequest(string(req.Kind()), string(StatusConfirmed))
	return result, nil
}

// Cancel soft-cancels the event; the record stays in Odoo marked inactive.
// Terminal for the appointment regardless of later fingerprint reuse.
func (m *Manager) Cancel(ctx context.Context, req CancelRequest) (Result, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	if req.EventID <= 0 {
		return Result{}, fmt.Errorf("%w: event id is required", ErrValidation)
	}

	fp := req.Fingerprint
	if fp == "" {
		fp = idempotency.Fingerprint(req.Caller, string(req.Kind()), fmt.Sprintf("%d", req.EventID))
	}

	claim, err := m.claims.Start(ctx, scopeCancel, fp)
	if err != nil {
		return Result{}, err
	}
	if claim.Replayed {
		return m.replay(req.Kind(), claim.Response)
	}

	ok, err := m.calendar.CancelEvent(ctx, req.EventID)
	if err != nil {
		return m.backendFailure(ctx, scopeCancel, fp, req, false, err), nil
	}
	if !ok {
		return m.backendFailure(ctx, scopeCancel, fp, req, false, fmt.Errorf("odoo rejected cancel of event %d", req.EventID)), nil
	}

	result := Result{Status: StatusCancelled}
	m.completeClaim(ctx, scopeCancel, fp, result)
	m.appendAudit(ctx, audit.Event{
		RequestID:         requestID(req),
		Actor:             req.Caller,
		Intent:            string(req.Kind()),
		DecisionSummary:   fmt.Sprintf("cancelled event %d", req.EventID),
		OdooResultSummary: fmt.Sprintf("calendar event %d marked inactive", req.EventID),
		Status:            audit.OutcomeCancelled,
	})
	m.metrics.ObserveRequest(string(req.Kind()), string(StatusCancelled))
	return result, nil
}

// eligibleTechnicians narrows to the preferred technician when they satisfy
// the capability predicates, otherwise returns the full eligible list.
func (m *Manager) eligibleTechnicians(ctx context.Context, location string, isEmergency, isCommercial bool, preferredID string) ([]roster.Technician, error) {
	if preferredID != "" {
		tech, ok, err := roster.Assign(ctx, m.directory, location, isEmergency, isCommercial, preferredID)
		if err != nil {
			return nil, err
		}
		if ok && tech.ID == preferredID {
			return []roster.Technician{tech}, nil
		}
	}
	technicians, err := m.directory.ListEligible(ctx, location, isEmergency, isCommercial)
	if err != nil {
		return nil, fmt.Errorf("appointments: list eligible technicians: %w", err)
	}
	return technicians, nil
}

// reOffer answers a lost race with fresh slots and zero mutations. The claim
// is completed with the re-offer so a transport retry replays it instead of
// searching again.
func (m *Manager) reOffer(ctx context.Context, scope, fp string, req Request, lost scheduling.TimeSlot, duration time.Duration) (Result, error) {
	var (
		location     string
		isEmergency  bool
		isCommercial bool
	)
	switch r := req.(type) {
	case ConfirmRequest:
		location, isEmergency, isCommercial = r.Location, r.IsEmergency, r.IsCommercial
	case RescheduleRequest:
		location, isEmergency, isCommercial = r.Location, r.IsEmergency, r.IsCommercial
	}

	technicians, err := m.directory.ListEligible(ctx, location, isEmergency, isCommercial)
	if err != nil {
		return Result{}, m.failClaim(ctx, scope, fp, err)
	}
	offer, err := m.aggregator.FindOffers(ctx, lost.Start, duration, technicians)
	if err != nil {
		return m.backendFailure(ctx, scope, fp, req, isEmergency, err), nil
	}

	result := Result{
		Status: StatusReOffer,
		Offer:  &offer,
		Reason: fmt.Sprintf("slot %s with %s was taken before confirmation", lost.Start.Format(time.RFC3339), lost.TechnicianID),
	}
	if offer.Empty() {
		captured := m.capture(ctx, captureInput{
			requestID:   requestID(req),
			caller:      req.CallerID(),
			intent:      string(req.Kind()),
			reason:      handoff.ReasonExhausted,
			detail:      result.Reason,
			payload:     req,
			isEmergency: isEmergency,
		})
		captured.Status = StatusExhausted
		m.completeClaim(ctx, scope, fp, captured)
		return captured, nil
	}

	m.completeClaim(ctx, scope, fp, result)
	m.appendAudit(ctx, audit.Event{
		RequestID:       requestID(req),
		Actor:           req.CallerID(),
		Intent:          string(req.Kind()),
		DecisionSummary: result.Reason,
		Status:          audit.OutcomeReOffered,
	})
	m.metrics.ObserveRequest(string(req.Kind()), string(StatusReOffer))
	return result, nil
}

// backendFailure converts calendar errors into the uniform needs-human shape
// with the original payload captured. The claim is failed, not completed, so
// a later retry can attempt the operation again.
func (m *Manager) backendFailure(ctx context.Context, scope, fp string, req Request, isEmergency bool, cause error) Result {
	_ = m.claims.Fail(ctx, scope, fp)
	trace.SpanFromContext(ctx).RecordError(cause)
	m.logger.Error("calendar backend failure",
		"intent", req.Kind(),
		"error", cause,
	)
	return m.capture(ctx, captureInput{
		requestID:   requestID(req),
		caller:      req.CallerID(),
		intent:      string(req.Kind()),
		reason:      handoff.ReasonBackendFailure,
		detail:      cause.Error(),
		payload:     req,
		isEmergency: isEmergency,
	})
}

type captureInput struct {
	requestID   string
	caller      string
	intent      string
	reason      handoff.Reason
	detail      string
	payload     any
	isEmergency bool
}

// capture persists a needs-human record and returns the degraded outcome.
func (m *Manager) capture(ctx context.Context, in captureInput) Result {
	payload, err := json.Marshal(in.payload)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", in.payload))
	}
	handoffID, err := m.handoffs.Capture(ctx, handoff.Request{
		RequestID:   in.requestID,
		Caller:      in.caller,
		Reason:      in.reason,
		Detail:      in.detail,
		Payload:     payload,
		IsEmergency: in.isEmergency,
	})
	if err != nil {
		m.logger.Error("handoff capture failed", "error", err, "reason", in.reason)
	}
	m.appendAudit(ctx, audit.Event{
		RequestID:       in.requestID,
		Actor:           in.caller,
		Intent:          in.intent,
		DecisionSummary: in.detail,
		Status:          audit.OutcomeNeedsHuman,
	})
	m.metrics.ObserveRequest(in.intent, string(StatusNeedsHuman))
	m.metrics.ObserveNeedsHuman(string(in.reason))
	return Result{Status: StatusNeedsHuman, HandoffID: handoffID, Reason: in.detail}
}

func (m *Manager) replay(kind RequestKind, payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("appointments: decode replayed result: %w", err)
	}
	result.Replayed = true
	m.metrics.ObserveDedupReplay()
	m.metrics.ObserveRequest(string(kind), string(result.Status))
	return result, nil
}

// completeClaim records the result against the fingerprint. The calendar is
// the source of truth, so a dedup write failure is logged and tolerated; the
// next re-validation reads the event from Odoo either way.
func (m *Manager) completeClaim(ctx context.Context, scope, fp string, result Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		m.logger.Error("encode claim result", "error", err, "scope", scope)
		return
	}
	if err := m.claims.Complete(ctx, scope, fp, payload); err != nil {
		m.logger.Error("complete idempotency claim", "error", err, "scope", scope, "fingerprint", fp)
	}
}

func (m *Manager) failClaim(ctx context.Context, scope, fp string, cause error) error {
	if err := m.claims.Fail(ctx, scope, fp); err != nil {
		m.logger.Error("fail idempotency claim", "error", err, "scope", scope, "fingerprint", fp)
	}
	return cause
}

func (m *Manager) appendAudit(ctx context.Context, event audit.Event) {
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}
	if err := m.trail.Append(ctx, event); err != nil {
		m.logger.Error("audit append failed", "error", err, "intent", event.Intent)
	}
}

func requestID(req Request) string {
	switch r := req.(type) {
	case ConfirmRequest:
		if r.Fingerprint != "" {
			return r.Fingerprint
		}
	case RescheduleRequest:
		if r.Fingerprint != "" {
			return r.Fingerprint
		}
	case CancelRequest:
		if r.Fingerprint != "" {
			return r.Fingerprint
		}
	}
	return uuid.NewString()
}
