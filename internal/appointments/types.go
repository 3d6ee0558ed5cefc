// Package appointments turns caller-confirmed slots into durable calendar
// events. It owns the Offered→Confirmed→Rescheduled/Cancelled lifecycle, the
// re-validation that closes the offer/confirmation race, and the idempotency
// claims that keep retried requests from double-booking.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/apexhvac/dispatch-ai-platform/internal/roster"
	"github.com/apexhvac/dispatch-ai-platform/internal/scheduling"
)

// RequestKind enumerates the closed set of scheduling operations. Adding a
// kind without extending Dispatch is a compile-time error, not a runtime
// string miss.
type RequestKind string

const (
	KindCheckAvailability RequestKind = "check_availability"
	KindConfirm           RequestKind = "confirm_appointment"
	KindReschedule        RequestKind = "reschedule_appointment"
	KindCancel            RequestKind = "cancel_appointment"
)

// Request is the sealed union of scheduling request kinds.
type Request interface {
	Kind() RequestKind
	// CallerID identifies the caller for fingerprinting and audit.
	CallerID() string
}

// CheckAvailabilityRequest asks for up to two candidate slots. It has no
// side effects and is safe to repeat.
type CheckAvailabilityRequest struct {
	Caller          string
	ProblemText     string
	Location        string
	StatedUrgency   string
	Temperature     string
	IsCommercial    bool
	RequestedAfter  time.Time
	Duration        time.Duration
	PreferredTechID string
}

func (r CheckAvailabilityRequest) Kind() RequestKind { return KindCheckAvailability }
func (r CheckAvailabilityRequest) CallerID() string  { return r.Caller }

// ConfirmRequest commits a previously offered slot. ChosenStart must echo
// the offered start exactly; nothing was reserved in between.
type ConfirmRequest struct {
	Caller       string
	Fingerprint  string
	ChosenStart  time.Time
	Duration     time.Duration
	TechnicianID string
	CustomerRef  string
	Location     string
	Description  string
	IsEmergency  bool
	IsCommercial bool
}

func (r ConfirmRequest) Kind() RequestKind { return KindConfirm }
func (r ConfirmRequest) CallerID() string  { return r.Caller }

// RescheduleRequest moves an existing event to the earliest slot after the
// new preference, keeping the event's current duration.
type RescheduleRequest struct {
	Caller            string
	Fingerprint       string
	EventID           int
	NewPreferredAfter time.Time
	Location          string
	IsEmergency       bool
	IsCommercial      bool
}

func (r RescheduleRequest) Kind() RequestKind { return KindReschedule }
func (r RescheduleRequest) CallerID() string  { return r.Caller }

// CancelRequest soft-cancels an existing event.
type CancelRequest struct {
	Caller      string
	Fingerprint string
	EventID     int
}

func (r CancelRequest) Kind() RequestKind { return KindCancel }
func (r CancelRequest) CallerID() string  { return r.Caller }

// ResultStatus is the uniform outcome shape returned to the intake layer.
type ResultStatus string

const (
	// StatusOffered carries candidate slots from an availability check.
	StatusOffered ResultStatus = "offered"
	// StatusConfirmed means the calendar event exists.
	StatusConfirmed ResultStatus = "confirmed"
	// StatusReOffer means the chosen slot was taken in the race window;
	// fresh slots are attached and nothing was mutated.
	StatusReOffer ResultStatus = "re_offer"
	// StatusCancelled acknowledges a cancel.
	StatusCancelled ResultStatus = "cancelled"
	// StatusExhausted means no technician or slot can serve the request.
	StatusExhausted ResultStatus = "exhausted"
	// StatusNeedsHuman means the request was captured for human dispatch.
	StatusNeedsHuman ResultStatus = "needs_human"
)

// Confirmation describes the committed event.
type Confirmation struct {
	EventID      int               `json:"event_id"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	TechnicianID string            `json:"technician_id"`
	Technician   roster.Technician `json:"technician"`
}

// Result is the typed outcome of any scheduling request. Validation and
// exhaustion are results, never errors; only transport and programmer
// failures surface as Go errors.
type Result struct {
	Status       ResultStatus      `json:"status"`
	Offer        *scheduling.Offer `json:"offer,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	HandoffID    uuid.UUID         `json:"handoff_id,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Replayed     bool              `json:"replayed,omitempty"`
}
