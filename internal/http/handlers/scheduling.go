package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/apexhvac/dispatch-ai-platform/internal/appointments"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

// SchedulingHandler exposes the scheduling lifecycle to the intake layer.
// Every endpoint answers with the uniform result shape; only transport
// problems surface as non-200 statuses.
type SchedulingHandler struct {
	manager *appointments.Manager
	logger  *logging.Logger
}

// NewSchedulingHandler creates the scheduling handler.
func NewSchedulingHandler(manager *appointments.Manager, logger *logging.Logger) *SchedulingHandler {
	if manager == nil {
		panic("handlers: appointments manager required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulingHandler{manager: manager, logger: logger}
}

// AvailabilityRequestBody is the POST /scheduling/availability payload.
type AvailabilityRequestBody struct {
	Caller          string `json:"caller"`
	Problem         string `json:"problem"`
	Location        string `json:"location"`
	StatedUrgency   string `json:"stated_urgency,omitempty"`
	Temperature     string `json:"temperature,omitempty"`
	IsCommercial    bool   `json:"is_commercial,omitempty"`
	RequestedAfter  string `json:"requested_after,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	PreferredTechID string `json:"preferred_technician_id,omitempty"`
}

// ConfirmRequestBody is the POST /scheduling/confirm payload. ChosenStart
// must echo an offered slot start verbatim.
type ConfirmRequestBody struct {
	Caller          string `json:"caller"`
	Fingerprint     string `json:"fingerprint,omitempty"`
	ChosenStart     string `json:"chosen_start"`
	DurationMinutes int    `json:"duration_minutes"`
	TechnicianID    string `json:"technician_id"`
	CustomerRef     string `json:"customer_ref"`
	Location        string `json:"location"`
	Description     string `json:"description,omitempty"`
	IsEmergency     bool   `json:"is_emergency,omitempty"`
	IsCommercial    bool   `json:"is_commercial,omitempty"`
}

// RescheduleRequestBody is the POST /scheduling/reschedule payload.
type RescheduleRequestBody struct {
	Caller            string `json:"caller"`
	Fingerprint       string `json:"fingerprint,omitempty"`
	EventID           int    `json:"event_id"`
	NewPreferredAfter string `json:"new_preferred_after,omitempty"`
	Location          string `json:"location,omitempty"`
	IsEmergency       bool   `json:"is_emergency,omitempty"`
	IsCommercial      bool   `json:"is_commercial,omitempty"`
}

// CancelRequestBody is the POST /scheduling/cancel payload.
type CancelRequestBody struct {
	Caller      string `json:"caller"`
	Fingerprint string `json:"fingerprint,omitempty"`
	EventID     int    `json:"event_id"`
}

// CheckAvailability handles POST /scheduling/availability.
func (h *SchedulingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var body AvailabilityRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	after, ok := parseOptionalTime(body.RequestedAfter)
	if !ok {
		writeError(w, http.StatusBadRequest, "requested_after must be RFC 3339")
		return
	}

	result, err := h.manager.CheckAvailability(r.Context(), appointments.CheckAvailabilityRequest{
		Caller:          body.Caller,
		ProblemText:     body.Problem,
		Location:        body.Location,
		StatedUrgency:   body.StatedUrgency,
		Temperature:     body.Temperature,
		IsCommercial:    body.IsCommercial,
		RequestedAfter:  after,
		Duration:        time.Duration(body.DurationMinutes) * time.Minute,
		PreferredTechID: body.PreferredTechID,
	})
	h.respond(w, result, err)
}

// Confirm handles POST /scheduling/confirm.
func (h *SchedulingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var body ConfirmRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	chosen, err := time.Parse(time.RFC3339, body.ChosenStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chosen_start must be RFC 3339")
		return
	}

	result, err := h.manager.Confirm(r.Context(), appointments.ConfirmRequest{
		Caller:       body.Caller,
		Fingerprint:  fingerprintFrom(r, body.Fingerprint),
		ChosenStart:  chosen,
		Duration:     time.Duration(body.DurationMinutes) * time.Minute,
		TechnicianID: body.TechnicianID,
		CustomerRef:  body.CustomerRef,
		Location:     body.Location,
		Description:  body.Description,
		IsEmergency:  body.IsEmergency,
		IsCommercial: body.IsCommercial,
	})
	h.respond(w, result, err)
}

// Reschedule handles POST /scheduling/reschedule.
func (h *SchedulingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var body RescheduleRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	after, ok := parseOptionalTime(body.NewPreferredAfter)
	if !ok {
		writeError(w, http.StatusBadRequest, "new_preferred_after must be RFC 3339")
		return
	}

	result, err := h.manager.Reschedule(r.Context(), appointments.RescheduleRequest{
		Caller:            body.Caller,
		Fingerprint:       fingerprintFrom(r, body.Fingerprint),
		EventID:           body.EventID,
		NewPreferredAfter: after,
		Location:          body.Location,
		IsEmergency:       body.IsEmergency,
		IsCommercial:      body.IsCommercial,
	})
	h.respond(w, result, err)
}

// Cancel handles POST /scheduling/cancel.
func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body CancelRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.manager.Cancel(r.Context(), appointments.CancelRequest{
		Caller:      body.Caller,
		Fingerprint: fingerprintFrom(r, body.Fingerprint),
		EventID:     body.EventID,
	})
	h.respond(w, result, err)
}

func (h *SchedulingHandler) respond(w http.ResponseWriter, result appointments.Result, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, appointments.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appointments.ErrInProgress):
		writeError(w, http.StatusConflict, "an identical request is already being processed")
	default:
		h.logger.Error("scheduling request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// fingerprintFrom prefers the Idempotency-Key header over the body field.
func fingerprintFrom(r *http.Request, bodyFingerprint string) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return bodyFingerprint
}

func parseOptionalTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
