package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apexhvac/dispatch-ai-platform/internal/audit"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

type fakeTrail struct {
	events    []audit.Event
	summary   audit.KPISummary
	lastLimit int
	lastSince time.Time
	err       error
}

func (f *fakeTrail) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	f.lastLimit = limit
	return f.events, f.err
}

func (f *fakeTrail) KPIs(_ context.Context, since time.Time) (audit.KPISummary, error) {
	f.lastSince = since
	return f.summary, f.err
}

func TestListEventsDefaultsLimit(t *testing.T) {
	trail := &fakeTrail{events: []audit.Event{{Intent: "confirm_appointment", Status: audit.OutcomeConfirmed}}}
	h := NewAdminAuditHandler(trail, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if trail.lastLimit != 100 {
		t.Fatalf("expected default limit 100, got %d", trail.lastLimit)
	}
	var body struct {
		Events []audit.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(body.Events))
	}
}

func TestListEventsRejectsBadLimit(t *testing.T) {
	h := NewAdminAuditHandler(&fakeTrail{}, logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/admin/audit?limit=-5", nil)
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListEventsSurfacesStoreError(t *testing.T) {
	h := NewAdminAuditHandler(&fakeTrail{err: errors.New("pg down")}, logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestKPIsUsesSinceHoursWindow(t *testing.T) {
	trail := &fakeTrail{summary: audit.KPISummary{Total: 7}}
	h := NewAdminAuditHandler(trail, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/audit/kpis?since_hours=48", nil)
	rec := httptest.NewRecorder()
	h.KPIs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	wantSince := time.Now().UTC().Add(-48 * time.Hour)
	if trail.lastSince.Before(wantSince.Add(-time.Minute)) || trail.lastSince.After(wantSince.Add(time.Minute)) {
		t.Fatalf("since window off: %s", trail.lastSince)
	}
	var summary audit.KPISummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Total != 7 {
		t.Fatalf("expected total 7, got %d", summary.Total)
	}
}
