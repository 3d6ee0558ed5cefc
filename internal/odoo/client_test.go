package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

// fakeOdoo answers the JSON-RPC calls the client makes, recording the last
// execute_kw invocation.
type fakeOdoo struct {
	t           *testing.T
	lastModel   string
	lastMethod  string
	lastArgs    []any
	searchRows  []map[string]any
	createID    int
	writeResult bool
	authCalls   int
}

func (f *fakeOdoo) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Params struct {
			Service string `json:"service"`
			Method  string `json:"method"`
			Args    []any  `json:"args"`
		} `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Fatalf("decode rpc request: %v", err)
	}

	var result any
	switch req.Params.Service {
	case "common":
		f.authCalls++
		result = 7
	case "object":
		f.lastModel = req.Params.Args[3].(string)
		f.lastMethod = req.Params.Args[4].(string)
		f.lastArgs = req.Params.Args[5].([]any)
		switch f.lastMethod {
		case "search_read", "read":
			result = f.searchRows
		case "create":
			result = f.createID
		case "write":
			result = f.writeResult
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": result})
}

func newFakeClient(t *testing.T, fake *fakeOdoo) *Client {
	t.Helper()
	fake.t = t
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "dispatch", "api@apexhvac.com", "secret", logging.Default())
}

func TestGetBusyIntervalsParsesNaiveUTCTimes(t *testing.T) {
	fake := &fakeOdoo{
		searchRows: []map[string]any{
			{"id": 1, "start": "2026-03-02 10:00:00", "stop": "2026-03-02 12:00:00"},
		},
	}
	client := newFakeClient(t, fake)

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	intervals, err := client.GetBusyIntervals(context.Background(), 3, from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetBusyIntervals: %v", err)
	}
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	want := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if !intervals[0].Start.Equal(want) {
		t.Errorf("expected start %s, got %s", want, intervals[0].Start)
	}
	if intervals[0].Start.Location() != time.UTC {
		t.Error("intervals must be returned in UTC")
	}
	if fake.lastModel != "calendar.event" || fake.lastMethod != "search_read" {
		t.Errorf("unexpected call: %s.%s", fake.lastModel, fake.lastMethod)
	}
}

func TestAuthenticateCachedAcrossCalls(t *testing.T) {
	fake := &fakeOdoo{writeResult: true}
	client := newFakeClient(t, fake)
	ctx := context.Background()

	now := time.Now().UTC()
	if _, err := client.UpdateEvent(ctx, 5, now, now.Add(time.Hour), 3); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if _, err := client.CancelEvent(ctx, 5); err != nil {
		t.Fatalf("CancelEvent: %v", err)
	}
	if fake.authCalls != 1 {
		t.Fatalf("expected 1 authenticate call, got %d", fake.authCalls)
	}
}

func TestCreateEventSendsOdooValues(t *testing.T) {
	fake := &fakeOdoo{createID: 42}
	client := newFakeClient(t, fake)

	id, err := client.CreateEvent(context.Background(), CreateEventParams{
		Title:             "Furnace repair: Smith",
		Start:             time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC),
		Stop:              time.Date(2026, time.March, 2, 15, 0, 0, 0, time.UTC),
		TechnicianUserRef: 3,
		Location:          "75201",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected event id 42, got %d", id)
	}

	values := fake.lastArgs[0].(map[string]any)
	if values["start"] != "2026-03-02 14:00:00" {
		t.Errorf("start not formatted as naive UTC: %v", values["start"])
	}
	if values["user_id"] != float64(3) {
		t.Errorf("unexpected user_id: %v", values["user_id"])
	}
}

func TestCancelEventWritesInactive(t *testing.T) {
	fake := &fakeOdoo{writeResult: true}
	client := newFakeClient(t, fake)

	ok, err := client.CancelEvent(context.Background(), 42)
	if err != nil || !ok {
		t.Fatalf("CancelEvent: ok=%v err=%v", ok, err)
	}
	if fake.lastMethod != "write" {
		t.Fatalf("expected write, got %s", fake.lastMethod)
	}
	values := fake.lastArgs[1].(map[string]any)
	if values["active"] != false {
		t.Errorf("cancel must soft-delete via active=false, got %v", values)
	}
}

func TestDryRunSkipsMutations(t *testing.T) {
	fake := &fakeOdoo{}
	fake.t = t
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "dispatch", "api@apexhvac.com", "secret", logging.Default(), WithDryRun(true))

	id, err := client.CreateEvent(context.Background(), CreateEventParams{Title: "x"})
	if err != nil {
		t.Fatalf("CreateEvent dry run: %v", err)
	}
	if id != -1 {
		t.Fatalf("expected sentinel id in dry run, got %d", id)
	}
	if fake.lastMethod != "" {
		t.Fatal("dry run must not reach Odoo")
	}
}

func TestParseOdooTimeRejectsGarbage(t *testing.T) {
	if _, err := parseOdooTime("03/02/2026 10:00"); err == nil {
		t.Fatal("expected parse error for non-Odoo format")
	}
}
