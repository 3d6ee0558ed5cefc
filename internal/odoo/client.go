// Package odoo provides a narrow JSON-RPC client for the Odoo CRM/calendar
// backend: busy-interval reads plus create/update/cancel of calendar events.
// Odoo stores datetimes as naive UTC strings; every value crossing this
// boundary is parsed and formatted explicitly in UTC.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/apexhvac/dispatch-ai-platform/internal/observability/metrics"
	"github.com/apexhvac/dispatch-ai-platform/internal/scheduling"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

const (
	jsonrpcPath    = "/jsonrpc"
	odooTimeLayout = "2006-01-02 15:04:05"
	defaultTimeout = 15 * time.Second
	calendarModel  = "calendar.event"
)

// Client talks to one Odoo instance.
type Client struct {
	baseURL    string
	database   string
	username   string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.SchedulingMetrics
	dryRun     bool // When true, mutations log but don't reach Odoo

	mu  sync.Mutex
	uid int // cached authenticated user id, 0 until login
}

// Option configures a Client.
type Option func(*Client)

// WithDryRun enables dry-run mode: mutations log the request but return a
// fake success without calling Odoo.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient swaps the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records per-method call latency. Nil is fine.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates an Odoo JSON-RPC client.
func NewClient(baseURL, database, username, apiKey string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:  baseURL,
		database: database,
		username: username,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip and decodes the result into out.
func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("odoo: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jsonrpcPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("odoo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("odoo: call %s.%s: %w", service, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("odoo: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odoo: %s.%s returned HTTP %d", service, method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(payload, &rpcResp); err != nil {
		return fmt.Errorf("odoo: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("odoo: %s.%s: %w", service, method, rpcResp.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("odoo: decode result: %w", err)
		}
	}
	return nil
}

// authenticate logs in and caches the uid for execute_kw calls.
func (c *Client) authenticate(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}
	var uid int
	args := []any{c.database, c.username, c.apiKey, map[string]any{}}
	if err := c.call(ctx, "common", "authenticate", args, &uid); err != nil {
		return 0, err
	}
	if uid == 0 {
		return 0, fmt.Errorf("odoo: authentication rejected for %s", c.username)
	}
	c.uid = uid
	return uid, nil
}

// executeKw wraps object.execute_kw with the cached uid.
func (c *Client) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	uid, err := c.authenticate(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	start := time.Now()
	callArgs := []any{c.database, uid, c.apiKey, model, method, args, kwargs}
	err = c.call(ctx, "object", "execute_kw", callArgs, out)
	c.metrics.ObserveCalendarLatency(method, time.Since(start).Seconds())
	return err
}

type eventRow struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	Stop  string `json:"stop"`
}

// GetBusyIntervals returns the technician's committed calendar events
// overlapping [from, to), read fresh from Odoo.
func (c *Client) GetBusyIntervals(ctx context.Context, technicianUserRef int, from, to time.Time) ([]scheduling.BusyInterval, error) {
	domain := []any{
		[]any{"user_id", "=", technicianUserRef},
		[]any{"active", "=", true},
		[]any{"start", "<", to.UTC().Format(odooTimeLayout)},
		[]any{"stop", ">", from.UTC().Format(odooTimeLayout)},
	}
	var rows []eventRow
	kwargs := map[string]any{
		"fields": []string{"id", "start", "stop"},
		"order":  "start asc",
	}
	if err := c.executeKw(ctx, calendarModel, "search_read", []any{domain}, kwargs, &rows); err != nil {
		return nil, fmt.Errorf("odoo: busy intervals for user %d: %w", technicianUserRef, err)
	}

	intervals := make([]scheduling.BusyInterval, 0, len(rows))
	for _, row := range rows {
		start, err := parseOdooTime(row.Start)
		if err != nil {
			return nil, fmt.Errorf("odoo: event %d: %w", row.ID, err)
		}
		stop, err := parseOdooTime(row.Stop)
		if err != nil {
			return nil, fmt.Errorf("odoo: event %d: %w", row.ID, err)
		}
		intervals = append(intervals, scheduling.BusyInterval{Start: start, End: stop})
	}
	return intervals, nil
}

// CreateEventParams describes a new calendar event.
type CreateEventParams struct {
	Title             string
	Start             time.Time
	Stop              time.Time
	TechnicianUserRef int
	Location          string
	Description       string
}

// CreateEvent creates a calendar event and returns its Odoo id.
func (c *Client) CreateEvent(ctx context.Context, params CreateEventParams) (int, error) {
	if c.dryRun {
		c.logger.Info("dry run: would create calendar event",
			"title", params.Title,
			"start", params.Start.UTC(),
			"user_ref", params.TechnicianUserRef,
		)
		return -1, nil
	}
	values := map[string]any{
		"name":        params.Title,
		"start":       params.Start.UTC().Format(odooTimeLayout),
		"stop":        params.Stop.UTC().Format(odooTimeLayout),
		"user_id":     params.TechnicianUserRef,
		"location":    params.Location,
		"description": params.Description,
	}
	var eventID int
	if err := c.executeKw(ctx, calendarModel, "create", []any{values}, nil, &eventID); err != nil {
		return 0, fmt.Errorf("odoo: create event: %w", err)
	}
	c.logger.Info("calendar event created", "event_id", eventID, "user_ref", params.TechnicianUserRef)
	return eventID, nil
}

// UpdateEvent moves an existing event to a new window, optionally reassigning
// the technician.
func (c *Client) UpdateEvent(ctx context.Context, eventID int, start, stop time.Time, technicianUserRef int) (bool, error) {
	if c.dryRun {
		c.logger.Info("dry run: would update calendar event", "event_id", eventID, "start", start.UTC())
		return true, nil
	}
	values := map[string]any{
		"start": start.UTC().Format(odooTimeLayout),
		"stop":  stop.UTC().Format(odooTimeLayout),
	}
	if technicianUserRef != 0 {
		values["user_id"] = technicianUserRef
	}
	var ok bool
	if err := c.executeKw(ctx, calendarModel, "write", []any{[]int{eventID}, values}, nil, &ok); err != nil {
		return false, fmt.Errorf("odoo: update event %d: %w", eventID, err)
	}
	return ok, nil
}

// CancelEvent soft-deletes the event by marking it inactive; the record stays
// in Odoo for reporting.
func (c *Client) CancelEvent(ctx context.Context, eventID int) (bool, error) {
	if c.dryRun {
		c.logger.Info("dry run: would cancel calendar event", "event_id", eventID)
		return true, nil
	}
	values := map[string]any{"active": false}
	var ok bool
	if err := c.executeKw(ctx, calendarModel, "write", []any{[]int{eventID}, values}, nil, &ok); err != nil {
		return false, fmt.Errorf("odoo: cancel event %d: %w", eventID, err)
	}
	return ok, nil
}

// GetEvent loads one event's window, used by reschedule to preserve duration.
func (c *Client) GetEvent(ctx context.Context, eventID int) (start, stop time.Time, err error) {
	var rows []eventRow
	kwargs := map[string]any{"fields": []string{"id", "start", "stop"}}
	if err := c.executeKw(ctx, calendarModel, "read", []any{[]int{eventID}}, kwargs, &rows); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("odoo: read event %d: %w", eventID, err)
	}
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("odoo: event %d not found", eventID)
	}
	start, err = parseOdooTime(rows[0].Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("odoo: event %d: %w", eventID, err)
	}
	stop, err = parseOdooTime(rows[0].Stop)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("odoo: event %d: %w", eventID, err)
	}
	return start, stop, nil
}

// parseOdooTime converts Odoo's naive datetime string to an explicit UTC
// instant.
func parseOdooTime(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(odooTimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", raw, err)
	}
	return t.UTC(), nil
}
