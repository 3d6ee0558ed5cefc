// Package audit records every scheduling decision in an append-only trail
// used for replay, reconciliation, and KPI reporting.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Outcome classifies how a request was resolved.
type Outcome string

const (
	OutcomeConfirmed   Outcome = "confirmed"
	OutcomeRescheduled Outcome = "rescheduled"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeOffered     Outcome = "offered"
	OutcomeReOffered   Outcome = "re_offered"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeNeedsHuman  Outcome = "needs_human"
	OutcomeReplayed    Outcome = "replayed"
	OutcomeRejected    Outcome = "rejected"
)

// Event is one immutable audit record. Rows are never updated after insert.
type Event struct {
	ID                uuid.UUID `json:"id"`
	RequestID         string    `json:"request_id"`
	Actor             string    `json:"actor"`
	Intent            string    `json:"intent"`
	DecisionSummary   string    `json:"decision_summary"`
	OdooResultSummary string    `json:"odoo_result_summary,omitempty"`
	Status            Outcome   `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// KPISummary aggregates outcome counts over a reporting window.
type KPISummary struct {
	Since    time.Time       `json:"since"`
	Total    int             `json:"total"`
	ByStatus map[Outcome]int `json:"by_status"`
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Trail persists audit events in Postgres.
type Trail struct {
	pool querier
}

// NewTrail creates the audit trail over a pgx pool.
func NewTrail(pool *pgxpool.Pool) *Trail {
	if pool == nil {
		panic("audit: pgx pool required")
	}
	return newTrailWithExec(pool)
}

func newTrailWithExec(exec querier) *Trail {
	if exec == nil {
		panic("audit: exec required")
	}
	return &Trail{pool: exec}
}

// Append inserts one event. The id and timestamp are assigned here when the
// caller leaves them zero.
func (t *Trail) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	insert := `
		INSERT INTO audit_events (id, request_id, actor, intent, decision_summary, odoo_result_summary, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.pool.Exec(ctx, insert,
		event.ID, event.RequestID, event.Actor, event.Intent,
		event.DecisionSummary, event.OdooResultSummary, string(event.Status), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events, newest first.
func (t *Trail) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, request_id, actor, intent, decision_summary, odoo_result_summary, status, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := t.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list recent: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			status string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Actor, &e.Intent, &e.DecisionSummary, &e.OdooResultSummary, &status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Status = Outcome(status)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

// KPIs computes outcome counts since the given instant.
func (t *Trail) KPIs(ctx context.Context, since time.Time) (KPISummary, error) {
	query := `
		SELECT status, COUNT(*)
		FROM audit_events
		WHERE created_at >= $1
		GROUP BY status
	`
	rows, err := t.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return KPISummary{}, fmt.Errorf("audit: kpi query: %w", err)
	}
	defer rows.Close()

	summary := KPISummary{Since: since.UTC(), ByStatus: make(map[Outcome]int)}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return KPISummary{}, fmt.Errorf("audit: scan kpi row: %w", err)
		}
		summary.ByStatus[Outcome(status)] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return KPISummary{}, fmt.Errorf("audit: iterate kpi rows: %w", err)
	}
	return summary, nil
}
