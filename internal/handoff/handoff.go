// Package handoff captures requests the scheduler cannot resolve on its own
// (exhausted availability, backend failures) so a human dispatcher can pick
// them up. The original request payload is persisted for later retry and
// reconciliation, never silently dropped.
package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

// Reason explains why the request needs a human.
type Reason string

const (
	ReasonExhausted      Reason = "no_availability"
	ReasonNoTechnician   Reason = "no_eligible_technician"
	ReasonBackendFailure Reason = "calendar_backend_failure"
)

// Request is one captured needs-human record.
type Request struct {
	ID          uuid.UUID       `json:"id"`
	RequestID   string          `json:"request_id"`
	Caller      string          `json:"caller"`
	Reason      Reason          `json:"reason"`
	Detail      string          `json:"detail"`
	Payload     json.RawMessage `json:"payload"`
	IsEmergency bool            `json:"is_emergency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Queue delivers captured requests to the dispatcher channel.
type Queue interface {
	Send(ctx context.Context, body string) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service persists handoff records and enqueues them for the dispatcher. A
// queue delivery failure is logged but never fails the capture: the Postgres
// row is the durable source of truth.
type Service struct {
	pool   execer
	queue  Queue
	logger *logging.Logger
}

// NewService creates the handoff service.
func NewService(pool *pgxpool.Pool, queue Queue, logger *logging.Logger) *Service {
	if pool == nil {
		panic("handoff: pgx pool required")
	}
	return newServiceWithExec(pool, queue, logger)
}

func newServiceWithExec(exec execer, queue Queue, logger *logging.Logger) *Service {
	if exec == nil {
		panic("handoff: exec required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{pool: exec, queue: queue, logger: logger}
}

// Capture records the request and notifies the dispatcher queue.
func (s *Service) Capture(ctx context.Context, req Request) (uuid.UUID, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	insert := `
		INSERT INTO handoff_requests (id, request_id, caller, reason, detail, payload, is_emergency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, insert,
		req.ID, req.RequestID, req.Caller, string(req.Reason),
		req.Detail, req.Payload, req.IsEmergency, req.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("handoff: persist request: %w", err)
	}

	if s.queue != nil {
		body, err := json.Marshal(req)
		if err != nil {
			return uuid.Nil, fmt.Errorf("handoff: encode request: %w", err)
		}
		if err := s.queue.Send(ctx, string(body)); err != nil {
			s.logger.Error("handoff queue delivery failed, row persisted for reconciliation",
				"error", err,
				"handoff_id", req.ID,
				"reason", req.Reason,
			)
		}
	}

	s.logger.Info("request handed off to human dispatch",
		"handoff_id", req.ID,
		"request_id", req.RequestID,
		"reason", req.Reason,
		"is_emergency", req.IsEmergency,
	)
	return req.ID, nil
}
