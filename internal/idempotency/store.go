// Package idempotency persists uniquely-keyed claim records so retried
// requests from the at-least-once webhook transport never produce a second
// mutation. A claim is started at first sight of a fingerprint and finalized
// exactly once; concurrent starts for the same (scope, key) are serialized by
// the table's unique constraint.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status is the lifecycle state of a claim.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrInProgress signals that another attempt holds the claim; the caller
// should back off and retry rather than double-process.
var ErrInProgress = errors.New("idempotency: request already in progress")

// Claim is the stored record guarding one logical request.
type Claim struct {
	Scope     string
	Key       string
	Status    Status
	Response  []byte
	ExpiresAt time.Time
}

// StartResult reports how Start resolved a fingerprint.
type StartResult struct {
	// Acquired means this attempt owns the claim and must Complete or Fail it.
	Acquired bool
	// Replayed carries the recorded response of an earlier completed attempt.
	Replayed bool
	Response []byte
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists claims in Postgres.
type Store struct {
	pool rowQuerier
	ttl  time.Duration
}

// NewStore creates a store whose claims expire after ttl.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	if pool == nil {
		panic("idempotency: pgx pool required")
	}
	return newStoreWithExec(pool, ttl)
}

func newStoreWithExec(exec rowQuerier, ttl time.Duration) *Store {
	if exec == nil {
		panic("idempotency: exec required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{pool: exec, ttl: ttl}
}

// Start claims the fingerprint. Exactly one of three things happens: the
// claim is acquired (first sight, or a failed/expired claim is taken over), a
// completed response is replayed, or ErrInProgress rejects the attempt.
func (s *Store) Start(ctx context.Context, scope, key string) (StartResult, error) {
	insert := `
		INSERT INTO idempotency_keys (scope, key, status, expires_at)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (scope, key) DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, insert, scope, key, time.Now().UTC().Add(s.ttl))
	if err != nil {
		return StartResult{}, fmt.Errorf("idempotency: insert claim: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return StartResult{Acquired: true}, nil
	}

	// Someone already holds the key; decide between replay, takeover, and
	// rejection based on the recorded state.
	var (
		status    Status
		response  []byte
		expiresAt time.Time
	)
	query := `SELECT status, response_payload, expires_at FROM idempotency_keys WHERE scope = $1 AND key = $2`
	if err := s.pool.QueryRow(ctx, query, scope, key).Scan(&status, &response, &expiresAt); err != nil {
		return StartResult{}, fmt.Errorf("idempotency: load claim: %w", err)
	}

	switch {
	case status == StatusCompleted:
		return StartResult{Replayed: true, Response: response}, nil
	case status == StatusFailed, time.Now().UTC().After(expiresAt):
		return s.takeOver(ctx, scope, key)
	default:
		return StartResult{}, ErrInProgress
	}
}

// takeOver reclaims a failed or expired entry. The guarded UPDATE keeps two
// concurrent takeovers from both winning.
func (s *Store) takeOver(ctx context.Context, scope, key string) (StartResult, error) {
	update := `
		UPDATE idempotency_keys
		SET status = 'in_progress', response_payload = NULL, expires_at = $3
		WHERE scope = $1 AND key = $2
		  AND (status = 'failed' OR expires_at < now())
	`
	ct, err := s.pool.Exec(ctx, update, scope, key, time.Now().UTC().Add(s.ttl))
	if err != nil {
		return StartResult{}, fmt.Errorf("idempotency: reclaim: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return StartResult{}, ErrInProgress
	}
	return StartResult{Acquired: true}, nil
}

// Complete records the response for a claim this attempt owns. For a given
// (scope, key) at most one call ever transitions into completed.
func (s *Store) Complete(ctx context.Context, scope, key string, response []byte) error {
	update := `
		UPDATE idempotency_keys
		SET status = 'completed', response_payload = $3
		WHERE scope = $1 AND key = $2 AND status = 'in_progress'
	`
	ct, err := s.pool.Exec(ctx, update, scope, key, response)
	if err != nil {
		return fmt.Errorf("idempotency: complete claim: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("idempotency: claim %s/%s not held in progress", scope, key)
	}
	return nil
}

// Fail releases the claim so a later retry can take it over.
func (s *Store) Fail(ctx context.Context, scope, key string) error {
	update := `
		UPDATE idempotency_keys
		SET status = 'failed'
		WHERE scope = $1 AND key = $2 AND status = 'in_progress'
	`
	if _, err := s.pool.Exec(ctx, update, scope, key); err != nil {
		return fmt.Errorf("idempotency: fail claim: %w", err)
	}
	return nil
}
