package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apexhvac/dispatch-ai-platform/internal/scheduling"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

// Calendar is the full calendar surface the cache decorates.
type Calendar interface {
	scheduling.CalendarReader
	CreateEvent(ctx context.Context, params CreateEventParams) (int, error)
	UpdateEvent(ctx context.Context, eventID int, start, stop time.Time, technicianUserRef int) (bool, error)
	CancelEvent(ctx context.Context, eventID int) (bool, error)
	GetEvent(ctx context.Context, eventID int) (start, stop time.Time, err error)
}

// CachedCalendar is a read-through cache over busy-interval reads. Each
// technician has a generation counter bumped on every mutation, so stale
// entries die immediately for that technician and expire by TTL otherwise.
// Mutations and single-event reads pass straight through.
type CachedCalendar struct {
	inner  Calendar
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedCalendar wraps a calendar with the redis cache.
func NewCachedCalendar(inner Calendar, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedCalendar {
	if inner == nil {
		panic("odoo: inner calendar required")
	}
	if client == nil {
		panic("odoo: redis client required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedCalendar{inner: inner, client: client, ttl: ttl, logger: logger}
}

func generationKey(ref int) string {
	return fmt.Sprintf("dispatch:busygen:%d", ref)
}

func (c *CachedCalendar) generation(ctx context.Context, ref int) int64 {
	gen, err := c.client.Get(ctx, generationKey(ref)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("busy cache generation read failed", "error", err, "user_ref", ref)
	}
	return gen
}

func (c *CachedCalendar) bumpGeneration(ctx context.Context, ref int) {
	if err := c.client.Incr(ctx, generationKey(ref)).Err(); err != nil {
		c.logger.Warn("busy cache invalidation failed", "error", err, "user_ref", ref)
	}
}

// GetBusyIntervals serves from redis when a fresh entry exists for the
// technician's current generation; cache failures degrade to a direct read.
func (c *CachedCalendar) GetBusyIntervals(ctx context.Context, technicianUserRef int, from, to time.Time) ([]scheduling.BusyInterval, error) {
	gen := c.generation(ctx, technicianUserRef)
	key := fmt.Sprintf("dispatch:busy:%d:%d:%d:%d", technicianUserRef, gen, from.UTC().Unix(), to.UTC().Unix())

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var intervals []scheduling.BusyInterval
		if err := json.Unmarshal(cached, &intervals); err == nil {
			return intervals, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("busy cache read failed", "error", err, "user_ref", technicianUserRef)
	}

	intervals, err := c.inner.GetBusyIntervals(ctx, technicianUserRef, from, to)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(intervals); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("busy cache write failed", "error", err, "user_ref", technicianUserRef)
		}
	}
	return intervals, nil
}

// CreateEvent writes through and invalidates the technician's cache.
func (c *CachedCalendar) CreateEvent(ctx context.Context, params CreateEventParams) (int, error) {
	id, err := c.inner.CreateEvent(ctx, params)
	if err == nil {
		c.bumpGeneration(ctx, params.TechnicianUserRef)
	}
	return id, err
}

// UpdateEvent writes through and invalidates the technician's cache.
func (c *CachedCalendar) UpdateEvent(ctx context.Context, eventID int, start, stop time.Time, technicianUserRef int) (bool, error) {
	ok, err := c.inner.UpdateEvent(ctx, eventID, start, stop, technicianUserRef)
	if err == nil && technicianUserRef != 0 {
		c.bumpGeneration(ctx, technicianUserRef)
	}
	return ok, err
}

// CancelEvent writes through. The owning technician is unknown here, so the
// entry ages out by TTL instead of an explicit invalidation.
func (c *CachedCalendar) CancelEvent(ctx context.Context, eventID int) (bool, error) {
	return c.inner.CancelEvent(ctx, eventID)
}

// GetEvent always reads through.
func (c *CachedCalendar) GetEvent(ctx context.Context, eventID int) (time.Time, time.Time, error) {
	return c.inner.GetEvent(ctx, eventID)
}
