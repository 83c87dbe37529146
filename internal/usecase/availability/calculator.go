// Package availability turns stored working hours, appointments and time-off
// into slot lists and calendar day statuses. Every operation here is read-only
// and advisory; the booking transaction re-checks at commit time.
package availability

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
)

const otelScopeName = "usecase.availability"

type Options struct {
	IntervalMinutes int
	MinAdvance      time.Duration
	MaxRangeDays    int
	Concurrency     int
	CacheTTL        time.Duration
}

type Calculator struct {
	repo  domain.Repository
	cache cache.Cache
	otel  otel.Otel
	loc   *time.Location
	opts  Options

	// epoch counts invalidations so a month view computed before one is
	// never left in the cache after it.
	epoch atomic.Uint64

	now func() time.Time
}

func NewCalculator(
	repo domain.Repository,
	c cache.Cache,
	ot otel.Otel,
	loc *time.Location,
	opts Options,
) *Calculator {
	if opts.IntervalMinutes <= 0 {
		opts.IntervalMinutes = 15
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 62
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	return &Calculator{
		repo:  repo,
		cache: c,
		otel:  ot,
		loc:   loc,
		opts:  opts,
		now:   time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// withFallback runs a read query and serves fallback when storage is down.
// Business errors other than timeout/storage_unavailable pass through, so a
// bad request still fails. Never use it on a write path.
func withFallback[T any](
	ctx context.Context,
	op string,
	query func(context.Context) (T, error),
	fallback T,
) (T, error) {
	v, err := query(ctx)
	if err == nil {
		return v, nil
	}

	if httperr.Code(err) != "" && !httperr.IsRetryable(err) {
		return fallback, err
	}

	if errors.Is(err, context.Canceled) {
		return fallback, err
	}

	log.Error().Err(err).Str("op", op).Msg("availability read failed, serving fallback")
	return fallback, nil
}

// InvalidateCache drops cached month views. Called after any write that
// changes a barber's schedule.
func (c *Calculator) InvalidateCache(ctx context.Context) {
	c.epoch.Add(1)
	if err := c.cache.Clear(ctx, cache.KeyPrefix+"*"); err != nil {
		log.Error().Err(err).Msg("failed to clear availability cache")
	}
}
