package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
)

// CheckAvailabilityForDateRange classifies every day of the closed range as
// sunday, available (some active barber has a free slot) or booked. It does
// not know about today; MonthAvailability layers "past" on top.
func (c *Calculator) CheckAvailabilityForDateRange(
	ctx context.Context,
	serviceID uint,
	rangeStart time.Time,
	rangeEnd time.Time,
	durationMinutes int,
) (out map[string]calendar.DayStatus, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".CheckAvailabilityForDateRange")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	from, to := c.day(rangeStart), c.day(rangeEnd)
	if err := c.checkRange(from, to); err != nil {
		return nil, err
	}
	if err := checkDuration(durationMinutes); err != nil {
		return nil, err
	}

	return withFallback(ctx, "check_availability_range", func(ctx context.Context) (map[string]calendar.DayStatus, error) {
		free, err := c.freeDays(ctx, serviceID, from, to, durationMinutes, time.Time{})
		if err != nil {
			return nil, err
		}

		out := make(map[string]calendar.DayStatus)
		for d := range calendar.Days(from, to) {
			out[calendar.DateKey(d)] = calendar.ClassifyDay(d.Weekday(), false, !free[calendar.DateKey(d)])
		}
		return out, nil
	}, map[string]calendar.DayStatus{})
}

// MonthAvailability is the customer calendar for the month containing baseDate.
func (c *Calculator) MonthAvailability(
	ctx context.Context,
	serviceID uint,
	baseDate time.Time,
	durationMinutes int,
) (out map[string]calendar.DayStatus, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".MonthAvailability")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err := checkDuration(durationMinutes); err != nil {
		return nil, err
	}

	first, last := calendar.MonthBounds(c.day(baseDate))
	now := c.now().In(c.loc)

	key := fmt.Sprintf("%smonth:%d:%s:%d:%s",
		cache.KeyPrefix, serviceID, first.Format("2006-01"), durationMinutes, calendar.DateKey(now))
	scope.SetAttribute("cache.key", key)

	epoch := c.epoch.Load()

	var cached map[string]calendar.DayStatus
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("availability cache read failed")
	}

	return withFallback(ctx, "month_availability", func(ctx context.Context) (map[string]calendar.DayStatus, error) {
		// past days are never evaluated
		from := first
		if today := calendar.StartOfDay(now); today.After(from) {
			from = today
		}

		free := map[string]bool{}
		if !from.After(last) {
			var err error
			free, err = c.freeDays(ctx, serviceID, from, last, durationMinutes, c.earliest())
			if err != nil {
				return nil, err
			}
		}

		out := make(map[string]calendar.DayStatus)
		for d := range calendar.Days(first, last) {
			out[calendar.DateKey(d)] = calendar.ClassifyDay(
				d.Weekday(),
				calendar.IsBeforeDay(d, now),
				!free[calendar.DateKey(d)],
			)
		}

		go c.saveMonth(context.WithoutCancel(ctx), key, out, epoch)

		return out, nil
	}, map[string]calendar.DayStatus{})
}

// saveMonth caches out unless the schedule changed since it was read. An
// invalidation racing the write removes the entry again.
func (c *Calculator) saveMonth(ctx context.Context, key string, out map[string]calendar.DayStatus, epoch uint64) {
	if c.epoch.Load() != epoch {
		return
	}

	if err := c.cache.Save(ctx, key, out, c.opts.CacheTTL); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to save month availability")
		return
	}

	if c.epoch.Load() != epoch {
		if err := c.cache.Clear(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to drop stale month availability")
		}
	}
}

// BarberMonth is the admin calendar of one barber: a day is booked when it
// holds any non-canceled appointment or time-off.
func (c *Calculator) BarberMonth(
	ctx context.Context,
	barberID uint,
	baseDate time.Time,
) (out map[string]calendar.DayStatus, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".BarberMonth")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	first, last := calendar.MonthBounds(c.day(baseDate))
	now := c.now().In(c.loc)

	return withFallback(ctx, "barber_month", func(ctx context.Context) (map[string]calendar.DayStatus, error) {
		if _, err := c.repo.GetBarber(ctx, barberID); err != nil {
			return nil, err
		}

		s, err := c.loadSchedule(ctx, barberID, first, last.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}

		out := make(map[string]calendar.DayStatus)
		for d := range calendar.Days(first, last) {
			out[calendar.DateKey(d)] = calendar.ClassifyDay(d.Weekday(), calendar.IsBeforeDay(d, now), s.busyOn(d))
		}
		return out, nil
	}, map[string]calendar.DayStatus{})
}

// freeDays returns the date keys in [from, to] on which at least one active
// barber has an available slot.
func (c *Calculator) freeDays(
	ctx context.Context,
	serviceID uint,
	from, to time.Time,
	durationMinutes int,
	earliest time.Time,
) (map[string]bool, error) {
	duration, err := c.serviceDuration(ctx, serviceID, durationMinutes)
	if err != nil {
		return nil, err
	}

	barbers, err := c.repo.ListActiveBarbers(ctx)
	if err != nil {
		return nil, err
	}

	perBarber := make([]map[string]bool, len(barbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, b := range barbers {
		g.Go(func() error {
			s, err := c.loadSchedule(gctx, b.ID, from, to.AddDate(0, 0, 1))
			if err != nil {
				return err
			}

			days := map[string]bool{}
			for d := range calendar.Days(from, to) {
				ok, err := s.hasFreeSlot(d, duration, c.opts.IntervalMinutes, earliest)
				if err != nil {
					return err
				}
				if ok {
					days[calendar.DateKey(d)] = true
				}
			}
			perBarber[i] = days
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	free := map[string]bool{}
	for _, days := range perBarber {
		for k := range days {
			free[k] = true
		}
	}
	return free, nil
}

func (c *Calculator) checkRange(from, to time.Time) error {
	if to.Before(from) {
		return domain.ErrInvalidRange
	}

	days := 0
	for range calendar.Days(from, to) {
		days++
		if days > c.opts.MaxRangeDays {
			return domain.ErrInvalidRange
		}
	}
	return nil
}
