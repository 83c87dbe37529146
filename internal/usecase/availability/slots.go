package availability

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
)

type BarberSlots struct {
	BarberID    uint   `json:"barber_id"`
	DisplayName string `json:"display_name"`
	Slots       []Slot `json:"slots"`
}

// GenerateSlots lists the slots of one barber on date, ascending by start.
// A slot is unavailable when it overlaps a non-canceled appointment, time-off,
// the lunch break, or starts before the booking horizon.
func (c *Calculator) GenerateSlots(
	ctx context.Context,
	barberID uint,
	date time.Time,
	durationMinutes int,
	intervalMinutes int,
) (slots []Slot, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".GenerateSlots")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"barber_id": barberID,
		"date":      calendar.DateKey(date),
		"duration":  durationMinutes,
	})

	if durationMinutes <= 0 || durationMinutes > maxMinutes {
		return nil, domain.ErrInvalidDuration
	}
	interval, err := c.interval(intervalMinutes)
	if err != nil {
		return nil, err
	}
	day := c.day(date)

	return withFallback(ctx, "generate_slots", func(ctx context.Context) ([]Slot, error) {
		barber, err := c.repo.GetBarber(ctx, barberID)
		if err != nil {
			return nil, err
		}
		if !barber.Active {
			return []Slot{}, nil
		}

		s, err := c.loadSchedule(ctx, barberID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		return s.slotsOn(day, minutes(durationMinutes), interval, c.earliest())
	}, []Slot{})
}

// GenerateSlotsForService runs GenerateSlots for every active barber in
// display-name order. Every barber gets an entry, possibly with no slots.
// durationMinutes 0 means the service's own duration.
func (c *Calculator) GenerateSlotsForService(
	ctx context.Context,
	serviceID uint,
	date time.Time,
	durationMinutes int,
	intervalMinutes int,
) (out []BarberSlots, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".GenerateSlotsForService")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"service_id": serviceID,
		"date":       calendar.DateKey(date),
	})

	if err := checkDuration(durationMinutes); err != nil {
		return nil, err
	}
	interval, err := c.interval(intervalMinutes)
	if err != nil {
		return nil, err
	}
	day := c.day(date)
	earliest := c.earliest()

	return withFallback(ctx, "generate_slots_for_service", func(ctx context.Context) ([]BarberSlots, error) {
		duration, err := c.serviceDuration(ctx, serviceID, durationMinutes)
		if err != nil {
			return nil, err
		}

		barbers, err := c.repo.ListActiveBarbers(ctx)
		if err != nil {
			return nil, err
		}

		results := make([]BarberSlots, len(barbers))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Concurrency)

		for i, b := range barbers {
			g.Go(func() error {
				s, err := c.loadSchedule(gctx, b.ID, day, day.AddDate(0, 0, 1))
				if err != nil {
					return err
				}

				slots, err := s.slotsOn(day, duration, interval, earliest)
				if err != nil {
					return err
				}

				results[i] = BarberSlots{BarberID: b.ID, DisplayName: b.DisplayName, Slots: slots}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}, []BarberSlots{})
}

// serviceDuration resolves an active service and picks the effective duration.
func (c *Calculator) serviceDuration(ctx context.Context, serviceID uint, durationMinutes int) (time.Duration, error) {
	services, err := c.repo.GetActiveServicesByIDs(ctx, []uint{serviceID})
	if err != nil {
		return 0, err
	}
	if len(services) == 0 {
		return 0, domain.ErrInvalidServiceSelection
	}

	if durationMinutes > 0 {
		return minutes(durationMinutes), nil
	}
	return minutes(services[0].DurationMinutes), nil
}

// interval falls back to the configured step when requested is not positive.
func (c *Calculator) interval(requested int) (int, error) {
	switch {
	case requested > maxMinutes:
		return 0, domain.ErrInvalidInterval
	case requested > 0:
		return requested, nil
	default:
		return c.opts.IntervalMinutes, nil
	}
}

// checkDuration accepts 0, meaning the service's own duration, up to one day.
func checkDuration(durationMinutes int) error {
	if durationMinutes < 0 || durationMinutes > maxMinutes {
		return domain.ErrInvalidDuration
	}
	return nil
}

// day resolves date to midnight of its calendar day in the studio timezone.
func (c *Calculator) day(date time.Time) time.Time {
	d := date.In(c.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

func (c *Calculator) earliest() time.Time {
	return c.now().Add(c.opts.MinAdvance)
}

// maxMinutes caps caller-supplied durations and intervals at one day, far
// below where minutes would overflow.
const maxMinutes = 24 * 60

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
