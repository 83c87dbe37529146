package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
)

const otelScopeName = "usecase.appointment"

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	CustomerID uint
	BarberID   uint
	StartTime  time.Time
	ServiceIDs []uint
	Notes      string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	notifier notify.Notifier
	cache    CacheInvalidator
	otel     otel.Otel
	loc      *time.Location
	opts     BookingOptions
	now      Clock
}

func NewCreateAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	notifier notify.Notifier,
	cache CacheInvalidator,
	ot otel.Otel,
	loc *time.Location,
	opts BookingOptions,
) *CreateAppointment {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &CreateAppointment{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		cache:    cache,
		otel:     ot,
		loc:      loc,
		opts:     opts,
		now:      time.Now,
	}
}

func (uc *CreateAppointment) WithClock(now Clock) *CreateAppointment {
	uc.now = now
	return uc
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (ap *models.Appointment, err error) {
	ctx, scope := uc.otel.NewScope(ctx, otelScopeName, otelScopeName+".CreateAppointment")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"barber_id":   in.BarberID,
		"customer_id": in.CustomerID,
		"start_time":  in.StartTime.Format(time.RFC3339),
	})

	// --------------------------------------------------
	// 1. Services: every id must be an active service
	// --------------------------------------------------
	services, err := uc.resolveServices(ctx, in.ServiceIDs)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Window and snapshot price
	// --------------------------------------------------
	var (
		duration time.Duration
		total    = decimal.Zero
		lines    = make([]models.AppointmentService, 0, len(services))
	)
	for i, svc := range services {
		duration += time.Duration(svc.DurationMinutes) * time.Minute
		total = total.Add(svc.BasePrice)

		lines = append(lines, models.AppointmentService{
			ServiceID: svc.ID,
			BasePrice: svc.BasePrice,
			Position:  i,
		})
	}
	if duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	start := in.StartTime.In(uc.loc)
	end := start.Add(duration)

	// --------------------------------------------------
	// 3. Booking horizon
	// --------------------------------------------------
	if start.Before(uc.now().Add(uc.opts.MinAdvance)) {
		return nil, domain.ErrTooSoon
	}

	// --------------------------------------------------
	// 4. Barber
	// --------------------------------------------------
	barber, err := uc.repo.GetBarber(ctx, in.BarberID)
	if err != nil {
		return nil, err
	}
	if !barber.Active {
		return nil, domain.ErrBarberInactive
	}

	// --------------------------------------------------
	// 5. Working hours, lunch and time-off
	// --------------------------------------------------
	if uc.opts.EnforceWorkingHours {
		if err := uc.assertWithinSchedule(ctx, barber.ID, start, end); err != nil {
			return nil, err
		}
	}

	// --------------------------------------------------
	// 6. Atomic section: conflict check + insert
	// --------------------------------------------------
	ap = &models.Appointment{
		CustomerID: in.CustomerID,
		BarberID:   barber.ID,
		StartTime:  start,
		EndTime:    end,
		Status:     domain.InitialStatus(),
		TotalPrice: total,
		Notes:      in.Notes,
		Services:   lines,
	}

	if err := uc.commit(ctx, ap); err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			uc.audit.Dispatch(audit.Event{
				UserID:   &in.CustomerID,
				Action:   audit.ActionAppointmentConflict,
				Entity:   "barber",
				EntityID: &barber.ID,
				Metadata: map[string]any{"start": start, "end": end},
			})
		}
		return nil, err
	}

	// --------------------------------------------------
	// 7. Side effects, best effort
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		UserID:   &in.CustomerID,
		Action:   audit.ActionAppointmentCreated,
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"barber_id":   barber.ID,
			"total_price": total.StringFixed(2),
		},
	})

	notifyBestEffort(ctx, uc.notifier, notify.KindBookingConfirmed, ap.ID)
	invalidateAsync(ctx, uc.cache)

	log.Info().
		Uint("appointment_id", ap.ID).
		Uint("barber_id", barber.ID).
		Time("start", start).
		Msg("appointment booked")

	return ap, nil
}

// resolveServices keeps the caller's order. Repeated ids count each time.
func (uc *CreateAppointment) resolveServices(ctx context.Context, ids []uint) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, domain.ErrInvalidServiceSelection
	}

	found, err := uc.repo.GetActiveServicesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}

	out := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, domain.ErrInvalidServiceSelection
		}
		out = append(out, svc)
	}
	return out, nil
}

func (uc *CreateAppointment) assertWithinSchedule(ctx context.Context, barberID uint, start, end time.Time) error {
	if start.Weekday() == time.Sunday {
		return domain.ErrOutsideWorkingHours
	}

	wh, err := uc.repo.GetWorkingHours(ctx, barberID, int(start.Weekday()))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrOutsideWorkingHours
	}
	if err != nil {
		return err
	}
	if !wh.Active {
		return domain.ErrOutsideWorkingHours
	}

	window, err := calendar.WindowFor(start, wh)
	if err != nil {
		return err
	}
	if !window.Admits(start, end) {
		return domain.ErrOutsideWorkingHours
	}

	off, err := uc.repo.ListTimeOff(ctx, barberID, start, end)
	if err != nil {
		return err
	}
	if len(off) > 0 {
		return domain.ErrOutsideWorkingHours
	}

	return nil
}

// commit runs the conflict check and insert under the barber lock, bounded by
// the booking timeout. Either the appointment and all its line items are
// written or nothing is.
func (uc *CreateAppointment) commit(ctx context.Context, ap *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, uc.opts.Timeout)
	defer cancel()

	err := uc.repo.WithBarberLock(ctx, ap.BarberID, func(tx domain.BookingTx) error {
		conflict, err := tx.HasConflict(ctx, ap.BarberID, ap.StartTime, ap.EndTime, 0)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrSlotConflict
		}

		return tx.CreateAppointment(ctx, ap)
	})

	return atomicError(ctx, err)
}
