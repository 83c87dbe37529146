package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/notify"
)

// CacheInvalidator drops cached availability after a schedule change.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type Clock func() time.Time

type BookingOptions struct {
	Timeout             time.Duration
	MinAdvance          time.Duration
	EnforceWorkingHours bool
}

// atomicError maps the outcome of a WithBarberLock section. A deadline hit
// while waiting or inside becomes the retryable timeout.
func atomicError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSlotConflict):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.ErrTimeout
	default:
		return err
	}
}

// invalidateAsync never blocks the caller and survives request cancellation.
func invalidateAsync(ctx context.Context, inv CacheInvalidator) {
	if inv == nil {
		return
	}

	go func() {
		inv.InvalidateCache(context.WithoutCancel(ctx))
	}()
}

// notifyBestEffort logs delivery problems and carries on.
func notifyBestEffort(ctx context.Context, n notify.Notifier, kind notify.Kind, appointmentID uint) {
	if n == nil {
		return
	}

	if err := n.Notify(ctx, notify.Message{Kind: kind, AppointmentID: appointmentID}); err != nil {
		log.Warn().
			Err(err).
			Str("kind", string(kind)).
			Uint("appointment_id", appointmentID).
			Msg("notification not queued")
	}
}
