package appointment

import (
	"context"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
)

type UpdateStatusInput struct {
	AppointmentID uint
	Status        string
	ActorID       *uint
}

// UpdateStatus overwrites an appointment's status. Who may set which status is
// decided by the route, not here. Bringing a canceled appointment back claims
// its window again, so active statuses are set under the barber lock.
type UpdateStatus struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	notifier notify.Notifier
	cache    CacheInvalidator
	now      Clock
	timeout  time.Duration
}

func NewUpdateStatus(
	repo domain.Repository,
	audit *audit.Dispatcher,
	notifier notify.Notifier,
	cache CacheInvalidator,
) *UpdateStatus {
	return &UpdateStatus{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		cache:    cache,
		now:      time.Now,
		timeout:  5 * time.Second,
	}
}

// WithTimeout bounds the locked section of setting an active status.
func (uc *UpdateStatus) WithTimeout(d time.Duration) *UpdateStatus {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

func (uc *UpdateStatus) Execute(
	ctx context.Context,
	in UpdateStatusInput,
) (*models.Appointment, error) {

	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	current, err := uc.repo.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	// an active status holds the window, so it is set the way a booking is
	var ap *models.Appointment
	if status == models.StatusCanceled {
		ap, err = uc.repo.UpdateAppointmentStatus(ctx, in.AppointmentID, status, uc.now())
	} else {
		ap, err = uc.setActive(ctx, current, status)
	}
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   in.ActorID,
		Action:   audit.ActionAppointmentStatusChanged,
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{"status": status},
	})

	if status == models.StatusCanceled {
		notifyBestEffort(ctx, uc.notifier, notify.KindAppointmentCancelled, ap.ID)
	}
	invalidateAsync(ctx, uc.cache)

	return ap, nil
}

// setActive applies an active status only while the appointment's window is
// free of other non-canceled appointments. For one that is already active the
// check passes; for a canceled one it is the booking conflict check again.
func (uc *UpdateStatus) setActive(
	ctx context.Context,
	ap *models.Appointment,
	status models.AppointmentStatus,
) (*models.Appointment, error) {

	lockCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	err := uc.repo.WithBarberLock(lockCtx, ap.BarberID, func(tx domain.BookingTx) error {
		conflict, err := tx.HasConflict(lockCtx, ap.BarberID, ap.StartTime, ap.EndTime, ap.ID)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrSlotConflict
		}

		return tx.SetStatus(lockCtx, ap.ID, status, uc.now())
	})
	if err := atomicError(lockCtx, err); err != nil {
		return nil, err
	}

	return uc.repo.GetAppointment(ctx, ap.ID)
}
