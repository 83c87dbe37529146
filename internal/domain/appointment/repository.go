package appointment

import (
	"context"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

// Repository is everything the booking engine reads and writes. Implementations
// return ErrNotFound for missing rows, ErrTimeout when a lock or deadline gives
// out, and wrap ErrStorageUnavailable around any other storage failure.
type Repository interface {
	// -------- Catalog --------
	GetActiveServicesByIDs(
		ctx context.Context,
		ids []uint,
	) ([]models.Service, error)

	ListActiveServices(ctx context.Context) ([]models.Service, error)

	// -------- Barber --------
	GetBarber(ctx context.Context, id uint) (*models.Barber, error)

	// ListActiveBarbers is ordered by display name.
	ListActiveBarbers(ctx context.Context) ([]models.Barber, error)

	UpdateBarberAvatar(
		ctx context.Context,
		barberID uint,
		url string,
	) error

	// -------- Schedule --------
	GetWorkingHours(
		ctx context.Context,
		barberID uint,
		weekday int,
	) (*models.WorkingHours, error)

	ListWorkingHours(
		ctx context.Context,
		barberID uint,
	) ([]models.WorkingHours, error)

	ReplaceWorkingHours(
		ctx context.Context,
		barberID uint,
		hours []models.WorkingHours,
	) error

	// ListTimeOff returns entries overlapping [from, to).
	ListTimeOff(
		ctx context.Context,
		barberID uint,
		from time.Time,
		to time.Time,
	) ([]models.TimeOff, error)

	CreateTimeOff(ctx context.Context, off *models.TimeOff) error

	// -------- Appointment (read) --------

	// ListActiveAppointments returns non-canceled appointments overlapping [from, to).
	ListActiveAppointments(
		ctx context.Context,
		barberID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)

	// ListAppointmentsForPeriod returns every appointment starting in [from, to),
	// with customer and line items loaded.
	ListAppointmentsForPeriod(
		ctx context.Context,
		barberID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)

	// ListBookedStartingBetween feeds the reminder job. All barbers.
	ListBookedStartingBetween(
		ctx context.Context,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)

	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)

	// -------- Appointment (write) --------
	UpdateAppointmentStatus(
		ctx context.Context,
		id uint,
		status models.AppointmentStatus,
		now time.Time,
	) (*models.Appointment, error)

	// CancelAppointmentsInRange cancels every non-canceled appointment of the
	// barber with start in [start, end] and returns them as they were before.
	CancelAppointmentsInRange(
		ctx context.Context,
		barberID uint,
		start time.Time,
		end time.Time,
		now time.Time,
	) ([]models.Appointment, error)

	// WithBarberLock runs fn with bookings for barberID serialized. fn's writes
	// commit only when it returns nil.
	WithBarberLock(
		ctx context.Context,
		barberID uint,
		fn func(tx BookingTx) error,
	) error
}

// BookingTx is the atomic section of a booking or reactivation.
type BookingTx interface {
	// HasConflict reports a non-canceled appointment of the barber overlapping
	// [start, end), ignoring exceptID (0 ignores nothing).
	HasConflict(
		ctx context.Context,
		barberID uint,
		start time.Time,
		end time.Time,
		exceptID uint,
	) (bool, error)

	// SetStatus overwrites the status of an existing appointment.
	SetStatus(
		ctx context.Context,
		id uint,
		status models.AppointmentStatus,
		now time.Time,
	) error

	// CreateAppointment inserts the appointment together with ap.Services.
	CreateAppointment(ctx context.Context, ap *models.Appointment) error
}
