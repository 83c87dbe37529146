package appointment

import "github.com/NikolajSankovDev/zyron/internal/httperr"

var (
	ErrInvalidServiceSelection = httperr.ErrBusiness("invalid_service_selection")
	ErrSlotConflict            = httperr.ErrBusiness("slot_conflict")
	ErrInvalidRange            = httperr.ErrBusiness("invalid_range")
	ErrNotFound                = httperr.ErrBusiness("not_found")
	ErrInvalidStatus           = httperr.ErrBusiness("invalid_status")
	ErrInvalidDuration         = httperr.ErrBusiness("invalid_duration")
	ErrInvalidInterval         = httperr.ErrBusiness("invalid_interval")
	ErrOutsideWorkingHours     = httperr.ErrBusiness("outside_working_hours")
	ErrTooSoon                 = httperr.ErrBusiness("too_soon")
	ErrBarberInactive          = httperr.ErrBusiness("barber_inactive")

	// Retryable.
	ErrTimeout            = httperr.ErrBusiness(httperr.CodeTimeout)
	ErrStorageUnavailable = httperr.ErrBusiness(httperr.CodeStorageUnavailable)
)
