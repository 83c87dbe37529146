package appointment

import (
	"strings"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

// ===============================
// Appointment Status
// ===============================

func InitialStatus() models.AppointmentStatus {
	return models.StatusBooked
}

// ParseStatus accepts any casing ("canceled", "Canceled").
func ParseStatus(raw string) (models.AppointmentStatus, error) {
	s := models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// ===============================
// Domain Actions
// ===============================

// ApplyStatus overwrites the status. Any status may follow any other; role
// gating belongs to the caller. Timestamps track the latest transition.
func ApplyStatus(ap *models.Appointment, status models.AppointmentStatus, now time.Time) {
	ap.Status = status

	switch status {
	case models.StatusCanceled:
		ap.CancelledAt = &now
	case models.StatusCompleted:
		ap.CompletedAt = &now
	}
}

// IsActive reports whether the appointment still holds its slot.
func IsActive(ap models.Appointment) bool {
	return ap.Status != models.StatusCanceled
}
