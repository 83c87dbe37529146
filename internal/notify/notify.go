// Package notify delivers appointment notifications off the request path.
// Delivery is best effort: a failed or dropped notification never fails the
// operation that triggered it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

type Kind string

const (
	KindBookingConfirmed     Kind = "booking_confirmed"
	KindAppointmentCancelled Kind = "appointment_cancelled"
	KindAppointmentReminder  Kind = "appointment_reminder"
)

var ErrQueueFull = errors.New("notify: queue full")

// Message is what callers enqueue. The appointment is loaded at delivery time.
type Message struct {
	Kind          Kind
	AppointmentID uint
}

// Notifier is the side a use case sees.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Notification is a resolved message handed to senders. EventID stays the
// same across retries so receivers can deduplicate.
type Notification struct {
	EventID     string
	Kind        Kind
	Appointment models.Appointment
	Location    *time.Location
}

type Sender interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Subject and Body render the human-readable text shared by email and SMS.
func (n Notification) Subject() string {
	switch n.Kind {
	case KindBookingConfirmed:
		return "Your appointment is confirmed"
	case KindAppointmentCancelled:
		return "Your appointment was cancelled"
	case KindAppointmentReminder:
		return "Appointment reminder"
	}
	return "Appointment update"
}

func (n Notification) Body() string {
	start := n.Appointment.StartTime
	if n.Location != nil {
		start = start.In(n.Location)
	}

	when := start.Format("Mon 02 Jan 2006 15:04")
	barber := n.Appointment.Barber.DisplayName

	switch n.Kind {
	case KindBookingConfirmed:
		return fmt.Sprintf("Hi %s, you are booked with %s on %s. Total %s.",
			n.Appointment.Customer.Name, barber, when, n.Appointment.TotalPrice.StringFixed(2))
	case KindAppointmentCancelled:
		return fmt.Sprintf("Hi %s, your appointment with %s on %s has been cancelled.",
			n.Appointment.Customer.Name, barber, when)
	case KindAppointmentReminder:
		return fmt.Sprintf("Hi %s, reminder: %s is expecting you on %s.",
			n.Appointment.Customer.Name, barber, when)
	}
	return fmt.Sprintf("Appointment #%d on %s was updated.", n.Appointment.ID, when)
}
