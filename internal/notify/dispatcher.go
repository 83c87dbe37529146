package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/retry"
)

type AppointmentLoader interface {
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
}

// Dispatcher queues messages and delivers each to every sender, retrying per
// sender. A full queue drops the message.
type Dispatcher struct {
	loader  AppointmentLoader
	senders []Sender
	policy  retry.Policy
	loc     *time.Location

	queue chan Message
	wg    sync.WaitGroup
}

func NewDispatcher(
	loader AppointmentLoader,
	senders []Sender,
	policy retry.Policy,
	loc *time.Location,
	size int,
) *Dispatcher {
	if size <= 0 {
		size = 100
	}

	d := &Dispatcher{
		loader:  loader,
		senders: senders,
		policy:  policy,
		loc:     loc,
		queue:   make(chan Message, size),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) Notify(_ context.Context, msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	default:
		log.Warn().
			Str("kind", string(msg.Kind)).
			Uint("appointment_id", msg.AppointmentID).
			Msg("notification queue full, dropping message")
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(context.Background(), msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	logger := log.With().
		Str("kind", string(msg.Kind)).
		Uint("appointment_id", msg.AppointmentID).
		Logger()

	ap, err := d.loader.GetAppointment(ctx, msg.AppointmentID)
	if err != nil {
		logger.Error().Err(err).Msg("notification dropped, appointment not loadable")
		return
	}

	n := Notification{
		EventID:     uuid.NewString(),
		Kind:        msg.Kind,
		Appointment: *ap,
		Location:    d.loc,
	}

	for _, s := range d.senders {
		err := retry.Do(ctx, d.policy, "notify."+s.Name(), func(ctx context.Context) error {
			return s.Send(ctx, n)
		})
		if err != nil {
			logger.Error().Err(err).Str("sender", s.Name()).Msg("notification delivery failed")
			continue
		}
		logger.Debug().Str("sender", s.Name()).Str("event_id", n.EventID).Msg("notification delivered")
	}
}

// Close drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

// Discard accepts and forgets every message.
type Discard struct{}

func (Discard) Notify(context.Context, Message) error { return nil }
