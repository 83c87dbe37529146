package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	ActionAppointmentCreated       = "appointment_created"
	ActionAppointmentConflict      = "appointment_conflict"
	ActionAppointmentStatusChanged = "appointment_status_changed"
	ActionAppointmentsCancelled    = "appointments_cancelled_range"
	ActionTimeOffCreated           = "time_off_created"
	ActionWorkingHoursUpdated      = "working_hours_updated"
	ActionBarberAvatarUpdated      = "barber_avatar_updated"
)

type Event struct {
	UserID   *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

// Dispatcher persists events off the request path. A full queue drops the
// event; audit never fails an API call.
type Dispatcher struct {
	logger *Logger
	queue  chan Event
	wg     sync.WaitGroup
}

func NewDispatcher(logger *Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 100
	}

	d := &Dispatcher{
		logger: logger,
		queue:  make(chan Event, size),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for ev := range d.queue {
		if err := d.logger.Log(context.Background(), ev); err != nil {
			log.Error().Err(err).Str("action", ev.Action).Msg("audit write failed")
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	select {
	case d.queue <- ev:
	default:
		log.Warn().Str("action", ev.Action).Msg("audit queue full, dropping event")
	}
}

// Close drains the queue. Dispatch must not be called afterwards.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}
