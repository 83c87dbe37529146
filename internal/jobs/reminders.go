package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
)

type BookedLister interface {
	ListBookedStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

// Reminders queues one appointment_reminder per BOOKED appointment starting
// within Lead of now. Appointments already reminded are remembered until they
// start.
type Reminders struct {
	repo     BookedLister
	notifier notify.Notifier
	lead     time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[uint]time.Time
}

func NewReminders(repo BookedLister, notifier notify.Notifier, lead time.Duration) *Reminders {
	return &Reminders{
		repo:     repo,
		notifier: notifier,
		lead:     lead,
		now:      time.Now,
		sent:     map[uint]time.Time{},
	}
}

func (r *Reminders) WithClock(now func() time.Time) *Reminders {
	r.now = now
	return r
}

// Run returns how many reminders were queued.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	now := r.now()

	apps, err := r.repo.ListBookedStartingBetween(ctx, now, now.Add(r.lead))
	if err != nil {
		return 0, fmt.Errorf("list upcoming appointments: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, start := range r.sent {
		if start.Before(now) {
			delete(r.sent, id)
		}
	}

	queued := 0
	for _, ap := range apps {
		if _, done := r.sent[ap.ID]; done {
			continue
		}

		err := r.notifier.Notify(ctx, notify.Message{
			Kind:          notify.KindAppointmentReminder,
			AppointmentID: ap.ID,
		})
		if err != nil {
			log.Warn().Err(err).Uint("appointment_id", ap.ID).Msg("reminder not queued")
			continue
		}

		r.sent[ap.ID] = ap.StartTime
		queued++
	}

	return queued, nil
}

// Schedule registers Run on c with a cron expression. Overlapping runs are skipped.
func (r *Reminders) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		n, err := r.Run(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("reminder job failed")
			return
		}
		if n > 0 {
			log.Info().Int("queued", n).Msg("reminders queued")
		}
	}))

	id, err := c.AddJob(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	return id, nil
}
