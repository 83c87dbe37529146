package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikolajSankovDev/zyron/internal/infra/memory"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
)

type recorder struct {
	msgs []notify.Message
	err  error
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func seed(t *testing.T, now time.Time) (*memory.Store, models.Appointment) {
	t.Helper()

	store := memory.New()
	b := store.PutBarber(models.Barber{DisplayName: "Nikolaj", Active: true})

	soon := store.PutAppointment(models.Appointment{
		BarberID: b.ID, StartTime: now.Add(2 * time.Hour), EndTime: now.Add(3 * time.Hour), Status: models.StatusBooked,
	})
	store.PutAppointment(models.Appointment{
		BarberID: b.ID, StartTime: now.Add(4 * time.Hour), EndTime: now.Add(5 * time.Hour), Status: models.StatusCanceled,
	})
	store.PutAppointment(models.Appointment{
		BarberID: b.ID, StartTime: now.Add(30 * time.Hour), EndTime: now.Add(31 * time.Hour), Status: models.StatusBooked,
	})

	return store, soon
}

func TestReminders_QueuesOncePerAppointment(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	store, soon := seed(t, now)
	rec := &recorder{}

	job := NewReminders(store, rec, 24*time.Hour).WithClock(func() time.Time { return now })

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []notify.Message{{Kind: notify.KindAppointmentReminder, AppointmentID: soon.ID}}, rec.msgs)

	n, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, rec.msgs, 1)
}

func TestReminders_RetriesWhenQueueRejects(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	store, _ := seed(t, now)
	rec := &recorder{err: notify.ErrQueueFull}

	job := NewReminders(store, rec, 24*time.Hour).WithClock(func() time.Time { return now })

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	rec.err = nil
	n, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReminders_StorageFailure(t *testing.T) {
	store := memory.New()
	store.SetFailure(errors.New("down"))

	_, err := NewReminders(store, &recorder{}, time.Hour).Run(context.Background())
	assert.Error(t, err)
}

func TestReminders_Schedule(t *testing.T) {
	c := cron.New()
	job := NewReminders(memory.New(), &recorder{}, time.Hour)

	_, err := job.Schedule(c, "*/10 * * * *")
	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = job.Schedule(c, "every now and then")
	assert.Error(t, err)
}
