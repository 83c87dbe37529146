package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/infra/memory"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

var day = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestListActiveBarbers_OrderedByName(t *testing.T) {
	s := memory.New()
	s.PutBarber(models.Barber{DisplayName: "Zed", Active: true})
	s.PutBarber(models.Barber{DisplayName: "Anna", Active: true})
	s.PutBarber(models.Barber{DisplayName: "Mia", Active: false})

	got, err := s.ListActiveBarbers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Anna", got[0].DisplayName)
	assert.Equal(t, "Zed", got[1].DisplayName)
}

func TestGetActiveServicesByIDs_SkipsInactiveAndUnknown(t *testing.T) {
	s := memory.New()
	cut := s.PutService(models.Service{Slug: "cut", DurationMinutes: 30, Active: true})
	old := s.PutService(models.Service{Slug: "old", DurationMinutes: 30, Active: false})

	got, err := s.GetActiveServicesByIDs(context.Background(), []uint{cut.ID, old.ID, 999})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cut.ID, got[0].ID)
}

func TestCancelAppointmentsInRange_InclusiveBounds(t *testing.T) {
	s := memory.New()
	b := s.PutBarber(models.Barber{DisplayName: "Anna", Active: true})

	first := s.PutAppointment(models.Appointment{BarberID: b.ID, StartTime: at(9, 0), EndTime: at(9, 30), Status: models.StatusBooked})
	last := s.PutAppointment(models.Appointment{BarberID: b.ID, StartTime: at(12, 0), EndTime: at(12, 30), Status: models.StatusArrived})
	s.PutAppointment(models.Appointment{BarberID: b.ID, StartTime: at(12, 30), EndTime: at(13, 0), Status: models.StatusBooked})

	before, err := s.CancelAppointmentsInRange(context.Background(), b.ID, at(9, 0), at(12, 0), at(8, 0))
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, first.ID, before[0].ID)
	assert.Equal(t, models.StatusArrived, before[1].Status, "pre-image keeps the old status")

	got, err := s.GetAppointment(context.Background(), last.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, got.Status)
	require.NotNil(t, got.CancelledAt)
}

func TestWithBarberLock_DiscardsWritesOnError(t *testing.T) {
	s := memory.New()
	b := s.PutBarber(models.Barber{DisplayName: "Anna", Active: true})
	boom := errors.New("boom")

	err := s.WithBarberLock(context.Background(), b.ID, func(tx domain.BookingTx) error {
		require.NoError(t, tx.CreateAppointment(context.Background(), &models.Appointment{
			BarberID: b.ID, StartTime: at(9, 0), EndTime: at(9, 30), Status: models.StatusBooked,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.ListActiveAppointments(context.Background(), b.ID, at(0, 0), at(23, 59))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBookingTx_StatusChangesCommitWithFn(t *testing.T) {
	s := memory.New()
	b := s.PutBarber(models.Barber{DisplayName: "Anna", Active: true})
	ap := s.PutAppointment(models.Appointment{BarberID: b.ID, StartTime: at(9, 0), EndTime: at(9, 30), Status: models.StatusCanceled})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithBarberLock(ctx, b.ID, func(tx domain.BookingTx) error {
		require.NoError(t, tx.SetStatus(ctx, ap.ID, models.StatusBooked, at(8, 0)))

		conflict, err := tx.HasConflict(ctx, b.ID, at(9, 15), at(9, 45), 0)
		require.NoError(t, err)
		assert.True(t, conflict, "buffered status counts inside the tx")

		conflict, err = tx.HasConflict(ctx, b.ID, at(9, 15), at(9, 45), ap.ID)
		require.NoError(t, err)
		assert.False(t, conflict, "own id is ignored")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetAppointment(ctx, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, got.Status)

	require.NoError(t, s.WithBarberLock(ctx, b.ID, func(tx domain.BookingTx) error {
		return tx.SetStatus(ctx, ap.ID, models.StatusBooked, at(8, 0))
	}))
	got, err = s.GetAppointment(ctx, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, got.Status)

	err = s.WithBarberLock(ctx, b.ID, func(tx domain.BookingTx) error {
		return tx.SetStatus(ctx, 999, models.StatusBooked, at(8, 0))
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetFailure(t *testing.T) {
	s := memory.New()
	s.SetFailure(errors.New("connection refused"))

	_, err := s.ListActiveBarbers(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	s.SetFailure(nil)
	_, err = s.ListActiveBarbers(context.Background())
	assert.NoError(t, err)
}
