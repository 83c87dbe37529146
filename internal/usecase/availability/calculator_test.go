package availability_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
	"github.com/NikolajSankovDev/zyron/internal/infra/memory"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/usecase/availability"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(day time.Time, h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, value)
}

func (c *memCache) Save(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Clear(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return nil
}

type fixture struct {
	store   *memory.Store
	calc    *availability.Calculator
	service models.Service
	anna    models.Barber
	zed     models.Barber
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{store: store}

	f.service = store.PutService(models.Service{
		Slug: "haircut", DurationMinutes: 45, BasePrice: decimal.RequireFromString("40.00"), Active: true,
	})
	f.zed = store.PutBarber(models.Barber{DisplayName: "Zed", Active: true})
	f.anna = store.PutBarber(models.Barber{DisplayName: "Anna", Active: true})

	store.PutWorkingHours(models.WorkingHours{BarberID: f.anna.ID, Weekday: 1, StartTime: "09:00", EndTime: "17:00", Active: true})

	f.calc = availability.NewCalculator(
		store,
		&memCache{data: map[string][]byte{}},
		otel.Noop(),
		time.UTC,
		availability.Options{IntervalMinutes: 15, MaxRangeDays: 62, Concurrency: 2, CacheTTL: time.Minute},
	).WithClock(func() time.Time { return now })

	return f
}

func TestGenerateSlots_HappyPath(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 45, 15)
	require.NoError(t, err)

	require.Len(t, slots, 30)
	assert.Equal(t, at(monday, 9, 0), slots[0].Start)
	assert.Equal(t, at(monday, 16, 15), slots[len(slots)-1].Start)
	assert.Equal(t, at(monday, 17, 0), slots[len(slots)-1].End)

	for i, s := range slots {
		assert.True(t, s.Available)
		assert.Equal(t, 45*time.Minute, s.End.Sub(s.Start))
		if i > 0 {
			assert.True(t, s.Start.After(slots[i-1].Start))
		}
	}
}

func TestGenerateSlots_MarksConflicts(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	f.store.PutAppointment(models.Appointment{BarberID: f.anna.ID, StartTime: at(monday, 10, 0), EndTime: at(monday, 10, 45), Status: models.StatusBooked})
	f.store.PutAppointment(models.Appointment{BarberID: f.anna.ID, StartTime: at(monday, 12, 0), EndTime: at(monday, 12, 45), Status: models.StatusCanceled})
	require.NoError(t, f.store.CreateTimeOff(context.Background(), &models.TimeOff{
		BarberID: f.anna.ID, StartTime: at(monday, 14, 0), EndTime: at(monday, 15, 0),
	}))

	slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 45, 15)
	require.NoError(t, err)

	byStart := map[string]bool{}
	for _, s := range slots {
		byStart[s.Start.Format(calendar.ClockLayout)] = s.Available
	}

	assert.True(t, byStart["09:15"], "ends exactly when the appointment starts")
	assert.False(t, byStart["09:30"])
	assert.False(t, byStart["10:00"])
	assert.False(t, byStart["10:30"])
	assert.True(t, byStart["10:45"], "starts exactly when the appointment ends")
	assert.True(t, byStart["12:00"], "canceled appointments are ignored")
	assert.True(t, byStart["13:15"])
	assert.False(t, byStart["13:30"])
	assert.False(t, byStart["14:45"])
	assert.True(t, byStart["15:00"])
}

func TestGenerateSlots_LunchAndPast(t *testing.T) {
	f := newFixture(t, at(monday, 10, 0))
	f.store.PutWorkingHours(models.WorkingHours{
		BarberID: f.anna.ID, Weekday: 1, StartTime: "09:00", EndTime: "14:00", LunchStart: "12:00", LunchEnd: "13:00", Active: true,
	})

	slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 30, 30)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, s := range slots {
		got[s.Start.Format(calendar.ClockLayout)] = s.Available
	}

	assert.False(t, got["09:30"], "already started")
	assert.True(t, got["10:00"])
	assert.True(t, got["11:30"])
	assert.False(t, got["12:00"])
	assert.False(t, got["12:30"])
	assert.True(t, got["13:30"])
}

func TestGenerateSlots_EmptyDays(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	t.Run("no working hours", func(t *testing.T) {
		slots, err := f.calc.GenerateSlots(context.Background(), f.zed.ID, monday, 45, 15)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("duration longer than the window", func(t *testing.T) {
		slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 9*60, 15)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("sunday", func(t *testing.T) {
		f.store.PutWorkingHours(models.WorkingHours{BarberID: f.anna.ID, Weekday: 0, StartTime: "09:00", EndTime: "17:00", Active: true})
		slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday.AddDate(0, 0, -1), 45, 15)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("zero duration", func(t *testing.T) {
		_, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 0, 15)
		assert.ErrorIs(t, err, domain.ErrInvalidDuration)
	})

	t.Run("unknown barber", func(t *testing.T) {
		_, err := f.calc.GenerateSlots(context.Background(), 999, monday, 45, 15)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGenerateSlots_StorageDownServesEmpty(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))
	f.store.SetFailure(errors.New("connection refused"))

	slots, err := f.calc.GenerateSlots(context.Background(), f.anna.ID, monday, 45, 15)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlotsForService(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	out, err := f.calc.GenerateSlotsForService(context.Background(), f.service.ID, monday, 0, 0)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "Anna", out[0].DisplayName)
	assert.Len(t, out[0].Slots, 30, "service duration 45 at the default interval")
	assert.Equal(t, "Zed", out[1].DisplayName)
	assert.Empty(t, out[1].Slots)

	_, err = f.calc.GenerateSlotsForService(context.Background(), 999, monday, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidServiceSelection)
}

func TestCheckAvailabilityForDateRange(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))
	tuesday := monday.AddDate(0, 0, 1)

	f.store.PutWorkingHours(models.WorkingHours{BarberID: f.zed.ID, Weekday: 2, StartTime: "09:00", EndTime: "10:00", Active: true})
	f.store.PutAppointment(models.Appointment{BarberID: f.zed.ID, StartTime: at(tuesday, 9, 0), EndTime: at(tuesday, 10, 0), Status: models.StatusBooked})

	out, err := f.calc.CheckAvailabilityForDateRange(context.Background(), f.service.ID, monday.AddDate(0, 0, -1), tuesday, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]calendar.DayStatus{
		"2026-10-18": calendar.DaySunday,
		"2026-10-19": calendar.DayAvailable,
		"2026-10-20": calendar.DayBooked,
	}, out)
}

func TestCheckAvailabilityForDateRange_InvalidRange(t *testing.T) {
	f := newFixture(t, monday)

	_, err := f.calc.CheckAvailabilityForDateRange(context.Background(), f.service.ID, monday, monday.AddDate(0, 0, -1), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.calc.CheckAvailabilityForDateRange(context.Background(), f.service.ID, monday, monday.AddDate(1, 0, 0), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	out, err := f.calc.CheckAvailabilityForDateRange(context.Background(), f.service.ID, monday, monday, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1, "single-day range")
}

func TestMonthAvailability_AppliesPast(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	f := newFixture(t, at(tuesday, 12, 0))
	f.store.PutWorkingHours(models.WorkingHours{BarberID: f.zed.ID, Weekday: 2, StartTime: "09:00", EndTime: "10:00", Active: true})

	out, err := f.calc.MonthAvailability(context.Background(), f.service.ID, monday, 0)
	require.NoError(t, err)

	assert.Len(t, out, 31)
	assert.Equal(t, calendar.DaySunday, out["2026-10-18"])
	assert.Equal(t, calendar.DayPast, out["2026-10-19"])
	assert.Equal(t, calendar.DayBooked, out["2026-10-20"], "today's remaining slots have all started")
	assert.Equal(t, calendar.DayBooked, out["2026-10-21"], "nobody works wednesdays")
	assert.Equal(t, calendar.DayAvailable, out["2026-10-26"])
	assert.Equal(t, calendar.DayAvailable, out["2026-10-27"])
}

func TestBarberMonth(t *testing.T) {
	f := newFixture(t, monday)

	f.store.PutAppointment(models.Appointment{BarberID: f.anna.ID, StartTime: at(monday, 10, 0), EndTime: at(monday, 10, 45), Status: models.StatusBooked})
	f.store.PutAppointment(models.Appointment{BarberID: f.anna.ID, StartTime: at(monday.AddDate(0, 0, 1), 10, 0), EndTime: at(monday.AddDate(0, 0, 1), 10, 45), Status: models.StatusCanceled})
	require.NoError(t, f.store.CreateTimeOff(context.Background(), &models.TimeOff{
		BarberID: f.anna.ID, StartTime: at(monday.AddDate(0, 0, 3), 0, 0), EndTime: at(monday.AddDate(0, 0, 4), 0, 0),
	}))

	out, err := f.calc.BarberMonth(context.Background(), f.anna.ID, monday)
	require.NoError(t, err)

	assert.Equal(t, calendar.DayPast, out["2026-10-16"])
	assert.Equal(t, calendar.DayBooked, out["2026-10-19"])
	assert.Equal(t, calendar.DayAvailable, out["2026-10-20"])
	assert.Equal(t, calendar.DayBooked, out["2026-10-22"])
	assert.Equal(t, calendar.DayAvailable, out["2026-10-23"], "time-off ending at midnight does not spill over")

	_, err = f.calc.BarberMonth(context.Background(), 999, monday)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDurationAndIntervalBounds(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))
	ctx := context.Background()
	huge := 1 << 54

	_, err := f.calc.GenerateSlots(ctx, f.anna.ID, monday, huge, 15)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.calc.GenerateSlots(ctx, f.anna.ID, monday, 24*60+1, 15)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.calc.GenerateSlots(ctx, f.anna.ID, monday, 45, huge)
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = f.calc.GenerateSlotsForService(ctx, f.service.ID, monday, huge, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.calc.GenerateSlotsForService(ctx, f.service.ID, monday, 0, huge)
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = f.calc.MonthAvailability(ctx, f.service.ID, monday, huge)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.calc.CheckAvailabilityForDateRange(ctx, f.service.ID, monday, monday, huge)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	slots, err := f.calc.GenerateSlots(ctx, f.anna.ID, monday, 8*60, 15)
	require.NoError(t, err)
	require.Len(t, slots, 1, "a whole-window service fits exactly once")
	assert.Equal(t, 8*time.Hour, slots[0].End.Sub(slots[0].Start))
}

// gatedCache holds Save until release is closed and counts Clear calls.
type gatedCache struct {
	*memCache
	entered chan struct{}
	release chan struct{}
	clears  atomic.Int32
}

func (c *gatedCache) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.entered <- struct{}{}
	<-c.release
	return c.memCache.Save(ctx, key, value, ttl)
}

func (c *gatedCache) Clear(ctx context.Context, pattern string) error {
	defer c.clears.Add(1)
	return c.memCache.Clear(ctx, pattern)
}

func (c *gatedCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func TestMonthAvailability_InvalidationDuringSaveLeavesNoEntry(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	gc := &gatedCache{
		memCache: &memCache{data: map[string][]byte{}},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	calc := availability.NewCalculator(f.store, gc, otel.Noop(), time.UTC, availability.Options{CacheTTL: time.Minute}).
		WithClock(func() time.Time { return monday.AddDate(0, 0, -7) })

	_, err := calc.MonthAvailability(context.Background(), f.service.ID, monday, 0)
	require.NoError(t, err)

	<-gc.entered
	calc.InvalidateCache(context.Background())
	close(gc.release)

	assert.Eventually(t, func() bool { return gc.clears.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, gc.size())
}

func TestMonthAvailability_CachesWhenScheduleUnchanged(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -7))

	gc := &gatedCache{
		memCache: &memCache{data: map[string][]byte{}},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	close(gc.release)
	calc := availability.NewCalculator(f.store, gc, otel.Noop(), time.UTC, availability.Options{CacheTTL: time.Minute}).
		WithClock(func() time.Time { return monday.AddDate(0, 0, -7) })

	_, err := calc.MonthAvailability(context.Background(), f.service.ID, monday, 0)
	require.NoError(t, err)
	<-gc.entered

	assert.Eventually(t, func() bool { return gc.size() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, gc.clears.Load(), "nothing changed, entry stays")
}
