package availability

import (
	"context"
	"slices"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// schedule is one barber's stored state over a window, loaded once and
// evaluated per day in memory.
type schedule struct {
	hours        map[time.Weekday]models.WorkingHours
	appointments []models.Appointment
	timeOff      []models.TimeOff
}

func (c *Calculator) loadSchedule(ctx context.Context, barberID uint, from, to time.Time) (*schedule, error) {
	hours, err := c.repo.ListWorkingHours(ctx, barberID)
	if err != nil {
		return nil, err
	}

	appointments, err := c.repo.ListActiveAppointments(ctx, barberID, from, to)
	if err != nil {
		return nil, err
	}

	timeOff, err := c.repo.ListTimeOff(ctx, barberID, from, to)
	if err != nil {
		return nil, err
	}

	s := &schedule{
		hours:        make(map[time.Weekday]models.WorkingHours, len(hours)),
		appointments: appointments,
		timeOff:      timeOff,
	}
	for _, wh := range hours {
		if wh.Active && wh.StartTime != "" && wh.EndTime != "" {
			s.hours[time.Weekday(wh.Weekday)] = wh
		}
	}
	return s, nil
}

// slotsOn evaluates one calendar day. Sundays and days without an active
// working-hours row have no slots.
func (s *schedule) slotsOn(day time.Time, duration time.Duration, intervalMinutes int, earliest time.Time) ([]Slot, error) {
	if day.Weekday() == time.Sunday {
		return []Slot{}, nil
	}

	wh, ok := s.hours[day.Weekday()]
	if !ok {
		return []Slot{}, nil
	}

	window, err := calendar.WindowFor(day, &wh)
	if err != nil {
		return nil, err
	}

	starts, err := calendar.BuildDaySlots(day, wh.StartTime, wh.EndTime, intervalMinutes)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	for start := range starts {
		end := start.Add(duration)
		if end.After(window.Close) {
			break
		}

		slots = append(slots, Slot{
			Start:     start,
			End:       end,
			Available: s.free(start, end, window, earliest),
		})
	}
	return slots, nil
}

func (s *schedule) free(start, end time.Time, window calendar.Window, earliest time.Time) bool {
	if start.Before(earliest) || window.OverlapsLunch(start, end) {
		return false
	}

	if slices.ContainsFunc(s.appointments, func(ap models.Appointment) bool {
		return calendar.SlotOverlapsAppointment(start, end, ap)
	}) {
		return false
	}

	return !slices.ContainsFunc(s.timeOff, func(off models.TimeOff) bool {
		return calendar.SlotOverlapsTimeOff(start, end, off)
	})
}

func (s *schedule) hasFreeSlot(day time.Time, duration time.Duration, intervalMinutes int, earliest time.Time) (bool, error) {
	slots, err := s.slotsOn(day, duration, intervalMinutes, earliest)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(slots, func(sl Slot) bool { return sl.Available }), nil
}

// busyOn reports any non-canceled appointment or time-off touching the day.
func (s *schedule) busyOn(day time.Time) bool {
	next := day.AddDate(0, 0, 1)

	for _, ap := range s.appointments {
		if calendar.SlotOverlapsAppointment(day, next, ap) {
			return true
		}
	}
	for _, off := range s.timeOff {
		if calendar.SlotOverlapsTimeOff(day, next, off) {
			return true
		}
	}
	return false
}
