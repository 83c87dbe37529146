// Package calendar holds the pure time arithmetic behind availability: day grids,
// half-open overlap tests and calendar day classification. Nothing here does I/O.
package calendar

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

var ErrInvalidInterval = errors.New("calendar: interval must be positive")

// ClockOn places an "HH:mm" wall-clock time on the day of date, in date's location.
// "24:00" is accepted and means midnight at the end of that day.
func ClockOn(date time.Time, hhmm string) (time.Time, error) {
	if hhmm == "24:00" {
		return time.Date(date.Year(), date.Month(), date.Day()+1, 0, 0, 0, 0, date.Location()), nil
	}

	t, err := time.Parse(ClockLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid clock %q: %w", hhmm, err)
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		date.Location(),
	), nil
}

// BuildDaySlots yields slot starts from date@start (inclusive) to date@end
// (exclusive) every intervalMinutes. The sequence can be ranged over any number of times.
func BuildDaySlots(date time.Time, startHHmm, endHHmm string, intervalMinutes int) (iter.Seq[time.Time], error) {
	if intervalMinutes <= 0 {
		return nil, ErrInvalidInterval
	}

	open, err := ClockOn(date, startHHmm)
	if err != nil {
		return nil, err
	}

	closing, err := ClockOn(date, endHHmm)
	if err != nil {
		return nil, err
	}

	return Steps(open, closing, time.Duration(intervalMinutes)*time.Minute), nil
}

// Steps yields from, from+step, ... while strictly before to.
func Steps(from, to time.Time, step time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if step <= 0 {
			return
		}
		for t := from; t.Before(to); t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}
}

// Overlaps is the half-open test [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
// Intervals that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// SlotOverlapsAppointment ignores canceled appointments.
func SlotOverlapsAppointment(slotStart, slotEnd time.Time, ap models.Appointment) bool {
	if ap.Status == models.StatusCanceled {
		return false
	}
	return Overlaps(slotStart, slotEnd, ap.StartTime, ap.EndTime)
}

func SlotOverlapsTimeOff(slotStart, slotEnd time.Time, off models.TimeOff) bool {
	return Overlaps(slotStart, slotEnd, off.StartTime, off.EndTime)
}

type DayStatus string

const (
	DayPast      DayStatus = "past"
	DaySunday    DayStatus = "sunday"
	DayBooked    DayStatus = "booked"
	DayAvailable DayStatus = "available"
)

// ClassifyDay applies the fixed priority sunday > past > booked > available.
func ClassifyDay(weekday time.Weekday, isBeforeToday, hasAnyOverlap bool) DayStatus {
	switch {
	case weekday == time.Sunday:
		return DaySunday
	case isBeforeToday:
		return DayPast
	case hasAnyOverlap:
		return DayBooked
	default:
		return DayAvailable
	}
}

// IsBeforeDay compares calendar days in date's location. The same day is never before.
func IsBeforeDay(date, today time.Time) bool {
	d := StartOfDay(date)
	t := StartOfDay(today.In(date.Location()))
	return d.Before(t)
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Days yields the midnight of every calendar day in the closed range [from, to].
func Days(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		last := StartOfDay(to.In(from.Location()))
		for d := StartOfDay(from); !d.After(last); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func MonthBounds(base time.Time) (time.Time, time.Time) {
	first := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, base.Location())
	return first, first.AddDate(0, 1, -1)
}
