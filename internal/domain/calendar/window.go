package calendar

import (
	"time"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

// Window is a barber's working window resolved onto a concrete date.
type Window struct {
	Open       time.Time
	Close      time.Time
	LunchStart time.Time
	LunchEnd   time.Time
	HasLunch   bool
}

func WindowFor(date time.Time, wh *models.WorkingHours) (Window, error) {
	var w Window
	var err error

	if w.Open, err = ClockOn(date, wh.StartTime); err != nil {
		return Window{}, err
	}
	if w.Close, err = ClockOn(date, wh.EndTime); err != nil {
		return Window{}, err
	}

	if wh.HasLunch() {
		if w.LunchStart, err = ClockOn(date, wh.LunchStart); err != nil {
			return Window{}, err
		}
		if w.LunchEnd, err = ClockOn(date, wh.LunchEnd); err != nil {
			return Window{}, err
		}
		w.HasLunch = w.LunchStart.Before(w.LunchEnd)
	}

	return w, nil
}

// Fits reports whether [start,end) lies inside the window.
func (w Window) Fits(start, end time.Time) bool {
	return !start.Before(w.Open) && !end.After(w.Close)
}

func (w Window) OverlapsLunch(start, end time.Time) bool {
	return w.HasLunch && Overlaps(start, end, w.LunchStart, w.LunchEnd)
}

// Admits is Fits minus the lunch break.
func (w Window) Admits(start, end time.Time) bool {
	return w.Fits(start, end) && !w.OverlapsLunch(start, end)
}
