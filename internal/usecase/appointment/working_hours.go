package appointment

import (
	"context"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

var ErrInvalidWorkingHours = httperr.ErrBusiness("invalid_working_hours")

type WorkingDay struct {
	Weekday    int
	Active     bool
	StartTime  string
	EndTime    string
	LunchStart string
	LunchEnd   string
}

// ReplaceWorkingHours swaps a barber's whole weekly schedule.
type ReplaceWorkingHours struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	cache CacheInvalidator
}

func NewReplaceWorkingHours(
	repo domain.Repository,
	audit *audit.Dispatcher,
	cache CacheInvalidator,
) *ReplaceWorkingHours {
	return &ReplaceWorkingHours{repo: repo, audit: audit, cache: cache}
}

func (uc *ReplaceWorkingHours) Execute(
	ctx context.Context,
	barberID uint,
	days []WorkingDay,
	actorID *uint,
) ([]models.WorkingHours, error) {

	if _, err := uc.repo.GetBarber(ctx, barberID); err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	hours := make([]models.WorkingHours, 0, len(days))

	for _, d := range days {
		if d.Weekday < 0 || d.Weekday > 6 || seen[d.Weekday] {
			return nil, ErrInvalidWorkingHours
		}
		seen[d.Weekday] = true

		wh := models.WorkingHours{
			BarberID:   barberID,
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		}

		if wh.Active {
			if err := validateDay(&wh); err != nil {
				return nil, err
			}
		}
		hours = append(hours, wh)
	}

	if err := uc.repo.ReplaceWorkingHours(ctx, barberID, hours); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   actorID,
		Action:   audit.ActionWorkingHoursUpdated,
		Entity:   "barber",
		EntityID: &barberID,
	})
	invalidateAsync(ctx, uc.cache)

	return uc.repo.ListWorkingHours(ctx, barberID)
}

func validateDay(wh *models.WorkingHours) error {
	// any date will do, only clock order matters
	ref := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

	w, err := calendar.WindowFor(ref, wh)
	if err != nil {
		return ErrInvalidWorkingHours
	}
	if !w.Open.Before(w.Close) {
		return ErrInvalidWorkingHours
	}

	if (wh.LunchStart == "") != (wh.LunchEnd == "") {
		return ErrInvalidWorkingHours
	}
	if w.HasLunch && !w.Fits(w.LunchStart, w.LunchEnd) {
		return ErrInvalidWorkingHours
	}
	if wh.HasLunch() && !w.HasLunch {
		return ErrInvalidWorkingHours
	}
	return nil
}
