package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type CancelByRangeInput struct {
	BarberID uint
	Start    time.Time
	End      time.Time
	ActorID  *uint
}

type CancelByRangeResult struct {
	Count int `json:"count"`
	// Cancelled holds the appointments as they were before cancellation.
	Cancelled []models.Appointment `json:"cancelled"`
}

// CancelByBarberAndDateRange cancels every non-canceled appointment of the
// barber starting within [Start, End]. Running it twice changes nothing the
// second time. Notifying customers is left to the caller.
type CancelByBarberAndDateRange struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	cache CacheInvalidator
	now   Clock
}

func NewCancelByBarberAndDateRange(
	repo domain.Repository,
	audit *audit.Dispatcher,
	cache CacheInvalidator,
) *CancelByBarberAndDateRange {
	return &CancelByBarberAndDateRange{
		repo:  repo,
		audit: audit,
		cache: cache,
		now:   time.Now,
	}
}

func (uc *CancelByBarberAndDateRange) Execute(
	ctx context.Context,
	in CancelByRangeInput,
) (*CancelByRangeResult, error) {

	if !in.End.After(in.Start) {
		return nil, domain.ErrInvalidRange
	}

	if _, err := uc.repo.GetBarber(ctx, in.BarberID); err != nil {
		return nil, err
	}

	before, err := uc.repo.CancelAppointmentsInRange(ctx, in.BarberID, in.Start, in.End, uc.now())
	if err != nil {
		return nil, err
	}

	res := &CancelByRangeResult{Count: len(before), Cancelled: before}
	if res.Count == 0 {
		return res, nil
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   in.ActorID,
		Action:   audit.ActionAppointmentsCancelled,
		Entity:   "barber",
		EntityID: &in.BarberID,
		Metadata: map[string]any{
			"start": in.Start,
			"end":   in.End,
			"count": res.Count,
		},
	})
	invalidateAsync(ctx, uc.cache)

	log.Info().
		Uint("barber_id", in.BarberID).
		Int("count", res.Count).
		Msg("appointments cancelled in range")

	return res, nil
}
