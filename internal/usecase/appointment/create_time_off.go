package appointment

import (
	"context"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type CreateTimeOffInput struct {
	BarberID uint
	Start    time.Time
	End      time.Time
	Reason   string
	ActorID  *uint
}

// CreateTimeOff only records the interval. Existing appointments inside it are
// left alone; pair with CancelByBarberAndDateRange to clear them.
type CreateTimeOff struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	cache CacheInvalidator
}

func NewCreateTimeOff(
	repo domain.Repository,
	audit *audit.Dispatcher,
	cache CacheInvalidator,
) *CreateTimeOff {
	return &CreateTimeOff{
		repo:  repo,
		audit: audit,
		cache: cache,
	}
}

func (uc *CreateTimeOff) Execute(
	ctx context.Context,
	in CreateTimeOffInput,
) (*models.TimeOff, error) {

	if !in.Start.Before(in.End) {
		return nil, domain.ErrInvalidRange
	}

	if _, err := uc.repo.GetBarber(ctx, in.BarberID); err != nil {
		return nil, err
	}

	off := &models.TimeOff{
		BarberID:  in.BarberID,
		StartTime: in.Start,
		EndTime:   in.End,
		Reason:    in.Reason,
	}

	if err := uc.repo.CreateTimeOff(ctx, off); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   in.ActorID,
		Action:   audit.ActionTimeOffCreated,
		Entity:   "time_off",
		EntityID: &off.ID,
		Metadata: map[string]any{"barber_id": in.BarberID},
	})
	invalidateAsync(ctx, uc.cache)

	return off, nil
}
