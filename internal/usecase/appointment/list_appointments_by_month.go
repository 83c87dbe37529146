package appointment

import (
	"context"
	"time"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/dto"
)

type ListAppointmentsByMonth struct {
	repo domain.Repository
	loc  *time.Location
}

func NewListAppointmentsByMonth(repo domain.Repository, loc *time.Location) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{repo: repo, loc: loc}
}

func (uc *ListAppointmentsByMonth) Execute(ctx context.Context, barberID uint, year int, month int) ([]dto.AppointmentListDTO, error) {
	if month < 1 || month > 12 {
		return nil, domain.ErrInvalidRange
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, uc.loc)
	return listPeriod(ctx, uc.repo, barberID, first, first.AddDate(0, 1, 0))
}
