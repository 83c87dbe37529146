package appointment

import (
	"context"
	"time"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/dto"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
	loc  *time.Location
}

func NewListAppointmentsByDate(repo domain.Repository, loc *time.Location) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{repo: repo, loc: loc}
}

// Execute lists the barber's appointments, canceled included, that start on
// the studio calendar day of date.
func (uc *ListAppointmentsByDate) Execute(ctx context.Context, barberID uint, date time.Time) ([]dto.AppointmentListDTO, error) {
	d := date.In(uc.loc)
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, uc.loc)

	return listPeriod(ctx, uc.repo, barberID, dayStart, dayStart.AddDate(0, 0, 1))
}

// listPeriod checks the barber exists so an unknown id is a 404 rather than
// an empty list.
func listPeriod(ctx context.Context, repo domain.Repository, barberID uint, from, to time.Time) ([]dto.AppointmentListDTO, error) {
	if _, err := repo.GetBarber(ctx, barberID); err != nil {
		return nil, err
	}

	appointments, err := repo.ListAppointmentsForPeriod(ctx, barberID, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.AppointmentListDTO, len(appointments))
	for i, ap := range appointments {
		rows[i] = dto.AppointmentListFromModel(ap)
	}
	return rows, nil
}
