package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikolajSankovDev/zyron/internal/models"
)

type AppointmentListDTO struct {
	ID           uint                     `json:"id"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      time.Time                `json:"end_time"`
	Status       models.AppointmentStatus `json:"status"`
	CustomerName string                   `json:"customer_name"`
	Services     []string                 `json:"services"`
	TotalPrice   decimal.Decimal          `json:"total_price"`
	Notes        string                   `json:"notes,omitempty"`
}

func AppointmentListFromModel(ap models.Appointment) AppointmentListDTO {
	services := make([]string, 0, len(ap.Services))
	for _, line := range ap.Services {
		services = append(services, line.Service.Slug)
	}

	return AppointmentListDTO{
		ID:           ap.ID,
		StartTime:    ap.StartTime,
		EndTime:      ap.EndTime,
		Status:       ap.Status,
		CustomerName: ap.Customer.Name,
		Services:     services,
		TotalPrice:   ap.TotalPrice,
		Notes:        ap.Notes,
	}
}
