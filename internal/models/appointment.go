package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusArrived   AppointmentStatus = "ARRIVED"
	StatusMissed    AppointmentStatus = "MISSED"
	StatusCanceled  AppointmentStatus = "CANCELED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusArrived, StatusMissed, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerID uint `gorm:"index;not null" json:"customer_id"`
	Customer   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customer,omitempty"`

	BarberID uint   `gorm:"index:idx_appointment_barber_time;not null" json:"barber_id"`
	Barber   Barber `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"barber,omitempty"`

	StartTime time.Time `gorm:"index:idx_appointment_barber_time;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status     AppointmentStatus `gorm:"size:20;default:'BOOKED';index" json:"status"`
	TotalPrice decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"total_price"`

	Notes       string     `gorm:"size:255" json:"notes"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Services []AppointmentService `gorm:"constraint:OnDelete:CASCADE;" json:"services"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppointmentService is one ordered line item. BasePrice is the catalog price
// copied at booking time.
type AppointmentService struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	AppointmentID uint                `gorm:"index;not null" json:"appointment_id"`
	ServiceID     uint                `gorm:"not null" json:"service_id"`
	Service       Service             `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
	BasePrice     decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"base_price"`
	PriceOverride decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price_override"`
	Position      int                 `gorm:"not null" json:"position"`
}

func (l AppointmentService) EffectivePrice() decimal.Decimal {
	if l.PriceOverride.Valid {
		return l.PriceOverride.Decimal
	}
	return l.BasePrice
}
