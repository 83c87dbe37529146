package models

import "time"

type TimeOff struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BarberID  uint      `gorm:"index:idx_time_off_barber_range;not null" json:"barber_id"`
	StartTime time.Time `gorm:"index:idx_time_off_barber_range;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	Reason    string    `gorm:"size:255" json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
