package models

import "time"

// WorkingHours is one weekday window (0 = Sunday) in studio local time, "HH:mm".
type WorkingHours struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	BarberID uint `gorm:"uniqueIndex:idx_barber_weekday;not null" json:"barber_id"`

	Weekday int `gorm:"uniqueIndex:idx_barber_weekday;not null" json:"weekday"`

	StartTime  string `gorm:"size:5" json:"start_time"`
	EndTime    string `gorm:"size:5" json:"end_time"`
	LunchStart string `gorm:"size:5" json:"lunch_start"`
	LunchEnd   string `gorm:"size:5" json:"lunch_end"`
	Active     bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (wh *WorkingHours) HasLunch() bool {
	return wh.LunchStart != "" && wh.LunchEnd != ""
}
