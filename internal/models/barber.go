package models

import "time"

type Barber struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	UserID      *uint    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	DisplayName string   `gorm:"size:100;not null" json:"display_name"`
	Languages   []string `gorm:"serializer:json" json:"languages"`
	Bio         string   `gorm:"size:1000" json:"bio"`
	AvatarURL   string   `gorm:"size:500" json:"avatar_url,omitempty"`
	Active      bool     `gorm:"default:true" json:"active"`

	WorkingHours []WorkingHours `gorm:"constraint:OnDelete:CASCADE;" json:"working_hours,omitempty"`
	TimeOff      []TimeOff      `gorm:"constraint:OnDelete:CASCADE;" json:"time_off,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
