package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a bookable treatment. Duration and price are read at booking time
// and copied onto the appointment, never referenced live.
type Service struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Slug            string          `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	BasePrice       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"base_price"`
	Active          bool            `gorm:"default:true" json:"active"`
	DisplayOrder    int             `gorm:"default:0" json:"display_order"`

	Translations []ServiceTranslation `gorm:"constraint:OnDelete:CASCADE;" json:"translations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ServiceTranslation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ServiceID   uint   `gorm:"uniqueIndex:idx_service_locale;not null" json:"service_id"`
	Locale      string `gorm:"size:10;uniqueIndex:idx_service_locale;not null" json:"locale"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
}
