package models

import (
	"time"
)

// Location repräsentiert einen verwalteten Unternehmensstandort inklusive
// seiner kanonischen NAP-Daten (Name, Address, Phone).
type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `json:"name" gorm:"not null"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city" gorm:"index"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`

	Active bool `json:"active" gorm:"index;default:true"`

	// BrightLocal-IDs werden genau einmal gesetzt und nie wieder geleert,
	// damit keine doppelten externen Entitäten entstehen.
	ExternalLocationID string `json:"external_location_id,omitempty" gorm:"index;default:''"`
	ExternalReportID   string `json:"external_report_id,omitempty" gorm:"index;default:''"`
	ExternalCampaignID string `json:"external_campaign_id,omitempty" gorm:"default:''"`

	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}
