package models

import (
	"time"
)

// Profile-Sync-Status des Upstream-Feeds.
const (
	ProfileSyncActive = "active"
	ProfileSyncError  = "error"
)

// BusinessProfile ist der Read-Only-Feed aus der Profil-Synchronisation.
// Die Pipeline liest hier nur Kategorie und Sync-Status; geschrieben wird
// die Tabelle vom Profil-Subsystem.
type BusinessProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LocationID      uint   `json:"location_id" gorm:"uniqueIndex;not null"`
	PrimaryCategory string `json:"primary_category"`
	SyncStatus      string `json:"sync_status" gorm:"index;default:''"`
}
