package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status einer Directory-Listung. Die Pipeline setzt nur die ersten drei;
// submitted/verified/dismissed kommen aus der manuellen Remediation.
const (
	ListingStatusFound        = "found"
	ListingStatusActionNeeded = "action_needed"
	ListingStatusNotListed    = "not_listed"
	ListingStatusSubmitted    = "submitted"
	ListingStatusVerified     = "verified"
	ListingStatusDismissed    = "dismissed"
)

// CitationListing ist der aktuelle Stand einer Directory-Listung für einen
// Standort, Schlüssel (location_id, directory). Der Puller überschreibt die
// Zeile bei jedem Abschluss eines Reports komplett (Upsert, keine Historie).
type CitationListing struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LocationID uint   `json:"location_id" gorm:"uniqueIndex:idx_location_directory;not null"`
	Directory  string `json:"directory" gorm:"uniqueIndex:idx_location_directory;not null"`

	ListingURL string `json:"listing_url,omitempty"`

	FoundName    string `json:"found_name,omitempty"`
	FoundAddress string `json:"found_address,omitempty"`
	FoundPhone   string `json:"found_phone,omitempty"`

	// Snapshot der Location zum Pull-Zeitpunkt, gegen den verglichen wurde.
	ExpectedName    string `json:"expected_name"`
	ExpectedAddress string `json:"expected_address"`
	ExpectedPhone   string `json:"expected_phone"`

	NameMatch    bool `json:"name_match"`
	AddressMatch bool `json:"address_match"`
	PhoneMatch   bool `json:"phone_match"`
	NapCorrect   bool `json:"nap_correct" gorm:"index"`

	Status         string `json:"status" gorm:"index;default:'not_listed'"`
	Recommendation string `json:"recommendation,omitempty" gorm:"type:text"`

	LastCheckedAt *time.Time     `json:"last_checked_at,omitempty"`
	RawPayload    datatypes.JSON `json:"raw_payload,omitempty" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (CitationListing) TableName() string {
	return "citation_listings"
}
