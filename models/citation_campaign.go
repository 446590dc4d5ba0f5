package models

import (
	"time"
)

// CampaignStatusLookup ist der Initialstatus einer frisch angelegten
// Citation-Builder-Kampagne; die weiteren Übergänge passieren außerhalb
// dieser Pipeline.
const CampaignStatusLookup = "lookup"

// CitationBuilderCampaign ist die Remediation-Kampagne eines Standorts bei
// BrightLocal (Citation Builder). Höchstens eine pro Standort.
type CitationBuilderCampaign struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LocationID         uint   `json:"location_id" gorm:"uniqueIndex;not null"`
	ExternalCampaignID string `json:"external_campaign_id" gorm:"index;not null"`
	Status             string `json:"status" gorm:"default:'lookup'"`
}

// TableName gibt explizit den Tabellennamen an.
func (CitationBuilderCampaign) TableName() string {
	return "citation_builder_campaigns"
}
