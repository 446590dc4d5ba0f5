package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers"
)

// CampaignService ist Phase 4 der Pipeline: legt für Standorte mit mindestens
// einem abgeschlossenen Audit und registrierter externer Location eine
// Citation-Builder-Kampagne an — höchstens eine pro Standort.
type CampaignService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Citations providers.CitationService
}

// NewCampaignService erstellt eine neue Instanz des CampaignService.
func NewCampaignService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, citations providers.CitationService) *CampaignService {
	return &CampaignService{Config: cfg, DB: db, Logger: logger, Citations: citations}
}

// Run verarbeitet einen Batch kampagnenloser Standorte. Fehler einzelner
// Standorte brechen den Batch nicht ab.
func (s *CampaignService) Run(ctx context.Context) (created, errs int) {
	var locations []models.Location
	err := s.DB.WithContext(ctx).
		Where("external_location_id <> '' AND external_campaign_id = ''").
		Where("EXISTS (SELECT 1 FROM citation_audits WHERE citation_audits.location_id = locations.id AND citation_audits.status = ?)",
			models.AuditStatusCompleted).
		Order("id asc").
		Limit(s.Config.CampaignBatchSize).
		Find(&locations).Error
	if err != nil {
		s.Logger.Error("Campaign batch query failed", zap.Error(err))
		return 0, 1
	}

	for i := range locations {
		if ctx.Err() != nil {
			s.Logger.Warn("Campaign builder aborted, sync budget exceeded", zap.Int("created", created))
			break
		}
		loc := &locations[i]
		log := s.Logger.With(zap.Uint("location_id", loc.ID))

		campaignID, err := s.Citations.CreateCampaign(ctx, loc)
		if err != nil {
			log.Error("Campaign creation failed", zap.Error(err))
			errs++
			continue
		}
		if err := s.DB.Model(&models.Location{}).Where("id = ?", loc.ID).
			Update("external_campaign_id", campaignID).Error; err != nil {
			log.Error("Failed to persist campaign id", zap.Error(err))
			errs++
			continue
		}
		campaign := models.CitationBuilderCampaign{
			LocationID:         loc.ID,
			ExternalCampaignID: campaignID,
			Status:             models.CampaignStatusLookup,
		}
		if err := s.DB.Create(&campaign).Error; err != nil {
			log.Error("Failed to create campaign record", zap.Error(err))
			errs++
			continue
		}

		log.Info("Citation builder campaign opened", zap.String("campaign_id", campaignID))
		created++
	}
	return created, errs
}
