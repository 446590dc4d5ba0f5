package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers"
)

// errSkipLocation markiert Standorte, die (noch) nicht mappbar sind: kein
// synchronisiertes Profil oder fehlende Pflichtfelder. Kein Fehler — der
// Standort bleibt jeden Lauf erneut kandidat, bis die Daten da sind.
var errSkipLocation = errors.New("location not ready for mapping")

// MapperService ist Phase 1 der Pipeline: registriert Standorte ohne Report
// bei BrightLocal (Location + Citation-Tracker) und öffnet das Audit.
type MapperService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Citations providers.CitationService
}

// NewMapperService erstellt eine neue Instanz des MapperService.
func NewMapperService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, citations providers.CitationService) *MapperService {
	return &MapperService{Config: cfg, DB: db, Logger: logger, Citations: citations}
}

// Run verarbeitet einen Batch aktiver Standorte ohne Report. Fehler einzelner
// Standorte brechen den Batch nicht ab.
func (m *MapperService) Run(ctx context.Context) (mapped, errs int) {
	var locations []models.Location
	err := m.DB.WithContext(ctx).
		Where("external_report_id = '' AND active = ?", true).
		Order("id asc").
		Limit(m.Config.MapperBatchSize).
		Find(&locations).Error
	if err != nil {
		m.Logger.Error("Mapper batch query failed", zap.Error(err))
		return 0, 1
	}

	for i := range locations {
		if ctx.Err() != nil {
			m.Logger.Warn("Mapper aborted, sync budget exceeded", zap.Int("mapped", mapped))
			break
		}
		loc := &locations[i]
		if err := m.mapLocation(ctx, loc); err != nil {
			if errors.Is(err, errSkipLocation) {
				continue
			}
			m.Logger.Error("Mapping failed for location",
				zap.Uint("location_id", loc.ID), zap.Error(err))
			errs++
			continue
		}
		mapped++
	}
	return mapped, errs
}

// mapLocation führt das Mapping für einen einzelnen Standort aus. Externe IDs
// werden sofort nach jedem Create persistiert, damit ein Abbruch danach beim
// nächsten Lauf keine doppelte Entität erzeugt.
func (m *MapperService) mapLocation(ctx context.Context, loc *models.Location) error {
	log := m.Logger.With(zap.Uint("location_id", loc.ID))

	var profile models.BusinessProfile
	if err := m.DB.WithContext(ctx).Where("location_id = ?", loc.ID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("No business profile yet, skipping")
			return errSkipLocation
		}
		return fmt.Errorf("profil-abfrage fehlgeschlagen: %w", err)
	}
	if profile.SyncStatus != models.ProfileSyncActive {
		log.Debug("Business profile not synced, skipping", zap.String("sync_status", profile.SyncStatus))
		return errSkipLocation
	}
	if loc.Phone == "" || loc.City == "" || loc.Region == "" {
		log.Debug("Location missing phone, city or region, skipping")
		return errSkipLocation
	}

	if loc.ExternalLocationID == "" {
		categoryID, err := m.Citations.FindCategoryID(ctx, profile.PrimaryCategory)
		if err != nil {
			return fmt.Errorf("kategorie-lookup fehlgeschlagen: %w", err)
		}
		externalID, err := m.Citations.CreateLocation(ctx, loc, categoryID)
		if err != nil {
			return fmt.Errorf("location-registrierung fehlgeschlagen: %w", err)
		}
		if err := m.DB.Model(&models.Location{}).Where("id = ?", loc.ID).
			Update("external_location_id", externalID).Error; err != nil {
			return fmt.Errorf("location-id konnte nicht gespeichert werden: %w", err)
		}
		loc.ExternalLocationID = externalID
		log.Info("External location registered", zap.String("external_location_id", externalID))
	}

	reportID, err := m.Citations.FindReport(ctx, loc.ExternalLocationID)
	if err != nil {
		return fmt.Errorf("report-lookup fehlgeschlagen: %w", err)
	}
	if reportID == "" {
		primaryLocation := loc.PostalCode
		if primaryLocation == "" {
			primaryLocation = loc.City
		}
		if primaryLocation == "" {
			log.Debug("Neither postal code nor city set, skipping")
			return errSkipLocation
		}
		reportID, err = m.Citations.CreateReport(ctx, loc.ExternalLocationID, primaryLocation)
		if err != nil {
			return fmt.Errorf("report-anlage fehlgeschlagen: %w", err)
		}
	}

	if err := m.DB.Model(&models.Location{}).Where("id = ?", loc.ID).
		Update("external_report_id", reportID).Error; err != nil {
		return fmt.Errorf("report-id konnte nicht gespeichert werden: %w", err)
	}
	loc.ExternalReportID = reportID

	audit := models.CitationAudit{
		LocationID:       loc.ID,
		ExternalReportID: reportID,
		Status:           models.AuditStatusPending,
	}
	if err := m.DB.Create(&audit).Error; err != nil {
		return fmt.Errorf("audit konnte nicht angelegt werden: %w", err)
	}

	log.Info("Location mapped, audit opened",
		zap.String("report_id", reportID), zap.Uint("audit_id", audit.ID))
	return nil
}
