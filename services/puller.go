package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers"
	"listing-hand/storage"
)

// PullerService ist Phase 3 der Pipeline: pollt laufende Audits, holt bei
// Abschluss die Listungs-Ergebnisse, berechnet die NAP-Korrektheit, upsertet
// die Listungszeilen und schließt das Audit mit den Aggregatwerten ab.
type PullerService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Citations providers.CitationService
	Archive   *storage.ReportArchive
}

// NewPullerService erstellt eine neue Instanz des PullerService. archive darf
// nil sein, dann wird nicht archiviert.
func NewPullerService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, citations providers.CitationService, archive *storage.ReportArchive) *PullerService {
	return &PullerService{Config: cfg, DB: db, Logger: logger, Citations: citations, Archive: archive}
}

// failStaleAudits räumt Audits ab, die länger als der konfigurierte
// Schwellwert auf "running" stehen. Mit Schwellwert 0 (Default) bleibt das
// historische Verhalten erhalten: ein hängender Scan bleibt hängen.
func (p *PullerService) failStaleAudits(ctx context.Context) {
	if p.Config.ScanStaleAfter <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-p.Config.ScanStaleAfter)
	res := p.DB.WithContext(ctx).Model(&models.CitationAudit{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", models.AuditStatusRunning, cutoff).
		Updates(map[string]any{
			"status":     models.AuditStatusFailed,
			"last_error": fmt.Sprintf("scan exceeded staleness threshold of %s", p.Config.ScanStaleAfter),
		})
	if res.Error != nil {
		p.Logger.Error("Stale audit cleanup failed", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		p.Logger.Warn("Stale running audits force-failed", zap.Int64("count", res.RowsAffected))
	}
}

// Run verarbeitet einen Batch laufender Audits. Ein Fehler in einem Audit
// markiert nur dieses als failed; die übrigen laufen weiter.
func (p *PullerService) Run(ctx context.Context) (pulled, errs int) {
	p.failStaleAudits(ctx)

	var audits []models.CitationAudit
	err := p.DB.WithContext(ctx).
		Where("status = ?", models.AuditStatusRunning).
		Order("created_at asc").
		Limit(p.Config.PullerBatchSize).
		Find(&audits).Error
	if err != nil {
		p.Logger.Error("Puller batch query failed", zap.Error(err))
		return 0, 1
	}

	for i := range audits {
		if ctx.Err() != nil {
			p.Logger.Warn("Puller aborted, sync budget exceeded", zap.Int("pulled", pulled))
			break
		}
		audit := &audits[i]
		done, err := p.pullAudit(ctx, audit)
		if err != nil {
			p.Logger.Error("Pull failed for audit",
				zap.Uint("audit_id", audit.ID), zap.Error(err))
			if dbErr := p.DB.Model(audit).Updates(map[string]any{
				"status":     models.AuditStatusFailed,
				"last_error": err.Error(),
			}).Error; dbErr != nil {
				p.Logger.Error("Failed to mark audit as failed", zap.Error(dbErr))
			}
			errs++
			continue
		}
		if done {
			pulled++
		}
	}
	return pulled, errs
}

// pullAudit verarbeitet ein einzelnes laufendes Audit. Gibt (false, nil)
// zurück, solange der Report extern noch nicht fertig ist.
func (p *PullerService) pullAudit(ctx context.Context, audit *models.CitationAudit) (bool, error) {
	log := p.Logger.With(
		zap.Uint("audit_id", audit.ID),
		zap.Uint("location_id", audit.LocationID),
		zap.String("report_id", audit.ExternalReportID))

	status, err := p.Citations.GetReportStatus(ctx, audit.ExternalReportID)
	if err != nil {
		return false, fmt.Errorf("report-status fehlgeschlagen: %w", err)
	}
	if status != providers.ReportStatusCompleted {
		log.Debug("Report not completed yet, retrying next cycle", zap.String("status", status))
		return false, nil
	}

	records, err := p.Citations.GetReportResults(ctx, audit.ExternalReportID)
	if err != nil {
		return false, fmt.Errorf("report-ergebnisse fehlgeschlagen: %w", err)
	}

	var loc models.Location
	if err := p.DB.First(&loc, audit.LocationID).Error; err != nil {
		return false, fmt.Errorf("standort %d nicht ladbar: %w", audit.LocationID, err)
	}
	// Ein Snapshot pro Audit, nicht pro Listung.
	expected := ExpectedNAP{Name: loc.Name, Address: loc.Address, Phone: loc.Phone}

	now := time.Now().UTC()
	var correct, incorrect, missing int
	for _, rec := range records {
		if rec.Directory == "" {
			log.Warn("Citation record without directory, skipping")
			continue
		}
		eval := EvaluateListing(rec, expected)
		if err := p.upsertListing(loc.ID, rec, expected, eval, now); err != nil {
			return false, fmt.Errorf("listing-upsert %q fehlgeschlagen: %w", rec.Directory, err)
		}
		switch eval.Status {
		case models.ListingStatusFound:
			correct++
		case models.ListingStatusActionNeeded:
			incorrect++
		case models.ListingStatusNotListed:
			missing++
		}
	}

	if p.Archive != nil {
		if _, err := p.Archive.StoreReport(ctx, loc.ID, audit.ExternalReportID, records); err != nil {
			// Archivfehler lassen den Abschluss nicht scheitern.
			log.Warn("Report archive upload failed", zap.Error(err))
		}
	}

	total := correct + incorrect + missing
	if err := p.DB.Model(audit).Updates(map[string]any{
		"status":          models.AuditStatusCompleted,
		"total_found":     total,
		"total_correct":   correct,
		"total_incorrect": incorrect,
		"total_missing":   missing,
		"completed_at":    now,
	}).Error; err != nil {
		return false, fmt.Errorf("audit-abschluss fehlgeschlagen: %w", err)
	}
	if err := p.DB.Model(&models.Location{}).Where("id = ?", loc.ID).
		Update("last_synced_at", now).Error; err != nil {
		log.Warn("Failed to stamp last_synced_at", zap.Error(err))
	}

	log.Info("Audit completed",
		zap.Int("total_found", total),
		zap.Int("total_correct", correct),
		zap.Int("total_incorrect", incorrect),
		zap.Int("total_missing", missing))
	return true, nil
}

// upsertListing schreibt den aktuellen Stand einer Directory-Listung, Schlüssel
// (location_id, directory). Echtes Überschreiben, keine Akkumulation.
func (p *PullerService) upsertListing(locationID uint, rec providers.CitationRecord, expected ExpectedNAP, eval ListingEvaluation, now time.Time) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	listing := models.CitationListing{
		LocationID:      locationID,
		Directory:       rec.Directory,
		ListingURL:      rec.URL,
		FoundName:       rec.BusinessName,
		FoundAddress:    rec.Address,
		FoundPhone:      rec.Phone,
		ExpectedName:    expected.Name,
		ExpectedAddress: expected.Address,
		ExpectedPhone:   expected.Phone,
		NameMatch:       eval.NameMatch,
		AddressMatch:    eval.AddressMatch,
		PhoneMatch:      eval.PhoneMatch,
		NapCorrect:      eval.NapCorrect,
		Status:          eval.Status,
		Recommendation:  eval.Recommendation,
		LastCheckedAt:   &now,
		RawPayload:      raw,
	}

	return p.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "location_id"}, {Name: "directory"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"listing_url",
			"found_name", "found_address", "found_phone",
			"expected_name", "expected_address", "expected_phone",
			"name_match", "address_match", "phone_match", "nap_correct",
			"status", "recommendation",
			"last_checked_at", "raw_payload", "updated_at",
		}),
	}).Create(&listing).Error
}
