package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers"
)

// TriggerService ist Phase 2 der Pipeline: startet den Scan für das älteste
// wartende Audit. BrightLocal erlaubt nur einen aktiven Scan, deshalb gilt
// systemweit: höchstens ein Audit auf "running".
type TriggerService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Citations providers.CitationService
}

// NewTriggerService erstellt eine neue Instanz des TriggerService.
func NewTriggerService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, citations providers.CitationService) *TriggerService {
	return &TriggerService{Config: cfg, DB: db, Logger: logger, Citations: citations}
}

// claimOldestPending setzt das älteste pending-Audit atomar auf running —
// aber nur, wenn gerade kein Audit läuft. Ein einzelnes guarded UPDATE statt
// Count-dann-Update, damit zwei überlappende Cron-Aufrufe nicht beide einen
// Scan starten können.
func (t *TriggerService) claimOldestPending(ctx context.Context, now time.Time) (*models.CitationAudit, error) {
	res := t.DB.WithContext(ctx).Exec(`
		UPDATE citation_audits
		SET status = ?, started_at = ?, updated_at = ?
		WHERE status = ?
		  AND id = (
			SELECT id FROM citation_audits
			WHERE status = ?
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM citation_audits WHERE status = ?
		  )`,
		models.AuditStatusRunning, now, now,
		models.AuditStatusPending,
		models.AuditStatusPending,
		models.AuditStatusRunning,
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	// Höchstens eine Zeile kann running sein, genau die eben geclaimte.
	var audit models.CitationAudit
	if err := t.DB.WithContext(ctx).
		Where("status = ?", models.AuditStatusRunning).
		First(&audit).Error; err != nil {
		return nil, err
	}
	return &audit, nil
}

// Run versucht genau einen Scan zu starten. Läuft bereits ein Audit, ist die
// Phase ein No-Op.
func (t *TriggerService) Run(ctx context.Context) (triggered, errs int) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	audit, err := t.claimOldestPending(ctx, now)
	if err != nil {
		t.Logger.Error("Audit claim failed", zap.Error(err))
		return 0, 1
	}
	if audit == nil {
		t.Logger.Debug("No pending audit claimable, trigger is a no-op")
		return 0, 0
	}

	log := t.Logger.With(
		zap.Uint("audit_id", audit.ID),
		zap.Uint("location_id", audit.LocationID),
		zap.String("report_id", audit.ExternalReportID))

	alreadyRunning, err := t.Citations.StartScan(ctx, audit.ExternalReportID)
	if err != nil {
		log.Error("Scan start failed", zap.Error(err))
		if dbErr := t.DB.Model(audit).Updates(map[string]any{
			"status":     models.AuditStatusFailed,
			"last_error": err.Error(),
		}).Error; dbErr != nil {
			log.Error("Failed to mark audit as failed", zap.Error(dbErr))
		}
		return 0, 1
	}
	if alreadyRunning {
		// Idempotentes Signal des Dienstes: Claim zurücknehmen, das Audit
		// wartet auf den nächsten Lauf.
		log.Info("Scan already in progress on service side, releasing claim")
		if dbErr := t.DB.Model(audit).Updates(map[string]any{
			"status":     models.AuditStatusPending,
			"started_at": nil,
		}).Error; dbErr != nil {
			log.Error("Failed to release audit claim", zap.Error(dbErr))
			return 0, 1
		}
		return 0, 0
	}

	log.Info("Scan started")
	return 1, 0
}
