package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"listing-hand/config"
	"listing-hand/providers"
	"listing-hand/storage"
)

// Summary fasst einen kompletten Sync-Durchlauf zusammen. Die Zahlen gehen
// 1:1 in die Antwort des Scheduler-Endpoints und in die Prometheus-Counter.
type Summary struct {
	RunID     string `json:"run_id"`
	Mapped    int    `json:"mapped"`
	Triggered int    `json:"triggered"`
	Pulled    int    `json:"pulled"`
	Campaigns int    `json:"campaigns"`
	Errors    int    `json:"errors"`
}

// SyncService orchestriert die vier Phasen der Citation-Pipeline:
// Map → Trigger → Pull → Build. Jede Phase ist gegen Fehler der anderen
// isoliert; kein Fehler verlässt Run.
type SyncService struct {
	Config *config.Config
	Logger *zap.Logger

	Mapper    *MapperService
	Trigger   *TriggerService
	Puller    *PullerService
	Campaigns *CampaignService
}

// NewSyncService verdrahtet die Phasen. archive darf nil sein.
func NewSyncService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, citations providers.CitationService, archive *storage.ReportArchive) *SyncService {
	return &SyncService{
		Config:    cfg,
		Logger:    logger,
		Mapper:    NewMapperService(cfg, db, logger, citations),
		Trigger:   NewTriggerService(cfg, db, logger, citations),
		Puller:    NewPullerService(cfg, db, logger, citations, archive),
		Campaigns: NewCampaignService(cfg, db, logger, citations),
	}
}

// Run führt einen vollständigen Durchlauf innerhalb des Wall-Clock-Budgets
// aus. Ohne konfigurierte BrightLocal-Credentials ist der Lauf ein sauberer
// No-Op (kein Fehler, leere Summary) — fehlende Konfiguration soll keinen
// Alarm auslösen.
func (s *SyncService) Run(ctx context.Context) Summary {
	summary := Summary{RunID: uuid.NewString()}
	log := s.Logger.With(zap.String("run_id", summary.RunID))

	if !s.Config.CitationsConfigured() {
		log.Info("Citation service not configured, sync is a no-op")
		return summary
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.SyncBudget)
	defer cancel()

	log.Info("Citation sync started")

	mapped, errs := s.Mapper.Run(ctx)
	summary.Mapped, summary.Errors = mapped, summary.Errors+errs

	triggered, errs := s.Trigger.Run(ctx)
	summary.Triggered, summary.Errors = triggered, summary.Errors+errs

	pulled, errs := s.Puller.Run(ctx)
	summary.Pulled, summary.Errors = pulled, summary.Errors+errs

	campaigns, errs := s.Campaigns.Run(ctx)
	summary.Campaigns, summary.Errors = campaigns, summary.Errors+errs

	log.Info("Citation sync completed",
		zap.Int("mapped", summary.Mapped),
		zap.Int("triggered", summary.Triggered),
		zap.Int("pulled", summary.Pulled),
		zap.Int("campaigns", summary.Campaigns),
		zap.Int("errors", summary.Errors))
	return summary
}
