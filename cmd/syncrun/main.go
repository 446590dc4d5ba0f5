package main

import (
	"context"
	"encoding/json"
	"log"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"listing-hand/config"
	"listing-hand/providers/brightlocal"
	"listing-hand/services"
	"listing-hand/storage"
)

// Einmaliger Pipeline-Durchlauf ohne Server, z.B. für manuelle Nachläufe
// oder als externer Cron-Job. Fehler im Lauf selbst landen in der Summary;
// nur Bootstrap-Fehler beenden den Prozess mit Exit-Code != 0.
func main() {
	log.Println("Starte einmaligen Citation-Sync...")

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren des Loggers: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Fehler beim Verbinden mit der Datenbank: %v", err)
	}

	var archive *storage.ReportArchive
	if cfg.ArchiveConfigured() {
		archive, err = storage.NewReportArchive(cfg, logging)
		if err != nil {
			log.Fatalf("Fehler beim Erstellen des Report-Archivs: %v", err)
		}
	}

	citations := brightlocal.NewClient(cfg, logging)
	syncService := services.NewSyncService(cfg, db, logging, citations, archive)

	summary := syncService.Run(context.Background())

	out, _ := json.Marshal(summary)
	log.Printf("Sync abgeschlossen: %s", out)
}
