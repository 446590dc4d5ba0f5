package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4343"`

	// Shared Secret für den Scheduler-Endpoint (Bearer-Token).
	SyncSecret   string `envconfig:"SYNC_SECRET"`
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"*/15 * * * *"`

	// BrightLocal: Resource-API (JSON, Key im Header) und Legacy-Tools-API
	// (form-encoded, Key als Parameter). Ist das Secret gesetzt, signiert der
	// Adapter die Legacy-Aufrufe zusätzlich (sig/expires).
	BrightLocalAPIKey       string `envconfig:"BRIGHTLOCAL_API_KEY"`
	BrightLocalAPISecret    string `envconfig:"BRIGHTLOCAL_API_SECRET"`
	BrightLocalAPIBaseURL   string `envconfig:"BRIGHTLOCAL_API_BASE_URL" default:"https://api.brightlocal.com"`
	BrightLocalToolsBaseURL string `envconfig:"BRIGHTLOCAL_TOOLS_BASE_URL" default:"https://tools.brightlocal.com/seo-tools/api"`

	MapperBatchSize   int `envconfig:"MAPPER_BATCH_SIZE" default:"10"`
	PullerBatchSize   int `envconfig:"PULLER_BATCH_SIZE" default:"10"`
	CampaignBatchSize int `envconfig:"CAMPAIGN_BATCH_SIZE" default:"5"`

	// Wall-Clock-Budget für einen kompletten Sync-Durchlauf.
	SyncBudget time.Duration `envconfig:"SYNC_BUDGET" default:"90s"`

	// 0 = deaktiviert: Audits, die länger als dieser Schwellwert auf "running"
	// stehen, werden vom Puller als fehlgeschlagen abgeräumt.
	ScanStaleAfter time.Duration `envconfig:"SCAN_STALE_AFTER" default:"0"`

	// Optionales Archiv für Roh-Reports (S3-kompatibel). Leerer Bucket = aus.
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// CitationsConfigured meldet, ob die BrightLocal-Integration konfiguriert ist.
// Fehlende Credentials sind kein Fehler; der Sync läuft dann als No-Op.
func (c *Config) CitationsConfigured() bool {
	return c.BrightLocalAPIKey != ""
}

// ArchiveConfigured meldet, ob das Roh-Report-Archiv aktiv ist.
func (c *Config) ArchiveConfigured() bool {
	return c.ArchiveS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
