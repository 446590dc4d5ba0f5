package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers/brightlocal"
	"listing-hand/services"
	"listing-hand/storage"
)

var (
	syncRunsCounter   prometheus.Counter
	syncErrorsCounter prometheus.Counter
	mappedCounter     prometheus.Counter
	pulledCounter     prometheus.Counter
	campaignsCounter  prometheus.Counter
)

func init() {
	syncRunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citation_sync_runs_total",
		Help: "Total number of citation sync runs.",
	})
	syncErrorsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citation_sync_errors_total",
		Help: "Total number of per-item errors across citation sync runs.",
	})
	mappedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citation_locations_mapped_total",
		Help: "Total number of locations mapped to the citation service.",
	})
	pulledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citation_audits_completed_total",
		Help: "Total number of citation audits completed by the puller.",
	})
	campaignsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citation_campaigns_created_total",
		Help: "Total number of citation builder campaigns created.",
	})
	prometheus.MustRegister(syncRunsCounter, syncErrorsCounter, mappedCounter, pulledCounter, campaignsCounter)
}

// syncAuthMiddleware vergleicht das Bearer-Token mit dem Server-Secret.
// Ohne konfiguriertes Secret ist der Endpoint offen (Dev-Setup).
func syncAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.SyncSecret == "" {
			c.Next()
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != cfg.SyncSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid sync token"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Location{},
		&models.BusinessProfile{},
		&models.CitationAudit{},
		&models.CitationListing{},
		&models.CitationBuilderCampaign{},
	)

	// Optionales Roh-Report-Archiv
	var archive *storage.ReportArchive
	if cfg.ArchiveConfigured() {
		archive, err = storage.NewReportArchive(cfg, logging)
		if err != nil {
			logging.Fatal("Report archive setup failed", zap.Error(err))
		}
		logging.Info("Report archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	citations := brightlocal.NewClient(cfg, logging)
	syncService := services.NewSyncService(cfg, db, logging, citations, archive)
	if !cfg.CitationsConfigured() {
		logging.Warn("BRIGHTLOCAL_API_KEY not set, citation sync will run as no-op")
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "listing-hand"})
	})

	setupSyncRoutes(router, cfg, syncService)
	setupListingRoutes(router, db, logging)
	setupAuditRoutes(router, db, logging)

	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled citation sync...")
		runSync(context.Background(), syncService)
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// runSync führt einen Durchlauf aus und pflegt die Prometheus-Counter.
func runSync(ctx context.Context, syncService *services.SyncService) services.Summary {
	summary := syncService.Run(ctx)
	syncRunsCounter.Inc()
	syncErrorsCounter.Add(float64(summary.Errors))
	mappedCounter.Add(float64(summary.Mapped))
	pulledCounter.Add(float64(summary.Pulled))
	campaignsCounter.Add(float64(summary.Campaigns))
	return summary
}

// setupSyncRoutes konfiguriert den Scheduler-Endpoint. Antwortet immer 200
// mit der Summary (auch bei unkonfigurierter Integration) — Fehler verlassen
// den Lauf nie, sie stehen als Zähler in der Antwort.
func setupSyncRoutes(router *gin.Engine, cfg *config.Config, syncService *services.SyncService) {
	rg := router.Group("/sync")
	rg.Use(syncAuthMiddleware(cfg))

	rg.POST("/citations", func(c *gin.Context) {
		summary := runSync(c.Request.Context(), syncService)
		c.JSON(http.StatusOK, summary)
	})
}

// setupListingRoutes konfiguriert die Listungs-Endpoints für die
// Remediation-UI.
func setupListingRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/citations")

	// GET - Alle Listungen eines Standorts
	router.GET("/locations/:id/citations", func(c *gin.Context) {
		id := c.Param("id")
		var listings []models.CitationListing
		if err := db.Where("location_id = ?", id).Order("directory asc").Find(&listings).Error; err != nil {
			log.Error("Database query for listings failed", zap.String("location_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, listings)
	})

	// POST - Listungen nach Kriterien filtern
	rg.POST("/query", func(c *gin.Context) {
		type ListingQuery struct {
			LocationID *uint  `json:"location_id"`
			Directory  string `json:"directory"`
			Status     string `json:"status"`
			NapCorrect *bool  `json:"nap_correct"`
			Limit      int    `json:"limit"`
		}

		var req ListingQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.CitationListing{})
		if req.LocationID != nil {
			query = query.Where("location_id = ?", *req.LocationID)
		}
		if req.Directory != "" {
			query = query.Where("directory = ?", req.Directory)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.NapCorrect != nil {
			query = query.Where("nap_correct = ?", *req.NapCorrect)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var listings []models.CitationListing
		if err := query.Order("updated_at desc").Find(&listings).Error; err != nil {
			log.Error("Database query for listings failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, listings)
	})

	// PATCH - Manuelle Remediation-Übergänge. Die Pipeline setzt nur
	// found/action_needed/not_listed; diese drei kommen von Menschen.
	rg.PATCH("/:id/status", func(c *gin.Context) {
		id := c.Param("id")
		var payload struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid fields (status required)"})
			return
		}
		switch payload.Status {
		case models.ListingStatusSubmitted, models.ListingStatusVerified, models.ListingStatusDismissed:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be submitted, verified or dismissed"})
			return
		}

		var listing models.CitationListing
		if err := db.First(&listing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
				return
			}
			log.Error("DB error checking for listing on PATCH", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := db.Model(&listing).Update("status", payload.Status).Error; err != nil {
			log.Error("Failed to update listing status", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update listing"})
			return
		}
		c.JSON(http.StatusOK, listing)
	})
}

// setupAuditRoutes konfiguriert die Audit-Endpoints (Needs-Attention-Feed).
func setupAuditRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/audits")

	// GET - Fehlgeschlagene Audits inkl. letztem Fehler
	rg.GET("/attention", func(c *gin.Context) {
		var audits []models.CitationAudit
		if err := db.Where("status = ?", models.AuditStatusFailed).
			Order("updated_at desc").Find(&audits).Error; err != nil {
			log.Error("Database query for failed audits failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, audits)
	})

	// GET - Audit-Historie eines Standorts
	rg.GET("/location/:id", func(c *gin.Context) {
		id := c.Param("id")
		var audits []models.CitationAudit
		if err := db.Where("location_id = ?", id).
			Order("created_at desc").Find(&audits).Error; err != nil {
			log.Error("Database query for audits failed", zap.String("location_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, audits)
	})
}
