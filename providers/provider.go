package providers

import (
	"context"

	"listing-hand/models"
)

// Normalisierter Report-Status der Legacy-Tools-API.
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusCompleted  = "completed"
)

// CitationRecord ist die normalisierte Form einer einzelnen Directory-Listung
// aus den Report-Ergebnissen. Die Pipeline sieht ausschließlich diese Form,
// nie die rohen (untereinander inkonsistenten) API-Antworten.
type CitationRecord struct {
	Directory    string `json:"directory"`
	URL          string `json:"url,omitempty"`
	Status       string `json:"status,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// CitationService ist das Interface, über das die Sync-Phasen mit dem
// externen Citation-Tracking-Dienst sprechen. Implementiert von
// providers/brightlocal; in Tests durch Fakes ersetzt.
type CitationService interface {
	// FindCategoryID löst einen Kategorienamen best-effort in eine externe
	// Kategorie-ID auf (exakter Treffer, sonst Präfix, sonst Fallback).
	FindCategoryID(ctx context.Context, name string) (string, error)

	// CreateLocation registriert den Standort beim Dienst und gibt die
	// externe Location-ID zurück.
	CreateLocation(ctx context.Context, loc *models.Location, categoryID string) (string, error)

	// FindReport gibt die Report-ID eines bestehenden Citation-Trackers für
	// die externe Location zurück, oder "" wenn keiner existiert.
	FindReport(ctx context.Context, externalLocationID string) (string, error)

	// CreateReport legt einen neuen Citation-Tracker an. primaryLocation ist
	// PLZ oder ersatzweise Stadt.
	CreateReport(ctx context.Context, externalLocationID, primaryLocation string) (string, error)

	// StartScan stößt den Scan eines Reports an. alreadyRunning signalisiert
	// den idempotenten "läuft bereits"-Fall des Dienstes und ist kein Fehler.
	StartScan(ctx context.Context, reportID string) (alreadyRunning bool, err error)

	// GetReportStatus liefert den normalisierten Report-Status.
	GetReportStatus(ctx context.Context, reportID string) (string, error)

	// GetReportResults liefert die Listungs-Ergebnisse eines abgeschlossenen
	// Reports.
	GetReportResults(ctx context.Context, reportID string) ([]CitationRecord, error)

	// DeleteReport entfernt einen Report beim Dienst.
	DeleteReport(ctx context.Context, reportID string) error

	// CreateCampaign legt eine Citation-Builder-Kampagne für den Standort an
	// und gibt die externe Kampagnen-ID zurück.
	CreateCampaign(ctx context.Context, loc *models.Location) (string, error)
}
