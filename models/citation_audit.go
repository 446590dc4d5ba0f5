package models

import (
	"time"
)

// Lebenszyklus eines Citation-Audits.
const (
	AuditStatusPending   = "pending"
	AuditStatusRunning   = "running"
	AuditStatusCompleted = "completed"
	AuditStatusFailed    = "failed"
)

// CitationAudit ist ein Durchlauf des Citation-Scans für einen Standort.
// Pro Mapping-Ereignis entsteht genau eine Zeile; ein Standort sammelt über
// die Zeit eine Historie. Systemweit darf höchstens ein Audit gleichzeitig
// auf "running" stehen, weil BrightLocal nur einen aktiven Scan erlaubt.
type CitationAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	LocationID uint     `json:"location_id" gorm:"index;not null"`
	Location   Location `json:"-" gorm:"foreignKey:LocationID"`

	ExternalReportID string `json:"external_report_id" gorm:"index;not null"`

	Status string `json:"status" gorm:"index;default:'pending'"`

	// Aggregatwerte, erst bei Abschluss befüllt.
	TotalFound     int `json:"total_found"`
	TotalCorrect   int `json:"total_correct"`
	TotalIncorrect int `json:"total_incorrect"`
	TotalMissing   int `json:"total_missing"`

	LastError   string     `json:"last_error,omitempty" gorm:"type:text"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (CitationAudit) TableName() string {
	return "citation_audits"
}
