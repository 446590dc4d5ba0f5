package brightlocal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"listing-hand/providers"
)

// flexID akzeptiert IDs als JSON-String oder -Zahl. Die Legacy-API liefert
// je nach Operation mal das eine, mal das andere.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// unwrapResponse packt den optionalen "response"-Umschlag der Legacy-API aus.
// Manche Operationen antworten flach, andere nested.
func unwrapResponse(body []byte) []byte {
	var env struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Response) > 0 {
		return env.Response
	}
	return body
}

// extractReportID liest die Report-ID aus einer Legacy-Antwort. Die API
// benennt das Feld je nach Operation "report_id" oder "report-id".
func extractReportID(body []byte) string {
	var ids struct {
		ReportID     flexID `json:"report_id"`
		ReportIDDash flexID `json:"report-id"`
	}
	raw := unwrapResponse(body)
	if err := json.Unmarshal(raw, &ids); err != nil {
		return ""
	}
	if ids.ReportID != "" {
		return ids.ReportID.String()
	}
	return ids.ReportIDDash.String()
}

// extractErrors baut einen lesbaren Fehlertext aus einer Legacy-Antwort.
// "errors" ist je nach Operation ein Objekt, eine Liste oder ein String.
func extractErrors(body []byte) string {
	var env struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Errors) == 0 {
		return ""
	}
	var asString string
	if json.Unmarshal(env.Errors, &asString) == nil {
		return asString
	}
	var asList []string
	if json.Unmarshal(env.Errors, &asList) == nil {
		return strings.Join(asList, "; ")
	}
	var asMap map[string]string
	if json.Unmarshal(env.Errors, &asMap) == nil {
		parts := make([]string, 0, len(asMap))
		for k, v := range asMap {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		}
		return strings.Join(parts, "; ")
	}
	return string(env.Errors)
}

// normalizeReportStatus bildet die Statustexte der Legacy-API auf die
// internen Konstanten ab.
func normalizeReportStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "done":
		return providers.ReportStatusCompleted
	case "in progress", "in_progress", "running", "fetching":
		return providers.ReportStatusInProgress
	default:
		return providers.ReportStatusPending
	}
}

// rawCitation deckt die Feld-Varianten der Result-Einträge ab.
type rawCitation struct {
	Directory    string `json:"directory"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
	ListingURL   string `json:"listing_url"`
	Status       string `json:"status"`
	BusinessName string `json:"business_name"`
	BusinessAlt  string `json:"business-name"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Telephone    string `json:"telephone"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalize überführt einen rohen Result-Eintrag in die interne Form.
func (r rawCitation) normalize() providers.CitationRecord {
	return providers.CitationRecord{
		Directory:    firstNonEmpty(r.Directory, r.Domain),
		URL:          firstNonEmpty(r.URL, r.ListingURL),
		Status:       r.Status,
		BusinessName: firstNonEmpty(r.BusinessName, r.BusinessAlt, r.Name),
		Address:      r.Address,
		Phone:        firstNonEmpty(r.Phone, r.Telephone),
	}
}

// parseResults dekodiert eine get-results-Antwort in normalisierte Records.
func parseResults(body []byte) ([]providers.CitationRecord, error) {
	raw := unwrapResponse(body)
	var payload struct {
		Results []rawCitation `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("results konnten nicht geparst werden: %w", err)
	}
	records := make([]providers.CitationRecord, 0, len(payload.Results))
	for _, rc := range payload.Results {
		records = append(records, rc.normalize())
	}
	return records, nil
}

// parseReportList dekodiert eine get-all-Antwort (Report-Übersicht).
type reportSummary struct {
	ReportID     flexID `json:"report_id"`
	ReportIDDash flexID `json:"report-id"`
	LocationID   flexID `json:"location_id"`
	LocationDash flexID `json:"location-id"`
}

func (r reportSummary) reportID() string {
	if r.ReportID != "" {
		return r.ReportID.String()
	}
	return r.ReportIDDash.String()
}

func (r reportSummary) locationID() string {
	if r.LocationID != "" {
		return r.LocationID.String()
	}
	return r.LocationDash.String()
}

func parseReportList(body []byte) ([]reportSummary, error) {
	raw := unwrapResponse(body)
	var payload struct {
		Reports []reportSummary `json:"reports"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("report-liste konnte nicht geparst werden: %w", err)
	}
	return payload.Reports, nil
}

// category ist ein Eintrag der Kategorienliste der Resource-API.
type category struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}
