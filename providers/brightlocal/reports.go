package brightlocal

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"listing-hand/providers"
)

// legacySignature berechnet die Signatur der alten Tools-API:
// base64(md5(key + secret + expires)).
func legacySignature(key, secret string, expires int64) string {
	sum := md5.Sum([]byte(key + secret + strconv.FormatInt(expires, 10)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// authParams liefert die Auth-Parameter der Legacy-API. Ohne Secret reicht
// der API-Key; mit Secret wird zusätzlich zeitlich begrenzt signiert.
func (c *Client) authParams() url.Values {
	params := url.Values{}
	params.Set("api-key", c.Config.BrightLocalAPIKey)
	if c.Config.BrightLocalAPISecret != "" {
		expires := time.Now().Add(30 * time.Minute).Unix()
		params.Set("expires", strconv.FormatInt(expires, 10))
		params.Set("sig", legacySignature(c.Config.BrightLocalAPIKey, c.Config.BrightLocalAPISecret, expires))
	}
	return params
}

// doLegacy schickt eine form-encoded Anfrage an die Tools-API.
func (c *Client) doLegacy(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	auth := c.authParams()
	for k, vs := range auth {
		for _, v := range vs {
			params.Set(k, v)
		}
	}

	endpoint := c.Config.BrightLocalToolsBaseURL + path
	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractErrors(data)
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("brightlocal tools %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return data, nil
}

// FindReport sucht einen bestehenden Citation-Tracker für die externe
// Location. Gibt "" zurück, wenn keiner existiert.
func (c *Client) FindReport(ctx context.Context, externalLocationID string) (string, error) {
	body, err := c.doLegacy(ctx, http.MethodGet, "/v4/ct/get-all", nil)
	if err != nil {
		return "", err
	}
	reports, err := parseReportList(body)
	if err != nil {
		return "", err
	}
	for _, r := range reports {
		if r.locationID() == externalLocationID {
			return r.reportID(), nil
		}
	}
	return "", nil
}

// CreateReport legt einen neuen Citation-Tracker an.
func (c *Client) CreateReport(ctx context.Context, externalLocationID, primaryLocation string) (string, error) {
	params := url.Values{}
	params.Set("location-id", externalLocationID)
	params.Set("primary-location", primaryLocation)
	body, err := c.doLegacy(ctx, http.MethodPost, "/v4/ct/add", params)
	if err != nil {
		return "", err
	}
	id := extractReportID(body)
	if id == "" {
		return "", fmt.Errorf("brightlocal lieferte keine report-id: %s", strings.TrimSpace(string(body)))
	}
	c.Logger.Info("Citation tracker created",
		zap.String("external_location_id", externalLocationID),
		zap.String("report_id", id))
	return id, nil
}

// StartScan stößt den Scan eines Reports an. Der "already running"-Fall der
// API ist ein idempotentes Signal, kein Fehler.
func (c *Client) StartScan(ctx context.Context, reportID string) (bool, error) {
	params := url.Values{}
	params.Set("report-id", reportID)
	body, err := c.doLegacy(ctx, http.MethodPut, "/v4/ct/run", params)
	if err != nil {
		if isAlreadyRunning(err.Error()) {
			return true, nil
		}
		return false, err
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if jsonErr := json.Unmarshal(body, &resp); jsonErr == nil && !resp.Success {
		msg := extractErrors(body)
		if isAlreadyRunning(msg) {
			return true, nil
		}
		return false, fmt.Errorf("scan-start abgelehnt: %s", msg)
	}
	return false, nil
}

// isAlreadyRunning erkennt die Formulierungen, mit denen die API einen
// bereits laufenden Scan meldet.
func isAlreadyRunning(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "already running") ||
		strings.Contains(m, "already in progress") ||
		strings.Contains(m, "report is running")
}

// GetReportStatus liefert den normalisierten Status eines Reports.
func (c *Client) GetReportStatus(ctx context.Context, reportID string) (string, error) {
	params := url.Values{}
	params.Set("report-id", reportID)
	body, err := c.doLegacy(ctx, http.MethodGet, "/v4/ct/get", params)
	if err != nil {
		return "", err
	}

	raw := unwrapResponse(body)
	var payload struct {
		Status string `json:"status"`
		Report struct {
			Status string `json:"status"`
		} `json:"report"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("status-antwort konnte nicht geparst werden: %w", err)
	}
	return normalizeReportStatus(firstNonEmpty(payload.Status, payload.Report.Status)), nil
}

// GetReportResults liefert die Listungs-Ergebnisse eines abgeschlossenen
// Reports in normalisierter Form.
func (c *Client) GetReportResults(ctx context.Context, reportID string) ([]providers.CitationRecord, error) {
	params := url.Values{}
	params.Set("report-id", reportID)
	body, err := c.doLegacy(ctx, http.MethodGet, "/v4/ct/get-results", params)
	if err != nil {
		return nil, err
	}
	return parseResults(body)
}

// DeleteReport entfernt einen Citation-Tracker bei BrightLocal.
func (c *Client) DeleteReport(ctx context.Context, reportID string) error {
	params := url.Values{}
	params.Set("report-id", reportID)
	_, err := c.doLegacy(ctx, http.MethodDelete, "/v4/ct/delete", params)
	return err
}
