package brightlocal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"listing-hand/config"
	"listing-hand/models"
	"listing-hand/providers"
)

var _ providers.CitationService = (*Client)(nil)

// httpClient wird für alle Anfragen an BrightLocal verwendet.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Client kapselt beide BrightLocal-Oberflächen: die Resource-API (JSON,
// API-Key im Header) für Locations, Kategorien und Kampagnen sowie die
// Legacy-Tools-API (form-encoded) für den Report-Lebenszyklus (reports.go).
// Implementiert providers.CitationService.
type Client struct {
	Config *config.Config
	Logger *zap.Logger

	mu         sync.Mutex
	categories []category
}

// NewClient erstellt einen neuen BrightLocal-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// doResource schickt eine JSON-Anfrage an die Resource-API und gibt den
// Antwort-Body zurück.
func (c *Client) doResource(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Config.BrightLocalAPIBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.Config.BrightLocalAPIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		return nil, fmt.Errorf("brightlocal %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// loadCategories holt die Kategorienliste einmal und cached sie für die
// Lebensdauer des Clients.
func (c *Client) loadCategories(ctx context.Context) ([]category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.categories != nil {
		return c.categories, nil
	}

	body, err := c.doResource(ctx, http.MethodGet, "/manage/v1/data/business-categories", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Categories []category `json:"categories"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("kategorienliste konnte nicht geparst werden: %w", err)
	}
	if len(payload.Categories) == 0 {
		return nil, fmt.Errorf("brightlocal lieferte keine kategorien")
	}
	c.categories = payload.Categories
	c.Logger.Debug("BrightLocal categories cached", zap.Int("count", len(c.categories)))
	return c.categories, nil
}

// FindCategoryID löst den Kategorienamen des Business-Profils best-effort in
// eine BrightLocal-Kategorie-ID auf: exakter Treffer, sonst Präfix, sonst der
// erste Eintrag der Liste als Fallback.
func (c *Client) FindCategoryID(ctx context.Context, name string) (string, error) {
	cats, err := c.loadCategories(ctx)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for _, cat := range cats {
		if strings.ToLower(cat.Name) == needle {
			return cat.ID.String(), nil
		}
	}
	if needle != "" {
		for _, cat := range cats {
			if strings.HasPrefix(strings.ToLower(cat.Name), needle) {
				return cat.ID.String(), nil
			}
		}
	}
	c.Logger.Warn("No category match, falling back to first entry", zap.String("category", name))
	return cats[0].ID.String(), nil
}

// CreateLocation registriert einen Standort bei BrightLocal und gibt die
// externe Location-ID zurück.
func (c *Client) CreateLocation(ctx context.Context, loc *models.Location, categoryID string) (string, error) {
	payload := map[string]any{
		"name":                 loc.Name,
		"address1":             loc.Address,
		"city":                 loc.City,
		"region":               loc.Region,
		"postcode":             loc.PostalCode,
		"country":              loc.Country,
		"telephone":            loc.Phone,
		"business-category-id": categoryID,
	}
	body, err := c.doResource(ctx, http.MethodPost, "/manage/v1/clients-and-locations/locations", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		LocationID      flexID `json:"location-id"`
		LocationIDSnake flexID `json:"location_id"`
		ID              flexID `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("location-antwort konnte nicht geparst werden: %w", err)
	}
	id := firstNonEmpty(resp.LocationID.String(), resp.LocationIDSnake.String(), resp.ID.String())
	if id == "" {
		return "", fmt.Errorf("brightlocal lieferte keine location-id: %s", strings.TrimSpace(string(body)))
	}
	return id, nil
}

// CreateCampaign legt eine Citation-Builder-Kampagne für den Standort an.
func (c *Client) CreateCampaign(ctx context.Context, loc *models.Location) (string, error) {
	payload := map[string]any{
		"location-id": loc.ExternalLocationID,
		"name":        fmt.Sprintf("%s – %s", loc.Name, loc.City),
	}
	body, err := c.doResource(ctx, http.MethodPost, "/manage/v1/citation-builder/campaigns", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		CampaignID      flexID `json:"campaign-id"`
		CampaignIDSnake flexID `json:"campaign_id"`
		ID              flexID `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("kampagnen-antwort konnte nicht geparst werden: %w", err)
	}
	id := firstNonEmpty(resp.CampaignID.String(), resp.CampaignIDSnake.String(), resp.ID.String())
	if id == "" {
		return "", fmt.Errorf("brightlocal lieferte keine campaign-id: %s", strings.TrimSpace(string(body)))
	}
	return id, nil
}
