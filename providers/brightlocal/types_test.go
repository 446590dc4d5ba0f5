package brightlocal

import (
	"os"
	"path/filepath"
	"testing"

	"listing-hand/providers"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func TestExtractReportID_NestedSnakeCase(t *testing.T) {
	data := loadFixture(t, "ct_add_nested.json")
	if got := extractReportID(data); got != "4482" {
		t.Fatalf("expected report id 4482, got %q", got)
	}
}

func TestExtractReportID_FlatDashCase(t *testing.T) {
	data := loadFixture(t, "ct_add_flat.json")
	if got := extractReportID(data); got != "4483" {
		t.Fatalf("expected report id 4483, got %q", got)
	}
}

func TestParseResults_FieldAliases(t *testing.T) {
	data := loadFixture(t, "ct_get_results.json")
	records, err := parseResults(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Directory != "yelp.com" {
		t.Fatalf("expected directory yelp.com, got %q", first.Directory)
	}
	if first.BusinessName != "Acme Dental" {
		t.Fatalf("expected business-name alias to map, got %q", first.BusinessName)
	}
	if first.Phone != "555-1212" {
		t.Fatalf("expected telephone alias to map, got %q", first.Phone)
	}

	second := records[1]
	if second.URL != "https://www.yellowpages.com/springfield/acme" {
		t.Fatalf("expected listing_url alias to map, got %q", second.URL)
	}
	if second.BusinessName != "ACME Dental" {
		t.Fatalf("expected business_name to map, got %q", second.BusinessName)
	}
	if second.Address != "12 Main St" {
		t.Fatalf("expected address to map, got %q", second.Address)
	}

	third := records[2]
	if third.Directory != "foursquare.com" {
		t.Fatalf("expected domain alias to map, got %q", third.Directory)
	}
	if third.URL != "" {
		t.Fatalf("expected empty url, got %q", third.URL)
	}
}

func TestNormalizeReportStatus(t *testing.T) {
	cases := map[string]string{
		"Complete":    providers.ReportStatusCompleted,
		"completed":   providers.ReportStatusCompleted,
		"In Progress": providers.ReportStatusInProgress,
		"running":     providers.ReportStatusInProgress,
		"queued":      providers.ReportStatusPending,
		"":            providers.ReportStatusPending,
	}
	for raw, want := range cases {
		if got := normalizeReportStatus(raw); got != want {
			t.Fatalf("normalizeReportStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestExtractErrors_Variants(t *testing.T) {
	if got := extractErrors([]byte(`{"success":false,"errors":"Report is running"}`)); got != "Report is running" {
		t.Fatalf("string variant: got %q", got)
	}
	if got := extractErrors([]byte(`{"errors":["bad key","expired"]}`)); got != "bad key; expired" {
		t.Fatalf("list variant: got %q", got)
	}
	if got := extractErrors([]byte(`{"errors":{"api-key":"invalid"}}`)); got != "api-key: invalid" {
		t.Fatalf("map variant: got %q", got)
	}
	if got := extractErrors([]byte(`{"success":true}`)); got != "" {
		t.Fatalf("no errors: got %q", got)
	}
}

func TestLegacySignature(t *testing.T) {
	got := legacySignature("test-key", "test-secret", 1700000000)
	want := "O186/AU1j41mQntzGyndWw=="
	if got != want {
		t.Fatalf("legacySignature = %q, want %q", got, want)
	}
}
