package services

import (
	"testing"

	"listing-hand/models"
	"listing-hand/providers"
)

func TestEvaluateListing_MissingFieldIsVacuousMatch(t *testing.T) {
	// Ein fehlender Fundwert ist "keine Information", keine Abweichung.
	expected := ExpectedNAP{Name: "Acme Dental", Phone: "555-1212"}
	rec := providers.CitationRecord{
		Directory: "yelp.com",
		URL:       "https://yelp.com/biz/acme-dental",
		Status:    "live",
		Phone:     "555-1212",
	}

	eval := EvaluateListing(rec, expected)
	if !eval.NameMatch {
		t.Fatalf("expected name_match true for missing found name, got false")
	}
	if !eval.PhoneMatch {
		t.Fatalf("expected phone_match true, got false")
	}
	if !eval.NapCorrect {
		t.Fatalf("expected nap_correct true, got false")
	}
	if eval.Status != models.ListingStatusFound {
		t.Fatalf("expected status %q, got %q", models.ListingStatusFound, eval.Status)
	}
	if eval.Recommendation != "" {
		t.Fatalf("expected empty recommendation for correct listing, got %q", eval.Recommendation)
	}
}

func TestEvaluateListing_CaseSensitiveMismatch(t *testing.T) {
	expected := ExpectedNAP{Name: "Acme Dental", Phone: "555-1212"}
	rec := providers.CitationRecord{
		Directory:    "yellowpages.com",
		URL:          "https://yellowpages.com/acme",
		BusinessName: "ACME Dental",
		Phone:        "555-1212",
	}

	eval := EvaluateListing(rec, expected)
	if eval.NameMatch {
		t.Fatalf("expected case-sensitive name mismatch")
	}
	if eval.NapCorrect {
		t.Fatalf("expected nap_correct false")
	}
	if eval.Status != models.ListingStatusActionNeeded {
		t.Fatalf("expected status %q, got %q", models.ListingStatusActionNeeded, eval.Status)
	}
	want := "Incorrect name on yellowpages.com. Update the listing to match the business profile."
	if eval.Recommendation != want {
		t.Fatalf("unexpected recommendation: %q", eval.Recommendation)
	}
}

func TestEvaluateListing_NotListed(t *testing.T) {
	expected := ExpectedNAP{Name: "Acme Dental", Phone: "555-1212"}
	rec := providers.CitationRecord{Directory: "foursquare.com", Status: "not found"}

	eval := EvaluateListing(rec, expected)
	if eval.Live {
		t.Fatalf("expected listing not live")
	}
	if eval.Status != models.ListingStatusNotListed {
		t.Fatalf("expected status %q, got %q", models.ListingStatusNotListed, eval.Status)
	}
	want := "Not listed on foursquare.com. Submit business listing to improve local search presence."
	if eval.Recommendation != want {
		t.Fatalf("unexpected recommendation: %q", eval.Recommendation)
	}
}

func TestEvaluateListing_URLAloneMeansLive(t *testing.T) {
	// Auch ohne Live-Status zählt eine nicht-leere Listing-URL als aktiv.
	rec := providers.CitationRecord{
		Directory: "facebook.com",
		URL:       "https://facebook.com/acmedental",
	}
	eval := EvaluateListing(rec, ExpectedNAP{Name: "Acme Dental"})
	if !eval.Live {
		t.Fatalf("expected live via URL")
	}
	if eval.Status != models.ListingStatusFound {
		t.Fatalf("expected status %q, got %q", models.ListingStatusFound, eval.Status)
	}
}

func TestEvaluateListing_MultipleMismatchedFieldsJoined(t *testing.T) {
	expected := ExpectedNAP{Name: "Acme Dental", Address: "12 Main St", Phone: "555-1212"}
	rec := providers.CitationRecord{
		Directory:    "bing.com",
		URL:          "https://bing.com/maps/acme",
		BusinessName: "Acme Dentistry",
		Address:      "14 Main St",
		Phone:        "555-0000",
	}

	eval := EvaluateListing(rec, expected)
	want := "Incorrect name, address, phone on bing.com. Update the listing to match the business profile."
	if eval.Recommendation != want {
		t.Fatalf("unexpected recommendation: %q", eval.Recommendation)
	}
}

func TestEvaluateListing_AddressFallbackAlwaysTrue(t *testing.T) {
	// Liefert der Dienst keine Adressdaten, bleibt das Address-Flag true und
	// drückt nap_correct nicht — bewusst beibehaltene Schwachstelle.
	expected := ExpectedNAP{Name: "Acme Dental", Address: "12 Main St", Phone: "555-1212"}
	rec := providers.CitationRecord{
		Directory:    "google.com",
		URL:          "https://maps.google.com/acme",
		BusinessName: "Acme Dental",
		Phone:        "555-1212",
	}

	eval := EvaluateListing(rec, expected)
	if !eval.AddressMatch {
		t.Fatalf("expected address_match true when service provides no address")
	}
	if !eval.NapCorrect {
		t.Fatalf("expected nap_correct true")
	}
}
