package services

import (
	"fmt"
	"strings"

	"listing-hand/models"
	"listing-hand/providers"
)

// ExpectedNAP ist der Soll-Zustand eines Standorts zum Pull-Zeitpunkt. Der
// Snapshot wird einmal pro Audit gezogen, nicht pro Listung.
type ExpectedNAP struct {
	Name    string
	Address string
	Phone   string
}

// ListingEvaluation ist das Ergebnis des NAP-Vergleichs für eine Listung.
type ListingEvaluation struct {
	Live           bool
	NameMatch      bool
	AddressMatch   bool
	PhoneMatch     bool
	NapCorrect     bool
	Status         string
	Recommendation string
}

// matchField vergleicht einen gefundenen Wert case-sensitiv mit dem
// Soll-Wert. Ein leerer Fundwert bedeutet "keine Information" und zählt als
// Treffer, nicht als Abweichung — diese Policy verändert die Korrektheits-
// Zählung wesentlich und darf nicht angefasst werden.
func matchField(found, expected string) bool {
	if found == "" {
		return true
	}
	return found == expected
}

// isLive meldet, ob die Listung laut Report aktiv ist: entweder trägt der
// Eintrag einen Live/Active-Status oder eine nicht-leere Listing-URL.
func isLive(rec providers.CitationRecord) bool {
	status := strings.ToLower(strings.TrimSpace(rec.Status))
	switch status {
	case "live", "active", "online":
		return true
	}
	return rec.URL != ""
}

// EvaluateListing berechnet Match-Flags, Status und Empfehlungstext für eine
// Listung. Der Address-Vergleich ist eine bekannte Schwachstelle: die
// Legacy-Ergebnisse liefern meist keine Adressdaten, dann bleibt das Flag
// konstant true und fließt entsprechend in nap_correct ein.
func EvaluateListing(rec providers.CitationRecord, expected ExpectedNAP) ListingEvaluation {
	eval := ListingEvaluation{
		Live:         isLive(rec),
		NameMatch:    matchField(rec.BusinessName, expected.Name),
		AddressMatch: matchField(rec.Address, expected.Address),
		PhoneMatch:   matchField(rec.Phone, expected.Phone),
	}
	eval.NapCorrect = eval.NameMatch && eval.AddressMatch && eval.PhoneMatch

	switch {
	case !eval.Live:
		eval.Status = models.ListingStatusNotListed
	case eval.NapCorrect:
		eval.Status = models.ListingStatusFound
	default:
		eval.Status = models.ListingStatusActionNeeded
	}

	eval.Recommendation = buildRecommendation(eval, rec.Directory)
	return eval
}

// buildRecommendation rendert den Empfehlungstext für die Remediation-UI.
// Templated, keine KI.
func buildRecommendation(eval ListingEvaluation, directory string) string {
	switch eval.Status {
	case models.ListingStatusNotListed:
		return fmt.Sprintf("Not listed on %s. Submit business listing to improve local search presence.", directory)
	case models.ListingStatusActionNeeded:
		var fields []string
		if !eval.NameMatch {
			fields = append(fields, "name")
		}
		if !eval.AddressMatch {
			fields = append(fields, "address")
		}
		if !eval.PhoneMatch {
			fields = append(fields, "phone")
		}
		return fmt.Sprintf("Incorrect %s on %s. Update the listing to match the business profile.",
			strings.Join(fields, ", "), directory)
	default:
		return ""
	}
}
