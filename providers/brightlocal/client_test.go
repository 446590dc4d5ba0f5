package brightlocal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"listing-hand/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BrightLocalAPIKey:       "test-key",
		BrightLocalAPIBaseURL:   srv.URL,
		BrightLocalToolsBaseURL: srv.URL,
	}
	return NewClient(cfg, zap.NewNop()), srv
}

func categoriesHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"categories":[
			{"id":100,"name":"Accountant"},
			{"id":200,"name":"Dentist"},
			{"id":300,"name":"Dental Hygienist"}
		]}`))
	})
}

func TestFindCategoryID_ExactMatch(t *testing.T) {
	client, _ := newTestClient(t, categoriesHandler(t))
	id, err := client.FindCategoryID(context.Background(), "dentist")
	if err != nil {
		t.Fatalf("FindCategoryID: %v", err)
	}
	if id != "200" {
		t.Fatalf("expected category 200, got %q", id)
	}
}

func TestFindCategoryID_PrefixMatch(t *testing.T) {
	client, _ := newTestClient(t, categoriesHandler(t))
	id, err := client.FindCategoryID(context.Background(), "Dental")
	if err != nil {
		t.Fatalf("FindCategoryID: %v", err)
	}
	if id != "300" {
		t.Fatalf("expected category 300 via prefix, got %q", id)
	}
}

func TestFindCategoryID_Fallback(t *testing.T) {
	client, _ := newTestClient(t, categoriesHandler(t))
	id, err := client.FindCategoryID(context.Background(), "Falconry Supplies")
	if err != nil {
		t.Fatalf("FindCategoryID: %v", err)
	}
	if id != "100" {
		t.Fatalf("expected fallback to first category, got %q", id)
	}
}

func TestStartScan_AlreadyRunningIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("api-key"); got != "test-key" {
			t.Errorf("expected api-key parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"errors":"Report is running"}`))
	}))

	alreadyRunning, err := client.StartScan(context.Background(), "4482")
	if err != nil {
		t.Fatalf("expected no error for already-running signal, got %v", err)
	}
	if !alreadyRunning {
		t.Fatalf("expected alreadyRunning true")
	}
}

func TestStartScan_HardError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"errors":{"report-id":"not found"}}`))
	}))

	_, err := client.StartScan(context.Background(), "9999")
	if err == nil {
		t.Fatalf("expected hard error")
	}
}

func TestDoLegacy_SignedModeAddsSignature(t *testing.T) {
	var gotSig, gotExpires string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.FormValue("sig")
		gotExpires = r.FormValue("expires")
		w.Write([]byte(`{"success":true}`))
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BrightLocalAPIKey:       "test-key",
		BrightLocalAPISecret:    "test-secret",
		BrightLocalToolsBaseURL: srv.URL,
	}
	client := NewClient(cfg, zap.NewNop())

	if _, err := client.doLegacy(context.Background(), http.MethodPost, "/v4/ct/run", nil); err != nil {
		t.Fatalf("doLegacy: %v", err)
	}
	if gotSig == "" || gotExpires == "" {
		t.Fatalf("expected sig and expires parameters in signed mode, got sig=%q expires=%q", gotSig, gotExpires)
	}
}

func TestGetReportStatus_NestedReportEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"response":{"report":{"status":"In Progress"}}}`))
	}))

	status, err := client.GetReportStatus(context.Background(), "4482")
	if err != nil {
		t.Fatalf("GetReportStatus: %v", err)
	}
	if status != "in_progress" {
		t.Fatalf("expected in_progress, got %q", status)
	}
}
