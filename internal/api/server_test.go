package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/app"
	"github.com/openquant/hindsight/internal/config"
	"github.com/openquant/hindsight/internal/core"
	"github.com/openquant/hindsight/internal/provider"
)

// newTestServer builds a server over a seeded temp database.
func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Provider.Path = filepath.Join(dir, "bars.db")
	cfg.Archive.Path = filepath.Join(dir, "reports")

	seed, err := provider.NewSQLite(cfg.Provider.Path)
	if err != nil {
		t.Fatalf("seeding db: %v", err)
	}
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, 60)
	for i := range bars {
		px := 10.0
		if i == len(bars)-1 {
			px = 10.15 // breakout on the final bar
		}
		bars[i] = core.PriceBar{Date: base.AddDate(0, 0, i), Close: px, Volume: 1000}
	}
	if err := seed.SaveBars(context.Background(), "600000", bars); err != nil {
		t.Fatalf("seeding bars: %v", err)
	}
	seed.Close()

	a, err := app.New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return NewServer(Config{
		Host:        "127.0.0.1",
		Port:        0,
		APIKey:      apiKey,
		MaxJobs:     10,
		JobTTL:      time.Hour,
		MetricsPath: "/metrics",
	}, a, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path, apiKey, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return rec, decoded
}

func TestHealthOpen(t *testing.T) {
	srv := newTestServer(t, "secret")
	rec, _ := doJSON(t, srv.Handler(), http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestAPIRequiresKey(t *testing.T) {
	srv := newTestServer(t, "secret")

	rec, _ := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/strategies", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/strategies", "secret", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

func TestListStrategies(t *testing.T) {
	srv := newTestServer(t, "")

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/strategies", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data, ok := body["data"].([]any)
	if !ok || len(data) == 0 {
		t.Fatalf("data = %v, want non-empty strategy list", body["data"])
	}
	first := data[0].(map[string]any)
	if first["name"] != "stagebreak" {
		t.Errorf("strategy = %v, want stagebreak", first["name"])
	}
}

func TestScanLifecycle(t *testing.T) {
	srv := newTestServer(t, "")

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/scans", "",
		`{"strategy":"stagebreak","symbols":["600000"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d, want 202: %v", rec.Code, body)
	}
	jobID, _ := body["data"].(map[string]any)["job_id"].(string)
	if jobID == "" {
		t.Fatal("no job_id in response")
	}

	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		rec, body = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/scans/"+jobID, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d, want 200", rec.Code)
		}
		status, _ = body["data"].(map[string]any)["status"].(string)
		if status == "complete" || status == "failed" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if status != "complete" {
		t.Fatalf("job status = %s, want complete", status)
	}

	// The finished scan shows up in the report archive.
	rec, body = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/reports?strategy=stagebreak", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reports status = %d, want 200", rec.Code)
	}
	if paths, ok := body["data"].([]any); !ok || len(paths) != 1 {
		t.Errorf("reports = %v, want one archived report", body["data"])
	}
}

func TestScanValidation(t *testing.T) {
	srv := newTestServer(t, "")

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/scans", "",
		`{"symbols":["600000"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing strategy: status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/scans", "",
		`{"strategy":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown strategy: status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/scans", "",
		`{"strategy":"stagebreak","policy":{"success_threshold":-0.5}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid policy override: status = %d, want 400", rec.Code)
	}
}

func TestScanStatusNotFound(t *testing.T) {
	srv := newTestServer(t, "")
	rec, _ := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/scans/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// Metrics are scraped without the API key.
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hindsight_") {
		t.Error("metrics output missing engine collectors")
	}
}
