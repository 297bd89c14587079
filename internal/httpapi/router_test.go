package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playlistforge/internal/model"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		OutDir:     t.TempDir(),
		ReportPath: filepath.Join(t.TempDir(), "report.json"),
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(testOptions(t)), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestListPlaylists(t *testing.T) {
	opt := testOptions(t)
	for _, name := range []string{"8k_bob.m3u", "8k_alice.m3u", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(opt.OutDir, name), []byte("#EXTM3U\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	rec := get(t, NewRouter(opt), "/playlists")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var got []playlistInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want=2 (non-.m3u files hidden)", len(got))
	}
	// Sorted by label.
	if got[0].Label != "8k_alice" || got[1].Label != "8k_bob" {
		t.Fatalf("labels=%+v", got)
	}
}

func TestListPlaylists_MissingDirIsEmpty(t *testing.T) {
	opt := testOptions(t)
	opt.OutDir = filepath.Join(opt.OutDir, "does-not-exist")

	rec := get(t, NewRouter(opt), "/playlists")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestDownloadPlaylist(t *testing.T) {
	opt := testOptions(t)
	body := "#EXTM3U\n#EXTINF:-1,X\nhttp://e/x\n"
	if err := os.WriteFile(filepath.Join(opt.OutDir, "8k_alice.m3u"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := get(t, NewRouter(opt), "/playlists/8k_alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != body {
		t.Fatalf("body=%q", rec.Body.String())
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="8k_alice.m3u"`) {
		t.Fatalf("content-disposition=%q", cd)
	}
}

func TestDownloadPlaylist_NotFound(t *testing.T) {
	rec := get(t, NewRouter(testOptions(t)), "/playlists/8k_ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	var resp model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("code=%q", resp.Error.Code)
	}
}

func TestDownloadPlaylist_BadLabel(t *testing.T) {
	for _, label := range []string{"a%5Cb", "..", "x..y"} {
		rec := get(t, NewRouter(testOptions(t)), "/playlists/"+label)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: status=%d", label, rec.Code)
		}
	}
}

func TestReport(t *testing.T) {
	opt := testOptions(t)
	report := `{"run_id": "r1", "filter": {"included": 7, "excluded": 1, "policy_misses": 0, "renamed": 0, "included_by_group": {}, "excluded_by_group": {}}}`
	if err := os.WriteFile(opt.ReportPath, []byte(report), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := get(t, NewRouter(opt), "/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"run_id":"r1"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestReport_NotFound(t *testing.T) {
	rec := get(t, NewRouter(testOptions(t)), "/report")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	rec := get(t, NewHandler(testOptions(t)), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "playlistforge_http_requests_total") {
		// Counters register lazily; at minimum the endpoint must serve the
		// default registry.
		if !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Fatalf("metrics body=%q", rec.Body.String()[:100])
		}
	}
}
