package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ccollicutt/codephoenix/pkg/github"
	"github.com/ccollicutt/codephoenix/pkg/output"
	"github.com/ccollicutt/codephoenix/pkg/resultsfile"
)

// newSearchServer answers page 1 of every search with one item and later
// pages with nothing.
func newSearchServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		if r.URL.Path != "/search/code" || r.Header.Get("Authorization") != "token "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		res := github.SearchResult{}
		if r.URL.Query().Get("page") == "1" {
			res.TotalCount = 1
			res.Items = []github.CodeItem{{
				Path:       "settings/prod.env",
				HTMLURL:    "https://github.com/acme/app/blob/abc/settings/prod.env",
				Repository: github.Repository{FullName: "acme/app"},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(server.Close)
	return server
}

func scanArgs(t *testing.T, apiURL, outFile string, extra ...string) []string {
	t.Helper()
	args := []string{
		"--env-file", noEnvFile(t),
		"--token", testToken,
		"--api-url", apiURL,
		"--pages", "1",
		"--sleep-time", "0",
		"--output-file", outFile,
		"--no-color",
	}
	return append(args, extra...)
}

func TestRunScan_Text(t *testing.T) {
	clearEnv(t)
	server := newSearchServer(t, nil)
	outFile := filepath.Join(t.TempDir(), "scan_results.json")

	stdout, stderr, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile, "db_password")...)
	if err != nil {
		t.Fatalf("scan failed: %v\nstderr: %s", err, stderr)
	}

	assertContains(t, stdout,
		"=== Termo: db_password ===",
		"Página 1",
		"📁 acme/app - settings/prod.env",
		"🔗 https://github.com/acme/app/blob/abc/settings/prod.env",
		"CodePhoenix: 1 terms searched, 1 with matches, 1 total matches",
	)
	assertContains(t, stderr, "starting scan", "results saved")
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1 when matches are found", ExitCode)
	}

	env, err := resultsfile.Load(context.Background(), outFile)
	if err != nil {
		t.Fatalf("loading saved results: %v", err)
	}
	if env.Status != resultsfile.StatusSuccess || env.TotalResults != 1 || !env.ResultsFound {
		t.Errorf("saved envelope = %+v", env)
	}
	if len(env.Terms) != 1 || env.Terms[0] != "db_password" {
		t.Errorf("saved terms = %v", env.Terms)
	}
}

func TestRunScan_SearchTermsFlagAndQuiet(t *testing.T) {
	clearEnv(t)
	var requests atomic.Int32
	server := newSearchServer(t, &requests)
	outFile := filepath.Join(t.TempDir(), "out.json")

	stdout, _, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile, "--search-terms", "one, two", "--quiet")...)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if strings.Contains(stdout, "=== Termo:") {
		t.Error("quiet scan echoed the transcript")
	}
	assertContains(t, stdout, "CodePhoenix: 2 terms searched, 2 with matches, 2 total matches")
	if requests.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", requests.Load())
	}
}

func TestRunScan_JSON(t *testing.T) {
	clearEnv(t)
	server := newSearchServer(t, nil)
	outFile := filepath.Join(t.TempDir(), "out.json")

	stdout, _, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile, "-o", "json", "token_value")...)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if report.Summary.TotalMatches != 1 || report.Metadata.ScanID == "" {
		t.Errorf("report = %+v", report)
	}
	if report.Groups[0].Items[0].URL != "https://github.com/acme/app/blob/main/settings/prod.env" {
		t.Errorf("item URL = %q", report.Groups[0].Items[0].URL)
	}
}

func TestRunScan_EnvironmentTerms(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEARCH_TERM", "from-env")
	server := newSearchServer(t, nil)
	outFile := filepath.Join(t.TempDir(), "out.json")

	stdout, _, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile)...)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	assertContains(t, stdout, "=== Termo: from-env ===")
}

func TestRunScan_Webhook(t *testing.T) {
	clearEnv(t)
	server := newSearchServer(t, nil)

	var hooked atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooked.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	outFile := filepath.Join(t.TempDir(), "out.json")
	_, stderr, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile, "--webhook-url", hook.URL, "leaked")...)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if hooked.Load() != 1 {
		t.Errorf("webhook called %d times, want 1", hooked.Load())
	}
	assertContains(t, stderr, "webhook sent")
}

func TestRunScan_ConfigErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no token", []string{"--env-file", noEnvFile(t), "term"}, "github_token"},
		{"no terms", []string{"--env-file", noEnvFile(t), "--token", testToken}, "search_terms"},
		{"bad page size", []string{"--env-file", noEnvFile(t), "--token", testToken, "--results-per-page", "500", "x"}, "results_per_page"},
		{"bad date", []string{"--env-file", noEnvFile(t), "--token", testToken, "--start-date", "01/02/2023", "--end-date", "2023-02-01", "x"}, "start_date"},
		{"bad format", []string{"--env-file", noEnvFile(t), "-o", "xml", "x"}, "unknown output format"},
		{"missing config", []string{"--env-file", noEnvFile(t), "--config", filepath.Join(dir, "none.yaml")}, "loading config"},
		{"bad webhook trigger", []string{"--env-file", noEnvFile(t), "--token", testToken, "--webhook-url", "https://hooks.example.com", "--webhook-trigger", "alwyas", "x"}, "invalid trigger"},
		{"bad webhook url", []string{"--env-file", noEnvFile(t), "--token", testToken, "--webhook-url", "hooks.example.com", "x"}, "webhook-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, context.Background(), NewScanCommand(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunScan_InvalidWebhookStopsBeforeSearching(t *testing.T) {
	clearEnv(t)
	var requests atomic.Int32
	server := newSearchServer(t, &requests)
	outFile := filepath.Join(t.TempDir(), "out.json")

	_, _, err := runCommand(t, context.Background(), NewScanCommand(),
		scanArgs(t, server.URL, outFile, "--webhook-url", "https://hooks.example.com", "--webhook-trigger", "sometimes", "leaked")...)
	if err == nil || !strings.Contains(err.Error(), "invalid trigger") {
		t.Fatalf("error = %v, want invalid trigger", err)
	}
	if requests.Load() != 0 {
		t.Errorf("search requests = %d, want 0", requests.Load())
	}
	if _, err := os.Stat(outFile); !os.IsNotExist(err) {
		t.Errorf("results file written despite invalid configuration: %v", err)
	}
}

func TestRunScan_CanceledSavesPartialResults(t *testing.T) {
	clearEnv(t)
	server := newSearchServer(t, nil)
	outFile := filepath.Join(t.TempDir(), "out.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := runCommand(t, ctx, NewScanCommand(), scanArgs(t, server.URL, outFile, "x")...)
	if err == nil || !strings.Contains(err.Error(), "scan failed") {
		t.Fatalf("error = %v, want scan failed", err)
	}

	env, err := resultsfile.Load(context.Background(), outFile)
	if err != nil {
		t.Fatalf("loading partial results: %v", err)
	}
	if env.Status != resultsfile.StatusError || !strings.Contains(env.Error, "canceled") {
		t.Errorf("envelope status = %q error = %q", env.Status, env.Error)
	}
	if !strings.Contains(env.Output, "=== Termo: x ===") {
		t.Errorf("partial output = %q", env.Output)
	}
}
