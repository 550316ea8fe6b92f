package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
)

// seedHistory saves reports into a fresh database and returns its directory
// and the saved ids in order.
func seedHistory(t *testing.T, reports ...*model.ScanReport) (string, []int64) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ids := make([]int64, 0, len(reports))
	for _, r := range reports {
		id, err := db.SaveScanReport(t.Context(), r)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		ids = append(ids, id)
	}
	return dir, ids
}

func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	phishURL := "http://paypa1-secure.login.example.com/signin"
	okURL := "https://www.example.com/"

	newReport := func(url, host, verdict string, alerted bool, at time.Time) *model.ScanReport {
		return &model.ScanReport{
			URL:         url,
			Hostname:    host,
			Verdict:     verdict,
			Alerted:     alerted,
			DateScanned: at,
			State:       model.StateSettled.String(),
		}
	}

	// Subtests share one database file and run in order.
	dbDir, ids := seedHistory(t,
		newReport(phishURL, "paypa1-secure.login.example.com", model.VerdictPhishing, true, base),
		newReport(okURL, "www.example.com", model.VerdictLegitimate, false, base.Add(time.Hour)),
		newReport(phishURL, "paypa1-secure.login.example.com", model.VerdictPhishing, true, base.Add(2*time.Hour)),
	)

	t.Run("lists scanned pages", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Scanned pages (2)") {
			t.Errorf("expected 2 pages, got:\n%s", stdout)
		}
		for _, u := range []string{phishURL, okURL} {
			if !strings.Contains(stdout, u) {
				t.Errorf("expected %s in output", u)
			}
		}
	})

	t.Run("shows the latest report of a page", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--json", phishURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc := decodeJSONReport(t, stdout)
		rep, ok := doc["report"].(map[string]any)
		if !ok {
			t.Fatalf("expected report object, got %v", doc)
		}
		if rep["url"] != phishURL {
			t.Errorf("url = %v, want %q", rep["url"], phishURL)
		}
		if !strings.HasPrefix(fmt.Sprint(rep["date_scanned"]), "2026-03-01T12:00:00") {
			t.Errorf("expected the latest scan, got %v", rep["date_scanned"])
		}
	})

	t.Run("lists the scans of a page", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--list", phishURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Scan history for "+phishURL+" (2 scans)") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("lists recent scans as JSON with a limit", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--list", "--limit", "2", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var scans []database.ScanMetadata
		if err := json.Unmarshal([]byte(stdout), &scans); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		if len(scans) != 2 {
			t.Fatalf("expected 2 scans, got %d", len(scans))
		}
		if scans[0].ID != ids[2] || scans[1].ID != ids[1] {
			t.Errorf("expected newest first, got ids %d, %d", scans[0].ID, scans[1].ID)
		}
	})

	t.Run("shows a report by id", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--id", fmt.Sprint(ids[1]))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "PHISHSCAN REPORT") || !strings.Contains(stdout, okURL) {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("counts scans per verdict", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--stats", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var counts map[string]int
		if err := json.Unmarshal([]byte(stdout), &counts); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		if counts[model.VerdictPhishing] != 2 || counts[model.VerdictLegitimate] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})

	t.Run("unknown id is an error", func(t *testing.T) {
		_, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--id", "999")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "https://unknown.example.org/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No scan history found for") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		_, _, err := executeRoot(t, nil, "history", "--db-dir", dbDir, "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected %v, got %v", config.ErrConflictingReportFormats, err)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		stdout, _, err := executeRoot(t, nil, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No scan history found.") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})
}
