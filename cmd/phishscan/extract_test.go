package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/phishscan/internal/feature"
)

func TestRunExtractCmd(t *testing.T) {
	t.Parallel()

	// decodeRecord decodes the printed feature record.
	decodeRecord := func(t *testing.T, out string) map[string]float64 {
		t.Helper()
		var rec map[string]float64
		if err := json.Unmarshal([]byte(out), &rec); err != nil {
			t.Fatalf("output is not a feature record: %v\n%s", err, out)
		}
		return rec
	}

	t.Run("prints every feature of a snapshot file", func(t *testing.T) {
		t.Parallel()

		snapPath := writeTestFile(t, "snapshot.json", phishingSnapshot)
		stdout, _, err := executeRoot(t, nil, "extract", "--config", writeTestConfig(t, "http://127.0.0.1:8000"), snapPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := decodeRecord(t, stdout)
		if len(rec) != 42 {
			t.Errorf("expected 42 features, got %d", len(rec))
		}
		if rec[feature.IsHTTPS] != 0 {
			t.Errorf("%s = %v, want 0", feature.IsHTTPS, rec[feature.IsHTTPS])
		}
		if !strings.Contains(stdout, "\n  \"URLLength\"") {
			t.Errorf("expected indented output, got:\n%s", stdout)
		}
	})

	t.Run("reads standard input and overrides the URL", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, strings.NewReader(phishingSnapshot),
			"extract", "--config", writeTestConfig(t, "http://127.0.0.1:8000"),
			"--url", "https://example.com/", "--compact")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Count(strings.TrimSpace(stdout), "\n") != 0 {
			t.Errorf("expected a single line, got:\n%s", stdout)
		}
		rec := decodeRecord(t, stdout)
		if rec[feature.IsHTTPS] != 1 {
			t.Errorf("%s = %v, want 1", feature.IsHTTPS, rec[feature.IsHTTPS])
		}
		if rec[feature.URLLength] != float64(len("https://example.com/")) {
			t.Errorf("%s = %v, want %d", feature.URLLength, rec[feature.URLLength], len("https://example.com/"))
		}
	})

	t.Run("first key is URLLength", func(t *testing.T) {
		t.Parallel()

		snapPath := writeTestFile(t, "snapshot.json", phishingSnapshot)
		stdout, _, err := executeRoot(t, nil, "extract", "--config", writeTestConfig(t, "http://127.0.0.1:8000"), "--compact", snapPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, `{"URLLength":`) {
			t.Errorf("expected record order, got %s", stdout)
		}
	})

	t.Run("rejects a file that is not JSON", func(t *testing.T) {
		t.Parallel()

		badPath := writeTestFile(t, "bad.json", "<html></html>")
		_, _, err := executeRoot(t, nil, "extract", "--config", writeTestConfig(t, "http://127.0.0.1:8000"), badPath)
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
