package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.ScanReport {
	return &model.ScanReport{
		URL:         "https://paypa1-login.example.com/verify?id=1",
		Hostname:    "paypa1-login.example.com",
		Title:       "Sign in to your account",
		DateScanned: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		Features: model.NewFeatureRecord([]model.Feature{
			model.Count("URLLength", 44),
			model.Flag("HasPasswordField", true),
			model.Ratio("LetterRatioInURL", 3, 4),
		}),
		TitleMatch: model.TitleMatch{Domain: 0, URL: 0},
		Verdict:    model.VerdictPhishing,
		Explanation: []model.Contribution{
			{Feature: "HasPasswordField", Value: 0.52, Text: "The page asks for a password"},
			{Feature: "URLLength", Value: -0.11, Text: "Length of the URL"},
		},
		Alerted:        true,
		State:          "alert_dispatched",
		PerformedSteps: []string{"extract", "trusted_domain", "classify", "alert"},
	}
}

func createFailedReport() *model.ScanReport {
	return &model.ScanReport{
		URL:          "https://down.example.com/",
		Hostname:     "down.example.com",
		DateScanned:  time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		State:        "settled",
		ErrorMessage: "classifier request failed",
	}
}

func TestVerdictLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verdict string
		want    string
	}{
		{model.VerdictPhishing, "Phishing"},
		{model.VerdictLegitimate, "Legitimate"},
		{"suspicious", "Suspicious"},
		{"", "No verdict"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := VerdictLabel(tt.verdict); got != tt.want {
				t.Errorf("VerdictLabel(%q) = %q, want %q", tt.verdict, got, tt.want)
			}
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	t.Run("contribution", func(t *testing.T) {
		t.Parallel()

		got := FormatContribution(1, model.Contribution{Feature: "IsHTTPS", Value: -0.25, Text: "uses https"})
		if got != "1. IsHTTPS (-0.2500): uses https" {
			t.Errorf("FormatContribution() = %q", got)
		}
	})

	t.Run("feature values", func(t *testing.T) {
		t.Parallel()

		if got := FormatFeatureValue(model.Count("NoOfJS", 7)); got != "7" {
			t.Errorf("count = %q", got)
		}
		if got := FormatFeatureValue(model.Flag("IsHTTPS", true)); got != "1" {
			t.Errorf("flag = %q", got)
		}
		if got := FormatFeatureValue(model.Ratio("LetterRatioInURL", 1, 3)); got != "0.3333" {
			t.Errorf("ratio = %q", got)
		}
	})

	t.Run("truncate", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			input  string
			maxLen int
			want   string
		}{
			{"short", 10, "short"},
			{"exactly10!", 10, "exactly10!"},
			{"this is too long", 10, "this is..."},
			{"abcdef", 3, "abc"},
			{"ああああああ", 5, "ああ..."},
		}
		for _, tt := range tests {
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		}
	})
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	legit := createTestReport()
	legit.Verdict = model.VerdictLegitimate
	legit.Alerted = false
	other := createTestReport()
	other.Verdict = "suspicious"
	other.Alerted = false

	s := NewSummary([]*model.ScanReport{createTestReport(), legit, other, createFailedReport(), nil})

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.Phishing != 1 || s.Legitimate != 1 || s.Other != 1 || s.Unclassified != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Alerted != 1 {
		t.Errorf("Alerted = %d, want 1", s.Alerted)
	}
	if len(s.Reports) != 4 {
		t.Errorf("expected nil report to be skipped, got %d reports", len(s.Reports))
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and explanation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"PHISHSCAN REPORT",
			"https://paypa1-login.example.com/verify?id=1",
			"Verdict:        Phishing",
			"Alert:          dispatched",
			"Status:         Complete",
			"EXPLANATION",
			"1. HasPasswordField (+0.5200): The page asks for a password",
			"2. URLLength (-0.1100): Length of the URL",
			"TITLE MATCH",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "FEATURES") {
			t.Error("features should only be shown in verbose mode")
		}
	})

	t.Run("verbose shows features", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FEATURES") {
			t.Error("expected features section")
		}
		if !strings.Contains(output, "LetterRatioInURL") || !strings.Contains(output, "0.7500") {
			t.Error("expected ratio feature value")
		}
	})

	t.Run("failed report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Verdict:        No verdict") {
			t.Error("expected no verdict label")
		}
		if !strings.Contains(output, "ERROR - classifier request failed") {
			t.Error("expected error status")
		}
		if strings.Contains(output, "EXPLANATION") {
			t.Error("empty explanation should be hidden")
		}
	})

	t.Run("show empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Not available") {
			t.Error("expected empty explanation placeholder")
		}
	})

	t.Run("trusted domain reason", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Verdict = model.VerdictLegitimate
		r.Reason = "trusted domain"
		r.Explanation = nil
		r.Alerted = false

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Skipped classifier - trusted domain") {
			t.Error("expected trusted domain status")
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		summary := NewSummary([]*model.ScanReport{createTestReport(), createFailedReport()})
		n, err := NewSimpleWriter(&buf).WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, buffer has %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"PHISHSCAN SUMMARY",
			"Pages Analyzed: 2",
			"PHISHING:     1",
			"UNCLASSIFIED: 1",
			"[!!!] https://paypa1-login.example.com/verify?id=1 (Phishing)",
			"[?] https://down.example.com/ (No verdict)",
			"Error: classifier request failed",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output keeps feature order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.HasSuffix(output, "\n") {
			t.Error("expected trailing newline")
		}
		if strings.Contains(output, "\n  ") {
			t.Error("expected compact output")
		}
		want := `"features":{"URLLength":44,"HasPasswordField":1,"LetterRatioInURL":0.75}`
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in %s", want, output)
		}

		var decoded model.ScanReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Verdict != model.VerdictPhishing || !decoded.Alerted {
			t.Errorf("unexpected decoded report: %+v", decoded)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"url\"") {
			t.Error("expected prefix and tab indentation")
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		summary := NewSummary([]*model.ScanReport{createTestReport()})
		if _, err := NewJSONWriter(&buf).WriteSummary(summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Total    int                 `json:"total"`
			Phishing int                 `json:"phishing"`
			Reports  []*model.ScanReport `json:"reports"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Total != 1 || decoded.Phishing != 1 || len(decoded.Reports) != 1 {
			t.Errorf("unexpected summary: %+v", decoded)
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "v1.2.3")
	if _, err := w.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("Version = %q", decoded.Version)
	}
	if decoded.Report == nil || decoded.Report.Hostname != "paypa1-login.example.com" {
		t.Errorf("unexpected report: %+v", decoded.Report)
	}
	if decoded.Summary != nil {
		t.Error("summary should be omitted for a single report")
	}

	buf.Reset()
	if _, err := w.WriteSummary(NewSummary([]*model.ScanReport{createTestReport()})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded = JSONReport{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Summary == nil || decoded.Summary.Total != 1 || decoded.Report != nil {
		t.Errorf("unexpected wrapper: %+v", decoded)
	}
}

type failingWriter struct{}

func (failingWriter) Write(*model.ScanReport) (int, error) { return 0, errors.New("boom") }

func (failingWriter) WriteSummary(*Summary) (int, error) { return 0, errors.New("boom") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var simple, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&simple), NewJSONWriter(&js))

		n, err := m.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != simple.Len()+js.Len() {
			t.Errorf("total bytes = %d, want %d", n, simple.Len()+js.Len())
		}
		if simple.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := m.Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if _, err := m.WriteSummary(NewSummary(nil)); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("writer after the failing one should not run")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("phishing report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# phishscan Report",
			"`https://paypa1-login.example.com/verify?id=1`",
			"[!CAUTION]",
			"## Explanation",
			"HasPasswordField",
			"+0.5200",
			"## Features",
			"0.7500",
			"Report generated by [phishscan]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("failed report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected warning alert")
		}
		if !strings.Contains(output, "Not available.") {
			t.Error("expected empty explanation text")
		}
		if strings.Contains(output, "## Features") {
			t.Error("features section should be omitted without features")
		}
	})

	t.Run("legitimate report", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Verdict = model.VerdictLegitimate
		r.Alerted = false

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected tip alert")
		}
	})

	t.Run("summary with chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		summary := NewSummary([]*model.ScanReport{createTestReport(), createFailedReport()})
		if _, err := NewMarkdownWriter(&buf).WriteSummary(summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# phishscan Summary",
			"pie",
			"## Pages",
			"[!CAUTION]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(NewSummary(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "pie") {
			t.Error("no chart expected for an empty summary")
		}
		if !strings.Contains(output, "[!NOTE]") {
			t.Error("expected note alert")
		}
	})
}
