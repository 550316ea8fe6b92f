package model

import (
	"testing"
	"time"
)

// TestAnalysisResultIsPhishing tests the exact verdict match.
func TestAnalysisResultIsPhishing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verdict string
		want    bool
	}{
		{"phishing", true},
		{"Phishing", false},
		{"phishing ", false},
		{"legitimate", false},
		{"benign", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			t.Parallel()

			r := &AnalysisResult{Verdict: tt.verdict}
			if got := r.IsPhishing(); got != tt.want {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}

	var nilResult *AnalysisResult
	if nilResult.IsPhishing() {
		t.Error("expected nil result not to be phishing")
	}
}

// TestRankContributions tests ranking by magnitude.
func TestRankContributions(t *testing.T) {
	t.Parallel()

	c := []Contribution{
		{Feature: "A", Value: 0.1},
		{Feature: "B", Value: -0.9},
		{Feature: "C", Value: 0.5},
		{Feature: "D", Value: -0.5},
	}
	RankContributions(c)

	want := []string{"B", "C", "D", "A"}
	for i, name := range want {
		if c[i].Feature != name {
			t.Errorf("position %d: got %q, expected %q", i, c[i].Feature, name)
		}
	}
}

// TestAnalysisResultTop tests top-N selection.
func TestAnalysisResultTop(t *testing.T) {
	t.Parallel()

	r := &AnalysisResult{
		Verdict: VerdictPhishing,
		Explanation: []Contribution{
			{Feature: "A", Value: 0.9},
			{Feature: "B", Value: 0.5},
			{Feature: "C", Value: 0.1},
		},
		ReceivedAt: time.Now(),
	}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"top 2", 2, 2},
		{"more than available", 10, 3},
		{"zero", 0, 0},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := r.Top(tt.n); len(got) != tt.want {
				t.Errorf("got %d entries, expected %d", len(got), tt.want)
			}
		})
	}

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()

		top := r.Top(1)
		top[0].Feature = "changed"
		if r.Explanation[0].Feature != "A" {
			t.Error("expected explanation to be unchanged")
		}
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()

		var empty *AnalysisResult
		if empty.Top(3) != nil {
			t.Error("expected nil")
		}
	})
}

// TestNewScanReport tests building a report from a session.
func TestNewScanReport(t *testing.T) {
	t.Parallel()

	s := NewSession(3, "load-3")
	s.SetSnapshot(Snapshot{URL: "https://example.com/", Hostname: "example.com", Title: "Example"})
	s.SetFeatures(NewFeatureRecord([]Feature{Count("URLLength", 20)}))
	s.SetResult(&AnalysisResult{
		Verdict:     VerdictPhishing,
		Explanation: []Contribution{{Feature: "URLLength", Value: 0.3, Text: "long url"}},
	})
	s.RecordStep("classify")
	s.MarkAlerted()

	r := NewScanReport(s, TitleMatch{Domain: 1})

	if r.URL != "https://example.com/" || r.Hostname != "example.com" || r.Title != "Example" {
		t.Errorf("unexpected page fields %+v", r)
	}
	if !r.IsPhishing() || !r.HasVerdict() {
		t.Error("expected phishing verdict")
	}
	if !r.Alerted {
		t.Error("expected alerted report")
	}
	if r.Features.Int("URLLength") != 20 {
		t.Error("expected features to be copied")
	}
	if r.TitleMatch.Domain != 1 {
		t.Error("expected title match to be kept")
	}
	if len(r.Explanation) != 1 || len(r.PerformedSteps) != 1 {
		t.Errorf("unexpected explanation or steps %+v", r)
	}
	if r.DateScanned.IsZero() {
		t.Error("expected scan date")
	}

	empty := NewScanReport(NewSession(4, "load-4"), TitleMatch{})
	if empty.HasVerdict() || empty.IsPhishing() {
		t.Error("expected no verdict")
	}
}
