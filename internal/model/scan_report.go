package model

import "time"

// ScanReport is the result of analyzing one snapshot from the command line.
// It is built from a finished Session and is what the report writers and the
// history database work with.
//
// Design decision: We flatten the session into a plain serializable struct
// instead of writing the Session itself. The Session is a synchronized,
// short-lived object; the report is a value that can be stored, compared and
// printed long after the session is gone.
type ScanReport struct {
	// URL is the analyzed page location.
	URL string `json:"url"`

	// Hostname is the analyzed page host.
	Hostname string `json:"hostname"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// DateScanned is when the analysis was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Features is the feature record sent to the classifier.
	Features FeatureRecord `json:"features"`

	// TitleMatch holds the title heuristics.
	TitleMatch TitleMatch `json:"title_match"`

	// Verdict is the classifier label, empty when no verdict was obtained.
	Verdict string `json:"verdict,omitempty"`

	// Reason explains a locally produced verdict.
	Reason string `json:"reason,omitempty"`

	// Explanation holds the ranked contributions returned by the classifier.
	Explanation []Contribution `json:"explanation,omitempty"`

	// Alerted is true when an alert was dispatched for the page.
	Alerted bool `json:"alerted"`

	// State is the final session state.
	State string `json:"state"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// ErrorMessage is the non-fatal failure recorded during the analysis.
	ErrorMessage string `json:"error,omitempty"`
}

// NewScanReport builds a ScanReport from a session and its title heuristics.
func NewScanReport(s *Session, titleMatch TitleMatch) *ScanReport {
	snap := s.Snapshot()
	view := s.View()

	r := &ScanReport{
		URL:            snap.URL,
		Hostname:       snap.Hostname,
		Title:          snap.Title,
		DateScanned:    view.StartedAt,
		TitleMatch:     titleMatch,
		Alerted:        view.Alerted,
		State:          view.State,
		PerformedSteps: view.Steps,
		ErrorMessage:   view.Error,
	}

	if rec, ok := s.Features(); ok {
		r.Features = rec
	}
	if res := s.Result(); res != nil {
		r.Verdict = res.Verdict
		r.Reason = res.Reason
		r.Explanation = append([]Contribution(nil), res.Explanation...)
	}

	return r
}

// IsPhishing reports whether the report carries a phishing verdict.
func (r *ScanReport) IsPhishing() bool {
	return r.Verdict == VerdictPhishing
}

// HasVerdict reports whether a verdict was obtained.
func (r *ScanReport) HasVerdict() bool {
	return r.Verdict != ""
}
