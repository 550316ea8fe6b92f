package model

import (
	"math"
	"sort"
	"time"
)

// Verdict labels returned by the remote classifier.
const (
	// VerdictPhishing is the only verdict that triggers an alert.
	VerdictPhishing = "phishing"
	// VerdictLegitimate is the classifier's benign label.
	VerdictLegitimate = "legitimate"
)

// DefaultAlertMessage is the warning shown on a page classified as phishing.
const DefaultAlertMessage = "⚠️ This page may be a phishing site!"

// NoExplanationText is used when the classifier gives no text for a feature.
const NoExplanationText = "No explanation available"

// Contribution is one ranked entry of a classifier explanation.
type Contribution struct {
	// Feature is the feature record name.
	Feature string `json:"feature"`

	// Value is the signed contribution of the feature to the verdict.
	Value float64 `json:"value"`

	// Text is a human readable description of the feature.
	Text string `json:"text"`
}

// AnalysisResult is the classifier's answer for one page load.
// At most one AnalysisResult exists per session.
type AnalysisResult struct {
	// Verdict is the classifier label, e.g. "phishing" or "legitimate".
	// Any other string is carried verbatim and treated as not phishing.
	Verdict string `json:"verdict"`

	// Explanation holds the ranked contributions, largest magnitude first.
	Explanation []Contribution `json:"explanation,omitempty"`

	// Impact maps every feature to its contribution, when the classifier
	// returned a full explanation.
	Impact map[string]float64 `json:"impact,omitempty"`

	// Reason is set when the result was produced locally rather than by the
	// classifier (for example a trusted domain).
	Reason string `json:"reason,omitempty"`

	// ReceivedAt is when the result was produced.
	ReceivedAt time.Time `json:"received_at"`
}

// IsPhishing reports whether the verdict is exactly "phishing".
func (r *AnalysisResult) IsPhishing() bool {
	return r != nil && r.Verdict == VerdictPhishing
}

// Top returns up to n explanation entries in rank order.
// It returns nil when n is not positive or there is no explanation.
func (r *AnalysisResult) Top(n int) []Contribution {
	if r == nil || n <= 0 || len(r.Explanation) == 0 {
		return nil
	}
	if n > len(r.Explanation) {
		n = len(r.Explanation)
	}
	out := make([]Contribution, n)
	copy(out, r.Explanation[:n])
	return out
}

// RankContributions sorts contributions by descending absolute value.
// The sort is stable so entries with equal magnitude keep their input order.
func RankContributions(c []Contribution) {
	sort.SliceStable(c, func(i, j int) bool {
		return math.Abs(c[i].Value) > math.Abs(c[j].Value)
	})
}

// Alert is the presentation artifact derived from a phishing verdict.
// It is never persisted.
type Alert struct {
	// TabID identifies the page context the alert belongs to.
	TabID int `json:"tab_id"`

	// SessionID identifies the page load that produced the alert.
	SessionID string `json:"session_id"`

	// Message is the human readable warning.
	Message string `json:"message"`

	// CreatedAt is when the alert was dispatched.
	CreatedAt time.Time `json:"created_at"`
}

// TitleMatch holds the two title heuristics. They are reported alongside the
// feature record but are not classifier inputs.
type TitleMatch struct {
	// Domain is 1 when the lower-cased title contains the lower-cased hostname.
	Domain float64 `json:"domain_title_match_score"`

	// URL is 1 when the lower-cased title contains the lower-cased full URL.
	// This is almost never true; it is kept as a weak signal.
	URL float64 `json:"url_title_match_score"`
}
