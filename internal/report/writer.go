package report

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/phishscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
type Writer interface {
	// Write outputs one scan report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.ScanReport) (int, error)

	// WriteSummary outputs the summary of a batch scan.
	WriteSummary(summary *Summary) (int, error)
}

// Summary aggregates the reports of a batch scan.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Total is the number of analyzed pages.
	Total int `json:"total"`

	// Phishing is the number of pages with a phishing verdict.
	Phishing int `json:"phishing"`

	// Legitimate is the number of pages with a legitimate verdict.
	Legitimate int `json:"legitimate"`

	// Other is the number of pages with any other verdict label.
	Other int `json:"other"`

	// Unclassified is the number of pages without a verdict.
	Unclassified int `json:"unclassified"`

	// Alerted is the number of pages for which an alert was dispatched.
	Alerted int `json:"alerted"`

	// Reports holds the individual reports in input order.
	Reports []*model.ScanReport `json:"reports"`
}

// NewSummary builds a Summary from the given reports. Nil entries are skipped.
func NewSummary(reports []*model.ScanReport) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		Reports:     make([]*model.ScanReport, 0, len(reports)),
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Reports = append(s.Reports, r)
		s.Total++

		switch {
		case !r.HasVerdict():
			s.Unclassified++
		case r.IsPhishing():
			s.Phishing++
		case r.Verdict == model.VerdictLegitimate:
			s.Legitimate++
		default:
			s.Other++
		}
		if r.Alerted {
			s.Alerted++
		}
	}

	return s
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// VerdictLabel returns the display label of a verdict.
// An empty verdict is shown as "No verdict".
func VerdictLabel(verdict string) string {
	if verdict == "" {
		return "No verdict"
	}
	return titleCaser.String(verdict)
}

// FormatContribution renders one explanation entry on a single line.
func FormatContribution(rank int, c model.Contribution) string {
	return fmt.Sprintf("%d. %s (%+.4f): %s", rank, c.Feature, c.Value, c.Text)
}

// FormatFeatureValue renders a feature value. Counts and flags are
// integers, ratios keep four decimals.
func FormatFeatureValue(f model.Feature) string {
	if f.Kind == model.KindRatio {
		return fmt.Sprintf("%.4f", f.Value)
	}
	return fmt.Sprintf("%d", int64(f.Value))
}

// statusText returns the outcome of the analysis in a few words.
func statusText(report *model.ScanReport) string {
	switch {
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	case report.Reason != "":
		return "Skipped classifier - " + report.Reason
	case !report.HasVerdict():
		return "Incomplete"
	default:
		return "Complete"
	}
}

// alertText describes whether an alert was dispatched.
func alertText(report *model.ScanReport) string {
	if report.Alerted {
		return "dispatched"
	}
	return "none"
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
