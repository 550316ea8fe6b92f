package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

// ruleWidth is the width of the section separators.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so that output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose adds the full feature record to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the feature record section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PHISHSCAN REPORT")
	w.writeHeader(&sb, report)
	w.writeExplanation(&sb, report)
	w.writeTitleMatch(&sb, report)
	w.writeFeatures(&sb, report)
	writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the batch summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PHISHSCAN SUMMARY")

	fmt.Fprintf(&sb, "Scan Date:      %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Pages Analyzed: %d\n\n", summary.Total)

	writeSection(&sb, "VERDICTS")
	fmt.Fprintf(&sb, "  PHISHING:     %d\n", summary.Phishing)
	fmt.Fprintf(&sb, "  LEGITIMATE:   %d\n", summary.Legitimate)
	fmt.Fprintf(&sb, "  OTHER:        %d\n", summary.Other)
	fmt.Fprintf(&sb, "  UNCLASSIFIED: %d\n", summary.Unclassified)
	fmt.Fprintf(&sb, "\n  ALERTS:       %d\n\n", summary.Alerted)

	if len(summary.Reports) > 0 || w.showEmpty {
		writeSection(&sb, "PAGES")
		if len(summary.Reports) == 0 {
			sb.WriteString("  No pages analyzed\n")
		}
		for _, r := range summary.Reports {
			fmt.Fprintf(&sb, "  [%s] %s (%s)\n", verdictIndicator(r), r.URL, VerdictLabel(r.Verdict))
			if r.ErrorMessage != "" {
				fmt.Fprintf(&sb, "      Error: %s\n", r.ErrorMessage)
			}
		}
		sb.WriteString("\n")
	}

	writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	fmt.Fprintf(sb, "URL:            %s\n", report.URL)
	fmt.Fprintf(sb, "Hostname:       %s\n", report.Hostname)
	if report.Title != "" {
		fmt.Fprintf(sb, "Title:          %s\n", report.Title)
	}
	fmt.Fprintf(sb, "Scan Date:      %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Verdict:        %s\n", VerdictLabel(report.Verdict))
	fmt.Fprintf(sb, "Alert:          %s\n", alertText(report))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeExplanation(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Explanation) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "EXPLANATION")
	if len(report.Explanation) == 0 {
		sb.WriteString("  Not available\n\n")
		return
	}
	for i, c := range report.Explanation {
		fmt.Fprintf(sb, "  %s\n", FormatContribution(i+1, c))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTitleMatch(sb *strings.Builder, report *model.ScanReport) {
	writeSection(sb, "TITLE MATCH")
	fmt.Fprintf(sb, "  Domain in title: %.1f\n", report.TitleMatch.Domain)
	fmt.Fprintf(sb, "  URL in title:    %.1f\n", report.TitleMatch.URL)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFeatures(sb *strings.Builder, report *model.ScanReport) {
	if !w.verbose {
		return
	}

	writeSection(sb, "FEATURES")
	features := report.Features.Features()
	if len(features) == 0 {
		sb.WriteString("  No features extracted\n\n")
		return
	}
	for _, f := range features {
		fmt.Fprintf(sb, "  %-28s %s\n", f.Name, FormatFeatureValue(f))
	}
	sb.WriteString("\n")
}

// verdictIndicator returns a visual indicator for the verdict of a report.
func verdictIndicator(report *model.ScanReport) string {
	switch {
	case report.IsPhishing():
		return "!!!"
	case !report.HasVerdict():
		return "?"
	case report.Verdict == model.VerdictLegitimate:
		return "ok"
	default:
		return "-"
	}
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by phishscan\n")
	sb.WriteString("https://github.com/nao1215/phishscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
