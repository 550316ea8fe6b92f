package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/phishscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for markdown
// generation. It gives us tables, GitHub alerts and mermaid charts without
// hand-written escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phishscan Report")
	md.PlainText("")
	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeExplanation(md, report)
	w.writeFeatures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the batch summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phishscan Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🔴 Phishing", strconv.Itoa(summary.Phishing)},
			{"🟢 Legitimate", strconv.Itoa(summary.Legitimate)},
			{"🟡 Other", strconv.Itoa(summary.Other)},
			{"⚪ Unclassified", strconv.Itoa(summary.Unclassified)},
			{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
		},
	})
	md.PlainText("")

	if summary.Total > 0 {
		w.writePieChart(md, summary)
	}

	switch {
	case summary.Phishing > 0:
		md.Cautionf("%d of %d page(s) were classified as phishing.", summary.Phishing, summary.Total)
	case summary.Unclassified > 0:
		md.Warningf("%d page(s) could not be classified.", summary.Unclassified)
	case summary.Total > 0:
		md.Tip("No phishing pages detected.")
	default:
		md.Note("No pages were analyzed.")
	}
	md.PlainText("")

	if len(summary.Reports) > 0 {
		md.H2("Pages")
		md.PlainText("")

		rows := make([][]string, len(summary.Reports))
		for i, r := range summary.Reports {
			rows[i] = []string{
				"`" + truncateString(r.URL, 60) + "`",
				VerdictLabel(r.Verdict),
				alertText(r),
				truncateString(statusText(r), 50),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Verdict", "Alert", "Status"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	title := report.Title
	if title == "" {
		title = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + report.URL + "`"},
			{"Hostname", "`" + report.Hostname + "`"},
			{"Title", truncateString(title, 80)},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Verdict", VerdictLabel(report.Verdict)},
			{"Alert", alertText(report)},
			{"Status", statusText(report)},
			{"Domain in title", fmt.Sprintf("%.1f", report.TitleMatch.Domain)},
			{"URL in title", fmt.Sprintf("%.1f", report.TitleMatch.URL)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch {
	case report.IsPhishing():
		md.Cautionf("This page was classified as phishing. Alert: %s.", alertText(report))
	case report.ErrorMessage != "":
		md.Warningf("No verdict could be obtained: %s", report.ErrorMessage)
	case report.Reason != "":
		md.Note(report.Reason)
	case report.HasVerdict():
		md.Tip("This page was not classified as phishing.")
	default:
		md.Importantf("The analysis did not complete (state: %s).", report.State)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeExplanation(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Explanation")
	md.PlainText("")

	if len(report.Explanation) == 0 {
		md.PlainText("Not available.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Explanation))
	for i, c := range report.Explanation {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			c.Feature,
			fmt.Sprintf("%+.4f", c.Value),
			truncateString(c.Text, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Feature", "Contribution", "Explanation"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFeatures(md *markdown.Markdown, report *model.ScanReport) {
	features := report.Features.Features()
	if len(features) == 0 {
		return
	}

	md.H2("Features")
	md.PlainText("")

	rows := make([][]string, len(features))
	for i, f := range features {
		rows[i] = []string{f.Name, f.Kind.String(), FormatFeatureValue(f)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Feature", "Kind", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)

	if summary.Phishing > 0 {
		chart.LabelAndIntValue("Phishing", uint64(summary.Phishing))
	}
	if summary.Legitimate > 0 {
		chart.LabelAndIntValue("Legitimate", uint64(summary.Legitimate))
	}
	if summary.Other > 0 {
		chart.LabelAndIntValue("Other", uint64(summary.Other))
	}
	if summary.Unclassified > 0 {
		chart.LabelAndIntValue("Unclassified", uint64(summary.Unclassified))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}
