// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for sharing and documentation
//
// Every writer renders a single ScanReport or a Summary of a batch scan.
//
// Design decision: We separate report writing from report data structures
// (which are in the model package). New output formats are added here
// without touching the model.
package report
