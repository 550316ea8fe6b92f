package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/report"
)

// defaultHistoryLimit is the number of scans listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command shows scan reports saved with 'phishscan scan --save'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show saved scan reports",
		Long: `History displays scan reports saved with 'phishscan scan --save'.

Without arguments it lists every page URL in the history database. With a
URL it shows the latest saved report for that page.

Examples:
  # List every scanned page
  phishscan history

  # Show the latest report of a page
  phishscan history https://login.example.com/

  # List the saved scans of a page
  phishscan history --list https://login.example.com/

  # List the 50 most recent scans of every page
  phishscan history --list --limit 50

  # Show a specific report by ID as JSON
  phishscan history --id 5 --json

  # Count the saved scans per verdict
  phishscan history --stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List saved scans (of the given URL, or of every page)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of scans to list (0 for no limit)")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the report with this ID (use --list to see available IDs)")
	cmd.Flags().Bool("stats", false,
		"Count saved scans per verdict")

	cmd.Flags().BoolP("json", "j", false,
		"Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output report in Markdown format")

	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	url      string
	list     bool
	limit    int
	id       int64
	stats    bool
	json     bool
	markdown bool
	dbDir    string
}

func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{dbDir: config.XDGDataDir()}
	if len(args) == 1 {
		opts.url = strings.TrimSpace(args[0])
	}

	var err error
	if opts.list, err = cmd.Flags().GetBool("list"); err != nil {
		return nil, err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return nil, err
	}
	if opts.stats, err = cmd.Flags().GetBool("stats"); err != nil {
		return nil, err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		opts.dbDir = dbDir
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.limit < 0 {
		return nil, errors.New("--limit must not be negative")
	}
	if opts.id < 0 {
		return nil, errors.New("--id must be positive")
	}

	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Validate flags before opening the database.
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.ReadOnlyOptions())
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No scan history found.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'phishscan scan --save' to save scan reports.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.stats:
		return showVerdictStats(ctx, db, out, opts.json)
	case opts.id > 0:
		r, err := db.GetScanReportByID(ctx, opts.id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("scan with ID %d not found", opts.id)
		}
		return writeHistoryReport(out, r, opts)
	case opts.list:
		return listScanHistory(ctx, db, out, opts)
	case opts.url != "":
		r, err := db.GetLatestScanReport(ctx, opts.url)
		if err != nil {
			return err
		}
		if r == nil {
			fmt.Fprintf(out, "No scan history found for %s\n", opts.url)
			return nil
		}
		return writeHistoryReport(out, r, opts)
	default:
		return listScannedURLs(ctx, db, out)
	}
}

// listScannedURLs lists every page URL that has saved scans.
func listScannedURLs(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	urls, err := db.ListURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list URLs: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No scanned pages found in the database.")
		fmt.Fprintln(out, "\nUse 'phishscan scan --save' to save scan reports.")
		return nil
	}

	fmt.Fprintf(out, "Scanned pages (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  • %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'phishscan history --list <url>' to see the scans of a page.")

	return nil
}

// listScanHistory lists saved scans, newest first.
func listScanHistory(ctx context.Context, db *database.HistoryDB, out io.Writer, opts *historyOptions) error {
	scans, err := db.ListScans(ctx, opts.url, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if scans == nil {
			scans = []database.ScanMetadata{}
		}
		return enc.Encode(scans)
	}

	if len(scans) == 0 {
		if opts.url != "" {
			fmt.Fprintf(out, "No scan history found for %s\n", opts.url)
		} else {
			fmt.Fprintln(out, "No scan history found.")
		}
		return nil
	}

	if opts.url != "" {
		fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", opts.url, len(scans))
	} else {
		fmt.Fprintf(out, "Recent scans (%d):\n\n", len(scans))
	}
	fmt.Fprintf(out, "  %-6s  %-20s  %-12s  %-7s  %s\n", "ID", "Date", "Verdict", "Alerted", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, meta := range scans {
		alerted := "no"
		if meta.Alerted {
			alerted = "yes"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-12s  %-7s  %s\n",
			meta.ID,
			meta.ScannedAt.Local().Format("2006-01-02 15:04:05"),
			report.VerdictLabel(meta.Verdict),
			alerted,
			meta.URL,
		)
	}

	fmt.Fprintln(out, "\nUse 'phishscan history --id <id>' to show a specific report.")

	return nil
}

// showVerdictStats prints the number of saved scans per verdict.
func showVerdictStats(ctx context.Context, db *database.HistoryDB, out io.Writer, jsonOutput bool) error {
	counts, err := db.CountByVerdict(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	verdicts := make([]string, 0, len(counts))
	total := 0
	for v, n := range counts {
		verdicts = append(verdicts, v)
		total += n
	}
	sort.Strings(verdicts)

	fmt.Fprintf(out, "Saved scans: %d\n\n", total)
	for _, v := range verdicts {
		fmt.Fprintf(out, "  %-12s %d\n", report.VerdictLabel(v), counts[v])
	}

	return nil
}

// writeHistoryReport writes one saved report in the requested format.
func writeHistoryReport(out io.Writer, r *model.ScanReport, opts *historyOptions) error {
	var writer report.Writer
	switch {
	case opts.json:
		writer = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case opts.markdown:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err := writer.Write(r)
	return err
}
