package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/capture"
	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/presenter"
	"github.com/nao1215/phishscan/internal/report"
	"github.com/nao1215/phishscan/internal/transport"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [snapshot-file...]",
		Short: "Analyze pages or snapshot files with the classifier",
		Long: `Scan analyzes web pages the same way the browser extension does.

Each target is either a snapshot file (the JSON document the extension sends,
with url, hostname, domText, htmlContent, title and favicon fields) or a page
URL, which is downloaded and turned into a snapshot first. Every target runs
through feature extraction, classification and alerting. Alerts are printed
to standard error, reports to standard output or the --output file.

Examples:
  # Analyze a saved snapshot
  phishscan scan snapshot.json

  # Download and analyze a page
  phishscan scan --url https://login.example.com/

  # Analyze a list of URLs and snapshot files, 8 at a time
  phishscan scan --list targets.txt --batch 8

  # Read a snapshot from standard input
  cat snapshot.json | phishscan scan -

  # Use another classifier and save the reports to history
  phishscan scan --classifier http://10.0.0.5:8000 --save snapshot.json

  # Output a Markdown report to a file
  phishscan scan --markdown -o report.md --url https://login.example.com/`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringSliceP("url", "u", nil,
		"Page URL to download and analyze (repeatable)")
	cmd.Flags().StringP("list", "l", "",
		"File with one URL or snapshot path per line")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent analyses")

	addClassifierFlags(cmd)

	cmd.Flags().Duration("capture-timeout", config.DefaultCaptureTimeout,
		"Timeout for downloading one page")
	cmd.Flags().String("user-agent", "",
		"User-Agent header used when downloading pages")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().BoolP("save", "s", false,
		"Save scan reports to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	s := &scanner{
		cfg:    cfg,
		logger: logger,
		stdin:  cmd.InOrStdin(),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	return s.run(ctx)
}

// buildScanConfig creates a Config from the configuration file and flags.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyClassifierFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.CaptureTimeout, err = cmd.Flags().GetDuration("capture-timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = cmd.Flags().GetBool("save"); err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	urls, err := cmd.Flags().GetStringSlice("url")
	if err != nil {
		return nil, err
	}
	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	cfg.Targets = append(cfg.Targets, urls...)
	if listPath != "" {
		listed, err := readTargetList(listPath)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// scanner runs one scan command.
type scanner struct {
	cfg    *config.Config
	logger *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (s *scanner) run(ctx context.Context) error {
	s.logger.Info("starting scan",
		"targets", len(s.cfg.Targets),
		"classifier", s.cfg.ClassifierURL,
		"batchSize", s.cfg.BatchSize,
		"saveToDB", s.cfg.SaveToDB,
	)

	httpClient, err := newHTTPClient(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	clf, err := newClassifier(s.cfg, httpClient, s.logger)
	if err != nil {
		return err
	}

	var db *database.HistoryDB
	if s.cfg.SaveToDB {
		db, err = database.Open(s.cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		s.logger.Info("database opened", "dir", s.cfg.DBDir)
	}

	snapshots, err := s.loadSnapshots(ctx)
	if err != nil {
		return err
	}

	engine := s.cfg.Settings.NewEngine()
	console := presenter.NewConsole(s.stderr)
	for i, snap := range snapshots {
		// Batch sessions are numbered from 1 in input order.
		console.Label(i+1, snap.URL)
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return s.newPipeline(engine, clf, console)
		},
		pipeline.WithConcurrency(s.cfg.BatchSize),
		pipeline.WithBatchLogger(s.logger),
	)

	startTime := time.Now()
	sessions, batchErr := bp.ProcessBatch(ctx, snapshots)
	s.logger.Info("scan completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	reports := make([]*model.ScanReport, 0, len(sessions))
	for _, session := range sessions {
		if session == nil {
			// Never started because the scan was interrupted.
			continue
		}
		reports = append(reports, model.NewScanReport(session, engine.TitleMatch(session.Snapshot())))
	}
	if batchErr != nil && len(reports) == 0 {
		return fmt.Errorf("scan interrupted: %w", batchErr)
	}

	for _, r := range reports {
		if err := saveScanReport(ctx, db, r, s.logger); err != nil {
			s.logger.Error("failed to save scan report", "url", r.URL, "error", err)
		}
	}

	if err := outputReports(s.cfg, reports, s.stdout); err != nil {
		return err
	}
	if batchErr != nil {
		return fmt.Errorf("scan interrupted after %d of %d targets: %w", len(reports), len(snapshots), batchErr)
	}
	return nil
}

// loadSnapshots loads every target. Targets that cannot be loaded are
// reported and skipped; it is an error when none can be loaded.
func (s *scanner) loadSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	captureClient, err := transport.NewHTTPClient(s.cfg.ProxyAddress, s.cfg.CaptureTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture client: %w", err)
	}

	loader := &snapshotLoader{
		capturer: capture.New(
			capture.WithHTTPClient(captureClient),
			capture.WithMaxBodySize(s.cfg.MaxBodySize),
			capture.WithUserAgent(s.cfg.UserAgent),
			capture.WithLogger(s.logger),
		),
		stdin: s.stdin,
	}

	snapshots := make([]model.Snapshot, 0, len(s.cfg.Targets))
	for _, target := range s.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := loader.load(ctx, target)
		if err != nil {
			s.logger.Warn("skipping target", "target", target, "error", err)
			fmt.Fprintf(s.stderr, "Skipping %s: %v\n", target, err)
			continue
		}
		snapshots = append(snapshots, snap)
	}

	if len(snapshots) == 0 {
		return nil, errors.New("no target could be loaded")
	}
	return snapshots, nil
}

// newPipeline creates the pipeline for one batch session. The engine,
// classifier and console are shared by every session.
func (s *scanner) newPipeline(engine *feature.Engine, clf classifier.Classifier, p presenter.Presenter) *pipeline.Pipeline {
	return pipeline.DefaultPipeline(pipeline.Config{
		Engine:         engine,
		Classifier:     clf,
		Presenter:      p,
		TrustedDomains: s.cfg.Settings.TrustedDomains,
		AlertMessage:   s.cfg.Settings.Alert.Message,
		Logger:         s.logger,
	})
}

// saveScanReport saves the scan report to the database if enabled.
// If db is nil, this function is a no-op.
func saveScanReport(ctx context.Context, db *database.HistoryDB, r *model.ScanReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveScanReport(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	logger.Info("scan report saved to database", "url", r.URL, "id", id)
	return nil
}

// outputReports writes the reports in the requested format. A single report
// is written on its own; several reports are written as a summary, and the
// text format also prints each report first.
func outputReports(cfg *config.Config, reports []*model.ScanReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports quote page content, keep them private to the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		simple := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
		if len(reports) > 1 {
			for _, r := range reports {
				if _, err := simple.Write(r); err != nil {
					return err
				}
			}
		}
		writer = simple
	}

	// In verbose mode a report written to a file is echoed to the terminal.
	if cfg.ReportFile != "" && cfg.Verbose && (cfg.JSONReport || cfg.MarkdownReport) {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout))
	}

	if len(reports) == 1 {
		_, err := writer.Write(reports[0])
		return err
	}
	_, err := writer.WriteSummary(report.NewSummary(reports))
	return err
}
