package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	phishlog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/orchestrator"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/presenter"
	"github.com/nao1215/phishscan/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API used by the browser extension",
		Long: `Serve starts the HTTP API the browser extension talks to.

The extension reports every page load of a tab, and phishscan extracts the
page features, asks the classifier for a verdict and raises an alert when the
page is phishing. Only the latest page load of a tab is analyzed; a new load
or a navigation abandons the previous one.

Examples:
  # Listen on the default address with the default classifier
  phishscan serve

  # Listen on all interfaces and use a remote classifier
  phishscan serve --listen 0.0.0.0:8080 --classifier http://10.0.0.5:8000

  # Let alert polls wait at most 10 seconds
  phishscan serve --max-wait 10s`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the API listens on")
	cmd.Flags().Duration("max-wait", server.DefaultMaxWait,
		"Longest time an alert poll may wait")

	addClassifierFlags(cmd)

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	maxWait, err := cmd.Flags().GetDuration("max-wait")
	if err != nil {
		return err
	}

	// Log collectors parse the server's output.
	logger := phishlog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	api, err := newAPI(ctx, cfg, logger, server.WithMaxWait(maxWait))
	if err != nil {
		return err
	}
	defer api.close()

	// The default logger hides info messages, so the address is printed.
	fmt.Fprintf(cmd.OutOrStdout(), "phishscan %s listening on http://%s (classifier %s)\n",
		getVersion(), api.server.Addr(), cfg.ClassifierURL)

	if err := api.server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// buildServeConfig creates a Config from the configuration file and flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyClassifierFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("listen") {
		if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// api is the wired extension API: the alert hub, the orchestrator running
// the page-load pipeline and the HTTP server in front of them.
type api struct {
	hub          *presenter.Hub
	orchestrator *orchestrator.Orchestrator
	server       *server.Server
	logger       *slog.Logger
}

// newAPI wires the extension API. Sessions run under ctx.
func newAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...server.Option) (*api, error) {
	httpClient, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	clf, err := newClassifier(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	hub := presenter.NewHub()
	p := pipeline.DefaultPipeline(pipeline.Config{
		Engine:         cfg.Settings.NewEngine(),
		Classifier:     clf,
		Presenter:      hub,
		TrustedDomains: cfg.Settings.TrustedDomains,
		AlertMessage:   cfg.Settings.Alert.Message,
		Logger:         logger,
	})

	orch := orchestrator.New(p,
		orchestrator.WithLogger(logger),
		orchestrator.WithTabObserver(hub),
		orchestrator.WithBaseContext(ctx),
	)

	serverOpts := append([]server.Option{
		server.WithAddress(cfg.ListenAddress),
		server.WithLogger(logger),
	}, opts...)

	return &api{
		hub:          hub,
		orchestrator: orch,
		server:       server.New(orch, hub, serverOpts...),
		logger:       logger,
	}, nil
}

// close stops the orchestrator and waits for running sessions.
func (a *api) close() {
	start := time.Now()
	if err := a.orchestrator.Close(); err != nil {
		a.logger.Warn("failed to stop orchestrator", "error", err)
		return
	}
	a.logger.Info("orchestrator stopped", "elapsed", time.Since(start).Round(time.Millisecond))
}
