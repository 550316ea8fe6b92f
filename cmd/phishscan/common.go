package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	phishlog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/transport"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file flag from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds a Config from the defaults and the configuration file.
// If the user explicitly specified a config file path, a missing file is an
// error. Otherwise the defaults are used when no file is found.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// addClassifierFlags registers the flags shared by the commands that talk
// to the classifier.
func addClassifierFlags(cmd *cobra.Command) {
	cmd.Flags().String("classifier", config.DefaultClassifierURL,
		"Base URL of the classification service")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for one classification request (0 disables it)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (host:port) for outgoing requests")
}

// applyClassifierFlags copies the classifier flags the user set into cfg.
// Flags left at their default keep the configuration file values.
func applyClassifierFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cmd.Flags().Changed("classifier") {
		if cfg.ClassifierURL, err = cmd.Flags().GetString("classifier"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("proxy") {
		if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger creates the sanitizing logger writing to w.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return phishlog.NewSecureLogger(w, verbose)
}

// newHTTPClient creates the client for outgoing requests. When a proxy is
// configured it is checked before use.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, error) {
	client, err := transport.NewHTTPClient(cfg.ProxyAddress, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyAddress != "" {
		status := transport.CheckProxy(ctx, cfg.ProxyAddress)
		if err := status.Err(); err != nil {
			return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				err, cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	return client, nil
}

// newClassifier creates the classification client.
func newClassifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*classifier.Client, error) {
	c, err := classifier.New(cfg.ClassifierURL,
		classifier.WithHTTPClient(httpClient),
		classifier.WithTimeout(cfg.Timeout),
		classifier.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}
	return c, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
