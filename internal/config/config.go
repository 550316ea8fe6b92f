package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/phishscan/internal/transport"
)

// Default configuration values.
const (
	// DefaultClassifierURL is where the classification service listens when
	// it runs next to the browser.
	DefaultClassifierURL = "http://127.0.0.1:8000"

	// DefaultTimeout bounds one classifier round trip. The service runs a
	// tree model plus an explainer, which answers well within this on
	// commodity hardware; a hung service must not keep a session forever.
	DefaultTimeout = 30 * time.Second

	// DefaultListenAddress is where the extension API listens.
	// It binds to loopback because the only client is the local browser.
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultBatchSize of 4 concurrent analyses stays below the classifier's
	// per-client rate limit for typical snapshot lists.
	DefaultBatchSize = 4

	// DefaultCaptureTimeout bounds one page download in the scanner.
	DefaultCaptureTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the downloaded page size.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"
)

// Config holds all configuration options for phishscan.
// This struct is populated from defaults, the configuration file and CLI
// flags, in that order, and passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for the runtime options. The tunable lists that only the configuration
// file can set live in File, which is kept as a whole.
type Config struct {
	// ClassifierURL is the base URL of the classification service.
	// The analyze endpoint is resolved relative to it.
	ClassifierURL string

	// Timeout bounds one classifier round trip. Zero disables the bound.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format used
	// for the classifier call and page capture.
	ProxyAddress string

	// ListenAddress is the address of the extension API.
	ListenAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of concurrent analyses when scanning a list.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Settings holds the configuration file contents.
	// It is never nil after LoadConfigFile or NewConfig.
	Settings *File

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Targets are snapshot files or page URLs to analyze.
	Targets []string

	// SaveToDB stores scan reports in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	// Defaults to XDG data directory (~/.local/share/phishscan on Linux).
	DBDir string

	// CaptureTimeout bounds one page download.
	CaptureTimeout time.Duration

	// UserAgent is sent when capturing pages. Empty uses the capture default.
	UserAgent string

	// MaxBodySize is the maximum page size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, URLs).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ClassifierURL:  DefaultClassifierURL,
		Timeout:        DefaultTimeout,
		ListenAddress:  DefaultListenAddress,
		BatchSize:      DefaultBatchSize,
		Settings:       &File{},
		DBDir:          XDGDataDir(),
		CaptureTimeout: DefaultCaptureTimeout,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// ApplyFile copies the runtime options set in the configuration file into
// the config and keeps the file as Settings. Options the file leaves empty
// keep their current value. CLI flags are applied afterwards, so they win.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.Settings = f

	if f.Classifier.URL != "" {
		c.ClassifierURL = f.Classifier.URL
	}
	if f.Classifier.Timeout != nil {
		c.Timeout = *f.Classifier.Timeout
	}
	if f.Classifier.Proxy != "" {
		c.ProxyAddress = f.Classifier.Proxy
	}
	if f.Server.Listen != "" {
		c.ListenAddress = f.Server.Listen
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// On Linux: ~/.local/share/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %LOCALAPPDATA%\phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
// On Linux: ~/.config/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %APPDATA%\phishscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the options shared by every command.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.ClassifierURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidClassifierURL
	}

	if c.Timeout < 0 || c.CaptureTimeout < 0 {
		return ErrInvalidTimeout
	}

	if c.ProxyAddress != "" && !transport.IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ValidateScan checks the options of the scanner, which also needs targets.
func (c *Config) ValidateScan() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

// ValidateServe checks the options of the extension API server.
func (c *Config) ValidateServe() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return ErrInvalidListenAddress
	}
	return c.Validate()
}
