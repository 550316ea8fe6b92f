package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "phishscan.db"

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores scan reports produced by the CLI.
type HistoryDB struct {
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ReadOnlyOptions returns options for commands that only read history.
// Open fails with ErrDatabaseNotFound instead of creating an empty file.
func ReadOnlyOptions() Options {
	return Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB inside dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		hostname TEXT NOT NULL,
		verdict TEXT NOT NULL DEFAULT '',
		alerted INTEGER NOT NULL DEFAULT 0,
		scanned_at TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
	CREATE INDEX IF NOT EXISTS idx_scans_hostname ON scans(hostname);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScanReport stores a scan report and returns its row id.
// A zero DateScanned is replaced by the current time.
func (h *HistoryDB) SaveScanReport(ctx context.Context, report *model.ScanReport) (int64, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	scannedAt := report.DateScanned
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
	INSERT INTO scans (url, hostname, verdict, alerted, scanned_at, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := h.db.ExecContext(ctx, query,
		report.URL,
		report.Hostname,
		report.Verdict,
		boolToInt(report.Alerted),
		scannedAt.UTC().Format(timestampLayout),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestScanReport retrieves the most recent report for a URL.
// It returns nil without error when the URL was never scanned.
func (h *HistoryDB) GetLatestScanReport(ctx context.Context, url string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scans
	WHERE url = ?
	ORDER BY scanned_at DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := h.db.QueryRowContext(ctx, query, url).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	return decodeReport(reportJSON)
}

// GetScanReportByID retrieves a report by its row id.
// It returns nil without error when no such row exists.
func (h *HistoryDB) GetScanReportByID(ctx context.Context, id int64) (*model.ScanReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM scans WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	return decodeReport(reportJSON)
}

// ListURLs returns every URL with at least one saved report, sorted.
func (h *HistoryDB) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT url FROM scans ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// ScanMetadata summarizes one saved scan without decoding the report.
type ScanMetadata struct {
	// ID is the row id of the scan.
	ID int64 `json:"id"`

	// URL is the scanned page location.
	URL string `json:"url"`

	// Hostname is the scanned page host.
	Hostname string `json:"hostname"`

	// Verdict is the classifier label, empty when none was obtained.
	Verdict string `json:"verdict"`

	// Alerted is true when an alert was dispatched.
	Alerted bool `json:"alerted"`

	// ScannedAt is when the scan was performed.
	ScannedAt time.Time `json:"scanned_at"`
}

// ListScans returns metadata for saved scans, newest first.
// An empty url lists every scan; limit <= 0 means no limit.
func (h *HistoryDB) ListScans(ctx context.Context, url string, limit int) ([]ScanMetadata, error) {
	query := `SELECT id, url, hostname, verdict, alerted, scanned_at FROM scans`
	var args []any
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY scanned_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var results []ScanMetadata
	for rows.Next() {
		var (
			meta      ScanMetadata
			alerted   int
			scannedAt string
		)
		if err := rows.Scan(&meta.ID, &meta.URL, &meta.Hostname, &meta.Verdict, &alerted, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Alerted = alerted != 0
		meta.ScannedAt = parseTimestamp(scannedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// CountByVerdict returns the number of saved scans per verdict label.
// Scans without a verdict are counted under the empty string.
func (h *HistoryDB) CountByVerdict(ctx context.Context) (map[string]int, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT verdict, COUNT(*) FROM scans GROUP BY verdict`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			verdict string
			n       int
		)
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[verdict] = n
	}

	return counts, rows.Err()
}

func decodeReport(reportJSON string) (*model.ScanReport, error) {
	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
