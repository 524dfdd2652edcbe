package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the database file inside the data directory.
const FileName = "history.db"

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrInvalidRecord is returned when a record lacks its lookup id or query.
var ErrInvalidRecord = errors.New("history record needs a lookup id and a query")

// HistoryDB stores lookup outcomes.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lookup_id TEXT NOT NULL UNIQUE,
		account TEXT NOT NULL,
		query TEXT NOT NULL,
		matched_name TEXT,
		match_score INTEGER,
		outcome TEXT,
		place TEXT,
		distance_km INTEGER,
		error_class TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_query ON lookups(query COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_lookups_matched ON lookups(matched_name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_lookups_started ON lookups(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// LookupRecord is one stored lookup.
type LookupRecord struct {
	// ID is the row id, assigned on save.
	ID int64 `json:"-"`

	// LookupID is the correlation id of the lookup.
	LookupID string `json:"lookup_id"`

	// Account is the fingerprint of the account used, see AccountFingerprint.
	Account string `json:"account"`

	// Query is the name as asked for.
	Query string `json:"query"`

	// MatchedName is the display name the query resolved to.
	MatchedName string `json:"matched_name,omitempty"`

	// MatchScore is the edit distance of the match.
	MatchScore int `json:"match_score,omitempty"`

	// Outcome is the disclosure kind identifier, empty for failures.
	Outcome string `json:"outcome,omitempty"`

	// Place is the reference name or locality label that was disclosed.
	Place string `json:"place,omitempty"`

	// DistanceKm is the disclosed rounded distance.
	DistanceKm int `json:"distance_km,omitempty"`

	// ErrorClass names the kind of failure, empty for successes.
	ErrorClass string `json:"error_class,omitempty"`

	// StartedAt is when the lookup began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the lookup took.
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the record is an answered lookup.
func (r LookupRecord) Succeeded() bool {
	return r.ErrorClass == "" && r.Outcome != ""
}

// AccountFingerprint returns the hex SHA3-256 digest of the normalized
// username.
func AccountFingerprint(username string) string {
	sum := sha3.Sum256([]byte(strings.ToLower(strings.TrimSpace(username))))
	return hex.EncodeToString(sum[:])
}

// SaveLookup stores a record and sets its ID.
func (hdb *HistoryDB) SaveLookup(ctx context.Context, record *LookupRecord) error {
	if record.LookupID == "" || record.Query == "" {
		return ErrInvalidRecord
	}

	query := `
	INSERT INTO lookups (lookup_id, account, query, matched_name, match_score, outcome,
		place, distance_km, error_class, started_at, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.LookupID,
		record.Account,
		record.Query,
		record.MatchedName,
		record.MatchScore,
		record.Outcome,
		record.Place,
		record.DistanceKm,
		record.ErrorClass,
		record.StartedAt.UTC().Format(timeLayout),
		record.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get lookup row id: %w", err)
	}
	record.ID = id

	return nil
}

// selectLookups is the column list scanned by scanLookups.
const selectLookups = `
	SELECT id, lookup_id, account, query, matched_name, match_score, outcome,
		place, distance_km, error_class, started_at, duration_ms
	FROM lookups
`

// ListLookups returns the newest records first. A non-positive limit
// returns all of them.
func (hdb *HistoryDB) ListLookups(ctx context.Context, limit int) ([]LookupRecord, error) {
	query := selectLookups + `ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := hdb.db.QueryContext(ctx, query, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// ListLookupsForQuery returns the newest records whose query or matched
// name equals name, ignoring case.
func (hdb *HistoryDB) ListLookupsForQuery(ctx context.Context, name string, limit int) ([]LookupRecord, error) {
	query := selectLookups + `
	WHERE query = ? COLLATE NOCASE OR matched_name = ? COLLATE NOCASE
	ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := hdb.db.QueryContext(ctx, query, name, name, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups for %q: %w", name, err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// CountLookups returns the number of stored records.
func (hdb *HistoryDB) CountLookups(ctx context.Context) (int, error) {
	var n int
	if err := hdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return n, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func scanLookups(rows *sql.Rows) ([]LookupRecord, error) {
	var records []LookupRecord
	for rows.Next() {
		var (
			r                         LookupRecord
			matched, outcome, place   sql.NullString
			errorClass                sql.NullString
			score, distance, duration sql.NullInt64
			startedAt                 string
		)

		if err := rows.Scan(&r.ID, &r.LookupID, &r.Account, &r.Query, &matched, &score,
			&outcome, &place, &distance, &errorClass, &startedAt, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}

		r.MatchedName = matched.String
		r.MatchScore = int(score.Int64)
		r.Outcome = outcome.String
		r.Place = place.String
		r.DistanceKm = int(distance.Int64)
		r.ErrorClass = errorClass.String
		r.StartedAt = parseTimestamp(startedAt)
		r.Duration = time.Duration(duration.Int64) * time.Millisecond

		records = append(records, r)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
