package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

const sqliteColumns = `id, name, guest_count, attending, drinks, custom_drink, comment, created_at`

// SQLiteStore keeps guests in a single SQLite table, ordered by rowid
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// OpenSQLite creates or opens the database at path and applies the schema.
// The parent directory is created when missing.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		log: log.With().Str("store", "sqlite").Logger(),
		now: time.Now,
	}, nil
}

// Load returns all records, or an empty slice on error
func (s *SQLiteStore) Load(ctx context.Context) []models.GuestRecord {
	recs, err := s.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load guests, using an empty list")
		return []models.GuestRecord{}
	}
	return recs
}

// List returns all records in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]models.GuestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM guests ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	recs := []models.GuestRecord{}
	for rows.Next() {
		rec, err := scanSQLiteGuest(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read guests: %w", err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGuest(row rowScanner) (models.GuestRecord, error) {
	var (
		rec       models.GuestRecord
		count     string
		attending string
		drinks    string
		created   string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &count, &attending, &drinks, &rec.CustomDrink, &rec.Comment, &created); err != nil {
		return models.GuestRecord{}, fmt.Errorf("failed to scan guest: %w", err)
	}

	rec.GuestCount = models.GuestCountOne
	if c, err := models.ParseGuestCount(count); err == nil {
		rec.GuestCount = c
	}
	rec.Attending = models.AttendanceYes
	if attending == string(models.AttendanceNo) {
		rec.Attending = models.AttendanceNo
	}

	var tags []string
	if err := json.Unmarshal([]byte(drinks), &tags); err != nil {
		tags = nil
	}
	rec.Drinks = stringsToDrinks(tags)

	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		rec.CreatedAt = ts
	}
	return rec, nil
}

func sqliteArgs(rec models.GuestRecord) ([]any, error) {
	drinks, err := json.Marshal(drinksToStrings(rec.Drinks))
	if err != nil {
		return nil, err
	}
	return []any{
		rec.ID, rec.Name, string(rec.GuestCount), string(rec.Attending), string(drinks),
		rec.CustomDrink, rec.Comment, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// Append inserts rec unless its id is already stored
func (s *SQLiteStore) Append(ctx context.Context, rec models.GuestRecord) (models.GuestRecord, error) {
	rec = stamp(rec, s.now())
	args, err := sqliteArgs(rec)
	if err != nil {
		return models.GuestRecord{}, fmt.Errorf("failed to encode drinks: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO guests (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		args...)
	if err != nil {
		return models.GuestRecord{}, fmt.Errorf("failed to insert guest: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := scanSQLiteGuest(s.db.QueryRowContext(ctx,
			`SELECT `+sqliteColumns+` FROM guests WHERE id = ?`, rec.ID))
		if err != nil {
			return models.GuestRecord{}, err
		}
		return existing, nil
	}
	return rec, nil
}

// Save replaces every row with recs inside one transaction
func (s *SQLiteStore) Save(ctx context.Context, recs []models.GuestRecord) {
	if err := s.replace(ctx, recs); err != nil {
		s.log.Error().Err(err).Int("guests", len(recs)).Msg("Failed to save guests")
	}
}

func (s *SQLiteStore) replace(ctx context.Context, recs []models.GuestRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM guests`); err != nil {
		return fmt.Errorf("failed to clear guests: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO guests (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, rec := range recs {
		args, err := sqliteArgs(stamp(rec, now))
		if err != nil {
			return fmt.Errorf("failed to encode drinks: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert guest %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
