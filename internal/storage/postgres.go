package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const pgColumns = `id, name, guest_count, attending, drinks, custom_drink, comment, created_at`

// PostgresStore keeps guests in <schema>.guests, ordered by a bigserial column.
// A pool passed to NewPostgresStore is owned by the caller; OpenPostgres owns its pool.
type PostgresStore struct {
	pool     *pgxpool.Pool
	schema   string
	ownsPool bool
	log      zerolog.Logger
	now      func() time.Time
}

// NewPostgresStore wraps an existing pool. The schema must be a plain identifier.
func NewPostgresStore(pool *pgxpool.Pool, schema string, log zerolog.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("storage: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "public"
	}
	if !pgIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("storage: invalid schema identifier %q", schema)
	}
	return &PostgresStore{
		pool:   pool,
		schema: schema,
		log:    log.With().Str("store", "postgres").Str("schema", schema).Logger(),
		now:    time.Now,
	}, nil
}

// OpenPostgres connects to databaseURL, verifies the connection and ensures the schema
func OpenPostgres(ctx context.Context, databaseURL, schema string, log zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st, err := NewPostgresStore(pool, schema, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	st.ownsPool = true

	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "guests"}.Sanitize()
}

// EnsureSchema creates the schema and the guests table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.table() + ` (
			seq          BIGSERIAL,
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			guest_count  TEXT NOT NULL DEFAULT '1',
			attending    TEXT NOT NULL DEFAULT 'yes',
			drinks       TEXT[] NOT NULL DEFAULT '{}',
			custom_drink TEXT NOT NULL DEFAULT '',
			comment      TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Load returns all records, or an empty slice on error
func (s *PostgresStore) Load(ctx context.Context) []models.GuestRecord {
	recs, err := s.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load guests, using an empty list")
		return []models.GuestRecord{}
	}
	return recs
}

// List returns all records in insertion order
func (s *PostgresStore) List(ctx context.Context) ([]models.GuestRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgColumns+` FROM `+s.table()+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	recs := []models.GuestRecord{}
	for rows.Next() {
		rec, err := scanPgGuest(rows)
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

func scanPgGuest(row pgx.Row) (models.GuestRecord, error) {
	var (
		rec       models.GuestRecord
		count     string
		attending string
		drinks    []string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &count, &attending, &drinks, &rec.CustomDrink, &rec.Comment, &rec.CreatedAt); err != nil {
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
	rec.Drinks = stringsToDrinks(drinks)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func pgArgs(rec models.GuestRecord) []any {
	return []any{
		rec.ID, rec.Name, string(rec.GuestCount), string(rec.Attending), drinksToStrings(rec.Drinks),
		rec.CustomDrink, rec.Comment, rec.CreatedAt,
	}
}

// Append inserts rec unless its id is already stored
func (s *PostgresStore) Append(ctx context.Context, rec models.GuestRecord) (models.GuestRecord, error) {
	rec = stamp(rec, s.now())

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+pgColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
		pgArgs(rec)...)
	if err != nil {
		return models.GuestRecord{}, fmt.Errorf("failed to insert guest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := scanPgGuest(s.pool.QueryRow(ctx,
			`SELECT `+pgColumns+` FROM `+s.table()+` WHERE id = $1`, rec.ID))
		if err != nil {
			return models.GuestRecord{}, err
		}
		return existing, nil
	}
	return rec, nil
}

// Save replaces every row with recs inside one transaction
func (s *PostgresStore) Save(ctx context.Context, recs []models.GuestRecord) {
	if err := s.replace(ctx, recs); err != nil {
		s.log.Error().Err(err).Int("guests", len(recs)).Msg("Failed to save guests")
	}
}

func (s *PostgresStore) replace(ctx context.Context, recs []models.GuestRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM `+s.table()); err != nil {
		return fmt.Errorf("failed to clear guests: %w", err)
	}

	insert := `INSERT INTO ` + s.table() + ` (` + pgColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`
	now := s.now()
	for _, rec := range recs {
		if _, err := tx.Exec(ctx, insert, pgArgs(stamp(rec, now))...); err != nil {
			return fmt.Errorf("failed to insert guest %s: %w", rec.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// Ping checks the pool connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool when the store opened it
func (s *PostgresStore) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}
