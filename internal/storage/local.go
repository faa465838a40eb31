package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

// DefaultKey is the blob key the guest list is stored under
const DefaultKey = "wedding-guests"

// LocalStore keeps the whole guest list as one JSON array in a BlobStore.
//
// After a failed write the in-memory copy stays authoritative for the rest of
// the process, so a guest who just submitted still sees their answer.
type LocalStore struct {
	mu    sync.Mutex
	blobs BlobStore
	key   string
	log   zerolog.Logger
	now   func() time.Time

	mem   []models.GuestRecord
	dirty bool
}

// NewLocalStore creates a store over blobs under key (DefaultKey when empty)
func NewLocalStore(blobs BlobStore, key string, log zerolog.Logger) *LocalStore {
	if key == "" {
		key = DefaultKey
	}
	return &LocalStore{
		blobs: blobs,
		key:   key,
		log:   log.With().Str("store", "local").Str("key", key).Logger(),
		now:   time.Now,
	}
}

// Load returns all records, or an empty slice when the blob is unreadable
func (s *LocalStore) Load(ctx context.Context) []models.GuestRecord {
	recs, err := s.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load guests, using an empty list")
		return []models.GuestRecord{}
	}
	return recs
}

// List returns all records or the read/decode error
func (s *LocalStore) List(ctx context.Context) ([]models.GuestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx)
}

func (s *LocalStore) listLocked(ctx context.Context) ([]models.GuestRecord, error) {
	if s.dirty {
		return cloneRecords(s.mem), nil
	}

	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, ErrBlobNotFound) {
		return []models.GuestRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guests: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.GuestRecord{}, nil
	}

	recs, err := models.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode guests: %w", err)
	}
	if n := models.DedupeIDs(recs); n > 0 {
		s.log.Warn().Int("reassigned", n).Msg("Duplicate guest ids in stored data")
	}
	return recs, nil
}

// Save overwrites the stored list
func (s *LocalStore) Save(ctx context.Context, recs []models.GuestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx, recs)
}

func (s *LocalStore) saveLocked(ctx context.Context, recs []models.GuestRecord) {
	if recs == nil {
		recs = []models.GuestRecord{}
	}
	s.mem = cloneRecords(recs)

	data, err := json.Marshal(recs)
	if err == nil {
		err = s.blobs.Set(ctx, s.key, data)
	}
	if err != nil {
		s.dirty = true
		s.log.Error().Err(err).Int("guests", len(recs)).Msg("Failed to save guests, keeping them in memory")
		return
	}
	s.dirty = false
}

// Append adds rec unless a record with its id is already stored
func (s *LocalStore) Append(ctx context.Context, rec models.GuestRecord) (models.GuestRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.GuestRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.listLocked(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Stored guests are unreadable and will be replaced")
		recs = []models.GuestRecord{}
	}

	rec = stamp(rec, s.now())
	if existing, ok := findByID(recs, rec.ID); ok {
		return existing, nil
	}

	s.saveLocked(ctx, append(recs, rec))
	return rec, nil
}

// Close implements Store
func (s *LocalStore) Close() error {
	return nil
}
