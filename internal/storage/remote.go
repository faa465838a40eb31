package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/apijson"
	"wedding-rsvp/internal/models"
)

// Paths served by the RSVP server
const (
	SubmitPath = "/api/rsvp"
	GuestsPath = "/api/rsvp/guests"
)

const maxResponseBytes = 4 << 20

// RemoteError is a failed call to the RSVP server. Status is zero when the
// request never got a response.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RemoteStore talks to an RSVP server over HTTP. The server owns ordering and
// id uniqueness; this store only assigns ids to new records.
type RemoteStore struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
}

// NewRemoteStore creates a store for the server at baseURL
func NewRemoteStore(baseURL string, client *http.Client, log zerolog.Logger) *RemoteStore {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteStore{
		baseURL: baseURL,
		client:  client,
		log:     log.With().Str("store", "remote").Str("url", baseURL).Logger(),
		now:     time.Now,
	}
}

// Load returns the public roster, or an empty slice on error
func (s *RemoteStore) Load(ctx context.Context) []models.GuestRecord {
	recs, err := s.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load guests, using an empty list")
		return []models.GuestRecord{}
	}
	return recs
}

// List fetches the public roster. Only attendees are returned by the server
// and drink details are not part of it.
func (s *RemoteStore) List(ctx context.Context) ([]models.GuestRecord, error) {
	body, err := s.do(ctx, "list", http.MethodGet, GuestsPath, nil)
	if err != nil {
		return nil, err
	}

	var guests []models.PublicGuest
	if err := json.Unmarshal(body, &guests); err != nil {
		return nil, &RemoteError{Op: "list", Err: fmt.Errorf("failed to decode roster: %w", err)}
	}

	recs := make([]models.GuestRecord, 0, len(guests))
	for _, g := range guests {
		recs = append(recs, models.GuestRecord{
			ID:         g.ID,
			Name:       g.Name,
			GuestCount: g.GuestCount,
			Attending:  g.Attending,
			Drinks:     []models.Drink{},
		})
	}
	return recs, nil
}

// Append posts rec to the server. The id is assigned before sending so a
// retried post is recognized by the server.
func (s *RemoteStore) Append(ctx context.Context, rec models.GuestRecord) (models.GuestRecord, error) {
	rec = stamp(rec, s.now())

	payload, err := json.Marshal(models.SubmissionFrom(rec))
	if err != nil {
		return models.GuestRecord{}, fmt.Errorf("failed to encode submission: %w", err)
	}
	body, err := s.do(ctx, "append", http.MethodPost, SubmitPath, payload)
	if err != nil {
		return models.GuestRecord{}, err
	}

	var stored models.GuestRecord
	if err := json.Unmarshal(body, &stored); err != nil || stored.ID == "" {
		return rec, nil
	}
	if stored.Drinks == nil {
		stored.Drinks = []models.Drink{}
	}
	return stored, nil
}

// Save posts every record the server does not list yet
func (s *RemoteStore) Save(ctx context.Context, recs []models.GuestRecord) {
	pushed, err := s.Sync(ctx, recs)
	if err != nil {
		s.log.Error().Err(err).Int("pushed", pushed).Msg("Failed to sync guests")
		return
	}
	s.log.Info().Int("pushed", pushed).Msg("Guests synced")
}

// Sync posts the records whose ids are missing from the server roster and
// returns how many were posted. Declined guests never appear in the roster,
// so they are always re-posted; the server ignores ids it already has.
// Legacy ids are sent as their StableID since the server only keeps ULIDs.
func (s *RemoteStore) Sync(ctx context.Context, recs []models.GuestRecord) (int, error) {
	remote, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(remote))
	for _, r := range remote {
		known[r.ID] = true
	}

	pushed := 0
	for _, rec := range recs {
		rec.ID = models.StableID(rec.ID)
		if rec.ID != "" && known[rec.ID] {
			continue
		}
		if _, err := s.Append(ctx, rec); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

func (s *RemoteStore) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RemoteError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if !apijson.IsSuccess(resp.StatusCode) {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Message: apijson.ErrorMessage(body, resp.StatusCode)}
	}
	return body, nil
}

// Close implements Store
func (s *RemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
