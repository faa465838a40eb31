// Package storage persists guest records.
//
// Every backend keeps records in insertion order and treats Append as
// idempotent by record id, so a retried submission never produces a duplicate.
package storage

import (
	"context"
	"time"

	"wedding-rsvp/internal/models"
)

// Store is the guest record store used by the intake form and the roster
type Store interface {
	// Load returns all records. Read failures are logged and yield an empty slice.
	Load(ctx context.Context) []models.GuestRecord
	// Save overwrites the persisted set. Failures are logged, never returned.
	Save(ctx context.Context, recs []models.GuestRecord)
	// Append stores rec, assigning an id and timestamp when empty. If a record
	// with the same id exists it is returned unchanged and nothing is written.
	Append(ctx context.Context, rec models.GuestRecord) (models.GuestRecord, error)
	// List is the strict read used by the server and export paths.
	List(ctx context.Context) ([]models.GuestRecord, error)
	Close() error
}

// Pinger is implemented by stores that can check their backend connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// stamp fills the id and creation time of a new record
func stamp(rec models.GuestRecord, now time.Time) models.GuestRecord {
	if rec.ID == "" {
		rec.ID = models.NewID(now)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	if rec.Drinks == nil {
		rec.Drinks = []models.Drink{}
	}
	return rec
}

func findByID(recs []models.GuestRecord, id string) (models.GuestRecord, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return models.GuestRecord{}, false
}

func cloneRecords(recs []models.GuestRecord) []models.GuestRecord {
	out := make([]models.GuestRecord, len(recs))
	for i, r := range recs {
		r.Drinks = append([]models.Drink{}, r.Drinks...)
		out[i] = r
	}
	return out
}

func drinksToStrings(drinks []models.Drink) []string {
	out := make([]string, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, string(d))
	}
	return out
}

func stringsToDrinks(tags []string) []models.Drink {
	drinks := make([]models.Drink, 0, len(tags))
	for _, t := range tags {
		drinks = append(drinks, models.Drink(t))
	}
	return models.NormalizeDrinks(drinks)
}
