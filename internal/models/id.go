package models

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new record ID (26-char ULID). IDs from one process sort by creation order.
func NewID(now time.Time) string {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		// Monotonic entropy overflowed within one millisecond.
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	}
	return id.String()
}

// IsULID reports whether s is a well-formed ULID
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// StableID returns id when it is already a ULID. Any other non-empty id, such
// as the millisecond timestamps written by older clients, maps to the same
// ULID on every call: a numeric id becomes its timestamp and the entropy is
// taken from a hash of the id.
func StableID(id string) string {
	if id == "" || IsULID(id) {
		return id
	}

	var ms uint64
	if n, err := strconv.ParseUint(id, 10, 64); err == nil && n <= ulid.MaxTime() {
		ms = n
	}
	sum := sha256.Sum256([]byte(id))
	return ulid.MustNew(ms, bytes.NewReader(sum[:10])).String()
}

// MigrateLegacyIDs rewrites every non-ULID id in recs with StableID and
// returns how many records changed.
func MigrateLegacyIDs(recs []GuestRecord) int {
	changed := 0
	for i := range recs {
		if id := StableID(recs[i].ID); id != recs[i].ID {
			recs[i].ID = id
			changed++
		}
	}
	return changed
}
