package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

// fakeServer keeps submissions in memory and serves the public roster
type fakeServer struct {
	mu    sync.Mutex
	recs  []models.GuestRecord
	posts int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == SubmitPath:
		f.posts++
		var sub models.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sub.ID != "" && !models.IsULID(sub.ID) {
			sub.ID = ""
		}
		rec, err := sub.Record()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		if existing, ok := findByID(f.recs, rec.ID); ok {
			_ = json.NewEncoder(w).Encode(existing)
			return
		}
		if rec.ID == "" {
			rec.ID = models.NewID(time.Now())
		}
		f.recs = append(f.recs, rec)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodGet && r.URL.Path == GuestsPath:
		out := []models.PublicGuest{}
		for _, rec := range f.recs {
			if rec.IsAttending() {
				out = append(out, rec.Public())
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	default:
		http.NotFound(w, r)
	}
}

func newRemote(t *testing.T, h http.Handler) *RemoteStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRemoteStore(srv.URL, srv.Client(), zerolog.Nop())
}

func TestRemoteStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	fake := &fakeServer{}
	st := newRemote(t, fake)

	rec, err := st.Append(ctx, guest("Ivan Petrov", models.GuestCountTwo, models.AttendanceYes, models.DrinkWhiskey))
	require.NoError(t, err)
	assert.True(t, models.IsULID(rec.ID))

	_, err = st.Append(ctx, guest("Declined", models.GuestCountOne, models.AttendanceNo))
	require.NoError(t, err)

	recs, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, models.GuestCountTwo, recs[0].GuestCount)
	assert.Empty(t, recs[0].Drinks, "drinks are not part of the public roster")
}

func TestRemoteStoreRetryKeepsID(t *testing.T) {
	ctx := context.Background()
	fake := &fakeServer{}
	st := newRemote(t, fake)

	first, err := st.Append(ctx, guest("Ivan", models.GuestCountOne, models.AttendanceYes))
	require.NoError(t, err)
	second, err := st.Append(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, fake.recs, 1)
}

func TestRemoteStoreErrorMessage(t *testing.T) {
	st := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"could not store RSVP"}`))
	}))

	_, err := st.Append(context.Background(), guest("Ivan", models.GuestCountOne, models.AttendanceYes))
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusInternalServerError, remoteErr.Status)
	assert.Equal(t, "could not store RSVP", remoteErr.Message)

	assert.Empty(t, st.Load(context.Background()))
}

func TestRemoteStoreTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	st := NewRemoteStore(url, nil, zerolog.Nop())
	_, err := st.List(context.Background())

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Zero(t, remoteErr.Status)
	assert.NotNil(t, remoteErr.Err)
}

func TestRemoteStoreSyncPostsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	fake := &fakeServer{}
	st := newRemote(t, fake)

	already, err := st.Append(ctx, guest("Already There", models.GuestCountOne, models.AttendanceYes))
	require.NoError(t, err)
	fake.posts = 0

	local := NewLocalStore(newFlakyBlobs(), DefaultKey, zerolog.Nop())
	local.Save(ctx, []models.GuestRecord{already})
	_, err = local.Append(ctx, guest("New Guest", models.GuestCountThree, models.AttendanceYes))
	require.NoError(t, err)

	pushed, err := st.Sync(ctx, local.Load(ctx))
	require.NoError(t, err)
	assert.Equal(t, 1, pushed)
	assert.Equal(t, 1, fake.posts)
	assert.Len(t, fake.recs, 2)
}

func TestRemoteStoreSyncLegacyIDsOnce(t *testing.T) {
	ctx := context.Background()
	fake := &fakeServer{}
	st := newRemote(t, fake)

	blobs := newFlakyBlobs()
	require.NoError(t, blobs.Set(ctx, DefaultKey, []byte(
		`[{"id":"1717171717171","name":"Masha","guestCount":"2","attending":"yes","drinks":[]},`+
			`{"id":"1717171717999","name":"Oleg","attending":"no"}]`)))
	local := NewLocalStore(blobs, DefaultKey, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := st.Sync(ctx, local.Load(ctx))
		require.NoError(t, err)
	}
	require.Len(t, fake.recs, 2)
	assert.Equal(t, models.StableID("1717171717171"), fake.recs[0].ID)
	assert.Equal(t, models.StableID("1717171717999"), fake.recs[1].ID)
}
