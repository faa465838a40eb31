package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

// flakyBlobs is an in-memory BlobStore whose writes can be made to fail
type flakyBlobs struct {
	mu        sync.Mutex
	data      map[string][]byte
	failWrite error
	writes    int
}

func newFlakyBlobs() *flakyBlobs {
	return &flakyBlobs{data: map[string][]byte{}}
}

func (b *flakyBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return d, nil
}

func (b *flakyBlobs) Set(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if b.failWrite != nil {
		return b.failWrite
	}
	b.data[key] = append([]byte(nil), data...)
	return nil
}

func (b *flakyBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *flakyBlobs) setFail(err error) {
	b.mu.Lock()
	b.failWrite = err
	b.mu.Unlock()
}

func TestLocalStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewLocalStore(NewFileBlobs(t.TempDir()), "", zerolog.Nop())
	})
}

func TestLocalStoreLoadIsLenient(t *testing.T) {
	ctx := context.Background()

	cases := map[string]string{
		"not json":   `{{{`,
		"not array":  `{"name":"Ivan"}`,
		"whitespace": "  \n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			blobs := newFlakyBlobs()
			blobs.data[DefaultKey] = []byte(raw)
			st := NewLocalStore(blobs, DefaultKey, zerolog.Nop())
			assert.Empty(t, st.Load(ctx))
		})
	}
}

func TestLocalStoreListReportsCorruption(t *testing.T) {
	blobs := newFlakyBlobs()
	blobs.data[DefaultKey] = []byte(`{{{`)
	st := NewLocalStore(blobs, DefaultKey, zerolog.Nop())

	_, err := st.List(context.Background())
	assert.Error(t, err)
}

func TestLocalStoreDecodesLooseRecords(t *testing.T) {
	blobs := newFlakyBlobs()
	blobs.data[DefaultKey] = []byte(`[
		{"id":"a","name":"Ivan Petrov","guestCount":"2","attending":"yes","drinks":["red-wine","absinthe"]},
		{"id":"a","name":"Duplicate"},
		{"name":"No Id","guestCount":3},
		42
	]`)
	st := NewLocalStore(blobs, DefaultKey, zerolog.Nop())

	recs := st.Load(context.Background())
	require.Len(t, recs, 3)
	assert.Equal(t, []models.Drink{models.DrinkRedWine}, recs[0].Drinks)
	assert.NotEqual(t, "a", recs[1].ID, "duplicate id is reassigned")
	assert.Equal(t, models.AttendanceYes, recs[1].Attending)
	assert.Equal(t, models.GuestCountThree, recs[2].GuestCount)
	assert.NotEmpty(t, recs[2].ID)
}

func TestLocalStoreKeepsRecordsInMemoryAfterFailedWrite(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobs()
	st := NewLocalStore(blobs, DefaultKey, zerolog.Nop())

	_, err := st.Append(ctx, guest("Saved", models.GuestCountOne, models.AttendanceYes))
	require.NoError(t, err)

	blobs.setFail(errors.New("quota exceeded"))
	rec, err := st.Append(ctx, guest("Unsaved", models.GuestCountTwo, models.AttendanceYes))
	require.NoError(t, err, "a failed write is logged, not returned")

	recs := st.Load(ctx)
	require.Len(t, recs, 2)
	assert.Equal(t, rec.ID, recs[1].ID)

	// the next successful write persists the whole in-memory set
	blobs.setFail(nil)
	_, err = st.Append(ctx, guest("Third", models.GuestCountOne, models.AttendanceNo))
	require.NoError(t, err)

	fresh := NewLocalStore(blobs, DefaultKey, zerolog.Nop())
	assert.Len(t, fresh.Load(ctx), 3)
}

func TestLocalStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	st := NewLocalStore(NewFileBlobs(t.TempDir()), DefaultKey, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.Append(ctx, guest(fmt.Sprintf("Guest %d", i), models.GuestCountOne, models.AttendanceYes))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	recs := st.Load(ctx)
	require.Len(t, recs, 20)
	seen := map[string]bool{}
	for _, r := range recs {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

func TestLocalStoreAppendHonoursCancelledContext(t *testing.T) {
	blobs := newFlakyBlobs()
	st := NewLocalStore(blobs, DefaultKey, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Append(ctx, guest("Ivan", models.GuestCountOne, models.AttendanceYes))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, blobs.writes)
}
