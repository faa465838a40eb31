package export

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), zerolog.Nop()), &calls
}

func TestRequestExportEmptyTokenMakesNoCall(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, token := range []string{"", "   "} {
		_, err := c.RequestExport(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenRequired)
	}
	assert.Zero(t, calls.Load())
	assert.Equal(t, "Enter the export token.", UserMessage(ErrTokenRequired, "en"))
}

func TestRequestExportSendsTokenHeader(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get(TokenHeader))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id\n"))
	})

	data, err := c.RequestExport(context.Background(), " s3cret ")
	require.NoError(t, err)
	assert.Equal(t, "id\n", string(data))
}

func TestRequestExportErrorCategories(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
		message string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":"export token required"}`,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, "export token required", ae.Message)
			},
			message: "The export token was rejected.",
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"message":"bad token"}`,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, http.StatusForbidden, ae.Status)
				assert.Equal(t, "bad token", ae.Message)
			},
			message: "The export token was rejected.",
		},
		{
			name:   "server error without body",
			status: http.StatusBadGateway,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "HTTP 502", se.Message)
			},
			message: "Export failed: HTTP 502",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.RequestExport(context.Background(), "token")
			tc.check(t, err)
			assert.Equal(t, tc.message, UserMessage(err, "en"))
			assert.EqualValues(t, 1, calls.Load(), "no retries")
		})
	}
}

func TestRequestExportTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, zerolog.Nop()).RequestExport(context.Background(), "token")

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Could not reach the server. Check the connection and try again.", UserMessage(err, "en"))
}

func TestUserMessagesAreDistinct(t *testing.T) {
	msgs := map[string]bool{}
	for _, err := range []error{
		ErrTokenRequired,
		&AuthError{Status: 403, Message: "no"},
		&TransportError{Err: errors.New("dial tcp: refused")},
	} {
		msg := UserMessage(err, "ru")
		assert.False(t, msgs[msg], "duplicate message %q", msg)
		msgs[msg] = true
	}
}

func TestTokenCache(t *testing.T) {
	ctx := context.Background()
	cache := NewTokenCache(storage.NewFileBlobs(t.TempDir()))

	_, ok := cache.Load(ctx)
	assert.False(t, ok)

	assert.ErrorIs(t, cache.Store(ctx, " "), ErrTokenRequired)
	require.NoError(t, cache.Store(ctx, "s3cret"))
	token, ok := cache.Load(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", token)

	require.NoError(t, cache.Forget(ctx))
	require.NoError(t, cache.Forget(ctx))
	_, ok = cache.Load(ctx)
	assert.False(t, ok)
}

func TestWriteCSV(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recs := []models.GuestRecord{
		{
			ID: "01HZX0000000000000000000A1", CreatedAt: base,
			Name: "Ivan Petrov", GuestCount: models.GuestCountTwo, Attending: models.AttendanceYes,
			Drinks: []models.Drink{models.DrinkChampagne},
		},
		{
			ID: "01HZX0000000000000000000A2", CreatedAt: base.Add(5 * time.Minute),
			Name: "Anna, Sr.", GuestCount: models.GuestCountOne, Attending: models.AttendanceNo,
			Drinks: []models.Drink{models.DrinkRedWine}, Comment: `Says "congrats"`,
		},
		{
			ID: "01HZX0000000000000000000A3", CreatedAt: base.Add(10 * time.Minute),
			Name: "=HYPERLINK(1)", GuestCount: models.GuestCountSixPlus, Attending: models.AttendanceYes,
			Drinks: []models.Drink{models.DrinkWhiskey, models.DrinkCustom}, CustomDrink: "kvass",
			Comment: "line1\nline2",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export", buf.Bytes())
}
