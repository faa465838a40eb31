package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "rsvp.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return openTestSQLite(t)
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rsvp.db")

	st, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	rec, err := st.Append(ctx, guest("Ivan Petrov", models.GuestCountTwo, models.AttendanceYes))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	recs, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.NoError(t, st.Ping(ctx))
}
