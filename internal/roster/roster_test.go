package roster

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

func TestFormatGuestCountRussian(t *testing.T) {
	want := map[models.GuestCount]string{
		models.GuestCountOne:     "1 человек",
		models.GuestCountTwo:     "2 человека",
		models.GuestCountThree:   "3 человека",
		models.GuestCountFour:    "4 человека",
		models.GuestCountFive:    "5 человек",
		models.GuestCountSixPlus: "6+ человек",
	}
	for _, c := range models.GuestCounts {
		assert.Equal(t, want[c], FormatGuestCount(c), "count %s", c)
	}
}

func TestFormatGuestCountEnglish(t *testing.T) {
	f := NewFormatter("en")
	assert.Equal(t, "1 person", f.FormatGuestCount(models.GuestCountOne))
	assert.Equal(t, "2 people", f.FormatGuestCount(models.GuestCountTwo))
	assert.Equal(t, "5 people", f.FormatGuestCount(models.GuestCountFive))
	assert.Equal(t, "6+ people", f.FormatGuestCount(models.GuestCountSixPlus))
}

func TestFormatGuestCountIsDeterministic(t *testing.T) {
	for _, c := range models.GuestCounts {
		assert.Equal(t, FormatGuestCount(c), FormatGuestCount(c))
	}
	assert.Equal(t, "1 человек", FormatGuestCount("17"))
	assert.Equal(t, "6+ человек", FormatGuestCount("6"))
}

func TestBuildFiltersAndDedupes(t *testing.T) {
	recs := []models.GuestRecord{
		{ID: "a", Name: "Ivan Petrov", GuestCount: models.GuestCountTwo, Attending: models.AttendanceYes},
		{ID: "b", Name: "Declined", GuestCount: models.GuestCountFive, Attending: models.AttendanceNo},
		{ID: "a", Name: "Ivan Again", GuestCount: models.GuestCountOne, Attending: models.AttendanceYes},
		{ID: "c", Name: "Maria", GuestCount: models.GuestCountSixPlus, Attending: models.AttendanceYes},
	}

	v := Build(recs, "en")
	require.False(t, v.Empty)
	require.Len(t, v.Entries, 2)
	assert.Equal(t, "Ivan Petrov — 2 people", v.Entries[0].Display)
	assert.Equal(t, "Maria — 6+ people", v.Entries[1].Display)
	assert.Equal(t, 8, v.Headcount)
	assert.True(t, v.HeadcountAtLeast)
}

func TestBuildPlaceholder(t *testing.T) {
	v := Build([]models.GuestRecord{
		{ID: "b", Name: "Declined", GuestCount: models.GuestCountOne, Attending: models.AttendanceNo},
	}, "ru")

	assert.True(t, v.Empty)
	assert.Empty(t, v.Entries)
	assert.Equal(t, "Пока никто не подтвердил участие.", v.Placeholder)
}

func TestRenderCorruptStoreShowsPlaceholder(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewFileBlobs(t.TempDir())
	require.NoError(t, blobs.Set(ctx, storage.DefaultKey, []byte(`not json`)))

	r := NewRenderer(storage.NewLocalStore(blobs, storage.DefaultKey, zerolog.Nop()), "ru")
	assert.True(t, r.Render(ctx).Empty)
}

func TestWriteText(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	recs := []models.GuestRecord{
		{ID: "a", Name: "Ivan Petrov", GuestCount: models.GuestCountTwo, Attending: models.AttendanceYes},
		{ID: "b", Name: "Anna", GuestCount: models.GuestCountOne, Attending: models.AttendanceYes},
		{ID: "c", Name: "Declined", GuestCount: models.GuestCountThree, Attending: models.AttendanceNo},
		{ID: "d", Name: "Sidorov family", GuestCount: models.GuestCountSixPlus, Attending: models.AttendanceYes},
	}

	var buf bytes.Buffer
	require.NoError(t, Build(recs, "ru").WriteText(&buf))
	g.Assert(t, "roster_ru", buf.Bytes())

	buf.Reset()
	require.NoError(t, Build(nil, "en").WriteText(&buf))
	g.Assert(t, "roster_empty_en", buf.Bytes())
}
