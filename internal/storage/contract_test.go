package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

func guest(name string, count models.GuestCount, attending models.Attendance, drinks ...models.Drink) models.GuestRecord {
	if drinks == nil {
		drinks = []models.Drink{}
	}
	return models.GuestRecord{
		Name:       name,
		GuestCount: count,
		Attending:  attending,
		Drinks:     drinks,
	}
}

// runStoreContract checks the behaviour every Store backend shares
func runStoreContract(t *testing.T, open func(t *testing.T) Store) {
	t.Run("empty store loads nothing", func(t *testing.T) {
		st := open(t)
		assert.Empty(t, st.Load(context.Background()))
	})

	t.Run("append assigns id and keeps order", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)

		a, err := st.Append(ctx, guest("Ivan Petrov", models.GuestCountTwo, models.AttendanceYes, models.DrinkRedWine))
		require.NoError(t, err)
		b, err := st.Append(ctx, guest("Anna", models.GuestCountOne, models.AttendanceNo))
		require.NoError(t, err)

		assert.True(t, models.IsULID(a.ID))
		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.CreatedAt.IsZero())

		recs := st.Load(ctx)
		require.Len(t, recs, 2)
		assert.Equal(t, "Ivan Petrov", recs[0].Name)
		assert.Equal(t, models.GuestCountTwo, recs[0].GuestCount)
		assert.Equal(t, []models.Drink{models.DrinkRedWine}, recs[0].Drinks)
		assert.Equal(t, "Anna", recs[1].Name)
		assert.Equal(t, models.AttendanceNo, recs[1].Attending)
	})

	t.Run("append is idempotent by id", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)

		rec := guest("Ivan Petrov", models.GuestCountTwo, models.AttendanceYes)
		rec.ID = models.NewID(time.Now())

		first, err := st.Append(ctx, rec)
		require.NoError(t, err)

		rec.Name = "Someone Else"
		second, err := st.Append(ctx, rec)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Ivan Petrov", second.Name)
		assert.Len(t, st.Load(ctx), 1)
	})

	t.Run("save overwrites the set", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)

		_, err := st.Append(ctx, guest("Old", models.GuestCountOne, models.AttendanceYes))
		require.NoError(t, err)

		now := time.Now().UTC()
		st.Save(ctx, []models.GuestRecord{
			{ID: models.NewID(now), Name: "B", GuestCount: models.GuestCountSixPlus, Attending: models.AttendanceYes, Drinks: []models.Drink{}, CreatedAt: now},
			{ID: models.NewID(now), Name: "A", GuestCount: models.GuestCountThree, Attending: models.AttendanceYes, Drinks: []models.Drink{}, CreatedAt: now},
		})

		recs, err := st.List(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "B", recs[0].Name)
		assert.Equal(t, models.GuestCountSixPlus, recs[0].GuestCount)
		assert.Equal(t, "A", recs[1].Name)
	})

	t.Run("round trip preserves fields", func(t *testing.T) {
		ctx := context.Background()
		st := open(t)

		in := models.GuestRecord{
			Name:        "Maria",
			GuestCount:  models.GuestCountFour,
			Attending:   models.AttendanceYes,
			Drinks:      []models.Drink{models.DrinkChampagne, models.DrinkCustom},
			CustomDrink: "mead",
			Comment:     "vegetarian",
		}
		stored, err := st.Append(ctx, in)
		require.NoError(t, err)

		recs, err := st.List(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		got := recs[0]
		assert.Equal(t, stored.ID, got.ID)
		assert.Equal(t, in.Drinks, got.Drinks)
		assert.Equal(t, "mead", got.CustomDrink)
		assert.Equal(t, "vegetarian", got.Comment)
		assert.WithinDuration(t, stored.CreatedAt, got.CreatedAt, time.Millisecond)
	})
}
