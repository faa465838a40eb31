package export

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
)

// Header is the first CSV row
var Header = []string{"id", "created_at", "name", "guest_count", "attending", "drinks", "custom_drink", "comment"}

// WriteCSV writes recs in order. Drinks are joined with ";" and left empty for
// guests who declined.
func WriteCSV(w io.Writer, recs []models.GuestRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, rec := range recs {
		drinks, custom := "", ""
		if rec.IsAttending() {
			tags := make([]string, 0, len(rec.Drinks))
			for _, d := range rec.Drinks {
				tags = append(tags, string(d))
			}
			drinks = strings.Join(tags, ";")
			custom = rec.CustomDrink
		}

		created := ""
		if !rec.CreatedAt.IsZero() {
			created = rec.CreatedAt.UTC().Format(time.RFC3339)
		}

		row := []string{
			rec.ID,
			created,
			cell(rec.Name),
			string(rec.GuestCount),
			string(rec.Attending),
			drinks,
			cell(custom),
			cell(rec.Comment),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// cell keeps spreadsheet apps from evaluating guest-entered text as a formula
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
