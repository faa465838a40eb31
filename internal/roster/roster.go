// Package roster builds the public list of confirmed guests.
package roster

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"wedding-rsvp/internal/i18n"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Entry is one confirmed guest
type Entry struct {
	ID         string
	Name       string
	GuestCount models.GuestCount
	Count      string
	Display    string
}

// View is a rendered roster. When Empty is set Entries is empty and
// Placeholder holds the text to show instead.
type View struct {
	Title       string
	Entries     []Entry
	Empty       bool
	Placeholder string

	// Headcount sums the party sizes; "6+" counts as six and sets HeadcountAtLeast.
	Headcount        int
	HeadcountAtLeast bool
}

// Renderer reads the store on every render
type Renderer struct {
	store  storage.Store
	locale string
}

// NewRenderer creates a renderer over store for locale
func NewRenderer(store storage.Store, locale string) *Renderer {
	return &Renderer{store: store, locale: locale}
}

// Render loads the store and builds the view
func (r *Renderer) Render(ctx context.Context) View {
	return Build(r.store.Load(ctx), r.locale)
}

// Build keeps attendees only, first record per id, in store order
func Build(recs []models.GuestRecord, locale string) View {
	f := NewFormatter(locale)
	p := i18n.Printer(locale)

	v := View{
		Title:   p.Sprintf(i18n.RosterTitle),
		Entries: []Entry{},
	}
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if !rec.IsAttending() || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		count := f.FormatGuestCount(rec.GuestCount)
		v.Entries = append(v.Entries, Entry{
			ID:         rec.ID,
			Name:       rec.Name,
			GuestCount: rec.GuestCount,
			Count:      count,
			Display:    rec.Name + " — " + count,
		})

		switch rec.GuestCount {
		case models.GuestCountSixPlus:
			v.Headcount += 6
			v.HeadcountAtLeast = true
		default:
			n, err := strconv.Atoi(string(rec.GuestCount))
			if err != nil {
				n = 1
			}
			v.Headcount += n
		}
	}

	if len(v.Entries) == 0 {
		v.Empty = true
		v.Placeholder = p.Sprintf(i18n.RosterEmpty)
	}
	return v
}

// WriteText prints the view as plain text, one guest per line
func (v View) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, v.Title); err != nil {
		return err
	}
	if v.Empty {
		_, err := fmt.Fprintln(w, v.Placeholder)
		return err
	}
	for i, e := range v.Entries {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, e.Display); err != nil {
			return err
		}
	}
	total := strconv.Itoa(v.Headcount)
	if v.HeadcountAtLeast {
		total += "+"
	}
	_, err := fmt.Fprintf(w, "= %s\n", total)
	return err
}
