package roster

import (
	"strconv"

	"golang.org/x/text/message"

	"wedding-rsvp/internal/i18n"
	"wedding-rsvp/internal/models"
)

// Formatter renders guest counts with the plural rules of one locale
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a formatter for locale ("ru" when unknown)
func NewFormatter(locale string) Formatter {
	return Formatter{p: i18n.Printer(locale)}
}

// FormatGuestCount is total over the count enum. Input outside it is treated
// like persisted data and falls back to one guest.
func (f Formatter) FormatGuestCount(count models.GuestCount) string {
	c, err := models.ParseGuestCount(string(count))
	if err != nil {
		c = models.GuestCountOne
	}
	if c == models.GuestCountSixPlus {
		return f.p.Sprintf(i18n.GuestCountOpen)
	}
	n, _ := strconv.Atoi(string(c))
	return f.p.Sprintf(i18n.GuestCount, n)
}

// FormatGuestCount formats count in the default locale
func FormatGuestCount(count models.GuestCount) string {
	return NewFormatter("").FormatGuestCount(count)
}
