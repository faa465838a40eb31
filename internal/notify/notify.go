// Package notify tells the hosts about new RSVPs.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/i18n"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/roster"
)

// Notifier delivers one RSVP to the hosts over some channel
type Notifier interface {
	Name() string
	NotifyRSVP(ctx context.Context, rec models.GuestRecord) error
}

// Observer is told the result of every delivery
type Observer func(channel string, err error)

// Dispatcher fans a record out to every notifier in the background.
// Failures are logged and never reach the guest.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	observe   Observer
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A zero timeout means 30 seconds.
func NewDispatcher(log zerolog.Logger, timeout time.Duration, observe Observer, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		observe:   observe,
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// Len returns the number of configured notifiers
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Dispatch starts one goroutine per notifier and returns immediately
func (d *Dispatcher) Dispatch(rec models.GuestRecord) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			err := n.NotifyRSVP(ctx, rec)
			if d.observe != nil {
				d.observe(n.Name(), err)
			}
			if err != nil {
				d.log.Error().Err(err).Str("channel", n.Name()).Str("id", rec.ID).Msg("Failed to notify hosts")
				return
			}
			d.log.Debug().Str("channel", n.Name()).Str("id", rec.ID).Msg("Hosts notified")
		}(n)
	}
}

// Wait blocks until in-flight notifications finish or ctx ends
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subject is the headline of a host notification
func Subject(rec models.GuestRecord, locale string) string {
	p := i18n.Printer(locale)
	if rec.IsAttending() {
		return p.Sprintf(i18n.SubjectComing, rec.Name)
	}
	return p.Sprintf(i18n.SubjectDeclined, rec.Name)
}

// FormatRSVPMessage renders the plain-text body sent to the hosts
func FormatRSVPMessage(ev config.Event, rec models.GuestRecord, locale string) string {
	p := i18n.Printer(locale)
	var b strings.Builder

	b.WriteString(p.Sprintf(i18n.NotifyHeader, ev.BrideName, ev.GroomName) + "\n\n")
	b.WriteString(p.Sprintf(i18n.NotifyName, rec.Name) + "\n")
	if rec.IsAttending() {
		b.WriteString(p.Sprintf(i18n.NotifyComing, roster.NewFormatter(locale).FormatGuestCount(rec.GuestCount)) + "\n")
		if len(rec.Drinks) > 0 {
			drinks := make([]string, 0, len(rec.Drinks))
			for _, d := range rec.Drinks {
				if d == models.DrinkCustom && rec.CustomDrink != "" {
					drinks = append(drinks, rec.CustomDrink)
					continue
				}
				drinks = append(drinks, string(d))
			}
			b.WriteString(p.Sprintf(i18n.NotifyDrinks, strings.Join(drinks, ", ")) + "\n")
		}
	} else {
		b.WriteString(p.Sprintf(i18n.NotifyDeclined) + "\n")
	}
	if rec.Comment != "" {
		b.WriteString(p.Sprintf(i18n.NotifyComment, rec.Comment) + "\n")
	}
	fmt.Fprintf(&b, "\n📅 %s\n📍 %s", ev.WeddingDate, ev.WeddingLocation)
	return b.String()
}
