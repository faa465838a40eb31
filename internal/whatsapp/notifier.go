package whatsapp

import (
	"context"
	"errors"
	"fmt"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/i18n"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notify"
)

// Sender sends a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}

// HostNotifier messages every host phone about a new RSVP
type HostNotifier struct {
	sender Sender
	hosts  []string
	event  config.Event
	locale string
}

func NewHostNotifier(sender Sender, hosts []string, ev config.Event, locale string) *HostNotifier {
	return &HostNotifier{sender: sender, hosts: hosts, event: ev, locale: locale}
}

func (n *HostNotifier) Name() string { return "whatsapp" }

// NotifyRSVP tries every host and joins the failures
func (n *HostNotifier) NotifyRSVP(ctx context.Context, rec models.GuestRecord) error {
	text := notify.FormatRSVPMessage(n.event, rec, n.locale)

	var errs []error
	for _, host := range n.hosts {
		if err := n.sender.SendMessage(ctx, host, text); err != nil {
			errs = append(errs, fmt.Errorf("host %s: %w", host, err))
		}
	}
	return errors.Join(errs...)
}

// InvitationText is the invitation sent to a guest
func InvitationText(ev config.Event, name, locale string) string {
	return i18n.Printer(locale).Sprintf(i18n.Invitation, name, ev.BrideName, ev.GroomName, ev.WeddingDate, ev.WeddingLocation)
}

// SendInvitation sends the invitation to one guest
func SendInvitation(ctx context.Context, sender Sender, ev config.Event, phoneNumber, name, locale string) error {
	if err := sender.SendMessage(ctx, phoneNumber, InvitationText(ev, name, locale)); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}
