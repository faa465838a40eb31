// Package whatsapp connects a linked WhatsApp device: it notifies the hosts of
// new RSVPs, sends invitations and turns guest replies into RSVP records.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// MessageHandler is called for every incoming message not sent by this device
type MessageHandler func(*events.Message) error

// Service wraps one whatsmeow client whose session lives in DataDir/whatsmeow.db
type Service struct {
	client         *whatsmeow.Client
	log            zerolog.Logger
	messageHandler MessageHandler
}

// NewService opens the device store and creates the client. It does not connect.
func NewService(ctx context.Context, dataDir string, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(dataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	s := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		log:    log.With().Str("component", "whatsapp").Logger(),
	}
	s.client.AddEventHandler(s.eventHandler)
	return s, nil
}

// Paired reports whether the device has been linked to a phone
func (s *Service) Paired() bool {
	return s.client.Store.ID != nil
}

// Connect connects the client. An unpaired device prints pairing QR codes to
// qrOut and returns once pairing succeeds or fails.
func (s *Service) Connect(ctx context.Context, qrOut io.Writer) error {
	if s.Paired() {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			printQR(qrOut, evt.Code)
		case "success":
			s.log.Info().Msg("Device linked")
			return nil
		default:
			s.log.Warn().Str("event", evt.Event).Msg("Login event")
			if evt.Error != nil {
				return fmt.Errorf("pairing failed: %w", evt.Error)
			}
		}
	}
	if !s.Paired() {
		return fmt.Errorf("pairing did not complete")
	}
	return nil
}

func printQR(w io.Writer, code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(w, "QR Code: %s\n", code)
		fmt.Fprintln(w, "Please scan this QR code with WhatsApp to connect.")
		return
	}
	fmt.Fprintln(w, "\n"+q.ToSmallString(false))
	fmt.Fprintln(w, "📱 Please scan the QR code above with WhatsApp:")
	fmt.Fprintln(w, "   1. Open WhatsApp on your phone")
	fmt.Fprintln(w, "   2. Go to Settings > Linked Devices")
	fmt.Fprintln(w, "   3. Tap 'Link a Device'")
	fmt.Fprintln(w, "   4. Scan the QR code shown above")
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage verifies that phoneNumber is on WhatsApp and sends text to it
func (s *Service) SendMessage(ctx context.Context, phoneNumber, text string) error {
	phoneNumber = NormalizePhoneNumber(phoneNumber)

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}
	jid := resp[0].JID

	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &text,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unknown server") || strings.Contains(err.Error(), "can't send message") {
			return fmt.Errorf("failed to send message to %s (JID: %s): %w; the recipient may need to message this number first", phoneNumber, jid.String(), err)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.log.Info().Str("id", sent.ID).Time("timestamp", sent.Timestamp).Msg("Message sent")
	return nil
}

// SetMessageHandler sets the handler for incoming messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

func (s *Service) eventHandler(evt any) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Info.IsGroup {
		return
	}
	if s.messageHandler == nil {
		s.log.Debug().Str("sender", msg.Info.Sender.String()).Msg("Received message")
		return
	}
	if err := s.messageHandler(msg); err != nil {
		s.log.Error().Err(err).Str("sender", msg.Info.Sender.String()).Msg("Error handling message")
	}
}

// senderPhone returns the phone number part of a message sender
func senderPhone(jid types.JID) string {
	return NormalizePhoneNumber(jid.User)
}
