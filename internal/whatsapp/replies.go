package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/intake"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Reply is a guest's answer parsed from a free-text message
type Reply struct {
	Attending  models.Attendance
	GuestCount models.GuestCount
}

var (
	declinePhrases = []string{"not coming", "not attending", "can't come", "cant come", "won't come", "won't be", "will not", "can't make it", "decline", "не приду", "не придём", "не придем", "не буду", "не будем", "не смогу", "не получится", "❌"}
	declineWords   = []string{"no", "nope", "нет", "-"}
	acceptPhrases  = []string{"accept", "attending", "coming", "will come", "will be there", "приду", "придём", "придем", "буду", "будем", "✅"}
	acceptWords    = []string{"yes", "yep", "yeah", "да", "ага", "+"}

	// a negation directly before a word starting with one of acceptStems is a decline
	negations   = []string{"не", "not", "never", "won't", "wont", "cannot", "can't", "cant", "don't", "dont"}
	acceptStems = []string{"accept", "attend", "com", "be", "make", "буд", "прид", "смож", "смог", "пойд"}
)

// ParseReply recognizes yes/no answers in English and Russian, optionally with
// a party size ("yes 3", "да, нас 2"). Declines are checked first so that
// "not coming" is not read as "coming".
func ParseReply(text string) (Reply, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Reply{}, false
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '!'
	})

	var r Reply
	switch {
	case containsAny(text, declinePhrases...) || hasWord(words, declineWords...) || negatedAccept(words):
		r.Attending = models.AttendanceNo
	case containsAny(text, acceptPhrases...) || hasWord(words, acceptWords...):
		r.Attending = models.AttendanceYes
	default:
		return Reply{}, false
	}

	if r.Attending == models.AttendanceYes {
		for _, w := range words {
			if w == "6+" {
				r.GuestCount = models.GuestCountSixPlus
				break
			}
			if n, err := strconv.Atoi(w); err == nil && n >= 1 {
				if n > 6 {
					n = 6
				}
				r.GuestCount, _ = models.ParseGuestCount(strconv.Itoa(n))
				break
			}
		}
	}
	return r, true
}

// containsAny checks if the text contains any of the given keywords
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func negatedAccept(words []string) bool {
	for i := 1; i < len(words); i++ {
		if !hasWord(words[i-1:i], negations...) {
			continue
		}
		for _, stem := range acceptStems {
			if strings.HasPrefix(words[i], stem) {
				return true
			}
		}
	}
	return false
}

func hasWord(words []string, want ...string) bool {
	for _, w := range words {
		for _, x := range want {
			if w == x {
				return true
			}
		}
	}
	return false
}

// ReplyHandler turns guest replies into RSVP records through the intake form
type ReplyHandler struct {
	sender   Sender
	store    storage.Store
	profile  config.Profile
	locale   string
	timeout  time.Duration
	onStored func(models.GuestRecord)
	log      zerolog.Logger

	mu         sync.Mutex
	handled    map[string]bool
	order      []string
	maxHandled int
}

// defaultMaxHandled bounds how many message ids are remembered for redelivery checks
const defaultMaxHandled = 4096

// NewReplyHandler creates a handler. onStored, when set, runs after each stored record.
func NewReplyHandler(sender Sender, store storage.Store, profile config.Profile, locale string, onStored func(models.GuestRecord), log zerolog.Logger) *ReplyHandler {
	return &ReplyHandler{
		sender:     sender,
		store:      store,
		profile:    profile,
		locale:     locale,
		timeout:    30 * time.Second,
		onStored:   onStored,
		log:        log.With().Str("component", "whatsapp-replies").Logger(),
		handled:    map[string]bool{},
		maxHandled: defaultMaxHandled,
	}
}

// HandleMessage implements MessageHandler
func (h *ReplyHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}
	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	reply, ok := ParseReply(text)
	if !ok {
		return nil
	}

	// WhatsApp may redeliver a message after a reconnect
	if !h.markHandled(msg.Info.ID) {
		return nil
	}

	phone := senderPhone(msg.Info.Sender)
	name := strings.TrimSpace(msg.Info.PushName)
	if name == "" {
		name = "+" + phone
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	rec, ack, err := h.submit(ctx, name, reply)
	if err != nil {
		return fmt.Errorf("failed to store reply from %s: %w", phone, err)
	}
	h.log.Info().Str("id", rec.ID).Str("phone", phone).Str("attending", string(rec.Attending)).Msg("RSVP received over WhatsApp")

	if err := h.sender.SendMessage(ctx, phone, ack); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// markHandled records id and reports whether it was new. The oldest ids are
// forgotten once maxHandled are remembered.
func (h *ReplyHandler) markHandled(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handled[id] {
		return false
	}
	if len(h.order) >= h.maxHandled {
		delete(h.handled, h.order[0])
		h.order = h.order[1:]
	}
	h.handled[id] = true
	h.order = append(h.order, id)
	return true
}

func (h *ReplyHandler) submit(ctx context.Context, name string, reply Reply) (models.GuestRecord, string, error) {
	opts := []intake.Option{intake.WithProfile(h.profile), intake.WithLocale(h.locale)}
	if h.onStored != nil {
		opts = append(opts, intake.WithAcknowledge(h.onStored))
	}
	form := intake.New(h.store, h.log, opts...)

	if err := form.SetName(name); err != nil {
		return models.GuestRecord{}, "", err
	}
	if err := form.SetAttending(string(reply.Attending)); err != nil {
		return models.GuestRecord{}, "", err
	}
	if reply.GuestCount != "" {
		if err := form.SetGuestCount(string(reply.GuestCount)); err != nil && !errors.Is(err, intake.ErrFieldDisabled) {
			return models.GuestRecord{}, "", err
		}
	}

	rec, err := form.Submit(ctx)
	if err != nil {
		return models.GuestRecord{}, "", err
	}
	return rec, form.Acknowledgment(rec), nil
}
