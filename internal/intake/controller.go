// Package intake implements the RSVP form: field editing, local validation and
// a single guarded submission to the guest store.
package intake

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/i18n"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// State of the form
type State int

const (
	Editing State = iota
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Values is a snapshot of the form fields. An empty Attending means the guest
// has not answered yet.
type Values struct {
	Name        string
	GuestCount  models.GuestCount
	Attending   models.Attendance
	Drinks      []models.Drink
	CustomDrink string
	Comment     string
}

// Option configures a Controller
type Option func(*Controller)

// WithProfile restricts the form to the fields and drinks of p
func WithProfile(p config.Profile) Option {
	return func(c *Controller) { c.profile = p }
}

// WithTimeout bounds the store call of each submission
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLocale selects the language of user messages
func WithLocale(locale string) Option {
	return func(c *Controller) { c.p = i18n.Printer(locale) }
}

// WithAcknowledge registers fn to run once after the record is stored
func WithAcknowledge(fn func(models.GuestRecord)) Option {
	return func(c *Controller) { c.onAck = fn }
}

// Controller is one visit to the RSVP form. A new visit needs a new Controller.
type Controller struct {
	store   storage.Store
	log     zerolog.Logger
	profile config.Profile
	timeout time.Duration
	p       *message.Printer
	onAck   func(models.GuestRecord)
	now     func() time.Time

	mu     sync.Mutex
	state  State
	values Values
	id     string
	result models.GuestRecord
}

// New creates a form in the Editing state
func New(store storage.Store, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		log:     log.With().Str("component", "intake").Logger(),
		profile: config.DefaultProfile(),
		p:       i18n.Printer(""),
		now:     time.Now,
		values: Values{
			GuestCount: models.GuestCountOne,
			Drinks:     []models.Drink{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Values returns a copy of the current field values
func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.values
	v.Drinks = slices.Clone(c.values.Drinks)
	return v
}

// Result returns the stored record once the form is submitted
func (c *Controller) Result() (models.GuestRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.state == Submitted
}

// DrinkOptions lists the drinks this form offers
func (c *Controller) DrinkOptions() []models.Drink {
	return c.profile.DrinkOptions()
}

// edit runs fn under the lock when the form is editable
func (c *Controller) edit(fn func(v *Values) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditing
	}
	return fn(&c.values)
}

func (c *Controller) SetName(name string) error {
	return c.edit(func(v *Values) error {
		v.Name = name
		return nil
	})
}

func (c *Controller) SetGuestCount(raw string) error {
	return c.edit(func(v *Values) error {
		if !c.profile.Fields.GuestCount {
			return ErrFieldDisabled
		}
		count, err := models.ParseGuestCount(raw)
		if err != nil {
			return &FieldError{Field: "guestCount", Message: "unknown value " + strings.TrimSpace(raw)}
		}
		v.GuestCount = count
		return nil
	})
}

// SetAttending records the answer. Declining clears any drink choices.
func (c *Controller) SetAttending(raw string) error {
	return c.edit(func(v *Values) error {
		a, err := models.ParseAttendance(raw)
		if err != nil {
			return &FieldError{Field: "attending", Message: "must be yes or no"}
		}
		v.Attending = a
		if a == models.AttendanceNo {
			v.Drinks = []models.Drink{}
			v.CustomDrink = ""
		}
		return nil
	})
}

// ToggleDrink selects d, or deselects it when already selected
func (c *Controller) ToggleDrink(d models.Drink) error {
	return c.edit(func(v *Values) error {
		if !c.profile.Fields.Drinks {
			return ErrFieldDisabled
		}
		if v.Attending != models.AttendanceYes {
			return ErrDrinksNeedAttendance
		}
		if !c.profile.OffersDrink(d) {
			return &FieldError{Field: "drinks", Message: "unknown drink " + string(d)}
		}

		if i := slices.Index(v.Drinks, d); i >= 0 {
			v.Drinks = slices.Delete(v.Drinks, i, i+1)
			if d == models.DrinkCustom {
				v.CustomDrink = ""
			}
			return nil
		}
		v.Drinks = models.NormalizeDrinks(append(v.Drinks, d))
		return nil
	})
}

func (c *Controller) SetCustomDrink(text string) error {
	return c.edit(func(v *Values) error {
		if !c.profile.Fields.Drinks {
			return ErrFieldDisabled
		}
		if v.Attending != models.AttendanceYes {
			return ErrDrinksNeedAttendance
		}
		if !slices.Contains(v.Drinks, models.DrinkCustom) {
			return &FieldError{Field: "customDrink", Message: "select the custom drink option first"}
		}
		v.CustomDrink = text
		return nil
	})
}

func (c *Controller) SetComment(text string) error {
	return c.edit(func(v *Values) error {
		if !c.profile.Fields.Comment {
			return ErrFieldDisabled
		}
		v.Comment = text
		return nil
	})
}

// Submit validates the form and appends it to the store. Only one call can be
// in flight; the record id is fixed on the first attempt so a retry after a
// failure cannot create a second record.
func (c *Controller) Submit(ctx context.Context) (models.GuestRecord, error) {
	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return models.GuestRecord{}, ErrSubmitInProgress
	case Submitted:
		c.mu.Unlock()
		return models.GuestRecord{}, ErrAlreadySubmitted
	}

	candidate, err := c.candidateLocked()
	if err != nil {
		c.mu.Unlock()
		return models.GuestRecord{}, err
	}
	c.state = Submitting
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rec, err := c.store.Append(ctx, candidate)

	c.mu.Lock()
	if err != nil {
		c.state = Editing
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("id", candidate.ID).Msg("RSVP submission failed")
		return models.GuestRecord{}, &SubmitError{Err: err, UserMessage: c.p.Sprintf(i18n.SubmitFailed)}
	}
	c.state = Submitted
	c.result = rec
	ack := c.onAck
	c.mu.Unlock()

	c.log.Info().Str("id", rec.ID).Str("attending", string(rec.Attending)).Msg("RSVP submitted")
	if ack != nil {
		ack(rec)
	}
	return rec, nil
}

func (c *Controller) candidateLocked() (models.GuestRecord, error) {
	v := c.values
	if strings.TrimSpace(v.Name) == "" {
		return models.GuestRecord{}, &FieldError{Field: "name", Message: "is required", UserMessage: c.p.Sprintf(i18n.NameRequired)}
	}

	attending := v.Attending
	if attending == "" {
		attending = models.AttendanceYes
	}
	rec := models.Normalize(models.GuestRecord{
		Name:        v.Name,
		GuestCount:  v.GuestCount,
		Attending:   attending,
		Drinks:      slices.Clone(v.Drinks),
		CustomDrink: v.CustomDrink,
		Comment:     v.Comment,
	})
	if err := models.Validate(rec); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return models.GuestRecord{}, &FieldError{Field: verr.Field, Message: verr.Message, UserMessage: verr.Error()}
		}
		return models.GuestRecord{}, err
	}

	if c.id == "" {
		c.id = models.NewID(c.now())
	}
	rec.ID = c.id
	return rec, nil
}

// Acknowledgment returns the localized confirmation text for rec
func (c *Controller) Acknowledgment(rec models.GuestRecord) string {
	if rec.IsAttending() {
		return c.p.Sprintf(i18n.Thanks, rec.Name)
	}
	return c.p.Sprintf(i18n.ThanksDecline, rec.Name)
}
