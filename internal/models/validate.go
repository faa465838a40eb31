package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is the kind of every validation failure
var ErrInvalid = errors.New("invalid guest record")

const (
	MaxNameLength        = 200
	MaxCustomDrinkLength = 200
	MaxCommentLength     = 2000
)

// ValidationError reports a problem with one field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Normalize trims free text, applies field defaults and drops drink data that
// has no meaning for the record (non-attendees, custom text without the custom tag).
func Normalize(r GuestRecord) GuestRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = norm.NFC.String(strings.TrimSpace(r.Name))
	r.Comment = strings.TrimSpace(r.Comment)
	r.CustomDrink = strings.TrimSpace(r.CustomDrink)

	if c, err := ParseGuestCount(string(r.GuestCount)); err == nil {
		r.GuestCount = c
	}

	if r.Attending != AttendanceYes {
		r.Drinks = []Drink{}
		r.CustomDrink = ""
		return r
	}

	r.Drinks = NormalizeDrinks(r.Drinks)
	if !r.HasDrink(DrinkCustom) {
		r.CustomDrink = ""
	}
	return r
}

// Validate checks a normalized record
func Validate(r GuestRecord) error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	if !r.GuestCount.Valid() {
		return &ValidationError{Field: "guestCount", Message: fmt.Sprintf("unknown value %q", r.GuestCount)}
	}
	if r.Attending != AttendanceYes && r.Attending != AttendanceNo {
		return &ValidationError{Field: "attending", Message: "must be yes or no"}
	}
	for _, d := range r.Drinks {
		if !d.Valid() {
			return &ValidationError{Field: "drinks", Message: fmt.Sprintf("unknown drink %q", d)}
		}
	}
	if utf8.RuneCountInString(r.CustomDrink) > MaxCustomDrinkLength {
		return &ValidationError{Field: "customDrink", Message: fmt.Sprintf("must be at most %d characters", MaxCustomDrinkLength)}
	}
	if utf8.RuneCountInString(r.Comment) > MaxCommentLength {
		return &ValidationError{Field: "comment", Message: fmt.Sprintf("must be at most %d characters", MaxCommentLength)}
	}
	return nil
}
