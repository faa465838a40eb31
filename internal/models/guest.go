package models

import (
	"fmt"
	"strings"
	"time"
)

// GuestRecord represents one submitted RSVP answer
type GuestRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	GuestCount  GuestCount `json:"guestCount"`
	Attending   Attendance `json:"attending"`
	Drinks      []Drink    `json:"drinks"`
	CustomDrink string     `json:"customDrink"`
	Comment     string     `json:"comment"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsAttending reports whether the guest confirmed attendance
func (r GuestRecord) IsAttending() bool {
	return r.Attending == AttendanceYes
}

// PublicGuest is the roster projection of a record that is safe to show to other guests
type PublicGuest struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	GuestCount GuestCount `json:"guestCount"`
	Attending  Attendance `json:"attending"`
}

// Public returns the roster projection of the record
func (r GuestRecord) Public() PublicGuest {
	return PublicGuest{
		ID:         r.ID,
		Name:       r.Name,
		GuestCount: r.GuestCount,
		Attending:  r.Attending,
	}
}

// Attendance represents the attendance answer
type Attendance string

const (
	AttendanceYes Attendance = "yes"
	AttendanceNo  Attendance = "no"
)

// ParseAttendance accepts only the two explicit answers
func ParseAttendance(raw string) (Attendance, error) {
	switch Attendance(strings.ToLower(strings.TrimSpace(raw))) {
	case AttendanceYes:
		return AttendanceYes, nil
	case AttendanceNo:
		return AttendanceNo, nil
	}
	return "", fmt.Errorf("%w: attending must be %q or %q", ErrInvalid, AttendanceYes, AttendanceNo)
}

// GuestCount is the party size bucket chosen on the form
type GuestCount string

const (
	GuestCountOne     GuestCount = "1"
	GuestCountTwo     GuestCount = "2"
	GuestCountThree   GuestCount = "3"
	GuestCountFour    GuestCount = "4"
	GuestCountFive    GuestCount = "5"
	GuestCountSixPlus GuestCount = "6+"
)

// GuestCounts lists every bucket in form order
var GuestCounts = []GuestCount{
	GuestCountOne,
	GuestCountTwo,
	GuestCountThree,
	GuestCountFour,
	GuestCountFive,
	GuestCountSixPlus,
}

// Valid reports whether c is one of the known buckets
func (c GuestCount) Valid() bool {
	for _, known := range GuestCounts {
		if c == known {
			return true
		}
	}
	return false
}

// ParseGuestCount normalizes a raw value. Empty input defaults to "1" and the
// legacy "6" bucket folds into "6+".
func ParseGuestCount(raw string) (GuestCount, error) {
	v := strings.TrimSpace(raw)
	switch v {
	case "":
		return GuestCountOne, nil
	case "6":
		return GuestCountSixPlus, nil
	}
	c := GuestCount(v)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown guest count %q", ErrInvalid, raw)
	}
	return c, nil
}

// Drink is a drink preference tag
type Drink string

const (
	DrinkRedWine      Drink = "red-wine"
	DrinkWhiteWine    Drink = "white-wine"
	DrinkWhiskey      Drink = "whiskey"
	DrinkVodka        Drink = "vodka"
	DrinkChampagne    Drink = "champagne"
	DrinkNonAlcoholic Drink = "non-alcoholic"
	DrinkCustom       Drink = "custom"
)

// DrinkVocabulary is the fixed tag set in form order
var DrinkVocabulary = []Drink{
	DrinkRedWine,
	DrinkWhiteWine,
	DrinkWhiskey,
	DrinkVodka,
	DrinkChampagne,
	DrinkNonAlcoholic,
	DrinkCustom,
}

// Valid reports whether d belongs to the vocabulary
func (d Drink) Valid() bool {
	for _, known := range DrinkVocabulary {
		if d == known {
			return true
		}
	}
	return false
}

// NormalizeDrinks keeps known tags only, without duplicates, in vocabulary order
func NormalizeDrinks(drinks []Drink) []Drink {
	seen := make(map[Drink]bool, len(drinks))
	for _, d := range drinks {
		seen[Drink(strings.TrimSpace(string(d)))] = true
	}
	out := make([]Drink, 0, len(seen))
	for _, known := range DrinkVocabulary {
		if seen[known] {
			out = append(out, known)
		}
	}
	return out
}

// HasDrink reports whether the record selected d
func (r GuestRecord) HasDrink(d Drink) bool {
	for _, have := range r.Drinks {
		if have == d {
			return true
		}
	}
	return false
}
