package models

import "strings"

// Submission is the JSON payload accepted by the submission endpoint
type Submission struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	GuestCount  string   `json:"guestCount"`
	Attending   string   `json:"attending"`
	Drinks      []string `json:"drinks"`
	CustomDrink string   `json:"customDrink"`
	Comment     string   `json:"comment"`
}

// SubmissionFrom builds the wire payload for a record
func SubmissionFrom(r GuestRecord) Submission {
	drinks := make([]string, 0, len(r.Drinks))
	for _, d := range r.Drinks {
		drinks = append(drinks, string(d))
	}
	return Submission{
		ID:          r.ID,
		Name:        r.Name,
		GuestCount:  string(r.GuestCount),
		Attending:   string(r.Attending),
		Drinks:      drinks,
		CustomDrink: r.CustomDrink,
		Comment:     r.Comment,
	}
}

// Record validates the payload strictly and returns the normalized record.
// Unlike persisted data, an unknown drink tag or guest count is rejected here.
func (s Submission) Record() (GuestRecord, error) {
	attending, err := ParseAttendance(s.Attending)
	if err != nil {
		return GuestRecord{}, &ValidationError{Field: "attending", Message: "must be yes or no"}
	}
	count, err := ParseGuestCount(s.GuestCount)
	if err != nil {
		return GuestRecord{}, &ValidationError{Field: "guestCount", Message: "unknown value " + strings.TrimSpace(s.GuestCount)}
	}

	drinks := make([]Drink, 0, len(s.Drinks))
	for _, raw := range s.Drinks {
		d := Drink(strings.TrimSpace(raw))
		if !d.Valid() {
			return GuestRecord{}, &ValidationError{Field: "drinks", Message: "unknown drink " + raw}
		}
		drinks = append(drinks, d)
	}

	rec := Normalize(GuestRecord{
		ID:          s.ID,
		Name:        s.Name,
		GuestCount:  count,
		Attending:   attending,
		Drinks:      drinks,
		CustomDrink: s.CustomDrink,
		Comment:     s.Comment,
	})
	if err := Validate(rec); err != nil {
		return GuestRecord{}, err
	}
	return rec, nil
}
