package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrMalformed is returned when a persisted blob is not a JSON array
var ErrMalformed = errors.New("persisted guest data is not a JSON array")

// DecodeRecords parses a persisted blob leniently. Elements that are not objects
// are skipped and missing or mistyped fields fall back to defaults instead of
// rejecting the record.
func DecodeRecords(data []byte) ([]GuestRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, ErrMalformed
	}

	out := make([]GuestRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, recordFromLoose(obj))
	}
	return out, nil
}

func recordFromLoose(obj map[string]any) GuestRecord {
	r := GuestRecord{
		ID:          looseString(obj["id"], ""),
		Name:        looseString(obj["name"], ""),
		CustomDrink: looseString(obj["customDrink"], ""),
		Comment:     looseString(obj["comment"], ""),
		Attending:   AttendanceYes,
		Drinks:      []Drink{},
	}
	if r.ID == "" {
		r.ID = NewID(time.Now())
	}

	r.GuestCount = GuestCountOne
	if c, err := ParseGuestCount(looseString(obj["guestCount"], "1")); err == nil {
		r.GuestCount = c
	}

	if looseString(obj["attending"], "") == string(AttendanceNo) {
		r.Attending = AttendanceNo
	}

	if list, ok := obj["drinks"].([]any); ok {
		drinks := make([]Drink, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				drinks = append(drinks, Drink(s))
			}
		}
		r.Drinks = NormalizeDrinks(drinks)
	}

	if s, ok := obj["createdAt"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			r.CreatedAt = ts
		}
	}
	return r
}

func looseString(v any, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// DedupeIDs gives a fresh ID to every record whose ID was already seen earlier
// in the slice. It returns the number of reassigned IDs.
func DedupeIDs(recs []GuestRecord) int {
	seen := make(map[string]bool, len(recs))
	reassigned := 0
	for i := range recs {
		if recs[i].ID == "" || seen[recs[i].ID] {
			recs[i].ID = NewID(time.Now())
			reassigned++
		}
		seen[recs[i].ID] = true
	}
	return reassigned
}
