package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wedding-rsvp/internal/models"
)

// DefaultLocale is used when neither the environment nor the profile picks one
const DefaultLocale = "ru"

// SupportedLocale reports whether guest counts and placeholders can be rendered in locale
func SupportedLocale(locale string) bool {
	return locale == "ru" || locale == "en"
}

// Profile narrows the RSVP form. Deployments observed with and without guest
// count, drink preferences or comment are all profiles of the same form.
type Profile struct {
	Name   string   `yaml:"name"`
	Locale string   `yaml:"locale"`
	Fields Fields   `yaml:"fields"`
	Drinks []string `yaml:"drinks"`
}

// Fields toggles optional form fields
type Fields struct {
	GuestCount bool `yaml:"guestCount"`
	Drinks     bool `yaml:"drinks"`
	Comment    bool `yaml:"comment"`
}

// DefaultProfile enables every field and the full drink vocabulary
func DefaultProfile() Profile {
	return Profile{
		Name:   "full",
		Fields: Fields{GuestCount: true, Drinks: true, Comment: true},
	}
}

// LoadProfile reads a YAML profile. Keys missing from the file keep their defaults.
func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if p.Locale != "" && !SupportedLocale(p.Locale) {
		return Profile{}, fmt.Errorf("profile %s: unsupported locale %q", path, p.Locale)
	}
	for _, d := range p.Drinks {
		if !models.Drink(d).Valid() {
			return Profile{}, fmt.Errorf("profile %s: unknown drink %q", path, d)
		}
	}
	return p, nil
}

// DrinkOptions returns the drinks offered on the form, in vocabulary order
func (p Profile) DrinkOptions() []models.Drink {
	if !p.Fields.Drinks {
		return nil
	}
	if len(p.Drinks) == 0 {
		return append([]models.Drink(nil), models.DrinkVocabulary...)
	}
	drinks := make([]models.Drink, 0, len(p.Drinks))
	for _, d := range p.Drinks {
		drinks = append(drinks, models.Drink(d))
	}
	return models.NormalizeDrinks(drinks)
}

// OffersDrink reports whether d can be selected under this profile
func (p Profile) OffersDrink(d models.Drink) bool {
	for _, offered := range p.DrinkOptions() {
		if offered == d {
			return true
		}
	}
	return false
}
