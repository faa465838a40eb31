package whatsapp

import "strings"

// NormalizePhoneNumber reduces a phone number to international digits.
// Local formats are rewritten: Israeli 05XXXXXXXX becomes 9725XXXXXXXX and
// Russian 8XXXXXXXXXX becomes 7XXXXXXXXXX.
func NormalizePhoneNumber(phoneNumber string) string {
	phoneNumber = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phoneNumber)

	switch {
	case strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) == 10:
		phoneNumber = "972" + phoneNumber[1:]
	case strings.HasPrefix(phoneNumber, "8") && len(phoneNumber) == 11:
		phoneNumber = "7" + phoneNumber[1:]
	}

	// 9720... is a country code followed by the local trunk prefix
	if strings.HasPrefix(phoneNumber, "9720") {
		phoneNumber = "972" + phoneNumber[4:]
	}
	return phoneNumber
}
