package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestTag(t *testing.T) {
	assert.Equal(t, language.Russian, Tag(""))
	assert.Equal(t, language.Russian, Tag("ru"))
	assert.Equal(t, language.English, Tag("EN"))
	assert.Equal(t, language.Russian, Tag("de"))
}

func TestRussianPlural(t *testing.T) {
	p := Printer("ru")
	assert.Equal(t, "1 человек", p.Sprintf(GuestCount, 1))
	assert.Equal(t, "2 человека", p.Sprintf(GuestCount, 2))
	assert.Equal(t, "4 человека", p.Sprintf(GuestCount, 4))
	assert.Equal(t, "5 человек", p.Sprintf(GuestCount, 5))
	assert.Equal(t, "6+ человек", p.Sprintf(GuestCountOpen))
}

func TestEnglishMessages(t *testing.T) {
	p := Printer("en")
	assert.Equal(t, "1 person", p.Sprintf(GuestCount, 1))
	assert.Equal(t, "3 people", p.Sprintf(GuestCount, 3))
	assert.Equal(t, "Thank you, Ivan! Your answer has been saved.", p.Sprintf(Thanks, "Ivan"))
}

func TestRussianMessages(t *testing.T) {
	p := Printer("ru")
	assert.Equal(t, "Введите токен для выгрузки.", p.Sprintf(TokenRequired))
	assert.Equal(t, "Ошибка выгрузки: HTTP 500", p.Sprintf(ExportFailed, "HTTP 500"))
}
