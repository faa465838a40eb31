// Package i18n holds the user-facing messages in Russian and English.
package i18n

import (
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	GuestCount     = "%d guests"
	GuestCountOpen = "6+ guests"

	RosterEmpty   = "Nobody has confirmed yet."
	RosterTitle   = "Who is coming"
	NameRequired  = "Please enter your name."
	SubmitFailed  = "We could not save your answer. Please try again."
	Thanks        = "Thank you, %s! Your answer has been saved."
	ThanksDecline = "Thank you, %s! We are sorry you cannot come."

	TokenRequired   = "Enter the export token."
	TokenRejected   = "The export token was rejected."
	ExportFailed    = "Export failed: %s"
	ExportTransport = "Could not reach the server. Check the connection and try again."

	SubjectComing   = "RSVP: %s is coming"
	SubjectDeclined = "RSVP: %s declined"
	NotifyHeader    = "🎉 New RSVP for the wedding of %s & %s"
	NotifyName      = "Name: %s"
	NotifyComing    = "Attending: ✅ yes (%s)"
	NotifyDeclined  = "Attending: ❌ no"
	NotifyDrinks    = "Drinks: %s"
	NotifyComment   = "Comment: %s"

	Invitation = "🎉 *Wedding Invitation*\n\nDear %s,\n\nYou are invited to celebrate the wedding of\n\n*%s* & *%s*\n\n📅 Date: %s\n📍 Location: %s\n\nReply with:\n✅ *YES* and the number of guests to accept\n❌ *NO* to decline"
)

var (
	russian = language.Russian
	english = language.English
)

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(russian))

	must(b.Set(russian, GuestCount, plural.Selectf(1, "%d",
		"one", "%d человек",
		"few", "%d человека",
		"many", "%d человек",
		"other", "%d человека",
	)))
	must(b.Set(english, GuestCount, plural.Selectf(1, "%d",
		"one", "%d person",
		"other", "%d people",
	)))

	strs := map[string][2]string{
		GuestCountOpen:  {"6+ человек", "6+ people"},
		RosterEmpty:     {"Пока никто не подтвердил участие.", RosterEmpty},
		RosterTitle:     {"Кто придёт", RosterTitle},
		NameRequired:    {"Пожалуйста, укажите имя.", NameRequired},
		SubmitFailed:    {"Не удалось сохранить ответ. Попробуйте ещё раз.", SubmitFailed},
		Thanks:          {"Спасибо, %s! Ваш ответ сохранён.", Thanks},
		ThanksDecline:   {"Спасибо, %s! Жаль, что вы не сможете прийти.", ThanksDecline},
		TokenRequired:   {"Введите токен для выгрузки.", TokenRequired},
		TokenRejected:   {"Токен для выгрузки отклонён.", TokenRejected},
		ExportFailed:    {"Ошибка выгрузки: %s", ExportFailed},
		ExportTransport: {"Не удалось связаться с сервером. Проверьте соединение и попробуйте ещё раз.", ExportTransport},
		SubjectComing:   {"RSVP: %s придёт", SubjectComing},
		SubjectDeclined: {"RSVP: %s не сможет прийти", SubjectDeclined},
		NotifyHeader:    {"🎉 Новый ответ на приглашение на свадьбу %s и %s", NotifyHeader},
		NotifyName:      {"Имя: %s", NotifyName},
		NotifyComing:    {"Придёт: ✅ да (%s)", NotifyComing},
		NotifyDeclined:  {"Придёт: ❌ нет", NotifyDeclined},
		NotifyDrinks:    {"Напитки: %s", NotifyDrinks},
		NotifyComment:   {"Комментарий: %s", NotifyComment},
		Invitation:      {"🎉 *Приглашение на свадьбу*\n\n%s, здравствуйте!\n\nПриглашаем вас на свадьбу\n\n*%s* и *%s*\n\n📅 Дата: %s\n📍 Место: %s\n\nОтветьте:\n✅ *ДА* и число гостей, если придёте\n❌ *НЕТ*, если не сможете", Invitation},
	}
	for key, text := range strs {
		must(b.SetString(russian, key, text[0]))
		must(b.SetString(english, key, text[1]))
	}
	return b
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Tag maps a locale name to a supported language, defaulting to Russian
func Tag(locale string) language.Tag {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en-gb", "english":
		return english
	default:
		return russian
	}
}

// Printer returns a message printer for locale
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale), message.Catalog(builder))
}
