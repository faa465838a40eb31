package export

import (
	"errors"
	"fmt"

	"wedding-rsvp/internal/i18n"
)

// ErrTokenRequired is returned before any request when the token is blank
var ErrTokenRequired = errors.New("export: token required")

// AuthError means the server rejected the token (401 or 403)
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("export: unauthorized (HTTP %d): %s", e.Status, e.Message)
}

// StatusError is any other non-2xx response
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("export: HTTP %d: %s", e.Status, e.Message)
}

// TransportError wraps network and body read failures
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("export: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage maps an export error to the text shown to the operator.
// Each category has its own message.
func UserMessage(err error, locale string) string {
	p := i18n.Printer(locale)

	var (
		authErr      *AuthError
		statusErr    *StatusError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenRequired):
		return p.Sprintf(i18n.TokenRequired)
	case errors.As(err, &authErr):
		return p.Sprintf(i18n.TokenRejected)
	case errors.As(err, &statusErr):
		return p.Sprintf(i18n.ExportFailed, statusErr.Message)
	case errors.As(err, &transportErr):
		return p.Sprintf(i18n.ExportTransport)
	default:
		return p.Sprintf(i18n.ExportFailed, err.Error())
	}
}
