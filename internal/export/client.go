// Package export downloads the full guest list as CSV from the RSVP server.
package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/apijson"
)

const (
	// TokenHeader carries the export token. It is not Authorization so that a
	// proxy's own basic auth can sit in front of the server.
	TokenHeader = "X-Export-Token"
	Path        = "/api/rsvp/export"
	FileName    = "rsvp-export.csv"
)

const maxExportBytes = 32 << 20

// Client requests exports from one server. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, hc *http.Client, log zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log.With().Str("component", "export").Logger(),
	}
}

// RequestExport downloads the CSV export using token
func (c *Client) RequestExport(ctx context.Context, token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+Path, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set(TokenHeader, token)
	req.Header.Set("Accept", "text/csv, application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Export response")

	switch {
	case apijson.IsSuccess(resp.StatusCode):
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode, Message: apijson.ErrorMessage(body, resp.StatusCode)}
	default:
		return nil, &StatusError{Status: resp.StatusCode, Message: apijson.ErrorMessage(body, resp.StatusCode)}
	}
}
