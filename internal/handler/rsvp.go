// Package handler serves the RSVP HTTP endpoints.
package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/apijson"
	"wedding-rsvp/internal/export"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Options configures the RSVP endpoints
type Options struct {
	// ExportToken enables GET /api/rsvp/export when non-empty.
	ExportToken  string
	MaxBodyBytes int64
	// WrapSubmit decorates the submission endpoint, e.g. with a rate limiter.
	WrapSubmit func(http.Handler) http.Handler
	// OnStored runs after a new record is stored. It must not block.
	OnStored func(models.GuestRecord)
}

// RSVPHandler serves submissions, the public roster and the export
type RSVPHandler struct {
	store     storage.Store
	metrics   *metrics.Metrics
	opts      Options
	tokenHash [sha256.Size]byte
	log       zerolog.Logger
	now       func() time.Time
}

// NewRSVPHandler creates the handler
func NewRSVPHandler(store storage.Store, m *metrics.Metrics, opts Options, log zerolog.Logger) *RSVPHandler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	h := &RSVPHandler{
		store:   store,
		metrics: m,
		opts:    opts,
		log:     log.With().Str("component", "handler").Logger(),
		now:     time.Now,
	}
	if opts.ExportToken != "" {
		h.tokenHash = sha256.Sum256([]byte(opts.ExportToken))
	}
	return h
}

// Register adds the RSVP routes to mux
func (h *RSVPHandler) Register(mux *http.ServeMux) {
	var submit http.Handler = http.HandlerFunc(h.Submit)
	if h.opts.WrapSubmit != nil {
		submit = h.opts.WrapSubmit(submit)
	}
	mux.Handle("POST "+storage.SubmitPath, submit)
	mux.HandleFunc("GET "+storage.GuestsPath, h.Guests)
	mux.HandleFunc("GET "+export.Path, h.Export)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Submit stores one RSVP. A repeated id returns the stored record with 200.
func (h *RSVPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub models.Submission
	if err := apijson.DecodeJSON(w, r, h.opts.MaxBodyBytes, &sub); err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid, "")
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apijson.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		apijson.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Only ids this service could have issued are kept
	if sub.ID != "" && !models.IsULID(sub.ID) {
		sub.ID = ""
	}

	rec, err := sub.Record()
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid, sub.Attending)
		apijson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now().UTC()
	if rec.ID == "" {
		rec.ID = models.NewID(now)
	}
	rec.CreatedAt = now

	stored, err := h.store.Append(r.Context(), rec)
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeFailed, string(rec.Attending))
		h.log.Error().Err(err).Str("id", rec.ID).Msg("Failed to store RSVP")
		apijson.WriteError(w, http.StatusInternalServerError, "could not store RSVP")
		return
	}

	if !stored.CreatedAt.Equal(rec.CreatedAt) {
		h.metrics.ObserveSubmission(metrics.OutcomeDuplicate, string(stored.Attending))
		apijson.WriteJSON(w, http.StatusOK, stored)
		return
	}

	h.metrics.ObserveSubmission(metrics.OutcomeCreated, string(stored.Attending))
	h.log.Info().
		Str("id", stored.ID).
		Str("attending", string(stored.Attending)).
		Str("guest_count", string(stored.GuestCount)).
		Msg("RSVP stored")
	if h.opts.OnStored != nil {
		h.opts.OnStored(stored)
	}
	apijson.WriteJSON(w, http.StatusCreated, stored)
}

// Guests returns the public roster: attendees only, first record per id
func (h *RSVPHandler) Guests(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list guests")
		apijson.WriteError(w, http.StatusInternalServerError, "could not load guests")
		return
	}

	out := make([]models.PublicGuest, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if !rec.IsAttending() || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec.Public())
	}
	apijson.WriteJSON(w, http.StatusOK, out)
}

// Export streams every record as CSV to a caller holding the export token
func (h *RSVPHandler) Export(w http.ResponseWriter, r *http.Request) {
	status := h.export(w, r)
	h.metrics.ObserveExport(status)
}

func (h *RSVPHandler) export(w http.ResponseWriter, r *http.Request) int {
	if h.opts.ExportToken == "" {
		apijson.WriteError(w, http.StatusServiceUnavailable, "export is disabled")
		return http.StatusServiceUnavailable
	}

	token := strings.TrimSpace(r.Header.Get(export.TokenHeader))
	if token == "" {
		apijson.WriteError(w, http.StatusUnauthorized, "export token required")
		return http.StatusUnauthorized
	}
	got := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(got[:], h.tokenHash[:]) != 1 {
		h.log.Warn().Str("remote", r.RemoteAddr).Msg("Export with invalid token")
		apijson.WriteError(w, http.StatusForbidden, "invalid export token")
		return http.StatusForbidden
	}

	recs, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list guests for export")
		apijson.WriteError(w, http.StatusInternalServerError, "could not load guests")
		return http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, recs); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode export")
		apijson.WriteError(w, http.StatusInternalServerError, "could not encode export")
		return http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	h.log.Info().Int("guests", len(recs)).Msg("Export served")
	return http.StatusOK
}

func (h *RSVPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	apijson.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings the store when it supports it
func (h *RSVPHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(storage.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Store not ready")
			apijson.WriteError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	apijson.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
