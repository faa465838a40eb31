// Package app wires the RSVP server: store, notifiers, HTTP routes and the
// optional WhatsApp device.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/logging"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

// App is the server runtime. It owns the store and every background client.
type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      storage.Store
	metrics    *metrics.Metrics
	dispatcher *notify.Dispatcher
	wa         *whatsapp.Service
	handler    http.Handler
}

// New opens the configured store and wires the server around it
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var wa *whatsapp.Service
	if cfg.WhatsApp.Enabled {
		wa, err = connectWhatsApp(ctx, cfg, log)
		if err != nil {
			// The form keeps working without the phone.
			log.Warn().Err(err).Msg("WhatsApp disabled")
		}
	}

	return NewWithStore(cfg, st, wa, log), nil
}

func connectWhatsApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*whatsapp.Service, error) {
	wa, err := whatsapp.NewService(ctx, cfg.WhatsApp.DataDir, log)
	if err != nil {
		return nil, err
	}
	if !wa.Paired() {
		return nil, errors.New("device is not linked, run `wedding-rsvp whatsapp link` first")
	}
	if err := wa.Connect(ctx, io.Discard); err != nil {
		return nil, err
	}
	return wa, nil
}

// NewWithStore wires the server around an already opened store.
// wa may be nil when WhatsApp is not in use.
func NewWithStore(cfg *config.Config, st storage.Store, wa *whatsapp.Service, log zerolog.Logger) *App {
	m := metrics.New()

	var notifiers []notify.Notifier
	if cfg.Mail.Enabled() {
		notifiers = append(notifiers, notify.NewMailer(cfg.Mail, cfg.Event, cfg.Locale, "", log))
	}
	if wa != nil && len(cfg.WhatsApp.Hosts) > 0 {
		notifiers = append(notifiers, whatsapp.NewHostNotifier(wa, cfg.WhatsApp.Hosts, cfg.Event, cfg.Locale))
	}
	dispatcher := notify.NewDispatcher(log, cfg.HTTPTimeout, m.ObserveNotification, notifiers...)

	if wa != nil {
		replies := whatsapp.NewReplyHandler(wa, st, cfg.Profile, cfg.Locale, dispatcher.Dispatch, log)
		wa.SetMessageHandler(replies.HandleMessage)
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		store:      st,
		metrics:    m,
		dispatcher: dispatcher,
		wa:         wa,
	}
	a.handler = a.routes()

	log.Info().
		Str("backend", cfg.StoreBackend).
		Int("notifiers", dispatcher.Len()).
		Bool("whatsapp", wa != nil).
		Bool("export", cfg.ExportToken != "").
		Msg("Server wired")
	return a
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	rsvp := handler.NewRSVPHandler(a.store, a.metrics, handler.Options{
		ExportToken:  a.cfg.ExportToken,
		MaxBodyBytes: a.cfg.MaxBodyBytes,
		WrapSubmit:   RateLimit(a.cfg.RateLimit),
		OnStored:     a.dispatcher.Dispatch,
	}, a.log)
	rsvp.Register(mux)
	mux.Handle("GET /metrics", a.metrics.Handler())

	return WithRequestLogging(mux, logging.Component(a.log, "http"), a.metrics)
}

// Handler returns the fully wrapped HTTP handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// down and releases the store.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       nonZeroDuration(a.cfg.HTTPTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.HTTPTimeout, 15*time.Second),
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	a.log.Info().Str("addr", a.cfg.HTTPAddr).Msg("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("Shutting down")
	case runErr = <-errCh:
		a.log.Error().Err(runErr).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("HTTP shutdown failed")
		runErr = errors.Join(runErr, err)
	}
	a.Close(shutdownCtx)

	a.log.Info().Msg("Server stopped")
	return runErr
}

// Close waits for pending notifications and releases the store and the device
func (a *App) Close(ctx context.Context) {
	if err := a.dispatcher.Wait(ctx); err != nil {
		a.log.Warn().Err(err).Msg("Pending notifications abandoned")
	}
	if a.wa != nil {
		a.wa.Disconnect()
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close store")
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
