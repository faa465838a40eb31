package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/storage"
)

// OpenStore opens the server-side store selected by cfg.StoreBackend
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile, "":
		log.Info().Str("dir", cfg.DataDir).Str("key", cfg.StorageKey).Msg("Using file store")
		return storage.NewLocalStore(storage.NewFileBlobs(cfg.DataDir), cfg.StorageKey, log), nil
	case config.BackendSQLite:
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite store")
		return storage.OpenSQLite(cfg.SQLitePath, log)
	case config.BackendPostgres:
		log.Info().Str("schema", cfg.DBSchema).Msg("Using Postgres store")
		return storage.OpenPostgres(ctx, cfg.DatabaseURL, cfg.DBSchema, log)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// OpenClientStore is the store used by the terminal commands: the remote
// server when WEDDING_REMOTE_URL is set, otherwise the local backend.
func OpenClientStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	if cfg.RemoteURL != "" {
		log.Debug().Str("url", cfg.RemoteURL).Msg("Using remote store")
		return storage.NewRemoteStore(cfg.RemoteURL, &http.Client{Timeout: cfg.HTTPTimeout}, log), nil
	}
	return OpenStore(ctx, cfg, log)
}

// BaseURL is the URL a local client should use to reach the server: the
// remote URL when configured, otherwise the listen address with wildcard
// hosts replaced by loopback.
func BaseURL(cfg *config.Config) string {
	if cfg.RemoteURL != "" {
		return cfg.RemoteURL
	}
	addr := cfg.HTTPAddr
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
