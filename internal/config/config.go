package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable with WEDDING_STORE_BACKEND
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	DataDir      string
	StoreBackend string
	SQLitePath   string
	DatabaseURL  string
	DBSchema     string
	StorageKey   string

	// RemoteURL switches the client commands to the server-backed store.
	RemoteURL     string
	ExportToken   string
	RateLimit     float64
	MaxBodyBytes  int64
	SubmitTimeout time.Duration
	HTTPTimeout   time.Duration

	Locale      string
	ProfilePath string
	Profile     Profile

	Event    Event
	Mail     MailConfig
	WhatsApp WhatsAppConfig
}

// Event describes the wedding itself, used in notifications and the terminal form
type Event struct {
	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string
}

// MailConfig configures SendGrid host notifications
type MailConfig struct {
	SendGridAPIKey string
	From           string
	FromName       string
	To             []string
}

// Enabled reports whether mail notifications are fully configured
func (m MailConfig) Enabled() bool {
	return m.SendGridAPIKey != "" && m.From != "" && len(m.To) > 0
}

// WhatsAppConfig configures WhatsApp host notifications
type WhatsAppConfig struct {
	Enabled bool
	DataDir string
	Hosts   []string
}

// LoadConfig loads configuration from environment variables or defaults
func LoadConfig() *Config {
	dataDir := getEnv("WEDDING_DATA_DIR", "data")

	return &Config{
		HTTPAddr:  getEnv("WEDDING_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  getEnv("WEDDING_LOG_LEVEL", "info"),
		LogPretty: getEnvBool("WEDDING_LOG_PRETTY", false),

		DataDir:      dataDir,
		StoreBackend: strings.ToLower(getEnv("WEDDING_STORE_BACKEND", BackendFile)),
		SQLitePath:   getEnv("WEDDING_SQLITE_PATH", dataDir+"/rsvp.db"),
		DatabaseURL:  getEnv("WEDDING_DATABASE_URL", ""),
		DBSchema:     getEnv("WEDDING_DB_SCHEMA", "public"),
		StorageKey:   getEnv("WEDDING_STORAGE_KEY", "wedding-guests"),

		RemoteURL:     strings.TrimRight(getEnv("WEDDING_REMOTE_URL", ""), "/"),
		ExportToken:   getEnv("WEDDING_EXPORT_TOKEN", ""),
		RateLimit:     getEnvFloat("WEDDING_RATE_LIMIT", 1),
		MaxBodyBytes:  getEnvInt64("WEDDING_MAX_BODY_BYTES", 64<<10),
		SubmitTimeout: getEnvDuration("WEDDING_SUBMIT_TIMEOUT", 10*time.Second),
		HTTPTimeout:   getEnvDuration("WEDDING_HTTP_TIMEOUT", 15*time.Second),

		Locale:      getEnv("WEDDING_LOCALE", ""),
		ProfilePath: getEnv("WEDDING_PROFILE", ""),
		Profile:     DefaultProfile(),

		Event: Event{
			WeddingDate:     getEnv("WEDDING_DATE", "Saturday, January 1, 2025"),
			WeddingLocation: getEnv("WEDDING_LOCATION", "Venue TBD"),
			BrideName:       getEnv("BRIDE_NAME", "Bride"),
			GroomName:       getEnv("GROOM_NAME", "Groom"),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("WEDDING_SENDGRID_API_KEY", ""),
			From:           getEnv("WEDDING_MAIL_FROM", ""),
			FromName:       getEnv("WEDDING_MAIL_FROM_NAME", "Wedding RSVP"),
			To:             getEnvList("WEDDING_MAIL_TO"),
		},
		WhatsApp: WhatsAppConfig{
			Enabled: getEnvBool("WEDDING_WHATSAPP_ENABLED", false),
			DataDir: getEnv("WHATSAPP_DATA_DIR", dataDir),
			Hosts:   getEnvList("WEDDING_WHATSAPP_HOSTS"),
		},
	}
}

// Load reads an optional .env file, the environment and the optional form profile.
// A missing default .env is fine; an explicitly named file must exist.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := LoadConfig()
	if cfg.ProfilePath != "" {
		p, err := LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		cfg.Profile = p
	}
	if cfg.Locale == "" {
		cfg.Locale = cfg.Profile.Locale
	}
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: WEDDING_STORE_BACKEND=postgres requires WEDDING_DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if !SupportedLocale(c.Locale) {
		return fmt.Errorf("config: unsupported locale %q", c.Locale)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvFloat keeps zero and negative values; only unparsable input falls back
func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
