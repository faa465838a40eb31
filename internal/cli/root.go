// Package cli is the wedding-rsvp command line: the server, the terminal RSVP
// form, the roster, the CSV export and the WhatsApp device.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logging"
)

// RootOptions holds global flags and the state loaded before every command
type RootOptions struct {
	EnvFile  string
	LogLevel string
	Locale   string

	Config *config.Config
	Log    zerolog.Logger
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wedding-rsvp",
		Short: "Wedding RSVP collection",
		Long: `Collect wedding RSVPs, show who is coming and export the guest list.

Configuration comes from WEDDING_* environment variables, optionally read
from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "read environment from this file instead of ./.env")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override WEDDING_LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.Locale, "locale", "", "override WEDDING_LOCALE (ru|en)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRSVPCommand(opts))
	cmd.AddCommand(NewGuestsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewWhatsAppCommand(opts))

	return cmd
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Locale != "" {
		if !config.SupportedLocale(o.Locale) {
			return NewExitError(ExitCommandError, "unsupported locale "+o.Locale)
		}
		cfg.Locale = o.Locale
	}

	o.Config = cfg
	o.Log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
	return nil
}
