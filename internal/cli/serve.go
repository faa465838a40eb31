package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
)

// NewServeCommand runs the HTTP server until SIGINT or SIGTERM
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the RSVP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, rootOpts.Config, rootOpts.Log)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to start", err)
			}
			return a.Run(ctx)
		},
	}
}
