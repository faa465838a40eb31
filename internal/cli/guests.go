package cli

import (
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
	"wedding-rsvp/internal/roster"
)

// NewGuestsCommand prints the roster of confirmed guests
func NewGuestsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "guests",
		Short: "Show who is coming",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			st, err := app.OpenClientStore(cmd.Context(), cfg, rootOpts.Log)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open store", err)
			}
			defer st.Close()

			view := roster.NewRenderer(st, cfg.Locale).Render(cmd.Context())
			return view.WriteText(cmd.OutOrStdout())
		},
	}
}
