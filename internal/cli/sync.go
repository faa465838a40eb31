package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// NewSyncCommand uploads locally stored answers to the remote server
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload local answers to WEDDING_REMOTE_URL",
		Long: `Send every locally stored RSVP the server does not have yet.

The server ignores ids it already stored, so running sync twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config
			if cfg.RemoteURL == "" {
				return NewExitError(ExitCommandError, "WEDDING_REMOTE_URL is not set")
			}

			local, err := app.OpenStore(ctx, cfg, rootOpts.Log)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open local store", err)
			}
			defer local.Close()

			recs, err := local.List(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read local store", err)
			}

			if n := models.MigrateLegacyIDs(recs); n > 0 {
				local.Save(ctx, recs)
				rootOpts.Log.Info().Int("records", n).Msg("Assigned stable ids to legacy records")
			}

			remote := storage.NewRemoteStore(cfg.RemoteURL, &http.Client{Timeout: cfg.HTTPTimeout}, rootOpts.Log)
			sent, err := remote.Sync(ctx, recs)
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d of %d answers.\n", sent, len(recs))
			if err != nil {
				var remoteErr *storage.RemoteError
				if errors.As(err, &remoteErr) && remoteErr.Message != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), remoteErr.Message)
				}
				return WrapExitError(ExitFailure, "sync incomplete", err)
			}
			return nil
		},
	}
}
