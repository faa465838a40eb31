package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
	"wedding-rsvp/internal/export"
	"wedding-rsvp/internal/storage"
)

// ExportOptions holds flags for the export command
type ExportOptions struct {
	*RootOptions
	Token    string
	Remember bool
	Forget   bool
	Output   string
	URL      string
}

// NewExportCommand downloads the guest list as CSV
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every RSVP as CSV",
		Long: `Download the full guest list from the server.

The token is sent in the X-Export-Token header. With --remember it is kept
in the data directory and used when --token is omitted.

Examples:
  wedding-rsvp export --token s3cret --remember
  wedding-rsvp export --output -
  wedding-rsvp export --forget`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "export token")
	cmd.Flags().BoolVar(&opts.Remember, "remember", false, "remember the token for later exports")
	cmd.Flags().BoolVar(&opts.Forget, "forget", false, "forget the remembered token and exit")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", export.FileName, "output file, - for stdout")
	cmd.Flags().StringVar(&opts.URL, "url", "", "server URL (default WEDDING_REMOTE_URL or the listen address)")
	cmd.MarkFlagsMutuallyExclusive("remember", "forget")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	ctx := cmd.Context()
	cfg := opts.Config
	tokens := export.NewTokenCache(storage.NewFileBlobs(cfg.DataDir))

	if opts.Forget {
		if err := tokens.Forget(ctx); err != nil {
			return WrapExitError(ExitFailure, "failed to forget token", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Token forgotten.")
		return nil
	}

	token := opts.Token
	if token == "" {
		token, _ = tokens.Load(ctx)
	} else if opts.Remember {
		if err := tokens.Store(ctx, token); err != nil {
			opts.Log.Warn().Err(err).Msg("Failed to remember token")
		}
	}

	baseURL := opts.URL
	if baseURL == "" {
		baseURL = app.BaseURL(cfg)
	}
	client := export.NewClient(baseURL, &http.Client{Timeout: cfg.HTTPTimeout}, opts.Log)

	data, err := client.RequestExport(ctx, token)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), export.UserMessage(err, cfg.Locale))
		return WrapExitError(ExitFailure, "export failed", err)
	}

	if opts.Output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o600); err != nil {
		return WrapExitError(ExitFailure, "failed to write export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%d bytes)\n", opts.Output, len(data))
	return nil
}
