package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/whatsapp"
)

// NewWhatsAppCommand groups the commands that drive the linked WhatsApp device
func NewWhatsAppCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whatsapp",
		Short: "Link a WhatsApp device, send invitations and collect replies",
	}
	cmd.AddCommand(newWhatsAppLinkCommand(rootOpts))
	cmd.AddCommand(newWhatsAppInviteCommand(rootOpts))
	cmd.AddCommand(newWhatsAppListenCommand(rootOpts))
	return cmd
}

func openWhatsApp(ctx context.Context, rootOpts *RootOptions) (*whatsapp.Service, error) {
	wa, err := whatsapp.NewService(ctx, rootOpts.Config.WhatsApp.DataDir, rootOpts.Log)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open WhatsApp store", err)
	}
	return wa, nil
}

func newWhatsAppLinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Pair this program with a phone by scanning a QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wa, err := openWhatsApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			if wa.Paired() {
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Already linked.")
				return nil
			}
			if err := wa.Connect(ctx, cmd.OutOrStdout()); err != nil {
				return WrapExitError(ExitFailure, "pairing failed", err)
			}
			defer wa.Disconnect()
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Linked to WhatsApp!")
			return nil
		},
	}
}

func newWhatsAppInviteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invite [phone] [name]",
		Short: "Send the wedding invitation to a guest",
		Long: `Send the invitation text to one phone number. Missing arguments are
asked for interactively.

Examples:
  wedding-rsvp whatsapp invite 79161234567 "Ivan Petrov"
  wedding-rsvp whatsapp invite`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config

			phone, name, err := inviteArgs(cmd, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invitation not sent", err)
			}

			wa, err := openWhatsApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			if !wa.Paired() {
				return NewExitError(ExitCommandError, "device is not linked, run `wedding-rsvp whatsapp link` first")
			}
			if err := wa.Connect(ctx, cmd.ErrOrStderr()); err != nil {
				return WrapExitError(ExitFailure, "failed to connect", err)
			}
			defer wa.Disconnect()

			fmt.Fprintf(cmd.OutOrStdout(), "Sending invitation to %s (%s)...\n", name, whatsapp.NormalizePhoneNumber(phone))
			if err := whatsapp.SendInvitation(ctx, wa, cfg.Event, phone, name, cfg.Locale); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ %v\n", err)
				return WrapExitError(ExitFailure, "invitation not sent", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Invitation sent successfully!")
			return nil
		},
	}
}

// inviteArgs takes phone and name from args, asking on stdin for the rest
func inviteArgs(cmd *cobra.Command, args []string) (phone, name string, err error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	prompt := func(label string) (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), label)
		if !scanner.Scan() {
			return "", errInputClosed
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	if len(args) > 0 {
		phone = args[0]
	} else if phone, err = prompt("Phone number (with country code): "); err != nil {
		return "", "", err
	}
	if len(args) > 1 {
		name = args[1]
	} else if name, err = prompt("Guest name: "); err != nil {
		return "", "", err
	}

	if whatsapp.NormalizePhoneNumber(phone) == "" {
		return "", "", fmt.Errorf("phone number %q has no digits", phone)
	}
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("guest name is required")
	}
	return phone, strings.TrimSpace(name), nil
}

func newWhatsAppListenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Record guest replies as RSVPs until interrupted",
		Long: `Stay connected and turn replies such as "yes, 3 of us" or "no" into
RSVP records. Hosts in WEDDING_WHATSAPP_HOSTS are told about each answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cfg := rootOpts.Config
			log := rootOpts.Log

			st, err := app.OpenClientStore(ctx, cfg, log)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open store", err)
			}
			defer st.Close()

			wa, err := openWhatsApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			if !wa.Paired() {
				return NewExitError(ExitCommandError, "device is not linked, run `wedding-rsvp whatsapp link` first")
			}

			var notifiers []notify.Notifier
			if len(cfg.WhatsApp.Hosts) > 0 {
				notifiers = append(notifiers, whatsapp.NewHostNotifier(wa, cfg.WhatsApp.Hosts, cfg.Event, cfg.Locale))
			}
			if cfg.Mail.Enabled() {
				notifiers = append(notifiers, notify.NewMailer(cfg.Mail, cfg.Event, cfg.Locale, "", log))
			}
			dispatcher := notify.NewDispatcher(log, cfg.HTTPTimeout, nil, notifiers...)

			replies := whatsapp.NewReplyHandler(wa, st, cfg.Profile, cfg.Locale, dispatcher.Dispatch, log)
			wa.SetMessageHandler(replies.HandleMessage)

			if err := wa.Connect(ctx, cmd.ErrOrStderr()); err != nil {
				return WrapExitError(ExitFailure, "failed to connect", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Connected. Listening for RSVP replies, press Ctrl+C to stop.")

			<-ctx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
			wa.Disconnect()

			waitCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
			defer cancel()
			if err := dispatcher.Wait(waitCtx); err != nil {
				log.Warn().Err(err).Msg("Pending notifications abandoned")
			}
			return nil
		},
	}
}
