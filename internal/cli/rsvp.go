package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/app"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/intake"
	"wedding-rsvp/internal/models"
)

// NewRSVPCommand fills in the RSVP form in the terminal
func NewRSVPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rsvp",
		Short: "Answer the invitation from the terminal",
		Long: `Ask for the RSVP fields one by one and submit the answer.

The answer goes to WEDDING_REMOTE_URL when it is set, otherwise to the
local store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			ctx := cmd.Context()

			st, err := app.OpenClientStore(ctx, cfg, rootOpts.Log)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open store", err)
			}
			defer st.Close()

			form := &terminalForm{
				in:      bufio.NewScanner(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
				profile: cfg.Profile,
				ctl: intake.New(st, rootOpts.Log,
					intake.WithProfile(cfg.Profile),
					intake.WithLocale(cfg.Locale),
					intake.WithTimeout(cfg.SubmitTimeout),
				),
			}
			printBanner(form.out, cfg.Event)
			return form.run(ctx)
		},
	}
}

var errInputClosed = errors.New("input closed")

type terminalForm struct {
	in      *bufio.Scanner
	out     io.Writer
	profile config.Profile
	ctl     *intake.Controller
}

func printBanner(w io.Writer, ev config.Event) {
	fmt.Fprintf(w, "🎉 %s & %s\n", ev.BrideName, ev.GroomName)
	fmt.Fprintf(w, "📅 %s\n📍 %s\n\n", ev.WeddingDate, ev.WeddingLocation)
}

func (f *terminalForm) ask(prompt string) (string, error) {
	fmt.Fprint(f.out, prompt)
	if !f.in.Scan() {
		if err := f.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(f.in.Text()), nil
}

func (f *terminalForm) run(ctx context.Context) error {
	if err := f.fill(); err != nil {
		return WrapExitError(ExitFailure, "form not submitted", err)
	}

	for {
		rec, err := f.ctl.Submit(ctx)
		if err == nil {
			fmt.Fprintln(f.out, f.ctl.Acknowledgment(rec))
			return nil
		}

		var fieldErr *intake.FieldError
		var submitErr *intake.SubmitError
		switch {
		case errors.As(err, &fieldErr) && fieldErr.Field == "name":
			fmt.Fprintln(f.out, fieldErr.UserMessage)
			if err := f.askName(); err != nil {
				return WrapExitError(ExitFailure, "form not submitted", err)
			}
		case errors.As(err, &submitErr):
			fmt.Fprintln(f.out, submitErr.UserMessage)
			again, askErr := f.ask("Try again? [Y/n]: ")
			if askErr != nil || strings.HasPrefix(strings.ToLower(again), "n") {
				return WrapExitError(ExitFailure, "form not submitted", err)
			}
		default:
			return WrapExitError(ExitFailure, "form not submitted", err)
		}
	}
}

func (f *terminalForm) fill() error {
	if err := f.askName(); err != nil {
		return err
	}
	for {
		raw, err := f.ask("Will you come? (yes/no): ")
		if err != nil {
			return err
		}
		if err := f.ctl.SetAttending(raw); err != nil {
			fmt.Fprintln(f.out, "Please answer yes or no.")
			continue
		}
		break
	}
	attending := f.ctl.Values().Attending == models.AttendanceYes

	if attending && f.profile.Fields.GuestCount {
		if err := f.askGuestCount(); err != nil {
			return err
		}
	}
	if attending && f.profile.Fields.Drinks {
		if err := f.askDrinks(); err != nil {
			return err
		}
	}
	if f.profile.Fields.Comment {
		comment, err := f.ask("Comment (optional): ")
		if err != nil {
			return err
		}
		if err := f.ctl.SetComment(comment); err != nil {
			return err
		}
	}
	return nil
}

func (f *terminalForm) askName() error {
	name, err := f.ask("Your name: ")
	if err != nil {
		return err
	}
	return f.ctl.SetName(name)
}

func (f *terminalForm) askGuestCount() error {
	for {
		raw, err := f.ask("How many guests? (1-5, 6+) [1]: ")
		if err != nil {
			return err
		}
		var fieldErr *intake.FieldError
		if err := f.ctl.SetGuestCount(raw); errors.As(err, &fieldErr) {
			fmt.Fprintln(f.out, "Please pick 1, 2, 3, 4, 5 or 6+.")
			continue
		} else if err != nil {
			return err
		}
		return nil
	}
}

func (f *terminalForm) askDrinks() error {
	options := f.ctl.DrinkOptions()
	if len(options) == 0 {
		return nil
	}

	fmt.Fprintln(f.out, "What would you like to drink?")
	for i, d := range options {
		fmt.Fprintf(f.out, "  %d. %s\n", i+1, d)
	}

	for {
		raw, err := f.ask("Numbers separated by commas, empty for none: ")
		if err != nil {
			return err
		}
		picked, ok := pickDrinks(raw, options)
		if !ok {
			fmt.Fprintf(f.out, "Please use numbers from 1 to %d.\n", len(options))
			continue
		}
		for _, d := range picked {
			if err := f.ctl.ToggleDrink(d); err != nil {
				return err
			}
		}
		break
	}

	for _, d := range f.ctl.Values().Drinks {
		if d != models.DrinkCustom {
			continue
		}
		text, err := f.ask("Your drink: ")
		if err != nil {
			return err
		}
		return f.ctl.SetCustomDrink(text)
	}
	return nil
}

// pickDrinks maps "1, 3" onto options. Repeated numbers count once.
func pickDrinks(raw string, options []models.Drink) ([]models.Drink, bool) {
	seen := map[int]bool{}
	var picked []models.Drink
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(options) {
			return nil, false
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		picked = append(picked, options[n-1])
	}
	return picked, true
}
