package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/auth"
	"github.com/teemow/slotbooker/internal/booking"
)

type bookOptions struct {
	appOptions
	form   booking.Form
	icsOut string
}

func newBookCmd() *cobra.Command {
	var opts bookOptions

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Sign in and book a single meeting from the terminal",
		Long: `Sign in to the calendar provider and book one meeting.

The command prints a sign-in link. Open it, sign in, and paste the full URL
the provider redirects you to. The meeting is created in your default
calendar with an online meeting link attached.

Example:
  slotbooker book --date 2026-10-20 --time 10:00 --duration 30 \
    --subject "Sync" --attendee a@b.com --ics-out sync.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBook(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.form.Date, "date", "", "Meeting date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.form.Time, "time", "10:00", "Meeting start time (HH:MM)")
	cmd.Flags().StringVar(&opts.form.Duration, "duration", strconv.Itoa(booking.DefaultDuration),
		fmt.Sprintf("Meeting length in minutes (%d-%d)", booking.MinDuration, booking.MaxDuration))
	cmd.Flags().StringVar(&opts.form.Subject, "subject", booking.DefaultSubject, "Meeting subject")
	cmd.Flags().StringVar(&opts.form.AttendeeEmail, "attendee", "", "Attendee email address (optional)")
	cmd.Flags().StringVar(&opts.icsOut, "ics-out", "", "Write an .ics invite to this file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Env file to load instead of .env")
	cmd.Flags().StringVar(&opts.scopes, "scopes", "", "Comma-separated OAuth scopes (overrides OAUTH_SCOPES)")

	return cmd
}

func runBook(ctx context.Context, in io.Reader, out, logOut io.Writer, opts bookOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts.appOptions, logOut)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	flow := &bookFlow{
		authorizer:  a.authorizer,
		submitter:   a.submitter,
		redirectURI: a.cfg.RedirectURI,
		scopes:      a.cfg.Scopes,
		location:    a.cfg.Location(),
		now:         time.Now,
		out:         out,
		prompt:      linePrompt(in, out),
	}

	conf, err := flow.run(ctx, opts.form)
	if err != nil {
		return err
	}

	if opts.icsOut != "" {
		raw, err := conf.ICS(flow.organizer, time.Now())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.icsOut, raw, 0o600); err != nil {
			return fmt.Errorf("failed to write invite: %w", err)
		}
		fmt.Fprintf(out, "Invite written to %s\n", opts.icsOut)
	}
	return nil
}

type sessionAuthorizer interface {
	Begin(scopes []string, redirectURI string) (*auth.Session, error)
	Complete(ctx context.Context, s *auth.Session, returnedURL string) (*oauth2.Token, error)
}

type bookingSubmitter interface {
	Submit(ctx context.Context, session booking.Session, req booking.Request) (*booking.Confirmation, error)
}

var (
	_ sessionAuthorizer = (*auth.Authorizer)(nil)
	_ bookingSubmitter  = (*booking.Submitter)(nil)
)

// bookFlow runs authorization and one booking against a terminal.
type bookFlow struct {
	authorizer  sessionAuthorizer
	submitter   bookingSubmitter
	redirectURI string
	scopes      []string
	location    *time.Location
	now         func() time.Time
	out         io.Writer

	// prompt shows the sign-in link and returns the pasted redirect URL.
	prompt func(authURL string) (string, error)

	// organizer is the signed-in owner's email, set after authorization.
	organizer string
}

func (f *bookFlow) run(ctx context.Context, form booking.Form) (*booking.Confirmation, error) {
	if form.Date == "" {
		form.Date = f.now().In(f.location).Format(booking.DateLayout)
	}

	// Validate before signing in so a typo does not cost a sign-in.
	req, err := booking.Validate(form, f.now(), f.location)
	if err != nil {
		return nil, err
	}

	session, err := f.authorizer.Begin(f.scopes, f.redirectURI)
	if err != nil {
		return nil, err
	}

	pasted, err := f.prompt(session.AuthURL)
	if err != nil {
		return nil, err
	}
	if _, err := f.authorizer.Complete(ctx, session, pasted); err != nil {
		return nil, describeAuthError(err)
	}
	f.organizer = session.Owner.Email

	conf, err := f.submitter.Submit(ctx, session, req)
	if err != nil {
		return nil, err
	}

	printConfirmation(f.out, conf, f.location)
	return conf, nil
}

func describeAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		return fmt.Errorf("the pasted URL does not belong to this sign-in, run the command again: %w", err)
	case errors.Is(err, auth.ErrInvalidGrant):
		return fmt.Errorf("the provider rejected the sign-in, run the command again: %w", err)
	default:
		return err
	}
}

// linePrompt reads the redirect URL as one line from in.
func linePrompt(in io.Reader, out io.Writer) func(string) (string, error) {
	reader := bufio.NewReader(in)
	return func(authURL string) (string, error) {
		fmt.Fprintln(out, "Open this link and sign in:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  "+authURL)
		fmt.Fprintln(out)
		fmt.Fprint(out, "Paste the URL you were redirected to: ")

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", fmt.Errorf("failed to read redirect URL: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
}

func printConfirmation(out io.Writer, conf *booking.Confirmation, loc *time.Location) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Meeting booked: %s\n", conf.Subject)
	fmt.Fprintf(out, "  When:     %s to %s (%d minutes)\n",
		conf.Start.In(loc).Format("Mon 2 Jan 2006 15:04"),
		conf.End.In(loc).Format("15:04 MST"),
		conf.DurationMinutes())
	if len(conf.Attendees) > 0 {
		fmt.Fprintf(out, "  Invited:  %s\n", strings.Join(conf.Attendees, ", "))
	}
	if conf.JoinURL != "" {
		fmt.Fprintf(out, "  Join:     %s\n", conf.JoinURL)
	} else {
		fmt.Fprintln(out, "  Join:     no online meeting link was returned")
	}
	if conf.WebLink != "" {
		fmt.Fprintf(out, "  Calendar: %s\n", conf.WebLink)
	}
}
