package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/logging"
)

// errAuthAborted is returned when the operator keeps the existing token.
var errAuthAborted = errors.New("authorization aborted, existing token kept")

func newAuthCmd() *cobra.Command {
	var (
		force bool
		code  string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize meetbook to create Calendar events",
		Long: `Run the one-time OAuth consent flow for the Google account that owns the
calendar. Open the printed URL, approve access and paste the URL the browser
was redirected to (or just the code). The token is saved to GOOGLE_TOKEN_PATH
and refreshed automatically afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Google.OAuthConfigured() {
				return errOAuthNotConfigured
			}
			store := newCredentialStore(cfg, logger, nil)
			return runAuth(cmd.Context(), authFlow{
				in:    cmd.InOrStdin(),
				out:   cmd.OutOrStdout(),
				store: store,
				conf:  oauthConfig(cfg),
				force: force,
				code:  code,
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token without asking")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code or redirect URL, skips the prompt")

	cmd.AddCommand(newAuthStatusCmd(), newAuthRefreshCmd())
	return cmd
}

// tokenStore is the part of the credential store the auth commands use.
type tokenStore interface {
	Path() string
	Exists() bool
	Save(cred *google.Credential) error
	Load(ctx context.Context) (*google.Credential, bool)
}

type authFlow struct {
	in    io.Reader
	out   io.Writer
	store tokenStore
	conf  *oauth2.Config
	force bool
	code  string
	state string
}

func runAuth(ctx context.Context, f authFlow) error {
	reader := bufio.NewReader(f.in)

	if f.store.Exists() && !f.force {
		fmt.Fprintf(f.out, "A token already exists at %s.\nReplace it? [y/N]: ", f.store.Path())
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			return errAuthAborted
		}
	}

	state := f.state
	if state == "" {
		state = google.NewState()
	}

	input := f.code
	if input == "" {
		fmt.Fprintf(f.out, "\nOpen this URL in your browser and approve access:\n\n%s\n\n", google.AuthCodeURL(f.conf, state))
		fmt.Fprint(f.out, "Paste the URL you were redirected to (or the code): ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		input = line
	} else {
		// A code passed on the command line cannot carry our state.
		state = ""
	}

	code, err := google.CodeFromRedirect(input, state)
	if err != nil {
		return err
	}

	cred, err := google.Exchange(ctx, f.conf, code)
	if err != nil {
		return err
	}
	if cred.RefreshToken == "" {
		fmt.Fprintln(f.out, "Warning: Google returned no refresh token; the token will stop working when it expires.")
	}

	if err := f.store.Save(cred); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(f.out, "Token saved to %s\n", f.store.Path())
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable Google token is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			store := newCredentialStore(cfg, logger, nil)
			return printAuthStatus(cmd.Context(), cmd.OutOrStdout(), store, cfg.Google.OAuthConfigured(), time.Now())
		},
	}
}

func printAuthStatus(ctx context.Context, out io.Writer, store tokenStore, oauthConfigured bool, now time.Time) error {
	fmt.Fprintf(out, "Token path:        %s\n", store.Path())
	fmt.Fprintf(out, "OAuth client:      %s\n", yesNo(oauthConfigured, "configured", "not configured"))

	if !store.Exists() {
		fmt.Fprintln(out, "Status:            no token, run `meetbook auth`")
		return nil
	}

	cred, ok := store.Load(ctx)
	if !ok {
		fmt.Fprintln(out, "Status:            token is not usable (expired and could not be refreshed)")
		return nil
	}

	fmt.Fprintln(out, "Status:            usable")
	fmt.Fprintf(out, "Access token:      %s\n", logging.SanitizeToken(cred.AccessToken))
	if !cred.Expiry.IsZero() {
		fmt.Fprintf(out, "Expires in:        %s\n", cred.Expiry.Sub(now).Truncate(time.Second))
	}
	fmt.Fprintf(out, "Refresh token:     %s\n", yesNo(cred.RefreshToken != "", "present", "missing"))
	if len(cred.Scopes) > 0 {
		fmt.Fprintf(out, "Scopes:            %s\n", strings.Join(cred.Scopes, " "))
	}
	return nil
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token now",
		Long: `Refresh the stored Google token immediately instead of waiting for it to
expire, then read it back from GOOGLE_TOKEN_PATH to confirm it is usable.
Use this after rotating the OAuth client or to check that the refresh token
has not been revoked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Google.OAuthConfigured() {
				return errOAuthNotConfigured
			}
			store := newCredentialStore(cfg, logger, nil)
			return runAuthRefresh(cmd.Context(), cmd.OutOrStdout(), store, time.Now())
		},
	}
}

// tokenRefresher is the part of the credential store `auth refresh` uses.
type tokenRefresher interface {
	Path() string
	Refresh(ctx context.Context) (*google.Credential, error)
	Reload(ctx context.Context) (*google.Credential, bool)
}

func runAuthRefresh(ctx context.Context, out io.Writer, store tokenRefresher, now time.Time) error {
	cred, err := store.Refresh(ctx)
	if errors.Is(err, google.ErrNoRefreshToken) {
		return fmt.Errorf("%w, run `meetbook auth --force` to authorize again", err)
	}
	if err != nil {
		return fmt.Errorf("failed to refresh token at %s: %w", store.Path(), err)
	}

	fmt.Fprintf(out, "Token refreshed:   %s\n", store.Path())
	fmt.Fprintf(out, "Access token:      %s\n", logging.SanitizeToken(cred.AccessToken))
	if !cred.Expiry.IsZero() {
		fmt.Fprintf(out, "Expires in:        %s\n", cred.Expiry.Sub(now).Truncate(time.Second))
	}

	if _, ok := store.Reload(ctx); !ok {
		return fmt.Errorf("refreshed token at %s could not be read back", store.Path())
	}
	fmt.Fprintln(out, "Status:            usable")
	return nil
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
