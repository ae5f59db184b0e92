package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// DefaultRedirectURL is used when no redirect URI is configured. The
// authorization code is copied from the browser's address bar.
const DefaultRedirectURL = "http://localhost"

var (
	// ErrStateMismatch is returned when the redirect carries a foreign state value.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrMissingCode is returned when the redirect has no authorization code.
	ErrMissingCode = errors.New("authorization code missing from redirect")
)

// OAuthSettings are the client credentials registered in the Google console.
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// NewOAuthConfig returns the OAuth2 configuration for the Google endpoint.
func NewOAuthConfig(settings OAuthSettings) *oauth2.Config {
	redirect := settings.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	scopes := settings.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	return &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  redirect,
		Scopes:       scopes,
	}
}

// AuthCodeURL returns the consent URL. Offline access with forced consent
// makes Google issue a refresh token every time.
func AuthCodeURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// NewState returns a random state value for the consent round trip.
func NewState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CodeFromRedirect extracts the authorization code from the URL the browser
// was redirected to. A bare code is returned as is. When state is non-empty
// the redirect must carry the same value.
func CodeFromRedirect(redirect, state string) (string, error) {
	redirect = strings.TrimSpace(redirect)
	if redirect == "" {
		return "", ErrMissingCode
	}
	if !strings.Contains(redirect, "code=") && !strings.Contains(redirect, "error=") {
		return redirect, nil
	}

	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	q := u.Query()

	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if state != "" && q.Get("state") != state {
		return "", ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}
	return code, nil
}

// Exchange trades an authorization code for a credential.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*Credential, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return CredentialFromToken(tok, conf.Scopes), nil
}

// NewHTTPClient returns an HTTP client authorized by ts.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok && transport.Base == nil {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	return client
}
