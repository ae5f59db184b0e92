package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
)

var (
	// ErrNoRefreshToken is returned when a refresh is requested for a
	// credential that cannot be refreshed.
	ErrNoRefreshToken = errors.New("credential has no refresh token")

	// ErrNoOAuthConfig is returned when refreshing without client settings.
	ErrNoOAuthConfig = errors.New("oauth client is not configured")
)

// Credential is the persisted OAuth token bundle.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// CredentialFromToken converts an oauth2 token into a Credential.
func CredentialFromToken(tok *oauth2.Token, scopes []string) *Credential {
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
}

// Token returns the credential as an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the access token is present and not expired.
func (c *Credential) Valid() bool {
	return c != nil && c.Token().Valid()
}

// FileCredentialStore keeps a single credential as a JSON file on disk.
//
// Concurrent refreshes are not coordinated: two callers finding an expired
// credential both refresh and the last write wins. Only the in-memory cache
// is guarded.
type FileCredentialStore struct {
	path       string
	conf       *oauth2.Config
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	httpClient *http.Client

	mu     sync.Mutex
	cached *Credential
}

// StoreOption configures a FileCredentialStore.
type StoreOption func(*FileCredentialStore)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *FileCredentialStore) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder used for refresh accounting.
func WithMetrics(m *instrumentation.Metrics) StoreOption {
	return func(s *FileCredentialStore) {
		s.metrics = m
	}
}

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) StoreOption {
	return func(s *FileCredentialStore) {
		s.httpClient = c
	}
}

// NewFileCredentialStore creates a store backed by path. conf is used for
// refreshes and may be nil when only reading is needed.
func NewFileCredentialStore(path string, conf *oauth2.Config, opts ...StoreOption) *FileCredentialStore {
	s := &FileCredentialStore{
		path: path,
		conf: conf,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithComponent(s.logger, "credential_store")
	return s
}

// Path returns the location of the credential file.
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Load returns a usable credential, refreshing and persisting it when the
// access token has expired. It reports false when no usable credential
// exists; problems are logged, never returned.
func (s *FileCredentialStore) Load(ctx context.Context) (*Credential, bool) {
	if cred := s.cachedCredential(); cred.Valid() {
		return cred, true
	}

	cred, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("google credentials not configured", "path", s.path)
		return nil, false
	}
	if err != nil {
		s.logger.Warn("ignoring unreadable google credentials", "path", s.path, logging.Err(err))
		return nil, false
	}

	if !cred.Valid() {
		if cred.RefreshToken == "" {
			s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
			s.logger.Warn("google credentials expired and cannot be refreshed", "path", s.path)
			return nil, false
		}

		refreshed, err := s.refresh(ctx, cred)
		if err != nil {
			s.logger.Warn("google credential refresh failed", logging.Err(err))
			return nil, false
		}
		cred = refreshed
	}

	s.setCached(cred)
	return cred, true
}

// Reload drops the cached credential and loads it again from disk.
func (s *FileCredentialStore) Reload(ctx context.Context) (*Credential, bool) {
	s.setCached(nil)
	return s.Load(ctx)
}

// Refresh exchanges the stored refresh token for a new access token and
// persists the result, regardless of the current token's expiry.
func (s *FileCredentialStore) Refresh(ctx context.Context) (*Credential, error) {
	cred, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if cred.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	refreshed, err := s.refresh(ctx, cred)
	if err != nil {
		return nil, err
	}
	s.setCached(refreshed)
	return refreshed, nil
}

// Save persists cred atomically with owner-only permissions.
func (s *FileCredentialStore) Save(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set credential permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}

	s.setCached(cred)
	return nil
}

// Exists reports whether a credential file is present on disk.
func (s *FileCredentialStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *FileCredentialStore) read() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return nil, fmt.Errorf("decode %s: no tokens present", s.path)
	}
	return &cred, nil
}

func (s *FileCredentialStore) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if s.conf == nil {
		return nil, ErrNoOAuthConfig
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	// An empty access token forces the token source to hit the endpoint.
	tok, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	refreshed := CredentialFromToken(tok, cred.Scopes)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cred.RefreshToken
	}

	if err := s.Save(refreshed); err != nil {
		s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}

	s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	s.logger.Info("google credentials refreshed", "expiry", refreshed.Expiry)
	return refreshed, nil
}

func (s *FileCredentialStore) cachedCredential() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

func (s *FileCredentialStore) setCached(cred *Credential) {
	s.mu.Lock()
	s.cached = cred
	s.mu.Unlock()
}

// DefaultTokenPath returns the default credential location in the user's cache directory.
func DefaultTokenPath() string {
	return filepath.Join(userCacheDir(), "meetbook", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
