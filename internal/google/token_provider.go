package google

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned by token sources when no usable credential exists.
var ErrNotConfigured = errors.New("google credentials not configured")

// CredentialStore provides the deployment's OAuth credential.
// Load reports false when no usable credential exists.
type CredentialStore interface {
	Load(ctx context.Context) (*Credential, bool)
}

type storeTokenSource struct {
	ctx   context.Context
	store CredentialStore
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	cred, ok := s.store.Load(s.ctx)
	if !ok {
		return nil, ErrNotConfigured
	}
	return cred.Token(), nil
}

// TokenSource adapts a CredentialStore to an oauth2.TokenSource. Tokens are
// reused until they expire.
func TokenSource(ctx context.Context, store CredentialStore) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &storeTokenSource{ctx: ctx, store: store})
}
