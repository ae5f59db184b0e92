package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAdminToken_RoundTrip(t *testing.T) {
	now := time.Now()
	token, err := IssueAdminToken(testSecret, time.Hour, now)
	require.NoError(t, err)

	auth := NewAdminAuth("", testSecret, nil)
	assert.NoError(t, auth.Verify(token))
}

func TestIssueAdminToken_NoSecret(t *testing.T) {
	_, err := IssueAdminToken(nil, time.Hour, time.Now())
	assert.ErrorIs(t, err, ErrNoSigningSecret)
}

func TestAdminAuth_Verify(t *testing.T) {
	now := time.Now()
	valid, err := IssueAdminToken(testSecret, time.Hour, now)
	require.NoError(t, err)
	expired, err := IssueAdminToken(testSecret, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	otherKey, err := IssueAdminToken([]byte("another-secret-another-secret-xx"), time.Hour, now)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    adminIssuer,
		Subject:   adminSubject,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	auth := NewAdminAuth("static-token", testSecret, nil)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"static token", "static-token", nil},
		{"signed token", valid, nil},
		{"empty", "", ErrMissingToken},
		{"wrong static token", "static-tokem", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"other key", otherKey, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Verify(tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdminAuth_StaticOnlyRejectsJWT(t *testing.T) {
	token, err := IssueAdminToken(testSecret, time.Hour, time.Now())
	require.NoError(t, err)

	auth := NewAdminAuth("static-token", nil, nil)
	assert.ErrorIs(t, auth.Verify(token), ErrInvalidToken)
}

func TestAdminAuth_Middleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		auth   *AdminAuth
		header string
		want   int
	}{
		{"open when unconfigured", NewAdminAuth("", nil, nil), "", http.StatusNoContent},
		{"missing header", NewAdminAuth("static-token", nil, nil), "", http.StatusUnauthorized},
		{"wrong scheme", NewAdminAuth("static-token", nil, nil), "Basic static-token", http.StatusUnauthorized},
		{"bearer", NewAdminAuth("static-token", nil, nil), "Bearer static-token", http.StatusNoContent},
		{"lowercase scheme", NewAdminAuth("static-token", nil, nil), "bearer static-token", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/meetings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.auth.Middleware(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
				assert.JSONEq(t, `{"success":false,"message":"Authentication required."}`, rec.Body.String())
			}
		})
	}
}
