package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// ErrNotAuthenticated is returned when no usable credentials are bound.
var ErrNotAuthenticated = errors.New("not authenticated")

// Scopes are the OAuth scopes required by the Sheets and Drive clients.
var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveScope}

// TokenAuth holds the capability token shared by the remote clients.
// Obtaining the token (OAuth code exchange, consent screens) happens
// outside this process; TokenAuth only carries and swaps it.
type TokenAuth struct {
	mu sync.RWMutex
	ts oauth2.TokenSource
}

// NewTokenAuth wraps an existing token source. A nil source yields an
// unauthenticated TokenAuth that can be bound later with Rebind.
func NewTokenAuth(ts oauth2.TokenSource) *TokenAuth {
	return &TokenAuth{ts: ts}
}

// NewStaticTokenAuth binds a pre-issued access token.
func NewStaticTokenAuth(accessToken string) *TokenAuth {
	a := &TokenAuth{}
	if accessToken != "" {
		a.Rebind(accessToken)
	}
	return a
}

// NewCredentialsAuth binds service account or authorized-user credentials
// from their JSON form.
func NewCredentialsAuth(ctx context.Context, credentialsJSON []byte) (*TokenAuth, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &TokenAuth{ts: oauth2.ReuseTokenSource(nil, creds.TokenSource)}, nil
}

// IsAuthenticated reports whether a valid token can currently be produced.
func (a *TokenAuth) IsAuthenticated() bool {
	a.mu.RLock()
	ts := a.ts
	a.mu.RUnlock()
	if ts == nil {
		return false
	}
	tok, err := ts.Token()
	return err == nil && tok.Valid()
}

// AuthorizedClient returns the bound token source.
func (a *TokenAuth) AuthorizedClient() (oauth2.TokenSource, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ts == nil {
		return nil, ErrNotAuthenticated
	}
	return a.ts, nil
}

// Rebind replaces the bound credentials with a new access token.
func (a *TokenAuth) Rebind(accessToken string) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	a.mu.Lock()
	a.ts = ts
	a.mu.Unlock()
}
