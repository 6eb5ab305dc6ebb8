package repositories

import (
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// TokenStore holds the bearer credential in memory and mirrors it to the session store.
//
// It implements [oauth2.TokenSource]. Expiry is read from the JWT exp claim for display
// only; the server is the sole judge of whether a token is still accepted.
type TokenStore struct {
	mu     sync.RWMutex
	repo   *SessionRepository
	token  *oauth2.Token
	loaded bool
}

// NewTokenStore creates a TokenStore backed by repo.
func NewTokenStore(repo *SessionRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Token returns the stored credential or [shared.ErrAuthRequired].
func (s *TokenStore) Token() (*oauth2.Token, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, shared.ErrAuthRequired
	}
	tok := *s.token
	return &tok, nil
}

// LoggedIn reports whether an access token is held.
func (s *TokenStore) LoggedIn() bool {
	tok, err := s.Token()
	return err == nil && tok.AccessToken != ""
}

// SaveTokens persists a fresh login or signup response.
func (s *TokenStore) SaveTokens(t models.Tokens) error {
	if t.Access == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	if err := s.repo.Set(accessTokenKey, t.Access); err != nil {
		return err
	}
	if t.Refresh != "" {
		if err := s.repo.Set(refreshTokenKey, t.Refresh); err != nil {
			return err
		}
	} else if err := s.repo.Delete(refreshTokenKey); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = newToken(t.Access, t.Refresh)
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Clear drops the credential from memory and storage.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	s.token = nil
	s.loaded = true
	s.mu.Unlock()

	return s.repo.Delete(accessTokenKey, refreshTokenKey)
}

func (s *TokenStore) load() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	access, err := s.repo.Get(accessTokenKey)
	if errors.Is(err, shared.ErrNotFound) {
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
		return nil
	} else if err != nil {
		return err
	}

	refresh, err := s.repo.Get(refreshTokenKey)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	if !s.loaded {
		s.token = newToken(access, refresh)
		s.loaded = true
	}
	s.mu.Unlock()
	return nil
}

func newToken(access, refresh string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok
}
