package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/repositories"
	"github.com/desertthunder/moviemate/internal/services"
	"github.com/desertthunder/moviemate/internal/shared"
)

// SessionStatus describes the stored credential.
type SessionStatus struct {
	LoggedIn bool
	Expiry   time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim has passed. The backend may still disagree.
func (s SessionStatus) Expired(now time.Time) bool {
	return s.LoggedIn && !s.Expiry.IsZero() && now.After(s.Expiry)
}

// Login validates credentials, stores the issued tokens and rebuilds membership for the new session.
func (e *Engine) Login(ctx context.Context, creds models.Credentials) error {
	if err := e.validator.Credentials(creds); err != nil {
		return err
	}

	tokens, err := e.api.Login(ctx, creds)
	if err != nil {
		return loginError(err)
	}
	return e.startSession(ctx, *tokens, repositories.EventLogin, creds.Username)
}

// Signup validates the form locally, registers the account and signs in.
func (e *Engine) Signup(ctx context.Context, form models.SignupForm) error {
	if err := e.validator.Signup(form); err != nil {
		return err
	}

	tokens, err := e.api.Signup(ctx, form)
	if err != nil {
		return loginError(err)
	}
	return e.startSession(ctx, *tokens, repositories.EventSignup, form.Email)
}

func (e *Engine) startSession(ctx context.Context, tokens models.Tokens, kind repositories.EventKind, who string) error {
	if err := e.tokens.SaveTokens(tokens); err != nil {
		return err
	}

	epoch := e.registry.Reset()
	e.record(kind, who)
	e.logger.Info("signed in", "user", who)

	if err := e.refresh(ctx, epoch, nil); err != nil {
		e.logger.Warn("membership rebuild after sign-in failed", "error", err)
	}
	return nil
}

// loginError turns a rejected login or signup into [shared.ErrAuthFailed] with the backend's message.
func loginError(err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Detail())
	}
	return err
}

// Logout clears the stored token and empties membership.
func (e *Engine) Logout() error {
	if err := e.tokens.Clear(); err != nil {
		return err
	}
	e.registry.Reset()
	e.record(repositories.EventLogout, "")
	e.logger.Info("signed out")
	return nil
}

// Me fetches the signed-in user's profile.
func (e *Engine) Me(ctx context.Context) (*models.User, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}

	user, err := e.api.Me(ctx)
	if err != nil {
		return nil, e.expire(err)
	}
	return user, nil
}

// Status reports the stored credential without contacting the backend.
func (e *Engine) Status() SessionStatus {
	tok, err := e.tokens.Token()
	if err != nil || tok.AccessToken == "" {
		return SessionStatus{}
	}
	return SessionStatus{LoggedIn: true, Expiry: tok.Expiry}
}

// History lists recent session events, newest first.
func (e *Engine) History(limit int) ([]*repositories.SessionEvent, error) {
	if e.events == nil {
		return nil, nil
	}
	return e.events.List(limit)
}
