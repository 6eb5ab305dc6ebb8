package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with username and password and stores the issued tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	creds := models.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}
	if creds.Username == "" {
		if creds.Username, err = r.prompt("Email: "); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.prompt("Password: "); err != nil {
			return err
		}
	}

	r.logger.Infof("signing in as %v", creds.Username)

	if err := engine.Login(ctx, creds); err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s\n", creds.Username)
}

// AuthSignup registers an account. The form is validated locally before any request.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	form := models.SignupForm{
		Email:           cmd.String("email"),
		Password:        cmd.String("password"),
		ConfirmPassword: cmd.String("confirm"),
		FirstName:       cmd.String("first-name"),
		LastName:        cmd.String("last-name"),
	}
	if form.Password == "" {
		if form.Password, err = r.prompt("Password: "); err != nil {
			return err
		}
	}
	if form.ConfirmPassword == "" {
		if form.ConfirmPassword, err = r.prompt("Confirm password: "); err != nil {
			return err
		}
	}

	if err := engine.Signup(ctx, form); err != nil {
		return err
	}

	return r.writePlain("✓ Account created for %s\n", form.Email)
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	if err := engine.Logout(); err != nil {
		return err
	}

	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the stored session without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	status := engine.Status()
	if !status.LoggedIn {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in\n")
	switch {
	case status.Expiry.IsZero():
		r.writePlain("Expires: unknown\n")
	case status.Expired(time.Now()):
		r.writePlain("Expired: %s (run 'mm auth login')\n", status.Expiry.Local().Format(time.RFC1123))
	default:
		r.writePlain("Expires: %s\n", status.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthMe fetches the signed-in user's profile.
func (r *Runner) AuthMe(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	user, err := engine.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Name:  %s\n", user.DisplayName())
	r.writePlain("Email: %s\n", user.Email)
	return nil
}

// AuthHistory lists recent session events, newest first.
func (r *Runner) AuthHistory(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.bootstrap(cmd)
	if err != nil {
		return err
	}

	events, err := engine.History(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read session history: %w", err)
	}

	if len(events) == 0 {
		return r.writePlain("No session events recorded\n")
	}

	for _, ev := range events {
		line := fmt.Sprintf("%s  %-7s", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Kind)
		if ev.Detail != "" {
			line += "  " + ev.Detail
		}
		r.writePlain("%s\n", line)
	}
	return nil
}
