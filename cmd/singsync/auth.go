package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/shared"
)

// AuthRegister creates a backend account and mirrors it into the local users table.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	user, err := auth.Register(ctx, cmd.String("name"), cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	r.writePlain("✓ Registered %s <%s>\n", user.Name(), user.Email())
	r.writePlain("Check your inbox if the backend requires email confirmation.\n")
	return nil
}

// AuthLogin signs in and prints the issued session tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	email := cmd.String("email")
	if email == "" {
		return fmt.Errorf("%w: --email", shared.ErrMissingCredentials)
	}

	session, err := auth.Login(ctx, email, cmd.String("password"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(session, true)
	}

	r.writePlain("✓ Signed in as %s <%s>\n", session.User.Name(), session.User.Email())
	if !session.Expiry.IsZero() {
		r.writePlain("  Token expires: %s\n", session.Expiry.Local().Format(time.DateTime))
	}
	return nil
}
