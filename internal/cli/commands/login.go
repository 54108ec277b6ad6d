package commands

import (
	"context"
	"fmt"
	"time"

	"WishBoard/internal/cli/auth"
	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/config"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Store the session token issued by the mini app" }
func (loginCmd) Usage() string       { return "login <token>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	claims, err := auth.ParseClaims(args[0])
	if err != nil {
		return err
	}
	if claims.Expired(time.Now()) {
		return fmt.Errorf("token expired at %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.Tokens.Save(args[0]); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		fmt.Fprintf(Out, "Logged in as %s\n", claims.UID)
		return nil
	})
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored session token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.Tokens.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(Out, "Logged out")
		return nil
	})
}

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Show the current user" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		u := s.Store.User()
		fmt.Fprintf(Out, "User:       %s\n", u.ID)
		if u.ChatID != 0 {
			fmt.Fprintf(Out, "Chat:       %d\n", u.ChatID)
		}
		onboarding := "pending"
		if s.Store.Onboarding() {
			onboarding = "done"
		}
		fmt.Fprintf(Out, "Onboarding: %s\n", onboarding)
		return nil
	})
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(whoamiCmd{})
}
