package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"

	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/config"
)

type feedCmd struct{}

func (feedCmd) Name() string        { return "feed" }
func (feedCmd) Description() string { return "Show the public feed, optionally filtered" }
func (feedCmd) Usage() string       { return "feed [search]" }

func (feedCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	term := strings.Join(args, " ")
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		wishes, err := s.Catalog.Search(ctx, term)
		if err != nil {
			return err
		}
		printWishes(Out, wishes)
		return nil
	})
}

type recentCmd struct{}

func (recentCmd) Name() string        { return "recent" }
func (recentCmd) Description() string { return "Show recent feed searches" }
func (recentCmd) Usage() string       { return "recent" }

func (recentCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		terms, err := s.Catalog.RecentSearches(ctx)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			fmt.Fprintln(Out, "No recent searches")
			return nil
		}
		for _, t := range terms {
			fmt.Fprintf(Out, "- %s\n", t)
		}
		return nil
	})
}

type wishCmd struct{}

func (wishCmd) Name() string        { return "wish" }
func (wishCmd) Description() string { return "Show a wish with its savers (YAML)" }
func (wishCmd) Usage() string       { return "wish <id>" }

func (wishCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		detail, err := s.Catalog.Wish(ctx, args[0])
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(detail)
		if err != nil {
			return fmt.Errorf("encode wish: %w", err)
		}
		_, err = Out.Write(b)
		return err
	})
}

type onboardingCmd struct{}

func (onboardingCmd) Name() string        { return "onboarding" }
func (onboardingCmd) Description() string { return "Show onboarding state or mark it done" }
func (onboardingCmd) Usage() string       { return "onboarding [done]" }

func (onboardingCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 || (len(args) == 1 && args[0] != "done") {
		return ErrUsage
	}
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if len(args) == 1 {
			s.Catalog.CompleteOnboarding(ctx)
		}
		if s.Store.Onboarding() {
			fmt.Fprintln(Out, "Onboarding: done")
		} else {
			fmt.Fprintln(Out, "Onboarding: pending")
		}
		return nil
	})
}

func init() {
	RegisterCmd(feedCmd{})
	RegisterCmd(recentCmd{})
	RegisterCmd(wishCmd{})
	RegisterCmd(onboardingCmd{})
}
