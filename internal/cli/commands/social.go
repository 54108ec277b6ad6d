package commands

import (
	"context"
	"fmt"

	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/config"
)

type bookmarkCmd struct {
	on bool
}

func (c bookmarkCmd) Name() string {
	if c.on {
		return "bookmark"
	}
	return "unbookmark"
}

func (c bookmarkCmd) Description() string {
	if c.on {
		return "Bookmark a wish"
	}
	return "Remove a bookmark"
}

func (c bookmarkCmd) Usage() string { return c.Name() + " [--search <term>|--bookmarks] <wishID>" }

func (c bookmarkCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var lf listFlags
	fs := newFlagSet(c.Name())
	lf.bind(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	wishID := fs.Arg(0)

	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		list, err := lf.load(ctx, s)
		if err != nil {
			return err
		}
		if err := s.Social.SetBookmarked(ctx, list, wishID, c.on); err != nil {
			return err
		}
		if c.on {
			fmt.Fprintf(Out, "Bookmarked %s\n", wishID)
		} else {
			fmt.Fprintf(Out, "Bookmark removed for %s\n", wishID)
		}
		return nil
	})
}

type followCmd struct {
	on bool
}

func (c followCmd) Name() string {
	if c.on {
		return "follow"
	}
	return "unfollow"
}

func (c followCmd) Description() string {
	if c.on {
		return "Follow a user"
	}
	return "Stop following a user"
}

func (c followCmd) Usage() string { return c.Name() + " <userID>" }

func (c followCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	userID := args[0]
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		if _, err := s.Catalog.Profile(ctx, userID); err != nil {
			return err
		}
		if err := s.Social.SetFollowing(ctx, userID, c.on); err != nil {
			return err
		}
		p, _ := cache.Lookup[model.UserProfile](s.Cache, cache.Profile(userID))
		state := "Not following"
		if p.IsFollowing {
			state = "Following"
		}
		fmt.Fprintf(Out, "%s %s (%d followers)\n", state, p.Username, p.Followers)
		return nil
	})
}

func init() {
	RegisterCmd(bookmarkCmd{on: true})
	RegisterCmd(bookmarkCmd{on: false})
	RegisterCmd(followCmd{on: true})
	RegisterCmd(followCmd{on: false})
}
