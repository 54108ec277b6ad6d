package commands

import (
	"context"
	"fmt"

	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/config"
)

type boardCmd struct{}

func (boardCmd) Name() string        { return "board" }
func (boardCmd) Description() string { return "Show your own wishes" }
func (boardCmd) Usage() string       { return "board" }

func (boardCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		wishes, err := s.Catalog.Board(ctx)
		if err != nil {
			return err
		}
		printWishes(Out, wishes)
		return nil
	})
}

type bookmarksCmd struct{}

func (bookmarksCmd) Name() string        { return "bookmarks" }
func (bookmarksCmd) Description() string { return "Show bookmarked wishes" }
func (bookmarksCmd) Usage() string       { return "bookmarks" }

func (bookmarksCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withAuthSession(ctx, cfg, func(s *bootstrap.Session) error {
		if _, err := s.Catalog.Board(ctx); err != nil {
			return err
		}
		wishes, err := s.Catalog.Bookmarks(ctx)
		if err != nil {
			return err
		}
		printWishes(Out, wishes)
		return nil
	})
}

// boardMutationCmd — board-add и board-remove.
type boardMutationCmd struct {
	add bool
}

func (c boardMutationCmd) Name() string {
	if c.add {
		return "board-add"
	}
	return "board-remove"
}

func (c boardMutationCmd) Description() string {
	if c.add {
		return "Copy someone's wish to your board"
	}
	return "Remove your copy of a wish from the board"
}

func (c boardMutationCmd) Usage() string {
	return c.Name() + " [--search <term>|--bookmarks] <wishID>"
}

func (c boardMutationCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
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
		if !c.add {
			return s.Board.RemoveFromBoard(ctx, list, wishID)
		}
		entry, err := s.Board.AddToBoard(ctx, list, wishID)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Copy: %s\n", *entry.CopyID)
		return nil
	})
}

func init() {
	RegisterCmd(boardCmd{})
	RegisterCmd(bookmarksCmd{})
	RegisterCmd(boardMutationCmd{add: true})
	RegisterCmd(boardMutationCmd{add: false})
}
