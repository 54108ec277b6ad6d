package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"WishBoard/internal/cli/bootstrap"
	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/config"
)

// openSession собирает сессию команды; тесты подменяют шлюз через опции.
var openSession = func(ctx context.Context, cfg *config.Config) (*bootstrap.Session, func() error, error) {
	return bootstrap.Open(ctx, cfg, Out)
}

// withSession открывает сессию, выполняет fn и печатает счётчики при --stats.
func withSession(ctx context.Context, cfg *config.Config, fn func(s *bootstrap.Session) error) error {
	s, done, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	err = fn(s)
	if cfg.Stats {
		fmt.Fprintln(Out, "--")
		if werr := s.Metrics.WriteSummary(Out); werr != nil {
			s.Logger.Warnw("write stats", "err", werr)
		}
	}
	return err
}

// withAuthSession — withSession, требующий сохранённый токен.
func withAuthSession(ctx context.Context, cfg *config.Config, fn func(s *bootstrap.Session) error) error {
	return withSession(ctx, cfg, func(s *bootstrap.Session) error {
		if err := s.RequireAuth(); err != nil {
			return err
		}
		return fn(s)
	})
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// listFlags — общие флаги команд, действующих на wish из списка.
type listFlags struct {
	search    string
	bookmarks bool
}

func (l *listFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&l.search, "search", "", "feed search the wish was found with")
	fs.BoolVar(&l.bookmarks, "bookmarks", false, "the wish is picked from bookmarks")
}

// load fetches the list the wish is picked from and returns its cache key.
func (l *listFlags) load(ctx context.Context, s *bootstrap.Session) (cache.Key, error) {
	if l.bookmarks {
		// закладкам нужен борд, чтобы проставить copy_id
		if _, err := s.Catalog.Board(ctx); err != nil {
			return nil, err
		}
		if _, err := s.Catalog.Bookmarks(ctx); err != nil {
			return nil, err
		}
		return cache.Bookmarks, nil
	}
	if _, err := s.Catalog.Feed(ctx, l.search); err != nil {
		return nil, err
	}
	return cache.Feed(l.search), nil
}

func printWishes(w io.Writer, wishes []model.Wish) {
	if len(wishes) == 0 {
		fmt.Fprintln(w, "No wishes")
		return
	}
	for _, wish := range wishes {
		var marks []string
		if wish.HasCopy() {
			marks = append(marks, "on board")
		}
		if wish.IsBookmarked {
			marks = append(marks, "bookmarked")
		}
		if wish.IsFulfilled {
			marks = append(marks, "fulfilled")
		}
		line := fmt.Sprintf("- %s  %s", wish.ID, wish.DisplayName())
		if p := formatPrice(wish.Price, wish.Currency); p != "" {
			line += "  " + p
		}
		if len(marks) > 0 {
			line += "  [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Total: %d\n", len(wishes))
}

func formatPrice(price *float64, currency *string) string {
	if price == nil {
		return ""
	}
	if currency == nil || *currency == "" {
		return fmt.Sprintf("%.2f", *price)
	}
	return fmt.Sprintf("%.2f %s", *price, *currency)
}
