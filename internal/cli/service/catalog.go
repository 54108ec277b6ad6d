package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
)

const (
	kvOnboarding     = "onboarding"
	kvRecentSearches = "recent_searches"
	maxRecent        = 8
)

// Catalog — кэшируемые чтения: лента, карточка wish, доска, закладки, профиль.
type Catalog struct {
	deps Deps
}

func NewCatalog(deps Deps) *Catalog {
	return &Catalog{deps: deps.withDefaults()}
}

// Feed returns the public feed for search; "" is the unfiltered feed.
func (c *Catalog) Feed(ctx context.Context, search string) ([]model.Wish, error) {
	return cache.Fetch(ctx, c.deps.Cache, cache.Feed(search), func(ctx context.Context) ([]model.Wish, error) {
		return c.deps.Gateway.FetchFeed(ctx, search)
	})
}

// Search makes term the active list context, remembers it and returns its feed.
func (c *Catalog) Search(ctx context.Context, term string) ([]model.Wish, error) {
	term = strings.TrimSpace(term)
	c.deps.Store.SetSearch(term)
	if term != "" {
		c.rememberSearch(ctx, term)
	}
	return c.Feed(ctx, term)
}

// Wish returns the wish detail with its savers.
func (c *Catalog) Wish(ctx context.Context, wishID string) (model.WishDetail, error) {
	return cache.Fetch(ctx, c.deps.Cache, cache.Item(wishID), func(ctx context.Context) (model.WishDetail, error) {
		return c.deps.Gateway.FetchWish(ctx, wishID)
	})
}

// Board returns the user's own wishes and replaces the board in the store.
func (c *Catalog) Board(ctx context.Context) ([]model.Wish, error) {
	wishes, err := cache.Fetch(ctx, c.deps.Cache, cache.UserWishes, func(ctx context.Context) ([]model.Wish, error) {
		return c.deps.Gateway.FetchUserWishes(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.deps.Store.SetWishes(wishes)
	return wishes, nil
}

// Bookmarks returns bookmarked wishes with CopyID filled from the board:
// a board wish whose SourceID is the bookmark id is the viewer's copy.
func (c *Catalog) Bookmarks(ctx context.Context) ([]model.Wish, error) {
	list, err := cache.Fetch(ctx, c.deps.Cache, cache.Bookmarks, func(ctx context.Context) ([]model.Wish, error) {
		return c.deps.Gateway.FetchBookmarks(ctx)
	})
	if err != nil {
		return nil, err
	}
	copies := map[string]string{}
	for _, w := range c.deps.Store.Wishes() {
		if w.SourceID != nil {
			copies[*w.SourceID] = w.ID
		}
	}
	changed := false
	out := make([]model.Wish, len(list))
	for i, w := range list {
		if id, ok := copies[w.ID]; ok && !w.HasCopy() {
			w.CopyID = &id
			changed = true
		}
		out[i] = w
	}
	if changed {
		cache.Patch(c.deps.Cache, cache.Bookmarks, func([]model.Wish) []model.Wish { return out })
	}
	return out, nil
}

// Profile returns another user's public profile.
func (c *Catalog) Profile(ctx context.Context, userID string) (model.UserProfile, error) {
	return cache.Fetch(ctx, c.deps.Cache, cache.Profile(userID), func(ctx context.Context) (model.UserProfile, error) {
		return c.deps.Gateway.FetchProfile(ctx, userID)
	})
}

// RecentSearches returns remembered search terms, newest first.
func (c *Catalog) RecentSearches(ctx context.Context) ([]string, error) {
	if c.deps.KV == nil {
		return nil, nil
	}
	raw, ok, err := c.deps.KV.Get(ctx, kvRecentSearches)
	if err != nil || !ok {
		return nil, err
	}
	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, fmt.Errorf("decode recent searches: %w", err)
	}
	return terms, nil
}

// rememberSearch пишет в KV по принципу fire-and-forget: ошибки только логируются.
func (c *Catalog) rememberSearch(ctx context.Context, term string) {
	if c.deps.KV == nil {
		return
	}
	prev, err := c.RecentSearches(ctx)
	if err != nil {
		c.deps.Logger.Warnw("recent searches unreadable, starting over", "err", err)
	}
	terms := []string{term}
	for _, t := range prev {
		if !strings.EqualFold(t, term) && len(terms) < maxRecent {
			terms = append(terms, t)
		}
	}
	b, _ := json.Marshal(terms)
	if err := c.deps.KV.Set(ctx, kvRecentSearches, string(b)); err != nil {
		c.deps.Logger.Warnw("save recent searches", "err", err)
	}
}

// LoadOnboarding reads the persisted onboarding flag into the store.
func (c *Catalog) LoadOnboarding(ctx context.Context) bool {
	if c.deps.KV == nil {
		return c.deps.Store.Onboarding()
	}
	v, ok, err := c.deps.KV.Get(ctx, kvOnboarding)
	if err != nil {
		c.deps.Logger.Warnw("read onboarding flag", "err", err)
	}
	done := ok && v == "done"
	c.deps.Store.SetOnboarding(done)
	return done
}

// CompleteOnboarding marks onboarding as done.
func (c *Catalog) CompleteOnboarding(ctx context.Context) {
	c.deps.Store.SetOnboarding(true)
	if c.deps.KV == nil {
		return
	}
	if err := c.deps.KV.Set(ctx, kvOnboarding, "done"); err != nil {
		c.deps.Logger.Warnw("save onboarding flag", "err", err)
	}
}
