package service

import (
	"context"
	"fmt"
	"slices"

	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
)

// Social handles follow/unfollow and bookmark/unbookmark. Both show the target
// state in the cache right away and restore the previous state on failure.
type Social struct {
	deps  Deps
	guard inflight
}

func NewSocial(deps Deps) *Social {
	return &Social{deps: deps.withDefaults()}
}

// toggle описывает одну булеву мутацию: локальный патч, удалённый вызов и что инвалидировать.
type toggle struct {
	key        string
	target     bool
	apply      func(target bool) (restore func())
	call       func(ctx context.Context, target bool) error
	invalidate []cache.Key
	failMsg    string
}

func (s *Social) run(ctx context.Context, t toggle) error {
	if !s.guard.acquire(t.key) {
		return ErrInFlight
	}
	defer s.guard.release(t.key)

	restore := t.apply(t.target)
	if err := t.call(ctx, t.target); err != nil {
		restore()
		s.deps.Notifier.Notify(t.failMsg)
		s.deps.Logger.Warnw("social mutation rolled back", "key", t.key, "target", t.target, "err", err)
		return err
	}
	for _, k := range t.invalidate {
		s.deps.Cache.Invalidate(k)
	}
	return nil
}

// SetFollowing follows (follow=true) or unfollows userID.
func (s *Social) SetFollowing(ctx context.Context, userID string, follow bool) error {
	failMsg := "Failed to follow user"
	if !follow {
		failMsg = "Failed to unfollow user"
	}
	err := s.run(ctx, toggle{
		key:    cache.Key{"follow", userID}.String(),
		target: follow,
		apply: func(target bool) func() {
			var prev model.UserProfile
			patched := cache.Patch(s.deps.Cache, cache.Profile(userID), func(p model.UserProfile) model.UserProfile {
				prev = p
				if p.IsFollowing != target {
					if target {
						p.Followers++
					} else if p.Followers > 0 {
						p.Followers--
					}
				}
				p.IsFollowing = target
				return p
			})
			return func() {
				if !patched {
					return
				}
				cache.Patch(s.deps.Cache, cache.Profile(userID), func(p model.UserProfile) model.UserProfile {
					p.IsFollowing = prev.IsFollowing
					p.Followers = prev.Followers
					return p
				})
			}
		},
		call: func(ctx context.Context, target bool) error {
			if target {
				return s.deps.Gateway.FollowUser(ctx, userID)
			}
			return s.deps.Gateway.UnfollowUser(ctx, userID)
		},
		invalidate: []cache.Key{cache.Profiles},
		failMsg:    failMsg,
	})
	if err != nil {
		return fmt.Errorf("set following %s: %w", userID, err)
	}
	return nil
}

// SetBookmarked saves (bookmarked=true) or removes a bookmark for wishID.
// list is the cached list the wish is shown in.
func (s *Social) SetBookmarked(ctx context.Context, list cache.Key, wishID string, bookmarked bool) error {
	failMsg := "Failed to save bookmark"
	if !bookmarked {
		failMsg = "Failed to remove bookmark"
	}
	err := s.run(ctx, toggle{
		key:    guardKey(append(cache.Key{"bookmark"}, list...), wishID),
		target: bookmarked,
		apply: func(target bool) func() {
			prevInList := map[int]bool{}
			listPatched := cache.Patch(s.deps.Cache, list, func(ws []model.Wish) []model.Wish {
				out := slices.Clone(ws)
				for i := range out {
					if out[i].ID == wishID {
						prevInList[i] = out[i].IsBookmarked
						out[i].IsBookmarked = target
					}
				}
				return out
			})
			var prevItem bool
			itemPatched := cache.Patch(s.deps.Cache, cache.Item(wishID), func(d model.WishDetail) model.WishDetail {
				prevItem = d.Wish.IsBookmarked
				d.Wish.IsBookmarked = target
				return d
			})
			return func() {
				if listPatched {
					cache.Patch(s.deps.Cache, list, func(ws []model.Wish) []model.Wish {
						out := slices.Clone(ws)
						for i := range out {
							if prev, ok := prevInList[i]; ok && out[i].ID == wishID {
								out[i].IsBookmarked = prev
							}
						}
						return out
					})
				}
				if itemPatched {
					cache.Patch(s.deps.Cache, cache.Item(wishID), func(d model.WishDetail) model.WishDetail {
						d.Wish.IsBookmarked = prevItem
						return d
					})
				}
			}
		},
		call: func(ctx context.Context, target bool) error {
			if target {
				return s.deps.Gateway.SaveBookmark(ctx, wishID)
			}
			return s.deps.Gateway.RemoveBookmark(ctx, wishID)
		},
		invalidate: []cache.Key{cache.Bookmarks},
		failMsg:    failMsg,
	})
	if err != nil {
		return fmt.Errorf("set bookmarked %s: %w", wishID, err)
	}
	return nil
}
