package service

import (
	"context"
	"fmt"
	"slices"

	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
)

const (
	msgAdded        = "Added to board"
	msgAddFailed    = "Failed to add to board"
	msgRemoved      = "Removed from board"
	msgRemoveFailed = "Failed to remove from board"
)

// Board adds other users' wishes to the current user's board and removes
// them again. Local state is touched only after the remote call succeeds.
type Board struct {
	deps  Deps
	guard inflight
}

func NewBoard(deps Deps) *Board {
	return &Board{deps: deps.withDefaults()}
}

// CopyID returns the viewer's copy id of wishID as cached in list.
func (b *Board) CopyID(list cache.Key, wishID string) (string, bool) {
	wishes, _ := cache.Lookup[[]model.Wish](b.deps.Cache, list)
	for _, w := range wishes {
		if w.ID == wishID && w.HasCopy() {
			return *w.CopyID, true
		}
	}
	return "", false
}

// Toggle adds the wish when list has no copy id for it, otherwise removes it.
func (b *Board) Toggle(ctx context.Context, list cache.Key, wishID string) (added bool, err error) {
	if _, ok := b.CopyID(list, wishID); ok {
		return false, b.RemoveFromBoard(ctx, list, wishID)
	}
	_, err = b.AddToBoard(ctx, list, wishID)
	return err == nil, err
}

// AddToBoard copies wishID to the board. list is the cached list the wish was
// picked from, e.g. cache.Feed(search).
func (b *Board) AddToBoard(ctx context.Context, list cache.Key, wishID string) (model.Wish, error) {
	key := guardKey(list, wishID)
	if !b.guard.acquire(key) {
		return model.Wish{}, ErrInFlight
	}
	defer b.guard.release(key)

	copied, err := b.deps.Gateway.CopyWish(ctx, wishID)
	if err != nil {
		b.deps.Notifier.Notify(msgAddFailed)
		return model.Wish{}, fmt.Errorf("add to board: %w", err)
	}
	copyID := copied.ID

	entry := copied
	cache.Patch(b.deps.Cache, list, func(ws []model.Wish) []model.Wish {
		out := slices.Clone(ws)
		for i := range out {
			if out[i].ID == wishID {
				out[i].CopyID = &copyID
				entry = out[i]
			}
		}
		return out
	})
	entry.CopyID = &copyID
	b.deps.Store.AppendOwnWish(entry)

	b.invalidate(wishID)
	b.deps.Notifier.Notify(msgAdded)
	b.deps.Logger.Debugw("added to board", "wish_id", wishID, "copy_id", copyID, "list", list.String())
	return entry, nil
}

// RemoveFromBoard deletes the viewer's copy of wishID. The copy id comes from
// list; without it ErrNoCopiedWish is returned and nothing is called or changed.
func (b *Board) RemoveFromBoard(ctx context.Context, list cache.Key, wishID string) error {
	key := guardKey(list, wishID)
	if !b.guard.acquire(key) {
		return ErrInFlight
	}
	defer b.guard.release(key)

	copyID, ok := b.CopyID(list, wishID)
	if !ok {
		b.deps.Notifier.Notify(msgRemoveFailed)
		return fmt.Errorf("remove from board %s: %w", wishID, ErrNoCopiedWish)
	}

	if err := b.deps.Gateway.DeleteWish(ctx, copyID); err != nil {
		b.deps.Notifier.Notify(msgRemoveFailed)
		return fmt.Errorf("remove from board: %w", err)
	}

	cache.Patch(b.deps.Cache, list, func(ws []model.Wish) []model.Wish {
		out := slices.Clone(ws)
		for i := range out {
			if out[i].ID == wishID {
				out[i].CopyID = nil
			}
		}
		return out
	})
	b.deps.Store.RemoveOwnWish(func(w model.Wish) bool {
		return w.ID == copyID || (w.CopyID != nil && *w.CopyID == copyID)
	})

	b.invalidate(wishID)
	b.deps.Notifier.Notify(msgRemoved)
	b.deps.Logger.Debugw("removed from board", "wish_id", wishID, "copy_id", copyID, "list", list.String())
	return nil
}

func (b *Board) invalidate(wishID string) {
	b.deps.Cache.Invalidate(cache.Item(wishID))
	b.deps.Cache.Invalidate(cache.UserWishes)
}

func guardKey(list cache.Key, wishID string) string {
	return append(append(cache.Key(nil), list...), wishID).String()
}
