// Package store holds the process-wide UI state: the authenticated user,
// the auth token and the user's own board. Every write goes through a named
// mutator so changes can be observed and tested.
package store

import (
	"sync"

	"WishBoard/internal/cli/model"
)

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	User       *model.User
	Token      string
	Wishes     []model.Wish
	Search     string
	Onboarding bool
}

// Store wraps the state for the current process.
type Store struct {
	mu         sync.RWMutex
	user       *model.User
	token      string
	wishes     []model.Wish
	search     string
	onboarding bool

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New returns an empty store.
func New() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Subscribe registers fn to be called after every mutation with the new
// state. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Token:      s.token,
		Wishes:     append([]model.Wish(nil), s.wishes...),
		Search:     s.search,
		Onboarding: s.onboarding,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// SetUser replaces the authenticated user.
func (s *Store) SetUser(u *model.User) {
	s.mu.Lock()
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	s.mu.Unlock()
	s.notify()
}

// User returns the authenticated user or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetToken replaces the auth token.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.notify()
}

// Token returns the auth token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetWishes replaces the whole board.
func (s *Store) SetWishes(wishes []model.Wish) {
	s.mu.Lock()
	s.wishes = append([]model.Wish(nil), wishes...)
	s.mu.Unlock()
	s.notify()
}

// Wishes returns a copy of the board, newest first.
func (s *Store) Wishes() []model.Wish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Wish(nil), s.wishes...)
}

// AppendOwnWish adds w to the board. The board is ordered newest first, so
// the wish goes to the front.
func (s *Store) AppendOwnWish(w model.Wish) {
	s.mu.Lock()
	s.wishes = append([]model.Wish{w}, s.wishes...)
	s.mu.Unlock()
	s.notify()
}

// RemoveOwnWish drops every board entry for which match returns true and
// reports how many were removed.
func (s *Store) RemoveOwnWish(match func(model.Wish) bool) int {
	s.mu.Lock()
	kept := s.wishes[:0:0]
	removed := 0
	for _, w := range s.wishes {
		if match(w) {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	s.wishes = kept
	s.mu.Unlock()
	if removed > 0 {
		s.notify()
	}
	return removed
}

// PatchOwnWish applies fn to the board entry with the given id.
func (s *Store) PatchOwnWish(id string, fn func(model.Wish) model.Wish) bool {
	s.mu.Lock()
	found := false
	for i := range s.wishes {
		if s.wishes[i].ID == id {
			s.wishes[i] = fn(s.wishes[i])
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// SetSearch sets the active feed search term, the list context of the feed.
func (s *Store) SetSearch(term string) {
	s.mu.Lock()
	s.search = term
	s.mu.Unlock()
	s.notify()
}

// Search returns the active feed search term.
func (s *Store) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetOnboarding marks whether onboarding was completed.
func (s *Store) SetOnboarding(done bool) {
	s.mu.Lock()
	s.onboarding = done
	s.mu.Unlock()
	s.notify()
}

// Onboarding reports whether onboarding was completed.
func (s *Store) Onboarding() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboarding
}
