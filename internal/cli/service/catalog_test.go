package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
)

// memKV — KeyValueStore в памяти.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

func TestCatalog_FeedIsCachedUntilInvalidated(t *testing.T) {
	fx := newFixture(t)
	fx.gw.On("FetchFeed", mock.Anything, "nike").Return(feedWishes(), nil).Twice()

	c := NewCatalog(fx.deps)
	_, err := c.Feed(context.Background(), "nike")
	require.NoError(t, err)
	_, err = c.Feed(context.Background(), "nike")
	require.NoError(t, err)
	fx.gw.AssertNumberOfCalls(t, "FetchFeed", 1)

	fx.cache.Invalidate(cache.AllFeeds)
	got, err := c.Feed(context.Background(), "nike")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	fx.gw.AssertNumberOfCalls(t, "FetchFeed", 2)
}

func TestCatalog_BoardReplacesStore(t *testing.T) {
	fx := newFixture(t)
	fx.store.AppendOwnWish(model.Wish{ID: "stale"})
	fx.gw.On("FetchUserWishes", mock.Anything).Return([]model.Wish{{ID: "a"}, {ID: "b"}}, nil)

	got, err := NewCatalog(fx.deps).Board(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", fx.store.Wishes()[0].ID)
	assert.Len(t, fx.store.Wishes(), 2)
}

func TestCatalog_BookmarksFillCopyIDFromBoard(t *testing.T) {
	fx := newFixture(t)
	fx.store.SetWishes([]model.Wish{{ID: "c1", SourceID: strp("w1")}, {ID: "own"}})
	fx.gw.On("FetchBookmarks", mock.Anything).Return(feedWishes(), nil).Once()

	c := NewCatalog(fx.deps)
	got, err := c.Bookmarks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", *got[0].CopyID)
	assert.False(t, got[1].HasCopy())

	// кэш тоже обогащён, так что удаление с доски из закладок находит copy_id
	copyID, ok := NewBoard(fx.deps).CopyID(cache.Bookmarks, "w1")
	require.True(t, ok)
	assert.Equal(t, "c1", copyID)
}

func TestCatalog_ReadErrorKeepsPreviousEntry(t *testing.T) {
	fx := newFixture(t)
	fx.cache.Set(cache.Profile("u2"), model.UserProfile{ID: "u2", Followers: 1})
	fx.cache.Invalidate(cache.Profile("u2"))
	fx.gw.On("FetchProfile", mock.Anything, "u2").Return(nil, errors.New("offline"))

	_, err := NewCatalog(fx.deps).Profile(context.Background(), "u2")
	require.Error(t, err)
	p, ok := cache.Lookup[model.UserProfile](fx.cache, cache.Profile("u2"))
	require.True(t, ok)
	assert.Equal(t, 1, p.Followers)
}

func TestCatalog_RecentSearches(t *testing.T) {
	fx := newFixture(t)
	kv := &memKV{}
	fx.deps.KV = kv
	fx.gw.On("FetchFeed", mock.Anything, mock.Anything).Return([]model.Wish{}, nil)

	c := NewCatalog(fx.deps)
	for _, term := range []string{"nike", "lamp", "  ", "NIKE", "bike"} {
		_, err := c.Search(context.Background(), term)
		require.NoError(t, err)
	}
	terms, err := c.RecentSearches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bike", "NIKE", "lamp"}, terms)
	assert.Equal(t, "bike", fx.store.Search())

	for i := 0; i < 20; i++ {
		_, _ = c.Search(context.Background(), string(rune('a'+i)))
	}
	terms, _ = c.RecentSearches(context.Background())
	assert.Len(t, terms, maxRecent)
	assert.Equal(t, "t", terms[0])
}

func TestCatalog_SearchSurvivesBrokenKV(t *testing.T) {
	fx := newFixture(t)
	fx.deps.KV = &memKV{err: errors.New("disk full")}
	fx.gw.On("FetchFeed", mock.Anything, "lamp").Return(feedWishes(), nil)

	got, err := NewCatalog(fx.deps).Search(context.Background(), "lamp")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCatalog_Onboarding(t *testing.T) {
	fx := newFixture(t)
	kv := &memKV{}
	fx.deps.KV = kv
	c := NewCatalog(fx.deps)

	assert.False(t, c.LoadOnboarding(context.Background()))
	c.CompleteOnboarding(context.Background())
	assert.True(t, fx.store.Onboarding())
	assert.Equal(t, "done", kv.data["onboarding"])

	fx.store.SetOnboarding(false)
	assert.True(t, c.LoadOnboarding(context.Background()))
	assert.True(t, fx.store.Onboarding())
}
