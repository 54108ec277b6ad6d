package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"WishBoard/internal/cli/api"
	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/cli/notice"
	"WishBoard/internal/cli/store"
)

// mockGateway — testify-мок api.Gateway.
type mockGateway struct{ mock.Mock }

var _ api.Gateway = (*mockGateway)(nil)

func (m *mockGateway) FetchFeed(ctx context.Context, search string) ([]model.Wish, error) {
	args := m.Called(ctx, search)
	if v, ok := args.Get(0).([]model.Wish); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) FetchWish(ctx context.Context, wishID string) (model.WishDetail, error) {
	args := m.Called(ctx, wishID)
	if v, ok := args.Get(0).(model.WishDetail); ok {
		return v, args.Error(1)
	}
	return model.WishDetail{}, args.Error(1)
}

func (m *mockGateway) FetchUserWishes(ctx context.Context) ([]model.Wish, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]model.Wish); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) FetchBookmarks(ctx context.Context) ([]model.Wish, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]model.Wish); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) FetchProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	args := m.Called(ctx, userID)
	if v, ok := args.Get(0).(model.UserProfile); ok {
		return v, args.Error(1)
	}
	return model.UserProfile{}, args.Error(1)
}

func (m *mockGateway) CreateWish(ctx context.Context) (model.Wish, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).(model.Wish); ok {
		return v, args.Error(1)
	}
	return model.Wish{}, args.Error(1)
}

func (m *mockGateway) UpdateWish(ctx context.Context, wishID string, req model.UpdateWishRequest) (model.Wish, error) {
	args := m.Called(ctx, wishID, req)
	if v, ok := args.Get(0).(model.Wish); ok {
		return v, args.Error(1)
	}
	return model.Wish{}, args.Error(1)
}

func (m *mockGateway) UploadImageFile(ctx context.Context, wishID string, f model.File) (model.WishImage, error) {
	args := m.Called(ctx, wishID, f.Name)
	if v, ok := args.Get(0).(model.WishImage); ok {
		return v, args.Error(1)
	}
	return model.WishImage{}, args.Error(1)
}

func (m *mockGateway) UploadImagesByURL(ctx context.Context, wishID string, urls []string) ([]model.WishImage, error) {
	args := m.Called(ctx, wishID, urls)
	if v, ok := args.Get(0).([]model.WishImage); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) FetchLinkMetadata(ctx context.Context, link string) (model.LinkMetadata, error) {
	args := m.Called(ctx, link)
	if v, ok := args.Get(0).(model.LinkMetadata); ok {
		return v, args.Error(1)
	}
	return model.LinkMetadata{}, args.Error(1)
}

func (m *mockGateway) CopyWish(ctx context.Context, wishID string) (model.Wish, error) {
	args := m.Called(ctx, wishID)
	if v, ok := args.Get(0).(model.Wish); ok {
		return v, args.Error(1)
	}
	return model.Wish{}, args.Error(1)
}

func (m *mockGateway) DeleteWish(ctx context.Context, wishID string) error {
	return m.Called(ctx, wishID).Error(0)
}

func (m *mockGateway) FollowUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockGateway) UnfollowUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockGateway) SaveBookmark(ctx context.Context, wishID string) error {
	return m.Called(ctx, wishID).Error(0)
}

func (m *mockGateway) RemoveBookmark(ctx context.Context, wishID string) error {
	return m.Called(ctx, wishID).Error(0)
}

// fixture собирает сервисы на моке, реальном кэше и сторе.
type fixture struct {
	gw      *mockGateway
	store   *store.Store
	cache   *cache.Cache
	notices *notice.Collector
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:      &mockGateway{},
		store:   store.New(),
		cache:   cache.New(5 * time.Minute),
		notices: &notice.Collector{},
	}
	f.deps = Deps{Gateway: f.gw, Store: f.store, Cache: f.cache, Notifier: f.notices}
	return f
}

func strp(s string) *string { return &s }
