package api

import (
	"context"
	"fmt"

	"WishBoard/internal/cli/model"
)

// Gateway — контракт удалённого API, которым пользуются сервисы клиента.
// Каждая операция возвращает значение либо *Error.
type Gateway interface {
	FetchFeed(ctx context.Context, search string) ([]model.Wish, error)
	FetchWish(ctx context.Context, wishID string) (model.WishDetail, error)
	FetchUserWishes(ctx context.Context) ([]model.Wish, error)
	FetchBookmarks(ctx context.Context) ([]model.Wish, error)
	FetchProfile(ctx context.Context, userID string) (model.UserProfile, error)

	// CreateWish creates an empty backing wish for a draft.
	CreateWish(ctx context.Context) (model.Wish, error)
	UpdateWish(ctx context.Context, wishID string, req model.UpdateWishRequest) (model.Wish, error)
	UploadImageFile(ctx context.Context, wishID string, f model.File) (model.WishImage, error)
	UploadImagesByURL(ctx context.Context, wishID string, urls []string) ([]model.WishImage, error)
	FetchLinkMetadata(ctx context.Context, link string) (model.LinkMetadata, error)

	// CopyWish saves someone else's wish to the caller's board and returns the copy.
	CopyWish(ctx context.Context, wishID string) (model.Wish, error)
	DeleteWish(ctx context.Context, wishID string) error

	FollowUser(ctx context.Context, userID string) error
	UnfollowUser(ctx context.Context, userID string) error
	SaveBookmark(ctx context.Context, wishID string) error
	RemoveBookmark(ctx context.Context, wishID string) error
}

// Error is a failed remote operation. Status is 0 for transport failures.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// String включает операцию и статус, используется в логах.
func (e *Error) String() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
}
