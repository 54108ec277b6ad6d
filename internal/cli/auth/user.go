package auth

import "WishBoard/internal/cli/model"

// UserFromClaims builds the minimal current user known before any profile
// request is made.
func UserFromClaims(c *Claims) *model.User {
	if c == nil {
		return nil
	}
	return &model.User{ID: c.UID, ChatID: c.ChatID}
}
