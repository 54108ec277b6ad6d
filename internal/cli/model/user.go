package model

import (
	"io"
	"time"
)

// User — текущий аутентифицированный пользователь.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	AvatarURL    string     `json:"avatar_url"`
	ChatID       int64      `json:"chat_id"`
	LanguageCode string     `json:"language_code"`
	CreatedAt    time.Time  `json:"created_at"`
	Interests    []Category `json:"interests"`
}

// UserProfile — публичный профиль другого пользователя.
type UserProfile struct {
	ID          string     `json:"id"`
	Name        *string    `json:"name"`
	Username    string     `json:"username"`
	AvatarURL   *string    `json:"avatar_url"`
	CreatedAt   time.Time  `json:"created_at"`
	Interests   []Category `json:"interests"`
	Followers   int        `json:"followers"`
	Wishes      []Wish     `json:"wishlist_items"`
	IsFollowing bool       `json:"is_following"`
}

// File is a local photo selected for upload.
type File struct {
	Name   string
	Size   int64
	Width  int
	Height int
	Reader io.Reader
}
