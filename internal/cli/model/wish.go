package model

import "time"

// WishImage — изображение, уже загруженное на сервер и привязанное к wish.
type WishImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size,omitempty"`
	Position int    `json:"position"`
}

// Category — категория, к которой отнесён wish.
type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Wish is a user-owned saved item as returned by the remote API.
type Wish struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Name         *string     `json:"name"`
	Notes        *string     `json:"notes"`
	URL          *string     `json:"url"`
	Images       []WishImage `json:"images"`
	Price        *float64    `json:"price"`
	Currency     *string     `json:"currency"`
	IsPublic     bool        `json:"is_public"`
	IsFulfilled  bool        `json:"is_fulfilled"`
	IsReserved   bool        `json:"is_reserved"`
	ReservedBy   *string     `json:"reserved_by,omitempty"`
	Categories   []Category  `json:"categories"`
	CreatedAt    time.Time   `json:"created_at"`
	SourceID     *string     `json:"source_id,omitempty"`
	CopyID       *string     `json:"copy_id,omitempty"`
	IsBookmarked bool        `json:"is_bookmarked"`
}

// DisplayName returns the wish name or a placeholder for unnamed drafts.
func (w Wish) DisplayName() string {
	if w.Name == nil || *w.Name == "" {
		return "<untitled>"
	}
	return *w.Name
}

// HasCopy reports whether the viewer owns a copy of the wish.
func (w Wish) HasCopy() bool {
	return w.CopyID != nil && *w.CopyID != ""
}

// Savers — пользователи, сохранившие wish к себе.
type Savers struct {
	Users []UserProfile `json:"users"`
	Total int           `json:"total"`
}

// WishDetail — ответ детального запроса wish.
type WishDetail struct {
	Wish   Wish   `json:"wish"`
	Savers Savers `json:"savers"`
}

// UpdateWishRequest — payload for updating the backing wish record.
// Nil fields are left untouched by the server.
type UpdateWishRequest struct {
	Name           *string  `json:"name"`
	Notes          *string  `json:"notes"`
	URL            *string  `json:"url"`
	Price          *float64 `json:"price"`
	Currency       *string  `json:"currency"`
	CategoryIDs    []string `json:"category_ids"`
	DeleteImageIDs []string `json:"delete_image_ids,omitempty"`
}

// LinkMetadata is what the scraper extracts from a product link.
type LinkMetadata struct {
	ImageURLs   []string       `json:"image_urls"`
	ProductName string         `json:"product_name,omitempty"`
	Price       *float64       `json:"price,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

// Description returns the page description if the scraper found one.
func (m LinkMetadata) Description() string {
	d, _ := m.Metadata["description"].(string)
	return d
}
