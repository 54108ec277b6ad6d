package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"WishBoard/internal/cli/metrics"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/cli/scrape"
	"WishBoard/internal/config"
)

const (
	msgNoResponse = "Failed to get response from server"
	msgGeneric    = "An error occurred"
)

// Client — HTTP-реализация Gateway поверх REST API WishBoard (/v1, Bearer-токен).
type Client struct {
	baseURL    string
	scraperURL string
	http       *http.Client
	token      func() string
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics
}

var _ Gateway = (*Client)(nil)

// Option настраивает Client.
type Option func(*Client)

func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithHTTPClient заменяет http.Client (например, в тестах на httptest.Server.Client()).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// NewClient creates a gateway for cfg.ServerURL. token is called per request
// so a login within the same process is picked up.
func NewClient(cfg *config.Config, token func() string, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.ServerURL, "/") + "/v1",
		scraperURL: strings.TrimRight(cfg.ScraperURL, "/"),
		http:       &http.Client{Timeout: timeout},
		token:      token,
		logger:     zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) FetchFeed(ctx context.Context, search string) ([]model.Wish, error) {
	path := "/feed"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	var out []model.Wish
	err := c.doJSON(ctx, "fetch_feed", http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) FetchWish(ctx context.Context, wishID string) (model.WishDetail, error) {
	var out model.WishDetail
	err := c.doJSON(ctx, "fetch_wish", http.MethodGet, "/wishes/"+url.PathEscape(wishID), nil, &out)
	return out, err
}

func (c *Client) FetchUserWishes(ctx context.Context) ([]model.Wish, error) {
	var out []model.Wish
	err := c.doJSON(ctx, "fetch_user_wishes", http.MethodGet, "/user/wishes", nil, &out)
	return out, err
}

func (c *Client) FetchBookmarks(ctx context.Context) ([]model.Wish, error) {
	var out []model.Wish
	err := c.doJSON(ctx, "fetch_bookmarks", http.MethodGet, "/bookmarks", nil, &out)
	return out, err
}

func (c *Client) FetchProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	var out model.UserProfile
	err := c.doJSON(ctx, "fetch_profile", http.MethodGet, "/profiles/"+url.PathEscape(userID), nil, &out)
	return out, err
}

// CreateWish отправляет пустую multipart-форму: сервер создаёт черновик без полей.
func (c *Client) CreateWish(ctx context.Context) (model.Wish, error) {
	body, ctype, err := buildForm(func(*multipart.Writer) error { return nil })
	if err != nil {
		return model.Wish{}, &Error{Op: "create_wish", Message: err.Error()}
	}
	var out model.Wish
	err = c.do(ctx, "create_wish", http.MethodPost, "/wishes", body, ctype, &out)
	return out, err
}

// UpdateWish шлёт только заданные поля; nil-поля сервер не трогает.
func (c *Client) UpdateWish(ctx context.Context, wishID string, req model.UpdateWishRequest) (model.Wish, error) {
	body, ctype, err := buildForm(func(w *multipart.Writer) error {
		fields := []struct {
			name  string
			value *string
		}{
			{"name", req.Name},
			{"url", req.URL},
			{"notes", req.Notes},
			{"currency", req.Currency},
		}
		for _, f := range fields {
			if f.value == nil {
				continue
			}
			if err := w.WriteField(f.name, *f.value); err != nil {
				return err
			}
		}
		if req.Price != nil {
			if err := w.WriteField("price", strconv.FormatFloat(*req.Price, 'f', -1, 64)); err != nil {
				return err
			}
		}
		for _, id := range req.CategoryIDs {
			if err := w.WriteField("category_ids", id); err != nil {
				return err
			}
		}
		for _, id := range req.DeleteImageIDs {
			if err := w.WriteField("delete_image_ids", id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Wish{}, &Error{Op: "update_wish", Message: err.Error()}
	}
	var out model.Wish
	err = c.do(ctx, "update_wish", http.MethodPut, "/wishes/"+url.PathEscape(wishID), body, ctype, &out)
	return out, err
}

func (c *Client) UploadImageFile(ctx context.Context, wishID string, f model.File) (model.WishImage, error) {
	if f.Reader == nil {
		return model.WishImage{}, &Error{Op: "upload_image_file", Message: "empty file " + f.Name}
	}
	body, ctype, err := buildForm(func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("photo", f.Name)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, f.Reader)
		return err
	})
	if err != nil {
		return model.WishImage{}, &Error{Op: "upload_image_file", Message: err.Error()}
	}
	var out model.WishImage
	err = c.do(ctx, "upload_image_file", http.MethodPost, "/wishes/"+url.PathEscape(wishID)+"/photos", body, ctype, &out)
	return out, err
}

func (c *Client) UploadImagesByURL(ctx context.Context, wishID string, urls []string) ([]model.WishImage, error) {
	var out []model.WishImage
	payload := map[string][]string{"image_urls": urls}
	err := c.doJSON(ctx, "upload_images_by_url", http.MethodPost, "/wishes/"+url.PathEscape(wishID)+"/photos", payload, &out)
	return out, err
}

// FetchLinkMetadata спрашивает внешний scraper, а без него разбирает страницу сам.
func (c *Client) FetchLinkMetadata(ctx context.Context, link string) (model.LinkMetadata, error) {
	const op = "fetch_link_metadata"
	if c.scraperURL == "" {
		meta, err := scrape.Fetch(ctx, c.http, link)
		c.metrics.GatewayCall(op, err)
		if err != nil {
			c.logger.Warnw("local scrape failed", "url", link, "err", err)
			return model.LinkMetadata{}, &Error{Op: op, Message: err.Error()}
		}
		return meta, nil
	}

	b, err := json.Marshal(map[string]string{"url": link})
	if err != nil {
		return model.LinkMetadata{}, &Error{Op: op, Message: err.Error()}
	}
	var out model.LinkMetadata
	err = c.send(ctx, op, http.MethodPost, c.scraperURL+"/extract-content", bytes.NewReader(b), "application/json", false, &out)
	return out, err
}

func (c *Client) CopyWish(ctx context.Context, wishID string) (model.Wish, error) {
	var out model.Wish
	err := c.doJSON(ctx, "copy_wish", http.MethodPost, "/wishes/"+url.PathEscape(wishID)+"/copy", nil, &out)
	return out, err
}

func (c *Client) DeleteWish(ctx context.Context, wishID string) error {
	return c.doJSON(ctx, "delete_wish", http.MethodDelete, "/wishes/"+url.PathEscape(wishID), nil, nil)
}

func (c *Client) FollowUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, "follow_user", http.MethodPost, "/users/follow", map[string]string{"following_id": userID}, nil)
}

func (c *Client) UnfollowUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, "unfollow_user", http.MethodPost, "/users/unfollow", map[string]string{"following_id": userID}, nil)
}

func (c *Client) SaveBookmark(ctx context.Context, wishID string) error {
	return c.doJSON(ctx, "save_bookmark", http.MethodPost, "/wishes/"+url.PathEscape(wishID)+"/bookmark", nil, nil)
}

func (c *Client) RemoveBookmark(ctx context.Context, wishID string) error {
	return c.doJSON(ctx, "remove_bookmark", http.MethodDelete, "/wishes/"+url.PathEscape(wishID)+"/bookmark", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	ctype := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return &Error{Op: op, Message: err.Error()}
		}
		body = bytes.NewReader(b)
		ctype = "application/json"
	}
	return c.do(ctx, op, method, path, body, ctype, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, ctype string, out any) error {
	return c.send(ctx, op, method, c.baseURL+path, body, ctype, true, out)
}

// send выполняет запрос и нормализует любые сбои в *Error.
func (c *Client) send(ctx context.Context, op, method, target string, body io.Reader, ctype string, auth bool, out any) (err error) {
	reqID := uuid.NewString()
	start := time.Now()
	defer func() {
		c.metrics.GatewayCall(op, err)
		var apiErr *Error
		if errors.As(err, &apiErr) {
			c.logger.Warnw("api request failed", "op", op, "request_id", reqID, "err", apiErr.String())
			return
		}
		c.logger.Debugw("api request", "op", op, "request_id", reqID, "duration", time.Since(start))
	}()

	req, rerr := http.NewRequestWithContext(ctx, method, target, body)
	if rerr != nil {
		return &Error{Op: op, Message: rerr.Error()}
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if auth && c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, rerr := c.http.Do(req)
	if rerr != nil {
		return &Error{Op: op, Message: transportMessage(rerr)}
	}
	defer resp.Body.Close()
	raw, rerr := io.ReadAll(resp.Body)
	if rerr != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: msgNoResponse}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if jerr := json.Unmarshal(raw, out); jerr != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: msgNoResponse}
	}
	return nil
}

// errorMessage достаёт {"error": "..."} или {"error": ["...", "..."]}.
func errorMessage(raw []byte) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return msgGeneric
	}
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil && s != "" {
		return s
	}
	var list []string
	if err := json.Unmarshal(body.Error, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "\n")
	}
	return msgGeneric
}

func transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return "request timed out"
		}
		return uerr.Err.Error()
	}
	return err.Error()
}

func buildForm(fill func(*multipart.Writer) error) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
