package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"WishBoard/internal/cli/auth"
	"WishBoard/internal/cli/model"
	"WishBoard/internal/config"
)

// withStdoutCapture перехватывает Out на время теста.
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

func testToken(t *testing.T, uid string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UID:              uid,
		ChatID:           100,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

// testConfig — конфиг с базой и токеном во временном каталоге.
func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerURL:       serverURL,
		ClientDBPath:    filepath.Join(dir, "client.sqlite"),
		TokenFile:       filepath.Join(dir, "auth_token"),
		CacheStaleAfter: time.Minute,
		RequestTimeout:  5 * time.Second,
		MaxUploadMB:     7,
		DefaultCurrency: "USD",
		LogLevel:        "error",
	}
}

func loggedIn(t *testing.T, cfg *config.Config, token string) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.TokenFile, []byte(token), 0o600))
}

func strp(s string) *string { return &s }
func f64(v float64) *float64 { return &v }

// fakeAPI — минимальный сервер /v1 с состоянием в памяти.
type fakeAPI struct {
	t     *testing.T
	token string
	srv   *httptest.Server

	mu         sync.Mutex
	copies     map[string]string // source id -> copy id
	bookmarked map[string]bool
	following  map[string]bool
	created    []string
	updates    map[string]map[string][]string
	photos     map[string][]string
	byURL      map[string][]string
	pageName   string
}

func newFakeAPI(t *testing.T, token string) *fakeAPI {
	t.Helper()
	a := &fakeAPI{
		t:          t,
		token:      token,
		copies:     map[string]string{},
		bookmarked: map[string]bool{},
		following:  map[string]bool{},
		updates:    map[string]map[string][]string{},
		photos:     map[string][]string{},
		byURL:      map[string][]string{},
		pageName:   "Desk Lamp",
	}
	r := chi.NewRouter()
	r.Get("/product", a.productPage)
	r.Route("/v1", func(r chi.Router) {
		r.Use(a.requireToken)
		r.Get("/feed", a.feed)
		r.Get("/user/wishes", a.userWishes)
		r.Get("/bookmarks", a.bookmarks)
		r.Get("/profiles/{id}", a.profile)
		r.Post("/users/follow", a.follow(true))
		r.Post("/users/unfollow", a.follow(false))
		r.Post("/wishes", a.createWish)
		r.Get("/wishes/{id}", a.wish)
		r.Put("/wishes/{id}", a.updateWish)
		r.Delete("/wishes/{id}", a.deleteWish)
		r.Post("/wishes/{id}/copy", a.copyWish)
		r.Post("/wishes/{id}/photos", a.uploadPhotos)
		r.Post("/wishes/{id}/bookmark", a.bookmark(true))
		r.Delete("/wishes/{id}/bookmark", a.bookmark(false))
	})
	a.srv = httptest.NewServer(r)
	t.Cleanup(a.srv.Close)
	return a
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *fakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+a.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *fakeAPI) feedWishes() []model.Wish {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := []model.Wish{
		{ID: "w1", UserID: "u2", Name: strp("Air Max 90"), Price: f64(120), Currency: strp("USD")},
		{ID: "w2", UserID: "u3", Name: strp("Pegasus")},
	}
	for i := range list {
		if c, ok := a.copies[list[i].ID]; ok {
			list[i].CopyID = strp(c)
		}
		list[i].IsBookmarked = a.bookmarked[list[i].ID]
	}
	return list
}

func (a *fakeAPI) feed(w http.ResponseWriter, r *http.Request) {
	list := a.feedWishes()
	if s := r.URL.Query().Get("search"); s == "pegasus" {
		list = list[1:]
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *fakeAPI) userWishes(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []model.Wish{}
	for src, c := range a.copies {
		out = append(out, model.Wish{ID: c, SourceID: strp(src)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *fakeAPI) bookmarks(w http.ResponseWriter, _ *http.Request) {
	out := []model.Wish{}
	for _, wish := range a.feedWishes() {
		if wish.IsBookmarked {
			wish.CopyID = nil // сервер не знает copy_id в закладках
			out = append(out, wish)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *fakeAPI) profile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "missing" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	followers := 10
	if a.following[id] {
		followers++
	}
	writeJSON(w, http.StatusOK, model.UserProfile{ID: id, Username: "nike_fan", Followers: followers, IsFollowing: a.following[id]})
}

func (a *fakeAPI) follow(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FollowingID string `json:"following_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.FollowingID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "following_id is required"})
			return
		}
		a.mu.Lock()
		a.following[body.FollowingID] = on
		a.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *fakeAPI) createWish(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	id := fmt.Sprintf("new-%d", len(a.created)+1)
	a.created = append(a.created, id)
	a.mu.Unlock()
	writeJSON(w, http.StatusCreated, model.Wish{ID: id, UserID: "user-1"})
}

func (a *fakeAPI) wish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, wish := range a.feedWishes() {
		if wish.ID == id {
			writeJSON(w, http.StatusOK, model.WishDetail{Wish: wish, Savers: model.Savers{Total: 2}})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "wish not found"})
}

func (a *fakeAPI) updateWish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	a.updates[id] = r.MultipartForm.Value
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, model.Wish{ID: id, Name: strp(r.FormValue("name"))})
}

func (a *fakeAPI) deleteWish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	defer a.mu.Unlock()
	for src, c := range a.copies {
		if c == id {
			delete(a.copies, src)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "wish not found"})
}

func (a *fakeAPI) copyWish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	c := "copy-of-" + id
	a.copies[id] = c
	a.mu.Unlock()
	writeJSON(w, http.StatusCreated, model.Wish{ID: c, SourceID: strp(id)})
}

func (a *fakeAPI) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if r.Header.Get("Content-Type") == "application/json" {
		var body struct {
			ImageURLs []string `json:"image_urls"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.mu.Lock()
		a.byURL[id] = append(a.byURL[id], body.ImageURLs...)
		a.mu.Unlock()
		out := make([]model.WishImage, len(body.ImageURLs))
		for i, u := range body.ImageURLs {
			out[i] = model.WishImage{ID: fmt.Sprintf("img-%d", i), URL: u}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	file, hdr, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo is required"})
		return
	}
	_ = file.Close()
	a.mu.Lock()
	a.photos[id] = append(a.photos[id], hdr.Filename)
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, model.WishImage{ID: "p-" + hdr.Filename, URL: "https://cdn/" + hdr.Filename})
}

func (a *fakeAPI) bookmark(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.bookmarked[chi.URLParam(r, "id")] = on
		a.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *fakeAPI) productPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := ""
	if a.pageName != "" {
		title = `<meta property="og:title" content="` + a.pageName + `">`
	}
	fmt.Fprintf(w, `<html><head>%s
<meta property="og:image" content="/img/1.jpg">
<meta property="og:image" content="/img/2.jpg">
<meta property="product:price:amount" content="39,90">
<meta property="product:price:currency" content="eur">
</head><body></body></html>`, title)
}
