package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"WishBoard/internal/cli/api"
	"WishBoard/internal/cli/auth"
	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/logger"
	"WishBoard/internal/cli/metrics"
	"WishBoard/internal/cli/notice"
	"WishBoard/internal/cli/repo"
	fsrepo "WishBoard/internal/cli/repo/fs"
	reposqlite "WishBoard/internal/cli/repo/sqlite"
	"WishBoard/internal/cli/service"
	"WishBoard/internal/cli/store"
	"WishBoard/internal/config"
)

// Session — всё, что нужно одной команде: стор, кэш, шлюз и сервисы поверх них.
type Session struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
	Cache   *cache.Cache
	Store   *store.Store
	Tokens  repo.TokenStore
	Gateway api.Gateway

	Catalog *service.Catalog
	Board   *service.Board
	Social  *service.Social

	deps service.Deps
}

// Option настраивает Session до сборки сервисов (в тестах — подмена шлюза).
type Option func(*Session)

// WithGateway replaces the HTTP gateway.
func WithGateway(g api.Gateway) Option { return func(s *Session) { s.Gateway = g } }

// WithLogger replaces the logger built from cfg.LogLevel.
func WithLogger(l *zap.SugaredLogger) Option { return func(s *Session) { s.Logger = l } }

// Open собирает сессию: логгер, метрики, кэш, стор, токен, sqlite KV, шлюз и сервисы.
// Сохранённый токен (если есть) загружается в стор вместе с пользователем из его claims.
// cleanup закрывает базу; его нужно вызвать после окончания работы.
func Open(ctx context.Context, cfg *config.Config, out io.Writer, opts ...Option) (*Session, func() error, error) {
	s := &Session{
		Config:  cfg,
		Metrics: metrics.New(),
		Store:   store.New(),
		Tokens:  fsrepo.AuthFSStore{Path: cfg.TokenFile},
	}
	for _, o := range opts {
		o(s)
	}
	if s.Logger == nil {
		l, err := logger.New(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
		s.Logger = l
	}
	s.Cache = cache.New(cfg.CacheStaleAfter, cache.WithMetrics(s.Metrics))

	kv, err := reposqlite.Open(cfg.ClientDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open client db: %w", err)
	}
	cleanup := func() error {
		_ = s.Logger.Sync()
		return kv.Close()
	}

	if s.Gateway == nil {
		s.Gateway = api.NewClient(cfg, s.Store.Token,
			api.WithLogger(s.Logger.Named("api")),
			api.WithMetrics(s.Metrics),
		)
	}

	s.deps = service.Deps{
		Gateway:  s.Gateway,
		Store:    s.Store,
		Cache:    s.Cache,
		KV:       kv,
		Notifier: notice.NewPrinter(out, s.Logger),
		Logger:   s.Logger,
	}
	s.Catalog = service.NewCatalog(s.deps)
	s.Board = service.NewBoard(s.deps)
	s.Social = service.NewSocial(s.deps)

	s.restoreToken()
	s.Catalog.LoadOnboarding(ctx)
	return s, cleanup, nil
}

func (s *Session) restoreToken() {
	tok, err := s.Tokens.Load()
	if err != nil {
		s.Logger.Debugw("no stored token", "err", err)
		return
	}
	claims, err := auth.ParseClaims(tok)
	if err != nil {
		s.Logger.Warnw("stored token is unreadable", "err", err)
		return
	}
	s.Store.SetToken(tok)
	s.Store.SetUser(auth.UserFromClaims(claims))
	if claims.Expired(time.Now()) {
		s.Logger.Warnw("stored token has expired", "uid", claims.UID)
	}
}

// RequireAuth returns auth.ErrNoToken when no session token was restored.
func (s *Session) RequireAuth() error {
	if s.Store.Token() == "" {
		return auth.ErrNoToken
	}
	return nil
}

// NewWishCreation starts a creation flow configured from the session config.
func (s *Session) NewWishCreation() *service.WishCreation {
	return service.NewWishCreation(s.deps, service.FlowOptions{
		MaxUploadBytes:  s.Config.MaxUploadBytes(),
		DefaultCurrency: s.Config.DefaultCurrency,
	})
}
