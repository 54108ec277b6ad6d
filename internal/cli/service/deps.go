package service

import (
	"go.uber.org/zap"

	"WishBoard/internal/cli/api"
	"WishBoard/internal/cli/cache"
	"WishBoard/internal/cli/notice"
	"WishBoard/internal/cli/repo"
	"WishBoard/internal/cli/store"
)

// Deps — общие зависимости сервисов клиента. Gateway, Store и Cache обязательны.
type Deps struct {
	Gateway  api.Gateway
	Store    *store.Store
	Cache    *cache.Cache
	KV       repo.KeyValueStore
	Notifier notice.Notifier
	Logger   *zap.SugaredLogger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = notice.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	return d
}
