package repo

import "context"

// KeyValueStore — долговременное key-value хранилище небольших настроек клиента
// (флаг онбординга, последние поиски). Отсутствующий ключ: ok=false, err=nil.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
