package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"WishBoard/internal/cli/repo"
)

// setting — строка таблицы settings.
type setting struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (setting) TableName() string { return "settings" }

// KVRepositorySQLite — локальное key-value хранилище поверх SQLite (modernc.org/sqlite через gorm).
type KVRepositorySQLite struct {
	db *gorm.DB
}

var _ repo.KeyValueStore = (*KVRepositorySQLite)(nil)

// Open открывает (и создаёт при необходимости) файл БД и прогоняет миграции.
// DSN вида "file::memory:?cache=shared" тоже допустим.
func Open(path string) (*KVRepositorySQLite, error) {
	if path == "" {
		return nil, errors.New("empty client db path")
	}
	if filepath.IsAbs(path) || filepath.Dir(path) != "." {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: path}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&setting{}); err != nil {
		return nil, err
	}
	return &KVRepositorySQLite{db: db}, nil
}

// Close закрывает соединение с БД.
func (r *KVRepositorySQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get возвращает значение по ключу.
func (r *KVRepositorySQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	var s setting
	err := r.db.WithContext(ctx).Where(&setting{Key: key}).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// Set создаёт или перезаписывает значение.
func (r *KVRepositorySQLite) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("empty key")
	}
	s := &setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(s).Error
}
