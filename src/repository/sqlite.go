package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type (
	// SQLiteKV keeps the key-value table in a sqlite file so history
	// and the catalog survive restarts.
	SQLiteKV struct {
		db *gorm.DB
	}

	kvEntry struct {
		Key   string `gorm:"primaryKey;column:key"`
		Value string `gorm:"column:value"`
	}
)

func (kvEntry) TableName() string { return "kv_entries" }

func NewSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %q: %v", ErrStorage, path, err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("%w: migrate kv_entries: %v", ErrStorage, err)
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", ErrStorage, key, err)
	}
	return json.RawMessage(entry.Value), true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %q: %v", ErrStorage, key, err)
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&kvEntry{Key: key, Value: string(raw)}).Error
	if err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *SQLiteKV) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	var entries []kvEntry
	err := s.db.WithContext(ctx).
		Where(`key LIKE ? ESCAPE '\'`, escaped+"%").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: scan prefix %q: %v", ErrStorage, prefix, err)
	}
	result := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		result = append(result, json.RawMessage(entry.Value))
	}
	return result, nil
}
