package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"menuops/internal/database"

	"github.com/jinzhu/gorm"
)

// GormKV persists entries in the kv_entries table
type GormKV struct {
	db *gorm.DB
}

// NewGormKV wraps an open, migrated connection
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

// Get returns the value stored under key
func (g *GormKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entry database.Entry
	err := g.db.Where("entry_key = ?", key).First(&entry).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

// Set inserts or replaces key
func (g *GormKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := database.Entry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	if err := g.db.Save(&entry).Error; err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (g *GormKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.db.Where("entry_key = ?", key).Delete(&database.Entry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists keys with the given prefix in lexical order
func (g *GormKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var candidates []string
	err := g.db.Model(&database.Entry{}).
		Where("entry_key LIKE ?", prefix+"%").
		Pluck("entry_key", &candidates).Error
	if err != nil {
		return nil, fmt.Errorf("list keys %s*: %w", prefix, err)
	}
	// LIKE treats _ and % in the prefix as wildcards
	keys := make([]string, 0, len(candidates))
	for _, k := range candidates {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
