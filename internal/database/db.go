package database

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// Entry is one key of the flat key-value store
type Entry struct {
	Key       string `gorm:"column:entry_key;primary_key;size:255"`
	Value     string `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time
}

// TableName sets the table name for Entry
func (Entry) TableName() string {
	return "kv_entries"
}

// Options configures the database connection
type Options struct {
	Driver  string // "sqlite3" or "postgres"
	DSN     string
	LogMode bool
}

// Open connects to the database and migrates the entry table
func Open(opts Options) (*gorm.DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	if driver != "sqlite3" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.LogMode(opts.LogMode)

	if driver == "sqlite3" {
		// sqlite serialises writers anyway, and :memory: is per connection
		db.DB().SetMaxOpenConns(1)
	} else {
		db.DB().SetMaxIdleConns(10)
		db.DB().SetMaxOpenConns(100)
		db.DB().SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&Entry{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}

	return db, nil
}
