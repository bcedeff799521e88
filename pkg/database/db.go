package database

import (
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/config"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table, one row per key and day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalRows    int    `gorm:"default:0" json:"total_rows"`
	TotalPairs   int    `gorm:"default:0" json:"total_pairs"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open connects to Postgres when a URL is configured and to a local
// SQLite file otherwise, then migrates the schema.
func Open(opts config.DatabaseOptions) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if opts.URL != "" {
		gormConfig.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.URL,
			PreferSimpleProtocol: true,
		}), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(opts.DataPath), gormConfig)
	}
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}), "migrate schema")
}
