package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver for PG_DRIVER=pq
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one row of the key-value table.
type KVEntry struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

// DBStore keeps documents in a SQL table through gorm.
type DBStore struct {
	DB *gorm.DB
}

// NewDBStore migrates the key-value table and returns the store.
func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &DBStore{DB: db}, nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), cfg)
}

// OpenPostgres opens a PostgreSQL connection. driver selects the
// database/sql driver gorm runs on: "pgx" (default) or "pq".
func OpenPostgres(dsn, driver string, cfg *gorm.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "pgx":
		dialector = postgres.Open(dsn)
	case "pq":
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn})
	default:
		return nil, fmt.Errorf("unknown postgres driver %q", driver)
	}
	return gorm.Open(dialector, cfg)
}

func (s *DBStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	var entry KVEntry
	err := s.DB.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *DBStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	entry := KVEntry{Name: key, Value: string(raw), UpdatedAt: time.Now()}
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
