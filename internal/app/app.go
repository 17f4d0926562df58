// Package app assembles the store, hub and storage backend from config.
// Both binaries start through it.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"chatgogo/store/internal/chathub"
	"chatgogo/store/internal/config"
	"chatgogo/store/internal/idgen"
	"chatgogo/store/internal/localization"
	"chatgogo/store/internal/roomstore"
	"chatgogo/store/internal/storage"
	"chatgogo/store/internal/userstore"
	"chatgogo/store/internal/views"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App is a loaded store ready to serve.
type App struct {
	Hub     *chathub.Manager
	Storage storage.Storage
	closers []func() error
}

// New opens the configured backend, loads users and rooms and restores the
// session of the default user when it exists. Startup is not activity.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	s, err := a.openStorage(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Storage = s

	strategy, err := idgen.ParseStrategy(cfg.IDStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}

	users := userstore.NewStore(s, time.Now)
	rooms := roomstore.NewStore(s, users, idgen.New(strategy, time.Now), time.Now)
	engine := views.NewEngine(users, rooms, time.Now)

	l, err := localization.Builtin()
	if err != nil {
		a.Close()
		return nil, err
	}
	labeler := localization.ActivityLabeler{L: l, Lang: cfg.Lang}
	users.SetLabeler(labeler)
	engine.Labeler = labeler

	if err := users.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := rooms.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Hub = chathub.NewManager(users, rooms, engine)
	if cfg.DefaultUser != "" && !a.Hub.Resume(cfg.DefaultUser) {
		log.Printf("WARNING: Default user %s not found, starting without an active user.", cfg.DefaultUser)
	}
	return a, nil
}

// Close releases the backend connections.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Printf("WARNING: Failed to close storage: %v", err)
		}
	}
	a.closers = nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch cfg.Backend {
	case config.BackendMemory:
		log.Println("WARNING: Using in-memory storage, nothing survives a restart.")
		return storage.NewMemoryStore(), nil

	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath, gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLitePath, err)
		}
		a.closeDB(db)
		log.Printf("INFO: Using SQLite storage at %s.", cfg.SQLitePath)
		return storage.NewDBStore(db)

	case config.BackendPostgres:
		db, err := storage.OpenPostgres(cfg.PostgresDSN(), cfg.PGDriver, gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
		}
		a.closeDB(db)
		log.Printf("INFO: Using PostgreSQL storage (%s driver).", cfg.PGDriver)
		return storage.NewDBStore(db)

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		a.closers = append(a.closers, rdb.Close)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect Redis: %w", err)
		}
		log.Printf("INFO: Using Redis storage at %s.", cfg.RedisAddr)
		return storage.NewRedisStore(rdb, cfg.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func (a *App) closeDB(db *gorm.DB) {
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
}
