package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// Options tunes how the catalog database is opened.
type Options struct {
	LogLevel logger.LogLevel
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithOptions(dbPath, Options{LogLevel: logger.Warn})
}

func NewDatabaseWithOptions(dbPath string, opts Options) (*Database, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(opts.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Book{},
		&entities.RateLimitCounter{},
		&entities.SyncProgress{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// dsn enables WAL and a busy timeout unless the caller already passed options.
// Transactions begin IMMEDIATE so read-then-write transactions from several
// connections or processes queue on the busy timeout instead of failing.
func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") || dbPath == ":memory:" {
		return dbPath
	}
	return dbPath + "?_journal=WAL&_timeout=5000&_busy_timeout=5000&_txlock=immediate"
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
