package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/actionsum/activetime/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBName = "activetime.db"
	defaultDBDir  = ".config/activetime"

	// WAL lets readers see the last committed snapshot while a write runs;
	// immediate transactions take the write lock up front.
	dsnParams = "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
)

type DB struct {
	*gorm.DB
	path string
}

func GetDefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, defaultDBDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dbDir, defaultDBName), nil
}

// Connect opens the SQLite file at dbPath. An unreadable file is reported
// as ErrCorrupt so the caller can fall back to a MemoryStore.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	dsn := dbPath + "?" + dsnParams
	if strings.Contains(dbPath, "?") {
		dsn = dbPath + "&" + dsnParams
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if isCorruption(err) {
			return nil, &StoreError{Op: "open", Kind: ErrCorrupt, Err: err}
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// a single connection serializes appends against reads
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: db, path: dbPath}, nil
}

// Initialize verifies the file and migrates the schema
func (db *DB) Initialize(ctx context.Context) error {
	var result string
	if err := db.WithContext(ctx).Raw("PRAGMA quick_check").Scan(&result).Error; err != nil {
		if isCorruption(err) {
			return &StoreError{Op: "initialize", Kind: ErrCorrupt, Err: err}
		}
		return errors.Wrap(err, "failed to check database")
	}
	if result != "ok" {
		return &StoreError{Op: "initialize", Kind: ErrCorrupt, Err: fmt.Errorf("quick_check: %s", result)}
	}

	err := db.WithContext(ctx).AutoMigrate(
		&models.Session{},
		&models.BrowserVisit{},
		&models.DailySummary{},
		&models.ErrorLog{},
	)
	if err != nil {
		if isCorruption(err) {
			return &StoreError{Op: "initialize", Kind: ErrCorrupt, Err: err}
		}
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func isCorruption(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrCorrupt || sqliteErr.Code == sqlite3.ErrNotADB
	}
	msg := err.Error()
	return strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "database disk image is malformed")
}
