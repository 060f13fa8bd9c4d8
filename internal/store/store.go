package store

import (
	"crypto/sha256"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/jsdeobf/internal/diag"
)

// Connect establishes a database connection and runs migrations, exactly
// the two-shape (local sqlite file vs. libsql/Turso URL) dispatch the
// teacher's db.Connect uses.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	if !isURL(dsn) {
		dir := filepath.Dir(dsn)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	gormConfig := &gorm.Config{}
	if debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("JSDEOBF_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn})
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql:")
}

// Migrate runs the store's schema migration.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RunRecord{})
}

// Digest returns a run cache key's content hash (spec.md §8 Determinism:
// "same input+options ⇒ cached output").
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Store wraps a *gorm.DB with the run-cache lookup/record operations.
type Store struct {
	DB *gorm.DB
}

// New wraps an already-connected *gorm.DB.
func New(db *gorm.DB) *Store { return &Store{DB: db} }

// Lookup returns a cached run for the given input+options digests, or nil
// if none exists.
func (s *Store) Lookup(inputDigest, optionsDigest string) (*RunRecord, error) {
	var rec RunRecord
	id := inputDigest + ":" + optionsDigest
	err := s.DB.First(&rec, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Record upserts a run's result into the cache.
func (s *Store) Record(inputDigest, optionsDigest, input, output string, stats []PassStat, totalRewrites int, duration time.Duration) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return diag.Wrap(diag.KindInvariantViolation, "store", "failed to marshal pass stats", err)
	}
	rec := RunRecord{
		ID:            inputDigest + ":" + optionsDigest,
		InputDigest:   inputDigest,
		OptionsDigest: optionsDigest,
		Input:         input,
		Output:        output,
		PassStats:     statsJSON,
		TotalRewrites: totalRewrites,
		Duration:      duration,
	}
	return s.DB.Save(&rec).Error
}
