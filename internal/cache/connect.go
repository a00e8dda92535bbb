// Package cache persists C9's per-unit fingerprints and symbol-linkage
// classifications to SQLite, so a host driving the core across many
// incremental builds can skip re-running the pipeline on a unit whose
// fingerprint (and every dependency's fingerprint) is unchanged (spec
// §4.9, §5 "incremental cache").
//
// Connect chooses between a local SQLite file and a remote libsql DSN,
// opens it through gorm with an optional debug-logger toggle, and runs
// AutoMigrate on startup.
package cache

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	glebarezsqlite "github.com/glebarez/sqlite"
)

// Connect opens the incremental-cache database at dsn and runs
// migrations. A local file path opens the pure-Go glebarez/sqlite
// dialector (no cgo toolchain required on the build host); an
// http(s)/libsql DSN opens a Turso-backed remote connection through
// gorm.io/driver/sqlite's custom-connector path, exactly as the
// teacher's db.Connect distinguishes the two.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	if !isRemoteDSN(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cache: failed to create database directory: %w", err)
			}
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isRemoteDSN(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("SUSHIC_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("cache: failed to create libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn})
	} else {
		dialector = glebarezsqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("cache: failed to connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("cache: migration failed: %w", err)
	}
	return db, nil
}

func isRemoteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql")
}

// Migrate creates/updates the cache's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FingerprintRecord{}, &LinkageRecord{})
}
