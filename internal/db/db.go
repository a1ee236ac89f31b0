package db

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Open opens the node pack's SQLite database, creating its parent directory
// when missing. It enables WAL and foreign keys (invocation events cascade
// with their invocation) and applies the embedded migrations: the model
// configuration registry and the invocation history.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, err := migrate(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Int64("schema_version", version).Msg("sqlite: database ready")
	return db, nil
}

const walPragma = "PRAGMA journal_mode=WAL;"

// pragmas run on the single pooled connection; WAL is best effort.
var pragmas = []string{
	walPragma,
	"PRAGMA busy_timeout=5000;",
	"PRAGMA foreign_keys=ON;",
}

func applyPragmas(db *sql.DB) error {
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			if stmt == walPragma {
				log.Warn().Err(err).Msg("sqlite: WAL mode not enabled")
				continue
			}
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseMu guards goose's package-level base FS and dialect.
var gooseMu sync.Mutex

// migrate applies pending migrations and returns the resulting schema version.
func migrate(db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
