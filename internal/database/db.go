// Package database opens the relational store, applies the embedded schema
// and seeds the bootstrap admin account.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jpbreysse/svelteblog/internal/config"
	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/utils"
)

//go:embed schema_sqlite.sql schema_mysql.sql
var schemaFS embed.FS

// Bootstrap admin credentials, created at first initialization when no admin
// row exists yet. The password is meant to be changed immediately.
const (
	AdminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

// Open connects to the configured database, verifies the connection, applies
// the schema and seeds the default admin. The returned handle is safe for
// concurrent use and is held for the process lifetime.
func Open(cfg config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite3":
		db, err = openSQLite(cfg.SQLitePath)
	case "mysql":
		db, err = openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := applySchema(db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := seedAdmin(db, cfg.BcryptCost); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// foreign_keys=on is required for the author/tag cascades; WAL keeps
	// readers from blocking writers.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openMySQL(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	// multiStatements=true lets the schema file run as one Exec
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applySchema(db *sql.DB, driver string) error {
	name := "schema_sqlite.sql"
	if driver == "mysql" {
		name = "schema_mysql.sql"
	}
	schema, err := fs.ReadFile(schemaFS, name)
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schema))
	return err
}

// seedAdmin inserts the bootstrap admin when no admin row exists. Unlike
// registration the account is created already approved, so the instance is
// usable right after first start.
func seedAdmin(db *sql.DB, cost int) error {
	var id uint64
	err := db.QueryRow("SELECT id FROM users WHERE role = ? LIMIT 1", model.RoleAdmin).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	hash, err := utils.HashPassword(adminPassword, cost)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		"INSERT INTO users (email, first_name, last_name, password_hash, status, role) VALUES (?,?,?,?,?,?)",
		AdminEmail, "Admin", "User", hash, model.StatusApproved, model.RoleAdmin)
	return err
}
