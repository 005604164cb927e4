package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"promptdepot/internal/platform/config"
)

// Open connects to the application database. Foreign-key enforcement must be
// on: project deletion relies on declarative ON DELETE CASCADE to remove
// grants, directories and prompts in one statement.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path + "?_foreign_keys=on"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// AppDB wraps the connection for handlers that only need a ping or an
// injection point distinct from a bare *sql.DB.
type AppDB struct {
	DB *sql.DB
}

func NewAppDB(db *sql.DB) *AppDB {
	return &AppDB{DB: db}
}
