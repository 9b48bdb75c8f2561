package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"powerslide/internal/logger"
)

// InitDatabase opens the SQLite database and creates tables
func InitDatabase(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Logger.Info().Str("path", dbPath).Msg("Database initialized")
	return database, nil
}

// createTables creates all necessary tables
func createTables(database *sql.DB) error {
	createStateTable := `
	CREATE TABLE IF NOT EXISTS deck_state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := database.Exec(createStateTable); err != nil {
		return fmt.Errorf("failed to create deck_state table: %w", err)
	}
	return nil
}
