package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KVStore is a key-value sink backed by the deck_state table
type KVStore struct {
	database *sql.DB
}

func NewKVStore(database *sql.DB) *KVStore {
	return &KVStore{database: database}
}

func (s *KVStore) Read(key string) ([]byte, error) {
	var value []byte
	err := s.database.QueryRow(`SELECT value FROM deck_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) Write(key string, data []byte) error {
	query := `INSERT INTO deck_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.database.Exec(query, key, data, time.Now()); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
