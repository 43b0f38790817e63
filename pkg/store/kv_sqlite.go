package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS namespaces (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS blobs (
	namespace TEXT NOT NULL,
	key       BLOB NOT NULL,
	value     BLOB NOT NULL,
	PRIMARY KEY (namespace, key)
);`

// SQLiteKVStore keeps namespaced blobs in a SQLite database. Each read-write
// handle owns one transaction, opened on its first write.
type SQLiteKVStore struct {
	db    *sql.DB
	quota int
}

// OpenSQLiteKVStore opens or creates the database file at config.Path
func OpenSQLiteKVStore(config KVStoreConfig) (*SQLiteKVStore, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// one connection: a handle's transaction and its reads must share it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteKVStore{db: db, quota: config.QuotaBytes}, nil
}

// Open opens namespace in the given mode
func (s *SQLiteKVStore) Open(namespace string, mode OpenMode) (KVHandle, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	if mode == ReadOnly {
		var name string
		err := s.db.QueryRow(`SELECT name FROM namespaces WHERE name = ?`, namespace).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
		}
		if err != nil {
			return nil, err
		}
	} else if _, err := s.db.Exec(`INSERT OR IGNORE INTO namespaces (name) VALUES (?)`, namespace); err != nil {
		return nil, err
	}

	return &sqliteKVHandle{store: s, namespace: namespace, mode: mode}, nil
}

// EraseNamespace removes every key of namespace immediately
func (s *SQLiteKVStore) EraseNamespace(namespace string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM blobs WHERE namespace = ?`, namespace)
	return err
}

// Close closes the database
func (s *SQLiteKVStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteKVHandle struct {
	store     *SQLiteKVStore
	namespace string
	mode      OpenMode
	tx        *sql.Tx // opened on first write
	closed    bool
}

type sqlQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (h *sqliteKVHandle) querier() sqlQuerier {
	if h.tx != nil {
		return h.tx
	}
	return h.store.db
}

func (h *sqliteKVHandle) writeTx() (*sql.Tx, error) {
	if h.tx == nil {
		tx, err := h.store.db.Begin()
		if err != nil {
			return nil, err
		}
		h.tx = tx
	}
	return h.tx, nil
}

func (h *sqliteKVHandle) GetBlob(key string) ([]byte, error) {
	if h.closed {
		return nil, ErrInvalidHandle
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := h.querier().QueryRow(
		`SELECT value FROM blobs WHERE namespace = ? AND key = ?`,
		h.namespace, []byte(key),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (h *sqliteKVHandle) SetBlob(key string, value []byte) error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) > MaxBlobSize {
		return ErrValueTooLong
	}

	tx, err := h.writeTx()
	if err != nil {
		return err
	}

	if h.store.quota > 0 {
		var used int
		err := tx.QueryRow(
			`SELECT COALESCE(SUM(length(key) + length(value)), 0) FROM blobs WHERE namespace = ? AND key <> ?`,
			h.namespace, []byte(key),
		).Scan(&used)
		if err != nil {
			return err
		}
		if used+len(key)+len(value) > h.store.quota {
			return fmt.Errorf("%w: %d of %d bytes used", ErrNotEnoughSpace, used, h.store.quota)
		}
	}

	if value == nil {
		value = []byte{}
	}
	_, err = tx.Exec(
		`INSERT INTO blobs (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`,
		h.namespace, []byte(key), value,
	)
	return err
}

func (h *sqliteKVHandle) EraseAll() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}

	tx, err := h.writeTx()
	if err != nil {
		return err
	}
	_, err = tx.Exec(`DELETE FROM blobs WHERE namespace = ?`, h.namespace)
	return err
}

func (h *sqliteKVHandle) Commit() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}
	if h.tx == nil {
		return nil
	}

	err := h.tx.Commit()
	h.tx = nil
	return err
}

func (h *sqliteKVHandle) Close() error {
	if h.closed {
		return ErrInvalidHandle
	}
	h.closed = true

	if h.tx != nil {
		err := h.tx.Rollback()
		h.tx = nil
		return err
	}
	return nil
}
