package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore keeps key-value pairs in a single SQL table.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQL connects with the given driver ("sqlite3" or "postgres") and runs migrations.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	if driver == "sqlite3" {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
            namespace TEXT NOT NULL,
            key TEXT NOT NULL,
            value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL,
            PRIMARY KEY(namespace, key)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("store: migrations applied")
	return nil
}

func (s *SQLStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	query := s.db.Rebind(`SELECT value FROM kv WHERE namespace = ? AND key = ?`)
	if err := s.db.GetContext(ctx, &value, query, namespace, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, namespace, key, value string) error {
	query := s.db.Rebind(`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, query, namespace, key, value, time.Now().UTC())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, namespace, key string) error {
	query := s.db.Rebind(`DELETE FROM kv WHERE namespace = ? AND key = ?`)
	_, err := s.db.ExecContext(ctx, query, namespace, key)
	return err
}

func (s *SQLStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	var keys []string
	query := s.db.Rebind(`SELECT key FROM kv WHERE namespace = ? ORDER BY key`)
	if err := s.db.SelectContext(ctx, &keys, query, namespace); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLStore) Clear(ctx context.Context, namespace string) error {
	query := s.db.Rebind(`DELETE FROM kv WHERE namespace = ?`)
	_, err := s.db.ExecContext(ctx, query, namespace)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
