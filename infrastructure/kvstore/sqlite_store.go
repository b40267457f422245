package kvstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"dispatcher/infrastructure/sqlite"
	"dispatcher/models"
)

// SQLiteStore keeps entries in the kv_entries table.
type SQLiteStore struct {
	db *sqlite.DB
}

func NewSQLiteStore(db *sqlite.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&entry).Where("entry_key = ?", key).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO kv_entries (entry_key, entry_value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(entry_key) DO UPDATE SET
  entry_value = excluded.entry_value,
  updated_at = CURRENT_TIMESTAMP`, key, value)
		return err
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.KVEntry)(nil)).Where("entry_key = ?", key).Exec(ctx)
		return err
	})
}

// Keys lists keys starting with prefix in ascending order.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT entry_key
FROM kv_entries
WHERE ? = '' OR instr(entry_key, ?) = 1
ORDER BY entry_key ASC`, prefix, prefix).Scan(ctx, &keys)
	})
	return keys, err
}
