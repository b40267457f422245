package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func countEntries(t *testing.T, db *DB, key string) int {
	t.Helper()
	var count int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM kv_entries WHERE entry_key = ?`, key).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}

func TestWithWriteTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)`, "order:ROLLBACK", "{}"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got: %v", err)
	}
	if n := countEntries(t, db, "order:ROLLBACK"); n != 0 {
		t.Fatalf("expected rollback to remove insert, count=%d", n)
	}
}

func TestWithWriteTxCommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)

	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)`, "order:COMMIT", "{}")
		return err
	})
	if err != nil {
		t.Fatalf("write tx failed: %v", err)
	}
	if n := countEntries(t, db, "order:COMMIT"); n != 1 {
		t.Fatalf("expected committed insert, count=%d", n)
	}
}

func TestWithReadTxRejectsWrite(t *testing.T) {
	db := openTestDB(t)

	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)`, "order:READONLY", "{}")
		return err
	})
	if err == nil && countEntries(t, db, "order:READONLY") > 0 {
		t.Fatalf("expected write in read tx to be blocked; write succeeded")
	}
}

func TestNilDBTxErrors(t *testing.T) {
	var db *DB
	if err := db.WithWriteTx(context.Background(), func(context.Context, bun.Tx) error { return nil }); err == nil {
		t.Fatalf("expected error for nil write db")
	}
	if err := db.WithReadTx(context.Background(), func(context.Context, bun.Tx) error { return nil }); err == nil {
		t.Fatalf("expected error for nil read db")
	}
}
