package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/remote"
	"dispatcher/infrastructure/sqlite"
)

func TestResolveMigrationsDir_FromRepoRoot(t *testing.T) {
	_, repoRoot := testPaths(t)
	withWorkingDir(t, repoRoot)

	dir, err := resolveMigrationsDir()
	if err != nil {
		t.Fatalf("resolve migrations dir from repo root: %v", err)
	}
	assertMigrationsDir(t, dir)
}

func TestResolveMigrationsDir_FromSeedOrderDir(t *testing.T) {
	cmdDir, _ := testPaths(t)
	withWorkingDir(t, cmdDir)

	dir, err := resolveMigrationsDir()
	if err != nil {
		t.Fatalf("resolve migrations dir from cmd/seedOrder: %v", err)
	}
	assertMigrationsDir(t, dir)
}

func TestSeedStoresDecodedRows(t *testing.T) {
	db := openTestDB(t)
	raw := []byte(`[
		{"Material_Code":"M-1","Required_Qty":"3","Issued_Qty":1},
		{"Material_Code":"M-2","Description":null,"Required_Qty":2}
	]`)

	n, err := seed(context.Background(), db, "SO-9", raw)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("seeded %d lines, want 2", n)
	}

	store := orderstore.New(kvstore.NewSQLiteStore(db), nil)
	order, ok := store.Get(context.Background(), "SO-9")
	if !ok {
		t.Fatalf("expected SO-9 to be stored")
	}
	if got := order.Materials[0].IssuedQty.String(); got != "1" {
		t.Fatalf("M-1 issued = %s, want 1", got)
	}
	if order.Materials[1].Description != "" {
		t.Fatalf("null description should decode to empty, got %q", order.Materials[1].Description)
	}
}

func TestSeedRejectsNonArray(t *testing.T) {
	db := openTestDB(t)
	_, err := seed(context.Background(), db, "SO-9", []byte(`{"Material_Code":"M-1"}`))
	if !errors.Is(err, remote.ErrUnexpectedShape) {
		t.Fatalf("expected ErrUnexpectedShape, got %v", err)
	}
}

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func testPaths(t *testing.T) (cmdDir string, repoRoot string) {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	cmdDir = filepath.Dir(file)
	repoRoot = filepath.Clean(filepath.Join(cmdDir, "..", ".."))
	return cmdDir, repoRoot
}

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func assertMigrationsDir(t *testing.T, dir string) {
	t.Helper()
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat migrations dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected directory, got file: %s", dir)
	}
	if !strings.HasSuffix(filepath.ToSlash(dir), "infrastructure/sqlite/migrations") {
		t.Fatalf("unexpected migrations path: %s", dir)
	}
}
