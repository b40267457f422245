package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"dispatcher/infrastructure/audit"
	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/remote"
	"dispatcher/infrastructure/sqlite"
)

// seedOrder loads a JSON array of ERP material rows into the local store so a device can be
// exercised without the ERP.
func main() {
	so := flag.String("so", "", "sale order number to store the rows under")
	file := flag.String("file", "", "path to a JSON array of ERP material rows")
	flag.Parse()
	if strings.TrimSpace(*so) == "" || strings.TrimSpace(*file) == "" {
		log.Fatalf("usage: seedOrder -so SO-1 -file rows.json")
	}

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	defaultDBPath := filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(migrationsDir))), "dispatcher.db")
	dbPath := getenv("SQLITE_PATH", defaultDBPath)

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read rows: %v", err)
	}
	n, err := seed(context.Background(), db, strings.TrimSpace(*so), raw)
	if err != nil {
		log.Fatalf("seed order: %v", err)
	}

	fmt.Printf("seeded order %s with %d materials\n", strings.TrimSpace(*so), n)
}

func seed(ctx context.Context, db *sqlite.DB, so string, raw []byte) (int, error) {
	lines, err := remote.DecodeMaterialRows(raw)
	if err != nil {
		return 0, err
	}
	store := orderstore.New(kvstore.NewSQLiteStore(db), audit.NewService(db, "seed"))
	if err := store.Save(ctx, so, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
