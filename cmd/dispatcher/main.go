package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dispatcher/infrastructure/audit"
	"dispatcher/infrastructure/config"
	"dispatcher/infrastructure/events"
	httpserver "dispatcher/infrastructure/http"
	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/logging"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/remote"
	"dispatcher/infrastructure/sqlite"
	"dispatcher/infrastructure/syncer"
)

func main() {
	configPath := flag.String("config", os.Getenv("DISPATCHER_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.LookupEnv)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr))

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		log.Fatalf("remote client: %v", err)
	}

	kv := kvstore.NewSQLiteStore(db)
	auditSvc := audit.NewService(db, cfg.DeviceID)
	store := orderstore.New(kv, auditSvc)
	hub := events.NewHub()
	syncSvc := syncer.New(client, store, auditSvc, hub, cfg.DownloadConcurrency)

	server := httpserver.NewServer(cfg.Addr, httpserver.Deps{
		KV:      kv,
		Orders:  store,
		ERP:     client,
		Sync:    syncSvc,
		History: auditSvc,
		Hub:     hub,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	slog.Info("dispatcher listening",
		slog.String("addr", cfg.Addr),
		slog.String("device", cfg.DeviceID),
		slog.String("api", cfg.API.BaseURL),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", slog.Any("err", err))
	}
}
