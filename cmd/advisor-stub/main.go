// advisor-stub is a local stand-in for the card advisor backend. It
// implements the auth, profile, suggestion, and store-detection API the
// cardadvisor client speaks, plus an /admin control plane for tests.
package main

import (
	"log"
	"os"

	"github.com/shomuran/cardadvisor/internal/backend"
	"github.com/shomuran/cardadvisor/internal/backend/admin"
	"github.com/shomuran/cardadvisor/internal/backend/api"
	"github.com/shomuran/cardadvisor/internal/backend/store"
)

func main() {
	cfg := backend.ParseFlags()

	srv := backend.New(cfg)
	memStore := store.New()

	// Optional bolt persistence: users survive restarts.
	if cfg.DBPath != "" {
		db, err := store.OpenBolt(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := memStore.AttachBolt(db); err != nil {
			log.Fatalf("failed to load persisted users: %v", err)
		}
		srv.Logger.Info("using bolt persistence", "path", cfg.DBPath)
	}

	// API handlers
	apiHandler := api.NewHandler(memStore, srv.Middleware(), api.NewTokenIssuer(cfg.Secret))
	apiHandler.Routes(srv.Router)

	// Admin control plane
	adminHandler := admin.NewHandler(memStore, srv.Middleware(), memStore.Clock)
	adminHandler.Routes(srv.Router)

	// Load seed data if provided
	if cfg.SeedFile != "" {
		data, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		if err := memStore.LoadState(data); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
		srv.Logger.Info("loaded seed data", "file", cfg.SeedFile)
	}

	srv.Logger.Info("advisor-stub ready", "port", cfg.Port)

	if err := srv.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
