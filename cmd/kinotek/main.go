package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mkarrel/kinotek/internal/api"
	"github.com/mkarrel/kinotek/internal/auth"
	"github.com/mkarrel/kinotek/internal/catalog"
	"github.com/mkarrel/kinotek/internal/config"
	"github.com/mkarrel/kinotek/internal/sweeper"
	"github.com/mkarrel/kinotek/internal/upload"
	"github.com/mkarrel/kinotek/internal/users"
	"github.com/mkarrel/kinotek/internal/version"
)

func main() {
	ver := version.Load("version.json")
	log.Printf("kinotek %s starting...", ver.Version)

	cfg := config.Load()
	logger := log.Default()

	store, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	store.EnsureExists()

	catalogSvc := catalog.NewService(store, cfg.UploadDir(), cfg.MaxBackups, logger)
	uploads := upload.NewRouter(cfg.UploadDir(), logger)
	userStore := users.NewStore(cfg.UsersPath(), logger)

	authSvc, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	sw := sweeper.New(catalogSvc, cfg.UploadDir(), cfg.SweepGrace, logger)
	if err := sw.Start(cfg.SweepSpec); err != nil {
		log.Fatalf("sweeper init failed: %v", err)
	}
	defer sw.Stop()

	srv := api.NewServer(cfg, ver, catalogSvc, uploads, userStore, authSvc, logger)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}

// newStore picks the catalog backend. The JSON file store is the default;
// STORE_DRIVER=postgres swaps in the database-backed one.
func newStore(cfg *config.Config, logger *log.Logger) (catalog.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := catalog.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return catalog.NewPostgresStore(db, logger), nil
	default:
		return catalog.NewJSONStore(cfg.CatalogPath(), cfg.BackupDir(), logger), nil
	}
}
