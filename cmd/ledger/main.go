package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/repository"
	"github.com/ManuelReschke/EduPay/internal/pkg/database"
	"github.com/ManuelReschke/EduPay/internal/pkg/env"
	"github.com/ManuelReschke/EduPay/internal/pkg/ledger"
)

func main() {
	env.SetupEnvFile()

	cfg, err := ledger.LoadConfig()
	if err != nil {
		log.Fatalf("[Ledger] %v", err)
	}

	// A nil db selects the memory store.
	if cfg.Store == ledger.StoreMySQL {
		database.SetupDatabase()
	}
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	if cfg.SeedFile != "" {
		snap, err := repository.LoadSnapshot(cfg.SeedFile)
		if err != nil {
			log.Fatalf("[Ledger] Failed to load seed file: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repos.Seed(ctx, snap)
		cancel()
		if err != nil {
			log.Fatalf("[Ledger] Failed to seed: %v", err)
		}
		log.Infof("[Ledger] Seeded from %s", cfg.SeedFile)
	}

	app := ledger.NewApp(repos, cfg)
	go func() {
		log.Infof("[Ledger] Listening on %s (%s store)", cfg.Addr(), cfg.Store)
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Fatalf("[Ledger] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Ledger] Shutdown: %v", err)
	}
}
