package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
)

func main() {
	down := flag.Bool("down", false, "Roll back the most recent migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *down {
		logger.Info("Rolling back the latest migration...")
		if err := db.MigrateDown(ctx); err != nil {
			logger.Fatalw("Failed to roll back migration", "error", err)
		}
	} else {
		logger.Info("Running database migrations...")
		if err := db.Migrate(ctx); err != nil {
			logger.Fatalw("Failed to apply migrations", "error", err)
		}
	}

	fmt.Println("Migration process completed")
}
