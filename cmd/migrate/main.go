package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/config"
	"github.com/jstittsworth/hoops-analytics/pkg/database"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [up|down|seed]")
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := services.NewStore(db)

	switch command := os.Args[1]; command {
	case "up":
		if err := store.AutoMigrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Info("Migrations completed successfully")

	case "down":
		if err := store.DropAll(); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Info("Tables dropped successfully")

	case "seed":
		set, err := store.SeedDefaults(context.Background())
		if err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		log.WithField("weight_set_id", set.ID).Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
