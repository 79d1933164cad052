// Command seed migrates the configured database and loads the demo data.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.SQLitePath,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	res, err := repository.SeedDemo(ctx, db, time.Now(), cfg.BcryptCost)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Infof("seeded: students=%d,%d,%d instructor=%d class=%d (password %q)",
		res.Ana, res.Bojan, res.Ciro, res.Instructor, res.Class, repository.DemoPassword)
}
