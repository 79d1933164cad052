// Command reports writes the studio reports as JSON files for review.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/repository"
	"github.com/iliyamo/studio-booking/internal/service"
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

	dir := os.Getenv("REPORTS_DIR")
	if dir == "" {
		dir = "proofs"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	files, err := service.ExportReports(ctx, repository.NewReportRepo(db), dir)
	if err != nil {
		log.Fatalf("reports: %v", err)
	}
	for _, f := range files {
		log.Infof("saved %s (%d rows)", f.Path, f.Rows)
	}
}
