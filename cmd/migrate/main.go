package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/nudgebot/api/internal/config"
	"github.com/nudgebot/api/internal/database"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	log.Println("Running database migrations...")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// The scheduler scans this set every minute; keep it a partial-index hit.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_reminders_schedulable ON reminders(status) WHERE status IN ('active', 'scheduled')",
		"CREATE INDEX IF NOT EXISTS idx_reminders_owner_due_at ON reminders(owner, due_at)",
		"CREATE INDEX IF NOT EXISTS idx_reminders_recurrence_minute ON reminders(recurrence_minute)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatalf("Failed to create index: %v", err)
		}
	}

	log.Println("Migrations complete")
}
