package main

import (
	"log"

	"ai-therapy-be/internal/config"
	"ai-therapy-be/internal/model"
	"ai-therapy-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	color.Cyan("Running migrations...")

	err = gormDB.AutoMigrate(
		&model.User{},
		&model.TherapySession{},
		&model.TherapyMessage{},
	)
	if err != nil {
		color.Red("Migration failed: %v", err)
		log.Fatal(err)
	}

	color.Green("Migrations applied: users, therapy_sessions, therapy_messages")
}
