package main

import (
	"log"

	"github.com/Vantorrr/influenta-backend/internal/config"
	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/internal/seeds"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("🔄 Running migrations (just in case)...")
	database.DB.AutoMigrate(
		&models.User{},
		&models.Offer{},
		&models.Chat{},
		&models.Message{},
	)

	if err := seeds.SeedDemoAccounts(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✅ Seeding complete")
}
