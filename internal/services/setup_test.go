package services

import (
	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite DB for testing
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})

	// A single connection serializes concurrent writers the way
	// Postgres row locks would
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	database.DB.AutoMigrate(
		&models.User{},
		&models.Offer{},
		&models.Chat{},
		&models.Message{},
	)
}

// createTestPair seeds one advertiser and one blogger. The prefix
// keeps IDs unique across tests since the shared-cache memory DB
// outlives a single test.
func createTestPair(prefix string) (advertiser models.User, blogger models.User) {
	advertiser = models.User{ID: prefix + "_adv", Username: prefix + "_adv", Email: prefix + "_adv@example.com", Role: models.RoleAdvertiser}
	blogger = models.User{ID: prefix + "_blog", Username: prefix + "_blog", Email: prefix + "_blog@example.com", Role: models.RoleBlogger}
	database.DB.Create(&advertiser)
	database.DB.Create(&blogger)
	return
}
