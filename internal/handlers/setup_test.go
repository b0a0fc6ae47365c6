package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite DB for testing
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
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

// newJSONContext builds a test context carrying a JSON body and the
// authenticated user, the way AuthMiddleware would leave it.
func newJSONContext(method, path string, body interface{}, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	c.Request, _ = http.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userId", userID)
	return c, w
}

func newGETContext(path string, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", path, nil)
	c.Set("userId", userID)
	return c, w
}
