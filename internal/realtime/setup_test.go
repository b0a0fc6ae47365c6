package realtime

import (
	"sync"

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

// recordingBroadcaster captures room broadcasts instead of sending
// them over the wire.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	room  string
	event string
	args  []interface{}
}

func (r *recordingBroadcaster) BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{room: room, event: event, args: args})
	return true
}

func (r *recordingBroadcaster) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// newTestGateway wires a gateway to the recorder, skipping the
// socket.io server entirely.
func newTestGateway() (*Gateway, *recordingBroadcaster) {
	rec := &recordingBroadcaster{}
	g := &Gateway{
		broadcast: rec,
		reg:       NewRegistry(),
	}
	return g, rec
}

func seedChatPair(prefix string) (models.User, models.User, models.Chat) {
	adv := models.User{ID: prefix + "_adv", Username: prefix + "_adv", Email: prefix + "_adv@example.com", Role: models.RoleAdvertiser}
	blog := models.User{ID: prefix + "_blog", Username: prefix + "_blog", Email: prefix + "_blog@example.com", Role: models.RoleBlogger}
	database.DB.Create(&adv)
	database.DB.Create(&blog)

	chat := models.Chat{AdvertiserID: adv.ID, BloggerID: blog.ID}
	database.DB.Create(&chat)
	return adv, blog, chat
}
