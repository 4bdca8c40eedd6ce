package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a per-test in-memory SQLite DB
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.RoomParticipant{},
		&models.RoomInvitation{},
		&models.Message{},
		&models.Notification{},
	)
	assert.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB, id, name string) models.User {
	user := models.User{
		ID:       id,
		Name:     name,
		Username: id,
		Email:    id + "@example.com",
	}
	assert.NoError(t, db.Create(&user).Error)
	return user
}

type emittedEvent struct {
	ConnectionID string
	Event        string
	Payload      interface{}
}

// fakeEmitter records everything the core would have sent over sockets.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeEmitter) Emit(connectionID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{ConnectionID: connectionID, Event: event, Payload: payload})
}

func (f *fakeEmitter) byEvent(event string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeEmitter) countFor(connectionID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.ConnectionID == connectionID && e.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeEmitter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func newTestHub(t *testing.T, cfg Config) (*Hub, *fakeEmitter, *gorm.DB) {
	db := setupTestDB(t)
	emitter := &fakeEmitter{}
	return NewHub(db, emitter, cfg), emitter, db
}
