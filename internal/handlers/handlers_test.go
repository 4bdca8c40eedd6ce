package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aditya3singh/DevConnect/internal/chat"
	"github.com/aditya3singh/DevConnect/internal/config"
	"github.com/aditya3singh/DevConnect/internal/database"
	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingEmitter stands in for the socket.io adapter in handler tests.
type recordingEmitter struct {
	mu     sync.Mutex
	events []struct {
		ConnectionID string
		Event        string
	}
}

func (r *recordingEmitter) Emit(connectionID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, struct {
		ConnectionID string
		Event        string
	}{connectionID, event})
}

func (r *recordingEmitter) countFor(connectionID, event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.ConnectionID == connectionID && e.Event == event {
			n++
		}
	}
	return n
}

// setupHandlerTest points the package globals at a fresh in-memory DB and a
// hub with a recording emitter.
func setupHandlerTest(t *testing.T) (*gorm.DB, *recordingEmitter) {
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.RoomParticipant{},
		&models.RoomInvitation{},
		&models.Message{},
		&models.Notification{},
	))

	database.DB = db
	database.Redis = nil

	emitter := &recordingEmitter{}
	ChatHub = chat.NewHub(db, emitter, chat.DefaultConfig())
	return db, emitter
}

// asUser injects the authenticated user the way the auth middleware would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, id, name string) models.User {
	user := models.User{
		ID:       id,
		Name:     name,
		Username: id,
		Email:    id + "@example.com",
	}
	assert.NoError(t, db.Create(&user).Error)
	return user
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
