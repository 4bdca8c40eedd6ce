package handlers

import (
	"testing"

	"github.com/aditya3singh/DevConnect/internal/chat"
	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/aditya3singh/DevConnect/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestAuthenticateSocketRejectsBeforeRegistering(t *testing.T) {
	db, _ := setupHandlerTest(t)
	createTestUser(t, db, "alice", "Alice")

	_, err := authenticateSocket(db, "s1", "")
	assert.ErrorIs(t, err, chat.ErrUnauthenticated)

	_, err = authenticateSocket(db, "s1", "not-a-jwt")
	assert.ErrorIs(t, err, chat.ErrUnauthenticated)

	// Valid token for a user that no longer exists
	ghostToken, err := utils.GenerateToken("ghost")
	assert.NoError(t, err)
	_, err = authenticateSocket(db, "s1", ghostToken)
	assert.ErrorIs(t, err, chat.ErrUnauthenticated)

	// Nothing above touched the presence table
	assert.Equal(t, 0, ChatHub.Registry.Count())

	token, err := utils.GenerateToken("alice")
	assert.NoError(t, err)
	conn, err := authenticateSocket(db, "s1", token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", conn.UserID)
	assert.Equal(t, "s1", conn.ConnectionID)
	assert.Equal(t, "Alice", conn.Name)
	assert.Equal(t, "online", conn.Status)
}

func TestMarkNotificationReadScopedToRecipient(t *testing.T) {
	db, _ := setupHandlerTest(t)
	createTestUser(t, db, "alice", "Alice")
	createTestUser(t, db, "bob", "Bob")
	n := createNotification(t, db, "alice", "hi")

	// Another user's socket event cannot flip someone else's notification
	assert.NoError(t, markNotificationRead(db, "bob", n.ID))
	var stored models.Notification
	assert.NoError(t, db.First(&stored, "id = ?", n.ID).Error)
	assert.False(t, stored.Read)

	assert.NoError(t, markNotificationRead(db, "alice", n.ID))
	assert.NoError(t, db.First(&stored, "id = ?", n.ID).Error)
	assert.True(t, stored.Read)

	// Unknown id is a no-op
	assert.NoError(t, markNotificationRead(db, "alice", "missing"))
}

func TestAuthenticateSocketFallsBackToUsername(t *testing.T) {
	db, _ := setupHandlerTest(t)
	user := createTestUser(t, db, "bob", "")
	assert.Empty(t, user.Name)

	token, err := utils.GenerateToken("bob")
	assert.NoError(t, err)
	conn, err := authenticateSocket(db, "s2", token)
	assert.NoError(t, err)
	assert.Equal(t, "bob", conn.Name)
}
