package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSubmitPersistsAndFansOut(t *testing.T) {
	hub, emitter, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")
	createUser(t, db, "bob", "Bob")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, []string{"bob"})
	assert.NoError(t, err)

	hub.Connect(Connection{UserID: "alice", ConnectionID: "ca"})
	hub.Connect(Connection{UserID: "bob", ConnectionID: "cb"})
	assert.NoError(t, hub.JoinRoom(Connection{UserID: "alice", ConnectionID: "ca"}, room.ID))
	assert.NoError(t, hub.JoinRoom(Connection{UserID: "bob", ConnectionID: "cb"}, room.ID))
	emitter.reset()

	msg, err := hub.Pipeline.Submit("alice", room.ID, "hello there", models.MessageKindText, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Alice", msg.Sender.Name)

	// Both subscribed connections receive exactly one live event
	assert.Equal(t, 1, emitter.countFor("ca", "new_message"))
	assert.Equal(t, 1, emitter.countFor("cb", "new_message"))

	// Everyone was online: no notifications at all
	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitOfflineParticipantGetsNotification(t *testing.T) {
	hub, emitter, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")
	createUser(t, db, "bob", "Bob")

	room, err := hub.Rooms.Create("alice", "pair", models.RoomTypePublic, []string{"bob"})
	assert.NoError(t, err)

	alice := Connection{UserID: "alice", ConnectionID: "ca"}
	hub.Connect(alice)
	assert.NoError(t, hub.JoinRoom(alice, room.ID))
	emitter.reset()

	before := room.LastActivityAt
	msg, err := hub.Pipeline.Submit("alice", room.ID, "hello", models.MessageKindText, nil)
	assert.NoError(t, err)

	// bob is offline: exactly one persisted notification of type message
	var notifications []models.Notification
	db.Where("recipient_id = ?", "bob").Find(&notifications)
	assert.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeMessage, notifications[0].Type)
	assert.Equal(t, "hello", notifications[0].Content)
	assert.Equal(t, models.ReferenceMessage, notifications[0].ReferenceKind)
	assert.Equal(t, msg.ID, *notifications[0].ReferenceID)
	assert.Equal(t, "alice", *notifications[0].SenderID)

	// the sender gets no notification
	var senderCount int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", "alice").Count(&senderCount)
	assert.EqualValues(t, 0, senderCount)

	// room points at the new message and activity moved forward
	var stored models.ChatRoom
	assert.NoError(t, db.First(&stored, "id = ?", room.ID).Error)
	assert.Equal(t, msg.ID, *stored.LastMessageID)
	assert.False(t, stored.LastActivityAt.Before(before))

	// the persisted lastMessageId resolves to an existing message
	var persisted models.Message
	assert.NoError(t, db.First(&persisted, "id = ?", *stored.LastMessageID).Error)
}

func TestSubmitNonMemberDenied(t *testing.T) {
	hub, emitter, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")
	createUser(t, db, "mallory", "Mallory")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	mallory := Connection{UserID: "mallory", ConnectionID: "cm"}
	hub.Connect(mallory)
	emitter.reset()

	_, err = hub.Pipeline.Submit("mallory", room.ID, "let me in", models.MessageKindText, nil)
	assert.ErrorIs(t, err, ErrNotFoundOrForbidden)

	// nothing persisted, nothing broadcast
	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.EqualValues(t, 0, count)
	assert.Empty(t, emitter.byEvent("new_message"))
}

func TestSubmitEmptyContent(t *testing.T) {
	hub, _, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	_, err = hub.Pipeline.Submit("alice", room.ID, "   \n\t ", models.MessageKindText, nil)
	assert.True(t, IsValidation(err))

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitInvalidKind(t *testing.T) {
	hub, _, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	_, err = hub.Pipeline.Submit("alice", room.ID, "hi", "carrier-pigeon", nil)
	assert.True(t, IsValidation(err))
}

func TestSubmitReplyToMustExistInRoom(t *testing.T) {
	hub, _, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	missing := "nope"
	_, err = hub.Pipeline.Submit("alice", room.ID, "re: nothing", models.MessageKindText, &missing)
	assert.True(t, IsValidation(err))

	parent, err := hub.Pipeline.Submit("alice", room.ID, "first", models.MessageKindText, nil)
	assert.NoError(t, err)

	reply, err := hub.Pipeline.Submit("alice", room.ID, "second", models.MessageKindText, &parent.ID)
	assert.NoError(t, err)
	assert.Equal(t, parent.ID, *reply.ReplyToID)
	assert.NotNil(t, reply.ReplyTo)
	assert.Equal(t, "first", reply.ReplyTo.Content)
}

func TestSubmitRoomActivityMonotonic(t *testing.T) {
	hub, _, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	first, err := hub.Pipeline.Submit("alice", room.ID, "one", models.MessageKindText, nil)
	assert.NoError(t, err)
	second, err := hub.Pipeline.Submit("alice", room.ID, "two", models.MessageKindText, nil)
	assert.NoError(t, err)

	var stored models.ChatRoom
	assert.NoError(t, db.First(&stored, "id = ?", room.ID).Error)
	assert.Equal(t, second.ID, *stored.LastMessageID)
	assert.False(t, stored.LastActivityAt.Before(first.CreatedAt))
}

func TestSubmitDoesNotMoveRoomActivityBackward(t *testing.T) {
	hub, _, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, nil)
	assert.NoError(t, err)

	// Simulate a later-persisted message having already advanced the room
	future := time.Now().Add(time.Hour)
	assert.NoError(t, db.Model(&models.ChatRoom{}).Where("id = ?", room.ID).
		Update("last_activity_at", future).Error)

	msg, err := hub.Pipeline.Submit("alice", room.ID, "late arrival", models.MessageKindText, nil)
	assert.NoError(t, err)

	// The message persists but the room pointer stays at the newer state
	var persisted models.Message
	assert.NoError(t, db.First(&persisted, "id = ?", msg.ID).Error)

	var stored models.ChatRoom
	assert.NoError(t, db.First(&stored, "id = ?", room.ID).Error)
	assert.Nil(t, stored.LastMessageID)
	assert.Equal(t, future.Unix(), stored.LastActivityAt.Unix())
}

func TestSubmitOnlineUnsubscribedParticipantStillReceives(t *testing.T) {
	hub, emitter, db := newTestHub(t, DefaultConfig())
	createUser(t, db, "alice", "Alice")
	createUser(t, db, "bob", "Bob")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, []string{"bob"})
	assert.NoError(t, err)

	alice := Connection{UserID: "alice", ConnectionID: "ca"}
	hub.Connect(alice)
	hub.Connect(Connection{UserID: "bob", ConnectionID: "cb"})
	assert.NoError(t, hub.JoinRoom(alice, room.ID))
	emitter.reset()

	_, err = hub.Pipeline.Submit("alice", room.ID, "ping", models.MessageKindText, nil)
	assert.NoError(t, err)

	// bob is online but never joined the room's fan-out: one direct event,
	// and no notification record
	assert.Equal(t, 1, emitter.countFor("cb", "new_message"))

	var count int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", "bob").Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitNotificationPreviewTruncated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotificationPreviewLength = 10
	hub, _, db := newTestHub(t, cfg)
	createUser(t, db, "alice", "Alice")
	createUser(t, db, "bob", "Bob")

	room, err := hub.Rooms.Create("alice", "general", models.RoomTypePublic, []string{"bob"})
	assert.NoError(t, err)

	long := strings.Repeat("x", 50)
	_, err = hub.Pipeline.Submit("alice", room.ID, long, models.MessageKindText, nil)
	assert.NoError(t, err)

	var notification models.Notification
	assert.NoError(t, db.First(&notification, "recipient_id = ?", "bob").Error)
	assert.Equal(t, strings.Repeat("x", 10), notification.Content)
}

func TestTruncateRuneSafe(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 10))
	assert.Equal(t, "hi", truncate("hi", 0))
}
