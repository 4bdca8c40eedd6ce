package chat

import (
	"time"

	"gorm.io/gorm"
)

// Emitter delivers one event to one connection. The production implementation
// wraps the socket.io server; tests substitute a recording fake.
type Emitter interface {
	Emit(connectionID, event string, payload interface{})
}

type Config struct {
	// Max runes of message content copied onto an offline notification.
	NotificationPreviewLength int
	// Minimum interval between user_typing emits per sender.
	TypingThrottle time.Duration
}

func DefaultConfig() Config {
	return Config{
		NotificationPreviewLength: 100,
		TypingThrottle:            3 * time.Second,
	}
}

// Hub wires the presence registry, membership authority, message pipeline and
// broadcaster over one Emitter. One hub per process; created at startup,
// cleared at shutdown.
type Hub struct {
	Registry    *Registry
	Rooms       *Rooms
	Pipeline    *Pipeline
	Notifier    *Notifier
	Broadcaster *Broadcaster

	emitter Emitter
}

func NewHub(db *gorm.DB, emitter Emitter, cfg Config) *Hub {
	if cfg.NotificationPreviewLength <= 0 {
		cfg.NotificationPreviewLength = DefaultConfig().NotificationPreviewLength
	}
	if cfg.TypingThrottle <= 0 {
		cfg.TypingThrottle = DefaultConfig().TypingThrottle
	}

	registry := NewRegistry()
	rooms := NewRooms(db)
	notifier := NewNotifier(db, registry, cfg.NotificationPreviewLength)
	pipeline := NewPipeline(db, rooms, notifier, registry, emitter)
	broadcaster := NewBroadcaster(registry, emitter, cfg.TypingThrottle)

	return &Hub{
		Registry:    registry,
		Rooms:       rooms,
		Pipeline:    pipeline,
		Notifier:    notifier,
		Broadcaster: broadcaster,
		emitter:     emitter,
	}
}

// Connect registers the connection and announces the user to everyone else.
func (h *Hub) Connect(conn Connection) {
	h.Registry.Register(conn)
	h.BroadcastAll("user_online", map[string]interface{}{
		"userId":   conn.UserID,
		"userName": conn.Name,
	}, conn.ConnectionID)
	h.emitter.Emit(conn.ConnectionID, "online_users", h.Registry.OnlineUserIDs())
}

// Disconnect drops the connection. The user_offline broadcast fires exactly
// once per presence loss, no matter how many times the transport reports the
// drop.
func (h *Hub) Disconnect(userID, connectionID string) {
	_, wentOffline := h.Registry.Unregister(userID, connectionID)
	if wentOffline {
		h.BroadcastAll("user_offline", map[string]interface{}{
			"userId":   userID,
			"lastSeen": time.Now(),
		}, connectionID)
	}
}

// JoinRoom subscribes the connection to the room's fan-out after the
// membership check and tells the other members.
func (h *Hub) JoinRoom(conn Connection, roomID string) error {
	if _, err := h.Rooms.AssertMember(roomID, conn.UserID); err != nil {
		return err
	}
	h.Registry.Subscribe(roomID, conn.ConnectionID)
	h.EmitToRoom(roomID, "user_joined_room", map[string]interface{}{
		"userId":   conn.UserID,
		"userName": conn.Name,
		"roomId":   roomID,
	}, conn.ConnectionID)
	return nil
}

// LeaveRoom drops the connection's subscription. Idempotent; membership itself
// is changed through Rooms.Leave.
func (h *Hub) LeaveRoom(conn Connection, roomID string) {
	h.Registry.Unsubscribe(roomID, conn.ConnectionID)
	h.EmitToRoom(roomID, "user_left_room", map[string]interface{}{
		"userId":   conn.UserID,
		"userName": conn.Name,
		"roomId":   roomID,
	}, conn.ConnectionID)
}

// EmitToUser delivers to the user's presence connection, if online.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) bool {
	conn, ok := h.Registry.Get(userID)
	if !ok {
		return false
	}
	h.emitter.Emit(conn.ConnectionID, event, payload)
	return true
}

// EmitToRoom fans payload out to every connection subscribed to roomID.
func (h *Hub) EmitToRoom(roomID, event string, payload interface{}, excludeConnectionID string) {
	emitToRoom(h.Registry, h.emitter, roomID, event, payload, excludeConnectionID)
}

// BroadcastAll fans payload out to every live connection.
func (h *Hub) BroadcastAll(event string, payload interface{}, excludeConnectionID string) {
	broadcastAll(h.Registry, h.emitter, event, payload, excludeConnectionID)
}

// Shutdown clears the presence table.
func (h *Hub) Shutdown() {
	h.Registry.Clear()
}

func emitToRoom(registry *Registry, emitter Emitter, roomID, event string, payload interface{}, exclude string) {
	for _, connID := range registry.ConnectionsInRoom(roomID) {
		if connID == exclude {
			continue
		}
		emitter.Emit(connID, event, payload)
	}
}

func broadcastAll(registry *Registry, emitter Emitter, event string, payload interface{}, exclude string) {
	for _, connID := range registry.AllConnections() {
		if connID == exclude {
			continue
		}
		emitter.Emit(connID, event, payload)
	}
}
