package chat

import (
	"sync"
	"time"
)

// Broadcaster handles the ephemeral events: typing indicators, presence
// changes and generic entity interactions. Nothing here touches the store and
// nothing here can fail the connection; ordering across participants is
// last-write-wins.
type Broadcaster struct {
	registry *Registry
	emitter  Emitter
	throttle time.Duration

	mu         sync.Mutex
	lastTyping map[string]time.Time // userID -> last user_typing emit
}

func NewBroadcaster(registry *Registry, emitter Emitter, throttle time.Duration) *Broadcaster {
	return &Broadcaster{
		registry:   registry,
		emitter:    emitter,
		throttle:   throttle,
		lastTyping: make(map[string]time.Time),
	}
}

// Typing tells the rest of the room that conn's user is typing. Throttled per
// sender to keep rapid keystrokes from flooding the room.
func (b *Broadcaster) Typing(roomID string, conn Connection) {
	b.mu.Lock()
	last, seen := b.lastTyping[conn.UserID]
	if seen && time.Since(last) < b.throttle {
		b.mu.Unlock()
		return
	}
	b.lastTyping[conn.UserID] = time.Now()
	b.mu.Unlock()

	emitToRoom(b.registry, b.emitter, roomID, "user_typing", map[string]interface{}{
		"userId":    conn.UserID,
		"userName":  conn.Name,
		"roomId":    roomID,
		"expiresAt": time.Now().Add(b.throttle + time.Second).Unix(),
	}, conn.ConnectionID)
}

// StopTyping clears the indicator immediately; never throttled.
func (b *Broadcaster) StopTyping(roomID string, conn Connection) {
	b.mu.Lock()
	delete(b.lastTyping, conn.UserID)
	b.mu.Unlock()

	emitToRoom(b.registry, b.emitter, roomID, "user_stop_typing", map[string]interface{}{
		"userId": conn.UserID,
		"roomId": roomID,
	}, conn.ConnectionID)
}

// UpdatePresence sets the user's status and tells everyone else. No-op when
// the user has no presence entry.
func (b *Broadcaster) UpdatePresence(conn Connection, status string) bool {
	if !b.registry.UpdatePresence(conn.UserID, status) {
		return false
	}
	broadcastAll(b.registry, b.emitter, "user_presence_updated", map[string]interface{}{
		"userId": conn.UserID,
		"status": status,
	}, conn.ConnectionID)
	return true
}

// Interaction broadcasts a live entity interaction (like, comment, share) to
// all other connections.
func (b *Broadcaster) Interaction(entityID, kind, action string, actor Connection) {
	broadcastAll(b.registry, b.emitter, "post_updated", map[string]interface{}{
		"postId":    entityID,
		"type":      kind,
		"action":    action,
		"userId":    actor.UserID,
		"userName":  actor.Name,
		"timestamp": time.Now(),
	}, actor.ConnectionID)
}
