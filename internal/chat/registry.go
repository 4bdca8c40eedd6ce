package chat

import (
	"sync"
	"time"
)

// Connection describes one live socket attached to the process. Not persisted;
// the registry is rebuilt from zero on restart as clients reconnect.
type Connection struct {
	UserID       string    `json:"userId"`
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// Registry is the process-wide presence table. Presence follows a
// last-registered-connection-wins policy per user, while room subscriptions are
// tracked per connection: every connection that joins a room leaves it
// independently. All mutation goes through one mutex so register/unregister for
// the same user never interleave into a half-state.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Connection        // userID -> presence connection (last wins)
	conns  map[string]string            // connectionID -> userID, every live connection
	rooms  map[string]map[string]string // roomID -> connectionID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Connection),
		conns:  make(map[string]string),
		rooms:  make(map[string]map[string]string),
	}
}

// Register inserts or overwrites the presence entry for conn.UserID.
func (r *Registry) Register(conn Connection) {
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = time.Now()
	}
	if conn.Status == "" {
		conn.Status = "online"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[conn.UserID] = conn
	r.conns[conn.ConnectionID] = conn.UserID
}

// Unregister drops connectionID and its room subscriptions. The presence entry
// for userID is removed only while it still belongs to connectionID, so a user
// who re-registered from another tab stays online. Idempotent: duplicate
// disconnect signals report wentOffline at most once.
func (r *Registry) Unregister(userID, connectionID string) (last Connection, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connectionID)
	for roomID, subs := range r.rooms {
		delete(subs, connectionID)
		if len(subs) == 0 {
			delete(r.rooms, roomID)
		}
	}

	cur, ok := r.byUser[userID]
	if !ok || cur.ConnectionID != connectionID {
		return Connection{}, false
	}
	delete(r.byUser, userID)
	return cur, true
}

// IsOnline is an O(1) presence lookup.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// Get returns the presence connection for userID.
func (r *Registry) Get(userID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// UpdatePresence sets the status on the user's presence entry. No-op for
// unknown users.
func (r *Registry) UpdatePresence(userID, status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byUser[userID]
	if !ok {
		return false
	}
	conn.Status = status
	r.byUser[userID] = conn
	return true
}

// Count returns the number of distinct online users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// CountInRoom returns the number of connections subscribed to roomID.
func (r *Registry) CountInRoom(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// OnlineUserIDs returns the IDs of all online users.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe adds connectionID to roomID's fan-out set.
func (r *Registry) Subscribe(roomID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.conns[connectionID]
	if !ok {
		return
	}
	subs := r.rooms[roomID]
	if subs == nil {
		subs = make(map[string]string)
		r.rooms[roomID] = subs
	}
	subs[connectionID] = userID
}

// Unsubscribe removes connectionID from roomID. Idempotent.
func (r *Registry) Unsubscribe(roomID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(subs, connectionID)
	if len(subs) == 0 {
		delete(r.rooms, roomID)
	}
}

// IsSubscribed reports whether connectionID is in roomID's fan-out set.
func (r *Registry) IsSubscribed(roomID, connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][connectionID]
	return ok
}

// ConnectionsInRoom returns the connection IDs subscribed to roomID.
func (r *Registry) ConnectionsInRoom(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms[roomID]))
	for connID := range r.rooms[roomID] {
		out = append(out, connID)
	}
	return out
}

// AllConnections returns every live connection ID.
func (r *Registry) AllConnections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for connID := range r.conns {
		out = append(out, connID)
	}
	return out
}

// Clear empties the registry. Called at shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser = make(map[string]Connection)
	r.conns = make(map[string]string)
	r.rooms = make(map[string]map[string]string)
}
