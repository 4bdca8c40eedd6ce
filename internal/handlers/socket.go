package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/aditya3singh/DevConnect/internal/chat"
	"github.com/aditya3singh/DevConnect/internal/database"
	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/aditya3singh/DevConnect/pkg/logger"
	"github.com/aditya3singh/DevConnect/pkg/utils"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"gorm.io/gorm"
)

var SocketServer *socketio.Server

// ChatHub is the process-wide chat core, shared with the REST handlers.
var ChatHub *chat.Hub

// messageRateLimit is the per-user send_message ceiling per minute, enforced
// through Redis when it is configured.
const messageRateLimit = 60

// socketEmitter adapts the socket.io server to the chat.Emitter interface.
type socketEmitter struct {
	mu    sync.RWMutex
	conns map[string]socketio.Conn
}

func newSocketEmitter() *socketEmitter {
	return &socketEmitter{conns: make(map[string]socketio.Conn)}
}

func (e *socketEmitter) add(c socketio.Conn) {
	e.mu.Lock()
	e.conns[c.ID()] = c
	e.mu.Unlock()
}

func (e *socketEmitter) remove(connectionID string) {
	e.mu.Lock()
	delete(e.conns, connectionID)
	e.mu.Unlock()
}

func (e *socketEmitter) Emit(connectionID, event string, payload interface{}) {
	e.mu.RLock()
	c, ok := e.conns[connectionID]
	e.mu.RUnlock()
	if !ok {
		logger.Debug().Str("connection_id", connectionID).Str("event", event).Msg("Emit to unknown connection dropped")
		return
	}
	c.Emit(event, payload)
}

// emitError reports a failure to the originating connection only. Errors never
// terminate the connection.
func emitError(s socketio.Conn, message string) {
	s.Emit("error", map[string]interface{}{"message": message})
}

func connFromContext(s socketio.Conn) (chat.Connection, bool) {
	conn, ok := s.Context().(chat.Connection)
	return conn, ok
}

// authenticateSocket turns a handshake token into a chat.Connection. Any
// failure maps to ErrUnauthenticated so the transport can reject the handshake
// before anything is registered.
func authenticateSocket(db *gorm.DB, connectionID, token string) (chat.Connection, error) {
	if token == "" {
		return chat.Connection{}, chat.ErrUnauthenticated
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return chat.Connection{}, chat.ErrUnauthenticated
	}

	var user models.User
	if err := db.Select("id", "name", "username").First(&user, "id = ?", claims.UserID).Error; err != nil {
		return chat.Connection{}, chat.ErrUnauthenticated
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Username
	}
	return chat.Connection{
		UserID:       user.ID,
		ConnectionID: connectionID,
		Name:         displayName,
		Status:       "online",
		ConnectedAt:  time.Now(),
	}, nil
}

func InitSocketServer(db *gorm.DB, cfg chat.Config) *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	emitter := newSocketEmitter()
	ChatHub = chat.NewHub(db, emitter, cfg)

	// Authentication gate: the connection is rejected before anything is
	// registered, so a failed handshake leaves no trace in the registry.
	server.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		token := u.Query().Get("token")
		if token == "" {
			token = u.Query().Get("auth_token")
		}

		conn, err := authenticateSocket(db, s.ID(), token)
		if err != nil {
			logger.Warn().Str("socket_id", s.ID()).Msg("Socket connection rejected")
			return err
		}
		s.SetContext(conn)
		emitter.add(s)
		ChatHub.Connect(conn)

		logger.Info().Str("user_id", conn.UserID).Str("socket_id", s.ID()).Msg("Socket authenticated")
		return nil
	})

	server.OnEvent("/", "join_room", func(s socketio.Conn, roomID string) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		if err := ChatHub.JoinRoom(conn, roomID); err != nil {
			emitError(s, err.Error())
			return
		}
		s.Join(roomID)
	})

	server.OnEvent("/", "leave_room", func(s socketio.Conn, roomID string) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		s.Leave(roomID)
		ChatHub.LeaveRoom(conn, roomID)
	})

	server.OnEvent("/", "send_message", func(s socketio.Conn, data map[string]interface{}) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		if allowed, err := database.CheckRateLimit(conn.UserID, messageRateLimit, time.Minute); err == nil && !allowed {
			emitError(s, "You are sending messages too quickly")
			return
		}
		roomID, _ := data["roomId"].(string)
		content, _ := data["content"].(string)
		kind, _ := data["type"].(string)

		var replyTo *string
		if v, ok := data["replyTo"].(string); ok && v != "" {
			replyTo = &v
		}

		msg, err := ChatHub.Pipeline.Submit(conn.UserID, roomID, content, models.MessageKind(kind), replyTo)
		if err != nil {
			emitError(s, err.Error())
			return
		}
		// The sender always learns persistence succeeded, whether or not
		// their connection is subscribed to the room.
		s.Emit("message_sent", map[string]interface{}{"messageId": msg.ID})
	})

	server.OnEvent("/", "typing", func(s socketio.Conn, data map[string]interface{}) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		if roomID, _ := data["roomId"].(string); roomID != "" {
			ChatHub.Broadcaster.Typing(roomID, conn)
		}
	})

	server.OnEvent("/", "stop_typing", func(s socketio.Conn, data map[string]interface{}) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		if roomID, _ := data["roomId"].(string); roomID != "" {
			ChatHub.Broadcaster.StopTyping(roomID, conn)
		}
	})

	server.OnEvent("/", "update_presence", func(s socketio.Conn, status string) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		ChatHub.Broadcaster.UpdatePresence(conn, status)
	})

	server.OnEvent("/", "post_interaction", func(s socketio.Conn, data map[string]interface{}) {
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		postID, _ := data["postId"].(string)
		kind, _ := data["type"].(string)
		action, _ := data["action"].(string)
		if postID == "" {
			return
		}
		ChatHub.Broadcaster.Interaction(postID, kind, action, conn)
	})

	server.OnEvent("/", "mark_notification_read", func(s socketio.Conn, notificationID string) {
		conn, ok := connFromContext(s)
		if !ok || notificationID == "" {
			return
		}
		if err := markNotificationRead(db, conn.UserID, notificationID); err != nil {
			logger.Error().Err(err).Str("notification_id", notificationID).Msg("Failed to mark notification read")
			return
		}
		s.Emit("notification_marked_read", map[string]interface{}{"notificationId": notificationID})
	})

	server.OnEvent("/", "get_online_users", func(s socketio.Conn, msg string) {
		s.Emit("online_users", ChatHub.Registry.OnlineUserIDs())
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		emitter.remove(s.ID())
		conn, ok := connFromContext(s)
		if !ok {
			return
		}
		ChatHub.Disconnect(conn.UserID, conn.ConnectionID)
		logger.Info().Str("user_id", conn.UserID).Str("reason", reason).Msg("Socket disconnected")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("Socket error")
	})

	go func() {
		if err := server.Serve(); err != nil {
			logger.Error().Err(err).Msg("Socket server stopped")
		}
	}()
	SocketServer = server
	return server
}

// markNotificationRead flips the read flag when the notification belongs to
// userID, then drops the cached unread count so REST readers see it.
func markNotificationRead(db *gorm.DB, userID, notificationID string) error {
	res := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		database.CacheInvalidate(unreadCountCacheKey(userID))
	}
	return nil
}

// SocketHandler wraps the socket.io server for gin.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
