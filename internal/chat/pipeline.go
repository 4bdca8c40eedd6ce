package chat

import (
	"strings"
	"time"

	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/aditya3singh/DevConnect/pkg/logger"
	"gorm.io/gorm"
)

// Pipeline accepts an inbound room message, persists it, advances the room's
// last-message pointer and fans it out to live connections.
type Pipeline struct {
	db       *gorm.DB
	rooms    *Rooms
	notifier *Notifier
	registry *Registry
	emitter  Emitter
}

func NewPipeline(db *gorm.DB, rooms *Rooms, notifier *Notifier, registry *Registry, emitter Emitter) *Pipeline {
	return &Pipeline{
		db:       db,
		rooms:    rooms,
		notifier: notifier,
		registry: registry,
		emitter:  emitter,
	}
}

// Submit runs the full message path: membership check, validation, atomic
// persist + room update, fan-out, offline-notification dispatch.
//
// A store failure aborts the whole operation with nothing broadcast. Once the
// message is persisted, emit failures and notification failures are logged and
// never roll it back: delivery to live sockets is at-least-once, not
// exactly-once.
func (p *Pipeline) Submit(senderID, roomID, content string, kind models.MessageKind, replyToID *string) (*models.Message, error) {
	room, err := p.rooms.AssertMember(roomID, senderID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("message content is required")
	}
	if kind == "" {
		kind = models.MessageKindText
	}
	switch kind {
	case models.MessageKindText, models.MessageKindCode, models.MessageKindImage, models.MessageKindSystem:
	default:
		return nil, NewValidationError("invalid message kind")
	}
	if replyToID != nil && *replyToID == "" {
		replyToID = nil
	}

	now := time.Now()
	msg := models.Message{
		SenderID:  senderID,
		RoomID:    &roomID,
		Content:   content,
		Kind:      kind,
		ReplyToID: replyToID,
		CreatedAt: now,
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if replyToID != nil {
			var count int64
			if err := tx.Model(&models.Message{}).
				Where("id = ? AND room_id = ?", *replyToID, roomID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return NewValidationError("reply target not found in this room")
			}
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		// Guarded advance: if a later-persisted message already moved the room
		// forward, leave it alone. lastActivityAt never goes backward and
		// lastMessageId always resolves to a persisted message.
		return tx.Model(&models.ChatRoom{}).
			Where("id = ? AND last_activity_at <= ?", roomID, msg.CreatedAt).
			Updates(map[string]interface{}{
				"last_message_id":  msg.ID,
				"last_activity_at": msg.CreatedAt,
			}).Error
	})
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, &DependencyError{Op: "persist message", Err: err}
	}

	// Resolve sender display fields for the broadcast. Best effort: the
	// message is already persisted.
	full := msg
	if err := p.db.Preload("Sender").First(&full, "id = ?", msg.ID).Error; err != nil {
		logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to load sender for broadcast")
		full = msg
	}
	if replyToID != nil {
		var parent models.Message
		if err := p.db.Preload("Sender").First(&parent, "id = ?", *replyToID).Error; err == nil {
			full.ReplyTo = &parent
		}
	}

	p.fanOut(room, &full)
	p.notifier.Dispatch(room, &full)

	return &full, nil
}

// fanOut broadcasts the message to every connection subscribed to the room,
// then directly to online participants whose presence connection has not
// joined the room, so every online participant sees exactly one live event.
func (p *Pipeline) fanOut(room *models.ChatRoom, msg *models.Message) {
	delivered := make(map[string]bool)
	for _, connID := range p.registry.ConnectionsInRoom(room.ID) {
		p.emitter.Emit(connID, "new_message", msg)
		delivered[connID] = true
	}

	for _, part := range room.Participants {
		if part.UserID == msg.SenderID {
			continue
		}
		conn, ok := p.registry.Get(part.UserID)
		if !ok || delivered[conn.ConnectionID] {
			continue
		}
		p.emitter.Emit(conn.ConnectionID, "new_message", msg)
	}
}
