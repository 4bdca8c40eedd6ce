package chat

import (
	"github.com/aditya3singh/DevConnect/internal/models"
	"github.com/aditya3singh/DevConnect/pkg/logger"
	"gorm.io/gorm"
)

// Notifier decides, per participant, between live delivery and a persisted
// notification. Presence picks the channel: connected participants already got
// the broadcast and never get a record; offline participants get exactly one
// notification. Never both, never neither.
type Notifier struct {
	db         *gorm.DB
	registry   *Registry
	previewLen int
}

func NewNotifier(db *gorm.DB, registry *Registry, previewLen int) *Notifier {
	return &Notifier{db: db, registry: registry, previewLen: previewLen}
}

// Dispatch runs after a successful message persist. Notification write
// failures are logged and never fail the already-completed broadcast.
func (n *Notifier) Dispatch(room *models.ChatRoom, msg *models.Message) int {
	created := 0
	for _, part := range room.Participants {
		if part.UserID == msg.SenderID {
			continue
		}
		if n.registry.IsOnline(part.UserID) {
			continue
		}

		senderID := msg.SenderID
		refID := msg.ID
		notification := models.Notification{
			RecipientID:   part.UserID,
			SenderID:      &senderID,
			Type:          models.NotificationTypeMessage,
			ReferenceID:   &refID,
			ReferenceKind: models.ReferenceMessage,
			Content:       truncate(msg.Content, n.previewLen),
		}
		if err := n.db.Create(&notification).Error; err != nil {
			logger.Error().Err(err).
				Str("recipient_id", part.UserID).
				Str("message_id", msg.ID).
				Msg("Failed to create offline notification")
			continue
		}
		created++
	}
	return created
}

// truncate bounds s to max runes without splitting a character.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
