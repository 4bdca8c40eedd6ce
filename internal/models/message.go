package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindCode   MessageKind = "code"
	MessageKindImage  MessageKind = "image"
	MessageKindSystem MessageKind = "system"
)

// Message is immutable after creation except for read state and soft delete.
// Room messages carry RoomID; direct 1:1 messages carry ReceiverID instead.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	SenderID string `gorm:"index;type:text;not null" json:"senderId"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	RoomID     *string `gorm:"index;type:text" json:"roomId,omitempty"`
	ReceiverID *string `gorm:"index;type:text" json:"receiverId,omitempty"`

	Content string      `gorm:"type:text;not null" json:"content"`
	Kind    MessageKind `gorm:"type:text;default:'text';not null" json:"kind"`

	// Attachment URLs; upload handling lives elsewhere, these are opaque here
	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments"`

	ReplyToID *string  `gorm:"index;type:text" json:"replyToId,omitempty"`
	ReplyTo   *Message `gorm:"-" json:"replyTo,omitempty"`

	IsRead      bool       `gorm:"default:false" json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
