package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeFollow        NotificationType = "follow"
	NotificationTypeLike          NotificationType = "like"
	NotificationTypeComment       NotificationType = "comment"
	NotificationTypeMention       NotificationType = "mention"
	NotificationTypeProjectInvite NotificationType = "project_invite"
	NotificationTypeMessage       NotificationType = "message"
)

// ReferenceKind tags the polymorphic reference on a notification.
type ReferenceKind string

const (
	ReferencePost    ReferenceKind = "post"
	ReferenceComment ReferenceKind = "comment"
	ReferenceProject ReferenceKind = "project"
	ReferenceMessage ReferenceKind = "message"
	ReferenceRoom    ReferenceKind = "room"
)

// Notification is a persisted record of an event the recipient has not seen
// live. For chat messages it is created only when the recipient is offline at
// dispatch time; connected recipients get the real-time event instead.
type Notification struct {
	ID          string `gorm:"primaryKey;type:text" json:"id"`
	RecipientID string `gorm:"index;type:text;not null" json:"recipientId"`
	Recipient   User   `gorm:"foreignKey:RecipientID" json:"-"`

	SenderID *string `gorm:"index;type:text" json:"senderId,omitempty"`
	Sender   *User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Type NotificationType `gorm:"type:text;not null" json:"type"`

	ReferenceID   *string       `gorm:"index;type:text" json:"referenceId,omitempty"`
	ReferenceKind ReferenceKind `gorm:"type:text" json:"referenceKind,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`
	Read    bool   `gorm:"default:false" json:"read"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.ReferenceID != nil && n.ReferenceKind == "" {
		return errors.New("notification reference requires a reference kind")
	}
	return
}
