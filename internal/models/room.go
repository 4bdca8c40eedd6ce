package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeDirect  RoomType = "direct"
)

type ParticipantRole string

const (
	RoleAdmin     ParticipantRole = "admin"
	RoleModerator ParticipantRole = "moderator"
	RoleMember    ParticipantRole = "member"
)

// ChatRoom is a persistent chat room. LastMessageID/LastActivityAt are advanced
// only by the message pipeline, and only forward.
type ChatRoom struct {
	ID          string   `gorm:"primaryKey;type:text" json:"id"`
	Name        string   `gorm:"type:text;not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	Type        RoomType `gorm:"type:text;default:'public';not null" json:"type"`

	CreatorID string `gorm:"index;type:text;not null" json:"creatorId"`
	Creator   User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	LastMessageID  *string   `gorm:"type:text" json:"lastMessageId"`
	LastMessage    *Message  `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
	LastActivityAt time.Time `gorm:"index" json:"lastActivityAt"`

	// Settings
	AllowUploads bool `gorm:"default:true" json:"allowUploads"`
	MaxMembers   int  `gorm:"default:100" json:"maxMembers"`
	Archived     bool `gorm:"default:false" json:"archived"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Participants []RoomParticipant `gorm:"foreignKey:RoomID" json:"participants"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.LastActivityAt.IsZero() {
		r.LastActivityAt = time.Now()
	}
	return
}

// Participant returns the membership record for userID, if any.
func (r *ChatRoom) Participant(userID string) (RoomParticipant, bool) {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return RoomParticipant{}, false
}

func (r *ChatRoom) MemberCount() int {
	return len(r.Participants)
}

// RoomParticipant links a user to a room with a role. The composite primary key
// keeps user IDs unique per room.
type RoomParticipant struct {
	RoomID     string          `gorm:"primaryKey;type:text" json:"roomId"`
	UserID     string          `gorm:"primaryKey;type:text" json:"userId"`
	Role       ParticipantRole `gorm:"type:text;default:'member';not null" json:"role"`
	JoinedAt   time.Time       `json:"joinedAt"`
	LastReadAt time.Time       `json:"lastReadAt"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// RoomInvitation is the prior-invitation record required to join private and
// direct rooms. Consumed on successful join.
type RoomInvitation struct {
	RoomID      string    `gorm:"primaryKey;type:text" json:"roomId"`
	UserID      string    `gorm:"primaryKey;type:text" json:"userId"`
	InvitedByID string    `gorm:"type:text;not null" json:"invitedById"`
	CreatedAt   time.Time `json:"createdAt"`
}
