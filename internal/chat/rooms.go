package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/aditya3singh/DevConnect/internal/models"
	"gorm.io/gorm"
)

// Rooms is the membership authority: every room-scoped authorization decision
// goes through it.
type Rooms struct {
	db *gorm.DB
}

func NewRooms(db *gorm.DB) *Rooms {
	return &Rooms{db: db}
}

// Create persists a new room. The creator is always inserted first with the
// admin role, whether or not they appear in participantIDs; duplicate IDs
// collapse to a single membership.
func (s *Rooms) Create(creatorID, name string, roomType models.RoomType, participantIDs []string) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("room name is required")
	}
	if roomType == "" {
		roomType = models.RoomTypePublic
	}
	switch roomType {
	case models.RoomTypePublic, models.RoomTypePrivate, models.RoomTypeDirect:
	default:
		return nil, NewValidationError("invalid room type")
	}

	now := time.Now()
	room := models.ChatRoom{
		Name:           name,
		Type:           roomType,
		CreatorID:      creatorID,
		LastActivityAt: now,
	}

	room.Participants = append(room.Participants, models.RoomParticipant{
		UserID:     creatorID,
		Role:       models.RoleAdmin,
		JoinedAt:   now,
		LastReadAt: now,
	})
	seen := map[string]bool{creatorID: true}
	for _, id := range participantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		room.Participants = append(room.Participants, models.RoomParticipant{
			UserID:     id,
			Role:       models.RoleMember,
			JoinedAt:   now,
			LastReadAt: now,
		})
	}

	if err := s.db.Create(&room).Error; err != nil {
		return nil, &DependencyError{Op: "create room", Err: err}
	}
	return &room, nil
}

// Join appends userID as a member. Private and direct rooms require a prior
// invitation; the invitation is consumed on success.
func (s *Rooms) Join(roomID, userID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db.Preload("Participants").First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, &DependencyError{Op: "load room", Err: err}
	}

	if _, ok := room.Participant(userID); ok {
		return nil, ErrAlreadyMember
	}
	if room.MaxMembers > 0 && room.MemberCount() >= room.MaxMembers {
		return nil, NewValidationError("room is full")
	}

	invited := false
	if room.Type == models.RoomTypePrivate || room.Type == models.RoomTypeDirect {
		var invitation models.RoomInvitation
		err := s.db.First(&invitation, "room_id = ? AND user_id = ?", roomID, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrForbidden
			}
			return nil, &DependencyError{Op: "load invitation", Err: err}
		}
		invited = true
	}

	now := time.Now()
	participant := models.RoomParticipant{
		RoomID:     roomID,
		UserID:     userID,
		Role:       models.RoleMember,
		JoinedAt:   now,
		LastReadAt: now,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		if invited {
			return tx.Delete(&models.RoomInvitation{}, "room_id = ? AND user_id = ?", roomID, userID).Error
		}
		return nil
	})
	if err != nil {
		return nil, &DependencyError{Op: "join room", Err: err}
	}

	room.Participants = append(room.Participants, participant)
	return &room, nil
}

// Leave removes the membership. Idempotent: leaving a room you are not in (or
// one that does not exist) is a no-op. Rooms that become empty persist until
// explicitly archived.
func (s *Rooms) Leave(roomID, userID string) error {
	err := s.db.Delete(&models.RoomParticipant{}, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		return &DependencyError{Op: "leave room", Err: err}
	}
	return nil
}

// AssertMember returns the room when userID is a participant. A missing room
// and a non-member produce the same ErrNotFoundOrForbidden so callers cannot
// learn whether a room exists. Single source of truth for the message pipeline
// and history queries.
func (s *Rooms) AssertMember(roomID, userID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.db.Preload("Participants").
		Joins("JOIN room_participants rp ON rp.room_id = chat_rooms.id AND rp.user_id = ?", userID).
		First(&room, "chat_rooms.id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, &DependencyError{Op: "assert member", Err: err}
	}
	return &room, nil
}

// Invite records a prior invitation so the invitee can join a private or
// direct room. The inviter must be an admin or moderator of the room.
func (s *Rooms) Invite(roomID, inviterID, inviteeID string) error {
	room, err := s.AssertMember(roomID, inviterID)
	if err != nil {
		return err
	}
	inviter, _ := room.Participant(inviterID)
	if inviter.Role != models.RoleAdmin && inviter.Role != models.RoleModerator {
		return ErrForbidden
	}
	if _, ok := room.Participant(inviteeID); ok {
		return ErrAlreadyMember
	}

	invitation := models.RoomInvitation{
		RoomID:      roomID,
		UserID:      inviteeID,
		InvitedByID: inviterID,
		CreatedAt:   time.Now(),
	}
	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, inviteeID).
		FirstOrCreate(&invitation).Error; err != nil {
		return &DependencyError{Op: "create invitation", Err: err}
	}
	return nil
}

// ListForUser returns the rooms userID participates in, most recent activity
// first.
func (s *Rooms) ListForUser(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db.Preload("Participants.User").Preload("LastMessage").
		Joins("JOIN room_participants rp ON rp.room_id = chat_rooms.id AND rp.user_id = ?", userID).
		Order("chat_rooms.last_activity_at desc").
		Find(&rooms).Error
	if err != nil {
		return nil, &DependencyError{Op: "list rooms", Err: err}
	}
	return rooms, nil
}

// History returns a page of room messages oldest-first, gated on membership.
func (s *Rooms) History(roomID, userID string, page, limit int) ([]models.Message, int64, error) {
	if _, err := s.AssertMember(roomID, userID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var total int64
	if err := s.db.Model(&models.Message{}).Where("room_id = ?", roomID).Count(&total).Error; err != nil {
		return nil, 0, &DependencyError{Op: "count messages", Err: err}
	}

	var messages []models.Message
	err := s.db.Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, &DependencyError{Op: "load messages", Err: err}
	}

	// Reverse to oldest-first for display
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}
