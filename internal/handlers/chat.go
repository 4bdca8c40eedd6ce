package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aditya3singh/DevConnect/internal/chat"
	"github.com/aditya3singh/DevConnect/internal/models"
	apperrors "github.com/aditya3singh/DevConnect/pkg/errors"
	"github.com/aditya3singh/DevConnect/pkg/logger"
	"github.com/gin-gonic/gin"
)

// chatErrorResponse maps the chat core's error taxonomy onto an AppError and
// hands it to the error middleware, which writes the response.
func chatErrorResponse(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	switch {
	case chat.IsValidation(err):
		appErr = apperrors.BadRequest(err.Error())
	case errors.Is(err, chat.ErrNotFoundOrForbidden), errors.Is(err, chat.ErrRoomNotFound):
		appErr = apperrors.NotFound("Chat room not found or access denied")
	case errors.Is(err, chat.ErrAlreadyMember):
		appErr = apperrors.Conflict("Already a member of this room")
	case errors.Is(err, chat.ErrForbidden):
		appErr = apperrors.Forbidden("Cannot join this room without an invitation")
	default:
		logger.Error().Err(err).Msg("Chat operation failed")
		appErr = apperrors.Internal("Internal server error")
	}
	c.Error(appErr)
}

// ListChatRooms GET /chat/rooms
func ListChatRooms(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	rooms, err := ChatHub.Rooms.ListForUser(userID)
	if err != nil {
		chatErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateChatRoom POST /chat/rooms
func CreateChatRoom(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var req struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		Participants []string `json:"participants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	room, err := ChatHub.Rooms.Create(userID, req.Name, models.RoomType(req.Type), req.Participants)
	if err != nil {
		chatErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// GetRoomMessages GET /chat/rooms/:roomId/messages?page=&limit=
func GetRoomMessages(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	roomID := c.Param("roomId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, total, err := ChatHub.Rooms.History(roomID, userID, page, limit)
	if err != nil {
		chatErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// JoinChatRoom POST /chat/rooms/:roomId/join
func JoinChatRoom(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	roomID := c.Param("roomId")

	room, err := ChatHub.Rooms.Join(roomID, userID)
	if err != nil {
		chatErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room})
}

// LeaveChatRoom POST /chat/rooms/:roomId/leave
func LeaveChatRoom(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	roomID := c.Param("roomId")

	if err := ChatHub.Rooms.Leave(roomID, userID); err != nil {
		chatErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left chat room successfully"})
}

// InviteToChatRoom POST /chat/rooms/:roomId/invite
func InviteToChatRoom(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	roomID := c.Param("roomId")

	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := ChatHub.Rooms.Invite(roomID, userID, req.UserID); err != nil {
		chatErrorResponse(c, err)
		return
	}

	// Live nudge if the invitee is connected; the invitation record is the
	// durable part.
	ChatHub.EmitToUser(req.UserID, "room_invite", gin.H{
		"roomId":    roomID,
		"invitedBy": userID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}

// GetOnlineUsers GET /chat/online
func GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": ChatHub.Registry.Count(),
		"users": ChatHub.Registry.OnlineUserIDs(),
	})
}
