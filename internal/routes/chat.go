package routes

import (
	"github.com/aditya3singh/DevConnect/internal/handlers"
	"github.com/aditya3singh/DevConnect/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/rooms", handlers.ListChatRooms)
		chat.POST("/rooms", handlers.CreateChatRoom)
		chat.GET("/rooms/:roomId/messages", handlers.GetRoomMessages)
		chat.POST("/rooms/:roomId/join", handlers.JoinChatRoom)
		chat.POST("/rooms/:roomId/leave", handlers.LeaveChatRoom)
		chat.POST("/rooms/:roomId/invite", handlers.InviteToChatRoom)
		chat.GET("/online", handlers.GetOnlineUsers)
	}
}
