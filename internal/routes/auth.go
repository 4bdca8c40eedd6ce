package routes

import (
	"github.com/aditya3singh/DevConnect/internal/handlers"
	"github.com/aditya3singh/DevConnect/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.GET("/me", middleware.AuthMiddleware(), handlers.Me)
}
