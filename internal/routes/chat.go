package routes

import (
	"github.com/Vantorrr/influenta-backend/internal/handlers"
	"github.com/Vantorrr/influenta-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterChatRoutes(r gin.IRouter, h *handlers.ChatHandler) {
	chats := r.Group("/chats")
	chats.Use(middleware.AuthMiddleware())
	{
		chats.GET("", h.ListChats)
		chats.PATCH("/:id/read", h.MarkChatRead)
	}

	messages := r.Group("/messages")
	messages.Use(middleware.AuthMiddleware())
	{
		messages.POST("/send", middleware.ChatRateLimit(), h.SendMessage)
		messages.GET("", h.GetMessages)
		messages.PATCH("/:id/read", h.MarkMessageRead)
	}
}
