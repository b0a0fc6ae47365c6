package routes

import (
	"github.com/Vantorrr/influenta-backend/internal/handlers"
	"github.com/Vantorrr/influenta-backend/internal/middleware"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/gin-gonic/gin"
)

func RegisterOfferRoutes(r gin.IRouter, h *handlers.OfferHandler) {
	offers := r.Group("/offers")
	offers.Use(middleware.AuthMiddleware())
	{
		offers.POST("", middleware.RequireRole(models.RoleAdvertiser), middleware.OfferRateLimit(), h.Create)
		offers.GET("", h.List)
		offers.GET("/:id", h.Get)
		offers.PATCH("/:id/respond", middleware.RequireRole(models.RoleBlogger), h.Respond)
	}
}
