package profile

import "github.com/gin-gonic/gin"

// RegisterRoutes registers all profile routes
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	profile := r.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)

		sessions := profile.Group("/editor/sessions")
		sessions.POST("", h.OpenSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.POST("/:id/reload", h.Reload)
		sessions.POST("/:id/edit", h.EnterEdit)
		sessions.PATCH("/:id/fields", h.UpdateField)
		sessions.POST("/:id/cancel", h.CancelEdit)
		sessions.POST("/:id/save", h.Save)
		sessions.POST("/:id/saved/dismiss", h.DismissSaved)
	}
}

// RegisterWSRoutes registers the websocket endpoint. It authenticates on its own.
func RegisterWSRoutes(r *gin.RouterGroup, ws *WSHandler) {
	r.GET("/ws/profile/editor/:id", ws.HandleWebSocket)
}
