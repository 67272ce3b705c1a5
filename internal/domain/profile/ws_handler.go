package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bankprofile/internal/pkg/jwt"
	"bankprofile/internal/pkg/response"
)

// WSHandler upgrades editor view subscriptions to websockets.
type WSHandler struct {
	hub      *Hub
	sessions *Sessions
	jwt      *jwt.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewWSHandler builds the handler. checkOrigin may be nil to accept any origin.
func NewWSHandler(hub *Hub, sessions *Sessions, jwtService *jwt.Service, checkOrigin func(*http.Request) bool, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WSHandler{
		hub:      hub,
		sessions: sessions,
		jwt:      jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// HandleWebSocket handles GET /ws/profile/editor/:id?token=JWT
//
// Browsers cannot set headers on websocket requests, so the token travels in the query.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	sess, err := h.sessions.Get(c.Param("id"), claims.UserID)
	switch err {
	case nil:
	case ErrNotSessionOwner:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this editor session")
		return
	default:
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Editor session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.log.Debug("editor websocket connected", zap.String("session_id", sess.ID), zap.String("user_id", claims.UserID))
	h.hub.ServeWS(conn, sess.ID, NewViewEvent(sess.ID, sess.Editor.View()))
}
