package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bankprofile/internal/domain/profile"
	"bankprofile/internal/middleware"
	jwtsvc "bankprofile/internal/pkg/jwt"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Logger         *zap.Logger
	JWT            *jwtsvc.Service
	Store          profile.Store
	Sessions       *profile.Sessions
	Hub            *profile.Hub
	AllowedOrigins []string
}

// NewRouter wires middleware, the profile API and the editor websocket.
func NewRouter(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(log),
		middleware.RequestLogger(log),
		middleware.CORS(d.AllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	profileHandler := profile.NewHandler(profile.NewService(d.Store), d.Sessions, log)
	wsHandler := profile.NewWSHandler(d.Hub, d.Sessions, d.JWT, middleware.OriginChecker(d.AllowedOrigins), log)

	v1 := r.Group("/api/v1")
	{
		// websocket authenticates with ?token=
		profile.RegisterWSRoutes(v1, wsHandler)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(d.JWT))
		{
			profile.RegisterRoutes(protected, profileHandler)
		}
	}

	return r
}
