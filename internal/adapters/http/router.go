package http

import (
	"context"
	"slices"

	"github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenSessionKey = "ct"

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware keeps a stable per-browser token in the session cookie.
// Clients may reuse it as their logical id so reconnects land in the same slot.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenSessionKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenSessionKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

// CORSMiddleware answers preflight requests and tags responses for allowed origins.
// An empty list allows any origin.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (len(allowed) == 0 || slices.Contains(allowed, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CodeRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	h := &Handlers{Orch: o}
	r.GET("/healthz", h.Health)

	ctrl := signal.NewSignalWSController(o, signal.OptionsFromConfig(cfg))

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString(signal.ClientTokenKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)
	api.GET("/rooms/:id/participants", h.GetParticipants)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
