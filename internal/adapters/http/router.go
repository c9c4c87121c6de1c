package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/adapters/signal"
	"github.com/snacka/voice/internal/app/orch"
	"github.com/snacka/voice/internal/config"
	"github.com/snacka/voice/internal/domain"
)

// UserIdentityMiddleware stands in for the chat backend's JWT layer: it pins
// a stable user id to the client via cookie. Every downstream handler trusts
// c.GetString("user_id") the way the hub trusts a verified token claim.
func UserIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie("uid")
		if id == "" {
			id = uuid.NewString()
			c.SetCookie("uid", id, 3600*24*7, "/", "", false, true)
		}
		c.Set("user_id", id)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SnackaVoice", store))
	r.Use(UserIdentityMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("user_id")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	api.GET("/voice/:channel/participants", func(c *gin.Context) {
		channel := domain.ChannelID(c.Param("channel"))
		c.JSON(http.StatusOK, gin.H{
			"channel":      channel,
			"participants": o.Participants(channel),
		})
	})

	return r
}
