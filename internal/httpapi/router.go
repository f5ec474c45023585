package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rankscout/rankscout/internal/common"
	"github.com/rankscout/rankscout/internal/httpapi/handlers"
	"github.com/rankscout/rankscout/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, rds *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// users
	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// Research (JWT required)
	authGroup.POST("/research/turns",
		middleware.RateLimit(rds, h.Cfg.TurnRateLimit), h.SendTurn)
	authGroup.GET("/research/sessions", h.ListSessions)
	authGroup.GET("/research/sessions/:session_id", h.GetSession)
	authGroup.GET("/research/sessions/:session_id/trace", h.DownloadTrace)

	return r
}
