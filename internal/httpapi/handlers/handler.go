package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rankscout/rankscout/internal/common"
	"github.com/rankscout/rankscout/internal/config"
	"github.com/rankscout/rankscout/internal/httpapi/middleware"
	"github.com/rankscout/rankscout/internal/research"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Logger   *zap.Logger
	Research *research.Service
	Sessions *research.Repo
	Redis    *redis.Client
}

func NewHandler(db *gorm.DB, cfg config.Config, logger *zap.Logger, svc *research.Service, sessions *research.Repo, rds *redis.Client) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Logger:   logger,
		Research: svc,
		Sessions: sessions,
		Redis:    rds,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
