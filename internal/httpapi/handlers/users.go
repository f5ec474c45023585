package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rankscout/rankscout/internal/auth"
	"github.com/rankscout/rankscout/internal/common"
	"github.com/rankscout/rankscout/internal/models"
	"github.com/rankscout/rankscout/internal/username"
)

type createUserReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Name == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "name and password required")
		return
	}

	base := username.NormalizeBaseName(req.Name)
	if base == "" {
		common.Fail(c, http.StatusBadRequest, 10005, "name has no usable characters")
		return
	}

	uname, err := username.Generate(base, func(candidate string) (bool, error) {
		var cnt int64
		err := h.DB.WithContext(c.Request.Context()).
			Model(&models.User{}).
			Where("username_key = ?", candidate).
			Count(&cnt).Error
		return cnt > 0, err
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20006, "failed to allocate username")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	user := models.User{
		Username:     uname,
		UsernameKey:  uname,
		PasswordHash: hash,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "failed to create user")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"token":    token,
	})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "username and password required")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("username_key = ?", username.NormalizeBaseName(req.Username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"token":    token,
	})
}

func (h *Handler) Me(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}
