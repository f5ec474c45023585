package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rankscout/rankscout/internal/common"
	"github.com/rankscout/rankscout/internal/models"
	"github.com/rankscout/rankscout/internal/research"
)

type turnReq struct {
	Message string `json:"message"`
}

// SendTurn streams one research turn over SSE: activity events while the
// assistant works, one content event with the full response, then a
// terminal done or error event.
func (h *Handler) SendTurn(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"streaming unsupported\"}\n\n")
		return
	}

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	ctx := c.Request.Context()
	events := h.Research.ProcessTurn(ctx, uid, user.Username, req.Message)

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			writeJSON(string(ev.Type), ev)
			if ev.Type == research.EventDone || ev.Type == research.EventError {
				return
			}

		case <-ticker.C:
			writeJSON("ping", gin.H{
				"type": "ping",
				"ts":   time.Now().Unix(),
			})

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) ListSessions(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := h.Sessions.ListSessions(c.Request.Context(), uid, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list sessions")
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"session_id": s.SessionID,
			"status":     s.Status,
			"phase":      s.Phase,
			"turn_count": s.TurnCount,
			"created_at": s.CreatedAt,
			"updated_at": s.UpdatedAt,
		})
	}
	common.OK(c, gin.H{"sessions": out})
}

// loadOwnedSession fetches a session and hides other users' sessions behind
// a not-found.
func (h *Handler) loadOwnedSession(c *gin.Context, uid uint64) (*research.Session, bool) {
	sess, err := h.Sessions.GetBySessionID(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "session not found")
			return nil, false
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load session")
		return nil, false
	}
	if sess.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40404, "session not found")
		return nil, false
	}
	return sess, true
}

func (h *Handler) GetSession(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sess, ok := h.loadOwnedSession(c, uid)
	if !ok {
		return
	}
	common.OK(c, sess)
}

// DownloadTrace serves the session's turn trace as a JSON attachment.
func (h *Handler) DownloadTrace(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sess, ok := h.loadOwnedSession(c, uid)
	if !ok {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trace-"+sess.SessionID+".json"))
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.SessionID,
		"trace_id":   sess.TraceID,
		"turns":      sess.Trace.Turns,
	})
}
