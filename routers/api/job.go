package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 查询任务状态：GET /v1/api/jobs/:job_id
func (h *Handler) GetJob(c *gin.Context) {
	j, err := h.Store.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.respondError(c, err, "Job not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": j})
}

// JobProgressWebSocket pushes the job row whenever its status or progress
// changes and closes after the terminal state has been sent or the client
// goes away. The DB is the only source; the worker writes progress there.
func (h *Handler) JobProgressWebSocket(c *gin.Context) {
	jobID := c.Param("job_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "job_id", jobID, "error", err)
		return
	}
	defer conn.Close()

	// a hijacked connection never cancels the request context, so watch the
	// read side for the close frame instead
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	j, err := h.Store.GetJob(ctx, jobID)
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": "job not found"})
		return
	}
	if err := conn.WriteJSON(j); err != nil || j.Done() {
		return
	}

	interval := h.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prevStatus, prevProgress := j.Status, j.Progress
	for {
		select {
		case <-ctx.Done():
			h.Log.Debug("job websocket client gone", "job_id", jobID)
			return
		case <-ticker.C:
		}
		cur, err := h.Store.GetJob(ctx, jobID)
		if err != nil {
			// 查询失败时继续重试
			continue
		}
		if cur.Status == prevStatus && cur.Progress == prevProgress {
			continue
		}
		if err := conn.WriteJSON(cur); err != nil {
			return
		}
		if cur.Done() {
			return
		}
		prevStatus, prevProgress = cur.Status, cur.Progress
	}
}
