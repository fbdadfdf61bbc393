package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"StoryForge-server/compiler"
	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultCompilationLimit = 20
	maxCompilationLimit     = 200
)

type batchRequest struct {
	ShotIDs []string `json:"shot_ids" binding:"required"`
}

// CompileShot: POST /v1/api/projects/:project_id/compile
func (h *Handler) CompileShot(c *gin.Context) {
	var req compiler.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.ProjectID = c.Param("project_id")
	switch {
	case !models.ValidEnum(req.EmotionalZone, models.EmotionalZones):
		badRequest(c, "invalid emotional_zone")
		return
	case !models.ValidEnum(req.Framing, models.Framings):
		badRequest(c, "invalid framing")
		return
	case !models.ValidEnum(req.CameraMovement, models.CameraMovements):
		badRequest(c, "invalid camera_movement")
		return
	}
	out, err := h.Compiler.Compile(c.Request.Context(), req)
	if err != nil {
		msg := "Project not found"
		if errors.Is(err, compiler.ErrShotNotFound) {
			msg = compiler.ShotNotFound
		}
		h.respondError(c, err, msg)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CompileBatch compiles the listed shots inside the request.
func (h *Handler) CompileBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.Compiler.CompileBatch(c.Request.Context(), c.Param("project_id"), req.ShotIDs, nil)
	if err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// 批量编译异步任务: 创建 job 并推送到队列，进度通过 /jobs/:job_id/ws 查看
func (h *Handler) CompileBatchAsync(c *gin.Context) {
	if h.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue is not configured"})
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	projectID := c.Param("project_id")
	if _, err := h.Store.GetProject(ctx, projectID); err != nil {
		h.respondError(c, err, "Project not found")
		return
	}

	job := models.Job{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Type:       models.JobTypeBatchCompile,
		Status:     models.JobStatusPending,
		Message:    "queued",
		Parameters: models.JobParameters{ShotIDs: req.ShotIDs},
	}
	if err := h.Store.CreateJob(ctx, &job); err != nil {
		h.respondError(c, err, "")
		return
	}
	if err := h.Queue.EnqueueBatch(ctx, job.ID); err != nil {
		h.Log.Error("enqueue batch failed", "job_id", job.ID, "error", err)
		_ = job.UpdateStatus(ctx, h.Store.DB(), models.JobStatusFailed, nil, "enqueue failed: "+err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (h *Handler) ContinuityChain(c *gin.Context) {
	projectID := c.Param("project_id")
	chain, err := h.Compiler.Chain(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": projectID, "chain": chain})
}

// ListCompilations returns the compilation history, newest first.
func (h *Handler) ListCompilations(c *gin.Context) {
	limit := defaultCompilationLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCompilationLimit)
	}
	list, err := h.Store.ListCompilations(c.Request.Context(), c.Param("project_id"), c.Query("shot_id"), limit)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"compilations": list})
}

// ExportPacket uploads the project's prompt packet to object storage.
func (h *Handler) ExportPacket(c *gin.Context) {
	if h.Packets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}
	res, err := h.Packets.Export(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	c.JSON(http.StatusOK, res)
}
