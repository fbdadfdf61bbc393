package api

import (
	"net/http"
	"strings"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func checkShotEnums(framing, camera, transitionIn, transitionOut, status string) string {
	switch {
	case !models.ValidEnum(framing, models.Framings):
		return "invalid framing"
	case !models.ValidEnum(camera, models.CameraMovements):
		return "invalid camera_movement"
	case !models.ValidEnum(transitionIn, models.Transitions):
		return "invalid transition_in"
	case !models.ValidEnum(transitionOut, models.Transitions):
		return "invalid transition_out"
	case !models.ValidEnum(status, models.ProductionStages):
		return "invalid production_status"
	}
	return ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// 创建分镜: scene_id 必须属于同一项目
func (h *Handler) CreateShot(c *gin.Context) {
	var s models.Shot
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(s.SceneID) == "" {
		badRequest(c, "scene_id is required")
		return
	}
	if msg := checkShotEnums(s.Framing, s.CameraMovement, s.TransitionIn, s.TransitionOut, s.ProductionStatus); msg != "" {
		badRequest(c, msg)
		return
	}
	s.ID = uuid.NewString()
	s.ProjectID = c.Param("project_id")
	s.GenerationLog = nil
	if err := h.Store.CreateShot(c.Request.Context(), &s); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, s)
}

// 获取分镜列表，可按 scene_id 过滤
func (h *Handler) ListShots(c *gin.Context) {
	projectID := c.Param("project_id")
	shots, err := h.Store.ListShots(c.Request.Context(), projectID, c.Query("scene_id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"shots":       shots,
		"project_id":  projectID,
		"total_shots": len(shots),
	})
}

func (h *Handler) GetShot(c *gin.Context) {
	s, err := h.Store.GetShot(c.Request.Context(), c.Param("project_id"), c.Param("shot_id"))
	if err != nil {
		h.respondError(c, err, "Shot not found")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateShot changes only the fields present in the body.
func (h *Handler) UpdateShot(c *gin.Context) {
	var patch models.ShotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !patch.Apply(&models.Shot{}) {
		badRequest(c, "No fields to update")
		return
	}
	msg := checkShotEnums(deref(patch.Framing), deref(patch.CameraMovement),
		deref(patch.TransitionIn), deref(patch.TransitionOut), deref(patch.ProductionStatus))
	if msg != "" {
		badRequest(c, msg)
		return
	}
	s, err := h.Store.UpdateShot(c.Request.Context(), c.Param("project_id"), c.Param("shot_id"), patch)
	if err != nil {
		h.respondError(c, err, "Shot not found")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateShotStatus moves a shot to another production stage: PATCH ...?status=
func (h *Handler) UpdateShotStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" || !models.ValidEnum(status, models.ProductionStages) {
		badRequest(c, "Invalid status. Must be one of: "+strings.Join(models.ProductionStages, ", "))
		return
	}
	if err := h.Store.SetShotStatus(c.Request.Context(), c.Param("project_id"), c.Param("shot_id"), status); err != nil {
		h.respondError(c, err, "Shot not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "new_status": status})
}

func (h *Handler) DeleteShot(c *gin.Context) {
	if err := h.Store.DeleteShot(c.Request.Context(), c.Param("project_id"), c.Param("shot_id")); err != nil {
		h.respondError(c, err, "Shot not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
