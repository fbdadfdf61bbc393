package api

import (
	"net/http"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func validScene(s *models.Scene) string {
	if !models.ValidEnum(s.EmotionalZone, models.EmotionalZones) {
		return "invalid emotional_zone"
	}
	if s.DramaticTension < 0 || s.DramaticTension > 10 {
		return "dramatic_tension must be between 0 and 10"
	}
	return ""
}

func (h *Handler) CreateScene(c *gin.Context) {
	var s models.Scene
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, err.Error())
		return
	}
	if msg := validScene(&s); msg != "" {
		badRequest(c, msg)
		return
	}
	s.ID = uuid.NewString()
	s.ProjectID = c.Param("project_id")
	if err := h.Store.CreateScene(c.Request.Context(), &s); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListScenes returns scenes by scene number with their shot counts.
func (h *Handler) ListScenes(c *gin.Context) {
	scenes, err := h.Store.ListScenes(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenes": scenes, "total": len(scenes)})
}

func (h *Handler) GetScene(c *gin.Context) {
	s, err := h.Store.GetScene(c.Request.Context(), c.Param("project_id"), c.Param("scene_id"))
	if err != nil {
		h.respondError(c, err, "Scene not found")
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateScene(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.Store.GetScene(ctx, c.Param("project_id"), c.Param("scene_id"))
	if err != nil {
		h.respondError(c, err, "Scene not found")
		return
	}
	id, projectID, created := s.ID, s.ProjectID, s.CreatedAt
	if err := c.ShouldBindJSON(s); err != nil {
		badRequest(c, err.Error())
		return
	}
	if msg := validScene(s); msg != "" {
		badRequest(c, msg)
		return
	}
	s.ID, s.ProjectID, s.CreatedAt = id, projectID, created
	if err := h.Store.SaveScene(ctx, s); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteScene also removes the scene's shots.
func (h *Handler) DeleteScene(c *gin.Context) {
	if err := h.Store.DeleteScene(c.Request.Context(), c.Param("project_id"), c.Param("scene_id")); err != nil {
		h.respondError(c, err, "Scene not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
