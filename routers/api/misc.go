package api

import (
	"net/http"
	"strings"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.Store.DashboardStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Enums lists every enumerated value clients may send.
func (h *Handler) Enums(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"production_stages": models.ProductionStages,
		"emotional_zones":   models.EmotionalZones,
		"framings":          models.Framings,
		"camera_movements":  models.CameraMovements,
		"transitions":       models.Transitions,
	})
}

// SeedMito loads the sample project once; later calls report already_seeded.
func (h *Handler) SeedMito(c *gin.Context) {
	res, err := h.Store.SeedMito(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

// PutSecret stores a named credential. The value is never echoed back.
func (h *Handler) PutSecret(c *gin.Context) {
	if h.Secrets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "secret store is not configured"})
		return
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	name := c.Param("name")
	if strings.TrimSpace(body.Value) == "" {
		badRequest(c, "value is required")
		return
	}
	if err := h.Secrets.Put(c.Request.Context(), name, strings.TrimSpace(body.Value)); err != nil {
		h.respondError(c, err, "")
		return
	}
	h.Log.Info("secret stored", "name", name)
	c.JSON(http.StatusOK, gin.H{"status": "stored", "name": name})
}
