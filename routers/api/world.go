package api

import (
	"net/http"
	"strings"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ==================== worlds ====================

func (h *Handler) CreateWorld(c *gin.Context) {
	projectID := c.Param("project_id")
	var w models.World
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(w.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	if !models.ValidEnum(w.EmotionalZone, models.EmotionalZones) {
		badRequest(c, "invalid emotional_zone")
		return
	}
	w.ID = uuid.NewString()
	w.ProjectID = &projectID
	if err := h.Store.CreateWorld(c.Request.Context(), &w); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) ListWorlds(c *gin.Context) {
	worlds, err := h.Store.ListWorlds(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"worlds": worlds, "total": len(worlds)})
}

func (h *Handler) loadWorld(c *gin.Context) (*models.World, bool) {
	w, err := h.Store.GetWorld(c.Request.Context(), c.Param("world_id"))
	if err == nil && (w.ProjectID == nil || *w.ProjectID != c.Param("project_id")) {
		err = models.ErrNotFound
	}
	if err != nil {
		h.respondError(c, err, "World not found")
		return nil, false
	}
	return w, true
}

func (h *Handler) GetWorld(c *gin.Context) {
	if w, ok := h.loadWorld(c); ok {
		c.JSON(http.StatusOK, w)
	}
}

func (h *Handler) UpdateWorld(c *gin.Context) {
	w, ok := h.loadWorld(c)
	if !ok {
		return
	}
	id, projectID, created := w.ID, w.ProjectID, w.CreatedAt
	if err := c.ShouldBindJSON(w); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !models.ValidEnum(w.EmotionalZone, models.EmotionalZones) {
		badRequest(c, "invalid emotional_zone")
		return
	}
	w.ID, w.ProjectID, w.CreatedAt = id, projectID, created
	if err := h.Store.SaveWorld(c.Request.Context(), w); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWorld(c *gin.Context) {
	if err := h.Store.DeleteWorld(c.Request.Context(), c.Param("project_id"), c.Param("world_id")); err != nil {
		h.respondError(c, err, "World not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ==================== characters ====================

func (h *Handler) CreateCharacter(c *gin.Context) {
	var ch models.Character
	if err := c.ShouldBindJSON(&ch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(ch.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	ch.ID = uuid.NewString()
	ch.ProjectID = c.Param("project_id")
	if err := h.Store.CreateCharacter(c.Request.Context(), &ch); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) ListCharacters(c *gin.Context) {
	chars, err := h.Store.ListCharacters(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars, "total": len(chars)})
}

func (h *Handler) GetCharacter(c *gin.Context) {
	ch, err := h.Store.GetCharacter(c.Request.Context(), c.Param("project_id"), c.Param("character_id"))
	if err != nil {
		h.respondError(c, err, "Character not found")
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) UpdateCharacter(c *gin.Context) {
	ctx := c.Request.Context()
	ch, err := h.Store.GetCharacter(ctx, c.Param("project_id"), c.Param("character_id"))
	if err != nil {
		h.respondError(c, err, "Character not found")
		return
	}
	id, projectID, created := ch.ID, ch.ProjectID, ch.CreatedAt
	if err := c.ShouldBindJSON(ch); err != nil {
		badRequest(c, err.Error())
		return
	}
	ch.ID, ch.ProjectID, ch.CreatedAt = id, projectID, created
	if err := h.Store.SaveCharacter(ctx, ch); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	if err := h.Store.DeleteCharacter(c.Request.Context(), c.Param("project_id"), c.Param("character_id")); err != nil {
		h.respondError(c, err, "Character not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
