package api

import (
	"net/http"
	"strings"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ==================== objects (props) ====================

func (h *Handler) CreateObject(c *gin.Context) {
	var o models.Object
	if err := c.ShouldBindJSON(&o); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(o.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	ctx := c.Request.Context()
	projectID := c.Param("project_id")
	if _, err := h.Store.GetProject(ctx, projectID); err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	o.ID = uuid.NewString()
	o.ProjectID = projectID
	if err := h.Store.CreateObject(ctx, &o); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListObjects(c *gin.Context) {
	objs, err := h.Store.ListObjects(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"objects": objs, "total": len(objs)})
}

func (h *Handler) GetObject(c *gin.Context) {
	o, err := h.Store.GetObject(c.Request.Context(), c.Param("project_id"), c.Param("object_id"))
	if err != nil {
		h.respondError(c, err, "Object not found")
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateObject replaces the editable fields; id, project and creation time stay.
func (h *Handler) UpdateObject(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.Store.GetObject(ctx, c.Param("project_id"), c.Param("object_id"))
	if err != nil {
		h.respondError(c, err, "Object not found")
		return
	}
	id, projectID, created := o.ID, o.ProjectID, o.CreatedAt
	if err := c.ShouldBindJSON(o); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(o.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	o.ID, o.ProjectID, o.CreatedAt = id, projectID, created
	if err := h.Store.SaveObject(ctx, o); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteObject(c *gin.Context) {
	if err := h.Store.DeleteObject(c.Request.Context(), c.Param("project_id"), c.Param("object_id")); err != nil {
		h.respondError(c, err, "Object not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
