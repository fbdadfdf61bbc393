package api

import (
	"net/http"
	"strings"

	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// projectView is a project together with its derived progress numbers.
type projectView struct {
	*models.Project
	*models.ProjectStats
}

func (h *Handler) projectView(c *gin.Context, p *models.Project) (*projectView, bool) {
	stats, err := h.Store.ProjectStats(c.Request.Context(), p.ID)
	if err != nil {
		h.respondError(c, err, "Project not found")
		return nil, false
	}
	return &projectView{Project: p, ProjectStats: stats}, true
}

// 创建项目: POST /v1/api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var p models.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	p.ID = uuid.NewString()
	if err := h.Store.CreateProject(c.Request.Context(), &p); err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Store.ListProjects(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	out := make([]*projectView, 0, len(projects))
	for i := range projects {
		v, ok := h.projectView(c, &projects[i])
		if !ok {
			return
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"projects": out, "total": len(out)})
}

// 获取项目详情: GET /v1/api/projects/:project_id
func (h *Handler) GetProject(c *gin.Context) {
	p, err := h.Store.GetProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	if v, ok := h.projectView(c, p); ok {
		c.JSON(http.StatusOK, v)
	}
}

// UpdateProject merges the body onto the stored project.
func (h *Handler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.Store.GetProject(ctx, c.Param("project_id"))
	if err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	id, created := p.ID, p.CreatedAt
	if err := c.ShouldBindJSON(p); err != nil {
		badRequest(c, err.Error())
		return
	}
	p.ID, p.CreatedAt = id, created
	if err := h.Store.SaveProject(ctx, p); err != nil {
		h.respondError(c, err, "")
		return
	}
	if v, ok := h.projectView(c, p); ok {
		c.JSON(http.StatusOK, v)
	}
}

// 删除项目及其下所有世界、角色、道具、场景和分镜
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.Store.DeleteProject(c.Request.Context(), c.Param("project_id")); err != nil {
		h.respondError(c, err, "Project not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
