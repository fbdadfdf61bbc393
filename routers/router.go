package routers

import (
	"StoryForge-server/config"
	"StoryForge-server/logger"
	"StoryForge-server/routers/api"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *api.Handler, cfg *config.Config, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), CORS(cfg.Server.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1/api")
	{
		v1.POST("/projects", h.CreateProject)
		v1.GET("/projects", h.ListProjects)
		v1.GET("/projects/:project_id", h.GetProject)
		v1.PUT("/projects/:project_id", h.UpdateProject)
		v1.DELETE("/projects/:project_id", h.DeleteProject)

		v1.POST("/projects/:project_id/worlds", h.CreateWorld)
		v1.GET("/projects/:project_id/worlds", h.ListWorlds)
		v1.GET("/projects/:project_id/worlds/:world_id", h.GetWorld)
		v1.PUT("/projects/:project_id/worlds/:world_id", h.UpdateWorld)
		v1.DELETE("/projects/:project_id/worlds/:world_id", h.DeleteWorld)

		v1.POST("/projects/:project_id/characters", h.CreateCharacter)
		v1.GET("/projects/:project_id/characters", h.ListCharacters)
		v1.GET("/projects/:project_id/characters/:character_id", h.GetCharacter)
		v1.PUT("/projects/:project_id/characters/:character_id", h.UpdateCharacter)
		v1.DELETE("/projects/:project_id/characters/:character_id", h.DeleteCharacter)

		v1.POST("/projects/:project_id/objects", h.CreateObject)
		v1.GET("/projects/:project_id/objects", h.ListObjects)
		v1.GET("/projects/:project_id/objects/:object_id", h.GetObject)
		v1.PUT("/projects/:project_id/objects/:object_id", h.UpdateObject)
		v1.DELETE("/projects/:project_id/objects/:object_id", h.DeleteObject)

		v1.POST("/projects/:project_id/scenes", h.CreateScene)
		v1.GET("/projects/:project_id/scenes", h.ListScenes)
		v1.GET("/projects/:project_id/scenes/:scene_id", h.GetScene)
		v1.PUT("/projects/:project_id/scenes/:scene_id", h.UpdateScene)
		v1.DELETE("/projects/:project_id/scenes/:scene_id", h.DeleteScene)

		v1.POST("/projects/:project_id/shots", h.CreateShot)
		v1.GET("/projects/:project_id/shots", h.ListShots)
		v1.GET("/projects/:project_id/shots/:shot_id", h.GetShot)
		v1.PUT("/projects/:project_id/shots/:shot_id", h.UpdateShot)
		v1.PATCH("/projects/:project_id/shots/:shot_id/status", h.UpdateShotStatus)
		v1.DELETE("/projects/:project_id/shots/:shot_id", h.DeleteShot)

		v1.POST("/projects/:project_id/compile", h.CompileShot)
		v1.POST("/projects/:project_id/compile/batch", h.CompileBatch)
		v1.POST("/projects/:project_id/compile/batch/async", h.CompileBatchAsync)
		v1.GET("/projects/:project_id/continuity", h.ContinuityChain)
		v1.GET("/projects/:project_id/compilations", h.ListCompilations)
		v1.POST("/projects/:project_id/packets", h.ExportPacket)

		v1.GET("/jobs/:job_id", h.GetJob)
		v1.GET("/jobs/:job_id/ws", h.JobProgressWebSocket)

		v1.GET("/dashboard/stats", h.DashboardStats)
		v1.GET("/enums", h.Enums)
		v1.POST("/seed/mito", h.SeedMito)
		v1.PUT("/secrets/:name", h.PutSecret)
	}
	return r
}
