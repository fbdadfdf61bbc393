package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StoryForge-server/compiler"
	"StoryForge-server/logger"
	"StoryForge-server/models"
	"StoryForge-server/service"

	"github.com/gin-gonic/gin"
)

// Compiler is the compile surface the handlers drive.
type Compiler interface {
	Compile(ctx context.Context, req compiler.Request) (*compiler.Outcome, error)
	CompileBatch(ctx context.Context, projectID string, shotIDs []string, progress compiler.Progress) (*compiler.BatchResult, error)
	Chain(ctx context.Context, projectID string) ([]compiler.ChainLink, error)
}

type BatchQueue interface {
	EnqueueBatch(ctx context.Context, jobID string) error
}

type PacketExporter interface {
	Export(ctx context.Context, projectID string) (*service.ExportResult, error)
}

type SecretWriter interface {
	Put(ctx context.Context, name, value string) error
}

// Handler carries the dependencies of every route. Queue and Packets are
// optional; their routes answer 503 when unset.
type Handler struct {
	Store    *models.Store
	Compiler Compiler
	Queue    BatchQueue
	Packets  PacketExporter
	Secrets  SecretWriter
	Log      *logger.Logger

	// PollInterval is how often the job websocket re-reads the job row.
	PollInterval time.Duration
}

// respondError maps domain errors onto status codes.
func (h *Handler) respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, compiler.ErrNotFound), errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, models.ErrSceneMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "scene not found in project"})
	case errors.Is(err, compiler.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI compilation failed: " + err.Error()})
	case errors.Is(err, compiler.ErrMissingCredential):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
