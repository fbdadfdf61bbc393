package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"StoryForge-server/compiler"
	"StoryForge-server/config"
	"StoryForge-server/logger"
	"StoryForge-server/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore uploads a blob and returns a URL it can be fetched from.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64) (string, error)
}

type MinIOStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	log    *logger.Logger
}

func NewMinIOStore(cfg *config.Config, baseLog *logger.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	return &MinIOStore{
		client: client,
		bucket: cfg.MinIO.Bucket,
		expiry: 72 * time.Hour,
		log:    baseLog.With("component", "minio"),
	}, nil
}

func contentTypeFor(objectName string) string {
	switch filepath.Ext(objectName) {
	case ".json":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	}
	return "application/octet-stream"
}

// Upload stores the reader under objectName, creating the bucket on first
// use, and returns a presigned GET URL.
func (m *MinIOStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64) (string, error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
		m.log.Info("bucket created", "bucket", m.bucket)
	}

	_, err = m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentTypeFor(objectName),
	})
	if err != nil {
		return "", fmt.Errorf("upload to minio: %w", err)
	}

	presigned, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, m.expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}
	m.log.Info("object uploaded", "object", objectName)
	return presigned.String(), nil
}

// Packet is the prompt bundle handed to the generation tools: every shot in
// continuity order with its most recent compilation.
type Packet struct {
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	AspectRatio string       `json:"aspect_ratio"`
	GeneratedAt time.Time    `json:"generated_at"`
	Shots       []PacketShot `json:"shots"`
}

type PacketShot struct {
	compiler.ChainLink
	DurationTargetSec float64         `json:"duration_target_sec"`
	Framing           string          `json:"framing"`
	CameraMovement    string          `json:"camera_movement"`
	CompilationID     string          `json:"compilation_id,omitempty"`
	CompiledAt        *time.Time      `json:"compiled_at,omitempty"`
	ParseError        bool            `json:"parse_error,omitempty"`
	Prompts           json.RawMessage `json:"prompts,omitempty"`
}

// BuildPacket assembles a packet. Shots with no compilation are included
// without prompts.
func BuildPacket(project *models.Project, shots []models.Shot, latest map[string]models.Compilation, now time.Time) Packet {
	chain := compiler.BuildChain(shots)
	byID := make(map[string]models.Shot, len(shots))
	for _, s := range shots {
		byID[s.ID] = s
	}
	pk := Packet{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		AspectRatio: project.DefaultAspectRatio,
		GeneratedAt: now.UTC(),
		Shots:       make([]PacketShot, 0, len(chain)),
	}
	for _, link := range chain {
		s := byID[link.ShotID]
		ps := PacketShot{
			ChainLink:         link,
			DurationTargetSec: s.DurationTargetSec,
			Framing:           s.Framing,
			CameraMovement:    s.CameraMovement,
		}
		if c, ok := latest[link.ShotID]; ok {
			at := c.CreatedAt
			ps.CompilationID = c.ID
			ps.CompiledAt = &at
			ps.ParseError = c.ParseError
			ps.Prompts = json.RawMessage(c.Output)
		}
		pk.Shots = append(pk.Shots, ps)
	}
	return pk
}

type ExportResult struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
	Shots      int    `json:"shots"`
	Compiled   int    `json:"compiled"`
}

// PacketExporter writes a project's prompt packet to object storage.
type PacketExporter struct {
	store   *models.Store
	objects ObjectStore
	log     *logger.Logger
	now     func() time.Time
}

func NewPacketExporter(store *models.Store, objects ObjectStore, baseLog *logger.Logger) *PacketExporter {
	return &PacketExporter{
		store:   store,
		objects: objects,
		log:     baseLog.With("component", "packets"),
		now:     time.Now,
	}
}

// Export fails with models.ErrNotFound for an unknown project.
func (e *PacketExporter) Export(ctx context.Context, projectID string) (*ExportResult, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	shots, err := e.store.ListShots(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	latest, err := e.store.LatestCompilations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	pk := BuildPacket(project, shots, latest, now)
	body, err := json.MarshalIndent(pk, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}

	objectName := fmt.Sprintf("packets/%s/%s.json", projectID, now.UTC().Format("20060102T150405Z"))
	u, err := e.objects.Upload(ctx, objectName, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}
	res := &ExportResult{ObjectName: objectName, URL: u, Shots: len(pk.Shots)}
	for _, s := range pk.Shots {
		if s.CompilationID != "" {
			res.Compiled++
		}
	}
	e.log.Info("packet exported", "project_id", projectID, "object", objectName, "shots", res.Shots)
	return res, nil
}
