package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StoryForge-server/llm"
	"StoryForge-server/logger"
	"StoryForge-server/models"
)

// Store is everything the compiler reads from or appends to.
type Store interface {
	EntityReader
	CompilationLog
	ListShots(ctx context.Context, projectID, sceneID string) ([]models.Shot, error)
	ListScenes(ctx context.Context, projectID string) ([]models.Scene, error)
	ListWorlds(ctx context.Context, projectID string) ([]models.World, error)
	GetShot(ctx context.Context, projectID, id string) (*models.Shot, error)
	AppendGenerationLog(ctx context.Context, projectID, shotID string, entry models.GenerationEntry) error
}

// Credentials resolves a named secret.
type Credentials interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Outcome is what a single compile hands back to its caller.
type Outcome struct {
	Status        string `json:"status"`
	Result        Result `json:"result"`
	CompilationID string `json:"compilation_id,omitempty"`
	ParseError    bool   `json:"parse_error,omitempty"`
}

type Compiler struct {
	store    Store
	creds    Credentials
	keyName  string
	enforcer *Enforcer
	log      *logger.Logger
}

// New wires a compiler. keyName is the secret holding the model API key.
func New(store Store, creds Credentials, model llm.Client, keyName string, baseLog *logger.Logger) *Compiler {
	log := baseLog.With("component", "compiler")
	return &Compiler{
		store:    store,
		creds:    creds,
		keyName:  keyName,
		enforcer: NewEnforcer(model, store, log),
		log:      log,
	}
}

func (c *Compiler) apiKey(ctx context.Context) (string, error) {
	key, err := c.creds.Lookup(ctx, c.keyName)
	if err != nil || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, c.keyName)
	}
	return key, nil
}

// Compile runs one compilation. It fails with ErrNotFound for an unknown
// project, ErrShotNotFound for a shot outside the project and ErrUpstream
// when the model call fails, including when no API key is configured.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Outcome, error) {
	bundle, err := NewAssembler(c.store).Assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.ShotID != "" {
		if _, err := c.store.GetShot(ctx, req.ProjectID, req.ShotID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", req.ShotID, ErrShotNotFound)
			}
			return nil, err
		}
	}
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return c.compileBundle(ctx, key, req, bundle)
}

// compileWith is the unit of work shared by Compile and CompileBatch.
func (c *Compiler) compileWith(ctx context.Context, reader EntityReader, key string, req Request) (*Outcome, error) {
	bundle, err := NewAssembler(reader).Assemble(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.compileBundle(ctx, key, req, bundle)
}

func (c *Compiler) compileBundle(ctx context.Context, key string, req Request, bundle Bundle) (*Outcome, error) {
	res, rec, err := c.enforcer.Enforce(ctx, key, req, bundle)
	if err != nil {
		c.log.Error("compile failed", "project_id", req.ProjectID, "shot_id", req.ShotID, "error", err)
		return nil, err
	}
	if req.ShotID != "" {
		entry := models.GenerationEntry{CompilationID: rec.ID, Input: req.SceneDescription}
		if res.ParseError() {
			entry.Error = "JSON parse failed"
		}
		if err := c.store.AppendGenerationLog(ctx, req.ProjectID, req.ShotID, entry); err != nil {
			c.log.Warn("append generation log failed", "shot_id", req.ShotID, "error", err)
		}
	}
	c.log.Info("compiled", "project_id", req.ProjectID, "shot_id", req.ShotID,
		"compilation_id", rec.ID, "parse_error", res.ParseError())
	return &Outcome{
		Status:        models.CompilationStatusCompiled,
		Result:        res,
		CompilationID: rec.ID,
		ParseError:    res.ParseError(),
	}, nil
}

// Chain returns the project's continuity chain.
func (c *Compiler) Chain(ctx context.Context, projectID string) ([]ChainLink, error) {
	if _, err := c.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}
	shots, err := c.store.ListShots(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	return BuildChain(shots), nil
}
