package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StoryForge-server/models"
)

const BatchStatus = "batch_compiled"

// BatchItem is one entry of a batch result. Found shots carry ShotNumber;
// failed items carry Error and no result.
type BatchItem struct {
	ShotID     string `json:"shot_id"`
	ShotNumber *int   `json:"shot_number,omitempty"`
	*Outcome
	Error string `json:"error,omitempty"`
}

type BatchResult struct {
	Status  string      `json:"status"`
	Results []BatchItem `json:"results"`
	Total   int         `json:"total"`
}

// Progress is told about each finished batch item.
type Progress func(done, total int, item BatchItem)

// batchReader serves the project and worlds loaded at batch start so each
// item only goes to the store for its characters.
type batchReader struct {
	store   EntityReader
	project *models.Project
	worlds  map[string]*models.World
}

func (r *batchReader) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if r.project != nil && r.project.ID == id {
		return r.project, nil
	}
	return r.store.GetProject(ctx, id)
}

func (r *batchReader) GetWorld(ctx context.Context, id string) (*models.World, error) {
	if w, ok := r.worlds[id]; ok {
		if w == nil {
			return nil, models.ErrNotFound
		}
		return w, nil
	}
	w, err := r.store.GetWorld(ctx, id)
	switch {
	case err == nil:
		r.worlds[id] = w
	case errors.Is(err, models.ErrNotFound):
		r.worlds[id] = nil
	}
	return w, err
}

func (r *batchReader) GetCharacters(ctx context.Context, projectID string, ids []string) ([]models.Character, error) {
	return r.store.GetCharacters(ctx, projectID, ids)
}

// CompileBatch compiles the given shots one after another in the order
// given. Project lookup and the credential check happen once up front and
// are the only errors returned; per-shot failures land in that item's Error.
func (c *Compiler) CompileBatch(ctx context.Context, projectID string, shotIDs []string, progress Progress) (*BatchResult, error) {
	project, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}
	shots, err := c.store.ListShots(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	ordered := OrderShots(shots)
	position := make(map[string]int, len(ordered))
	for i, s := range ordered {
		position[s.ID] = i
	}
	scenes, err := c.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sceneByID := make(map[string]*models.Scene, len(scenes))
	for i := range scenes {
		sceneByID[scenes[i].ID] = &scenes[i]
	}
	worlds, err := c.store.ListWorlds(ctx, projectID)
	if err != nil {
		return nil, err
	}
	reader := &batchReader{store: c.store, project: project, worlds: make(map[string]*models.World, len(worlds))}
	for i := range worlds {
		reader.worlds[worlds[i].ID] = &worlds[i]
	}

	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Info("batch compile started", "project_id", projectID, "shots", len(shotIDs))
	out := &BatchResult{Status: BatchStatus, Results: make([]BatchItem, 0, len(shotIDs)), Total: len(shotIDs)}
	for n, id := range shotIDs {
		item := BatchItem{ShotID: id}
		if i, ok := position[id]; ok {
			shot := ordered[i]
			number := shot.ShotNumber
			item.ShotNumber = &number
			prev, next := Neighbors(ordered, i)
			req := shotRequest(projectID, shot, sceneByID[shot.SceneID], prev, next)
			outcome, err := c.compileItem(ctx, reader, key, req)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Outcome = outcome
			}
		} else {
			item.Error = ShotNotFound
		}
		out.Results = append(out.Results, item)
		if progress != nil {
			progress(n+1, len(shotIDs), item)
		}
	}
	c.log.Info("batch compile finished", "project_id", projectID, "total", out.Total)
	return out, nil
}

// compileItem runs one batch item; a panic is reported as that item's error.
func (c *Compiler) compileItem(ctx context.Context, reader EntityReader, key string, req Request) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("batch item panicked", "shot_id", req.ShotID, "panic", r)
			outcome, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return c.compileWith(ctx, reader, key, req)
}

// shotRequest derives a compilation request from a stored shot and its scene.
func shotRequest(projectID string, shot models.Shot, scene *models.Scene, prevLastFrame, nextFirstFrame string) Request {
	req := Request{
		ProjectID:        projectID,
		ShotID:           shot.ID,
		SceneDescription: shot.Description,
		Framing:          shot.Framing,
		CameraMovement:   shot.CameraMovement,
		ReferenceImages:  shot.ReferenceImages,
		PrevLastFrame:    prevLastFrame,
		NextFirstFrame:   nextFirstFrame,
	}
	var notes []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			notes = append(notes, label+": "+v)
		}
	}
	if scene != nil {
		if scene.WorldID != nil {
			req.WorldID = *scene.WorldID
		}
		req.CharacterIDs = scene.CharacterIDs
		req.EmotionalZone = scene.EmotionalZone
		req.TimeOfDay = scene.TimeOfDay
		req.Weather = scene.Weather
		if strings.TrimSpace(req.SceneDescription) == "" {
			req.SceneDescription = scene.Synopsis
		}
		add("Scene", scene.Title)
		add("Narrative Purpose", scene.NarrativePurpose)
	}
	add("Camera Notes", shot.CameraNotes)
	add("Intent", shot.Intent)
	add("Constraint", shot.Constraint)
	add("Emission", shot.Emission)
	add("Sound Design", shot.SoundDesign)
	add("Volume Layers", shot.VolumeLayers)
	add("Spatial", shot.Spatial)
	add("Narrative", shot.Narrative)
	add("Exclude", shot.Exclude)
	add("Transition In", shot.TransitionIn)
	add("Transition Out", shot.TransitionOut)
	req.AdditionalContext = strings.Join(notes, "\n")
	return req
}
