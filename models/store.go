package models

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"StoryForge-server/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSceneMismatch is returned when a shot names a scene outside its project.
var ErrSceneMismatch = errors.New("scene does not belong to project")

// Store is the gorm-backed entity store, compilation log and job table.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{db: db, log: baseLog.With("repo", "Store")}
}

func (s *Store) DB() *gorm.DB { return s.db }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ==================== projects ====================

func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	ensureID(&p.ID)
	p.ApplyDefaults()
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) SaveProject(ctx context.Context, p *Project) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// DeleteProject removes the project and everything scoped to it. The
// compilation log is kept.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, m := range []interface{}{&World{}, &Character{}, &Object{}, &Scene{}, &Shot{}} {
			if err := tx.Where("project_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ProjectStats(ctx context.Context, projectID string) (*ProjectStats, error) {
	db := s.db.WithContext(ctx)
	st := &ProjectStats{}
	if err := db.Model(&World{}).Where("project_id = ?", projectID).Count(&st.WorldCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Character{}).Where("project_id = ?", projectID).Count(&st.CharacterCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Object{}).Where("project_id = ?", projectID).Count(&st.ObjectCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Scene{}).Where("project_id = ?", projectID).Count(&st.SceneCount).Error; err != nil {
		return nil, err
	}
	var rows []stageRow
	if err := db.Model(&Shot{}).Select("production_status, duration_target_sec").
		Where("project_id = ?", projectID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	st.ShotCount = int64(len(rows))
	st.StageCounts, st.TotalDuration = tallyStages(rows)
	if st.ShotCount > 0 {
		pct := float64(st.StageCounts[StageFinal]) / float64(st.ShotCount) * 100
		st.CompletionPct = math.Round(pct*10) / 10
	}
	return st, nil
}

type stageRow struct {
	ProductionStatus  string
	DurationTargetSec float64
}

func tallyStages(rows []stageRow) (map[string]int, float64) {
	counts := make(map[string]int, len(ProductionStages))
	for _, stage := range ProductionStages {
		counts[stage] = 0
	}
	var total float64
	for _, r := range rows {
		if _, ok := counts[r.ProductionStatus]; ok {
			counts[r.ProductionStatus]++
		}
		total += r.DurationTargetSec
	}
	return counts, total
}

// DashboardStats aggregates counts across every project.
type DashboardStats struct {
	ProjectCount     int64          `json:"project_count"`
	TotalShots       int64          `json:"total_shots"`
	TotalWorlds      int64          `json:"total_worlds"`
	TotalCharacters  int64          `json:"total_characters"`
	StageCounts      map[string]int `json:"stage_counts"`
	TotalDurationSec float64        `json:"total_duration_sec"`
}

func (s *Store) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	st := &DashboardStats{}
	if err := db.Model(&Project{}).Count(&st.ProjectCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&World{}).Count(&st.TotalWorlds).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Character{}).Count(&st.TotalCharacters).Error; err != nil {
		return nil, err
	}
	var rows []stageRow
	if err := db.Model(&Shot{}).Select("production_status, duration_target_sec").Scan(&rows).Error; err != nil {
		return nil, err
	}
	st.TotalShots = int64(len(rows))
	st.StageCounts, st.TotalDurationSec = tallyStages(rows)
	return st, nil
}

// ==================== worlds ====================

func (s *Store) CreateWorld(ctx context.Context, w *World) error {
	ensureID(&w.ID)
	if w.EmotionalZone == "" {
		w.EmotionalZone = DefaultEmotionalZone
	}
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *Store) ListWorlds(ctx context.Context, projectID string) ([]World, error) {
	var out []World
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&out).Error
	return out, err
}

// GetWorld looks a world up by id alone; worlds may be shared between
// projects or belong to none.
func (s *Store) GetWorld(ctx context.Context, id string) (*World, error) {
	var w World
	if err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

func (s *Store) SaveWorld(ctx context.Context, w *World) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *Store) DeleteWorld(ctx context.Context, projectID, id string) error {
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&World{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== characters ====================

func (s *Store) CreateCharacter(ctx context.Context, c *Character) error {
	ensureID(&c.ID)
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) ListCharacters(ctx context.Context, projectID string) ([]Character, error) {
	var out []Character
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&out).Error
	return out, err
}

func (s *Store) GetCharacter(ctx context.Context, projectID, id string) (*Character, error) {
	var c Character
	if err := s.db.WithContext(ctx).First(&c, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// GetCharacters resolves ids within a project. Unknown ids are skipped; the
// result follows the order of ids with duplicates dropped.
func (s *Store) GetCharacters(ctx context.Context, projectID string, ids []string) ([]Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []Character
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]Character, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]Character, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) SaveCharacter(ctx context.Context, c *Character) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *Store) DeleteCharacter(ctx context.Context, projectID, id string) error {
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Character{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== objects ====================

func (s *Store) CreateObject(ctx context.Context, o *Object) error {
	ensureID(&o.ID)
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) ListObjects(ctx context.Context, projectID string) ([]Object, error) {
	var out []Object
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&out).Error
	return out, err
}

func (s *Store) GetObject(ctx context.Context, projectID, id string) (*Object, error) {
	var o Object
	if err := s.db.WithContext(ctx).First(&o, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) SaveObject(ctx context.Context, o *Object) error {
	return s.db.WithContext(ctx).Save(o).Error
}

func (s *Store) DeleteObject(ctx context.Context, projectID, id string) error {
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Object{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== scenes ====================

func (s *Store) CreateScene(ctx context.Context, sc *Scene) error {
	ensureID(&sc.ID)
	if sc.EmotionalZone == "" {
		sc.EmotionalZone = DefaultEmotionalZone
	}
	return s.db.WithContext(ctx).Create(sc).Error
}

// ListScenes returns the project's scenes by scene number, each with its
// shot count filled in.
func (s *Store) ListScenes(ctx context.Context, projectID string) ([]Scene, error) {
	db := s.db.WithContext(ctx)
	var out []Scene
	if err := db.Where("project_id = ?", projectID).Order("scene_number, created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	var counts []struct {
		SceneID string
		N       int64
	}
	if err := db.Model(&Shot{}).Select("scene_id, count(*) AS n").
		Where("project_id = ?", projectID).Group("scene_id").Scan(&counts).Error; err != nil {
		return nil, err
	}
	byScene := make(map[string]int64, len(counts))
	for _, c := range counts {
		byScene[c.SceneID] = c.N
	}
	for i := range out {
		out[i].ShotCount = byScene[out[i].ID]
	}
	return out, nil
}

func (s *Store) GetScene(ctx context.Context, projectID, id string) (*Scene, error) {
	var sc Scene
	if err := s.db.WithContext(ctx).First(&sc, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

func (s *Store) SaveScene(ctx context.Context, sc *Scene) error {
	return s.db.WithContext(ctx).Save(sc).Error
}

// DeleteScene removes the scene and its shots.
func (s *Store) DeleteScene(ctx context.Context, projectID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_id = ?", projectID).Delete(&Scene{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("project_id = ? AND scene_id = ?", projectID, id).Delete(&Shot{}).Error
	})
}

// ==================== shots ====================

// CreateShot inserts a shot after checking its scene lives in the same project.
func (s *Store) CreateShot(ctx context.Context, sh *Shot) error {
	if err := s.checkScene(ctx, sh.ProjectID, sh.SceneID); err != nil {
		return err
	}
	ensureID(&sh.ID)
	sh.ApplyDefaults()
	sh.Seq = nextSeq()
	return s.db.WithContext(ctx).Create(sh).Error
}

var lastSeq atomic.Int64

// nextSeq returns a strictly increasing value seeded from the wall clock, so
// it keeps increasing across restarts.
func nextSeq() int64 {
	for {
		prev := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if lastSeq.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func (s *Store) checkScene(ctx context.Context, projectID, sceneID string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Scene{}).
		Where("id = ? AND project_id = ?", sceneID, projectID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrSceneMismatch
	}
	return nil
}

// ListShots returns a project's shots in sequence order, ties broken by
// insertion order. sceneID narrows the list when non-empty.
func (s *Store) ListShots(ctx context.Context, projectID, sceneID string) ([]Shot, error) {
	q := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if sceneID != "" {
		q = q.Where("scene_id = ?", sceneID)
	}
	var out []Shot
	err := q.Order("shot_number, seq, id").Find(&out).Error
	return out, err
}

func (s *Store) GetShot(ctx context.Context, projectID, id string) (*Shot, error) {
	var sh Shot
	if err := s.db.WithContext(ctx).First(&sh, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, notFound(err)
	}
	return &sh, nil
}

// UpdateShot applies a partial update. It reports ErrNotFound for an unknown
// shot and ErrSceneMismatch when the patch moves it to a foreign scene.
func (s *Store) UpdateShot(ctx context.Context, projectID, id string, patch ShotPatch) (*Shot, error) {
	sh, err := s.GetShot(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if !patch.Apply(sh) {
		return sh, nil
	}
	if patch.SceneID != nil {
		if err := s.checkScene(ctx, projectID, sh.SceneID); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).Save(sh).Error; err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Store) SetShotStatus(ctx context.Context, projectID, id, status string) error {
	res := s.db.WithContext(ctx).Model(&Shot{}).
		Where("id = ? AND project_id = ?", id, projectID).
		Updates(map[string]interface{}{"production_status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteShot(ctx context.Context, projectID, id string) error {
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Shot{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendGenerationLog adds one entry to the generation history of a shot of
// the given project.
func (s *Store) AppendGenerationLog(ctx context.Context, projectID, shotID string, entry GenerationEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sh Shot
		if err := tx.Select("id", "generation_log").First(&sh, "id = ? AND project_id = ?", shotID, projectID).Error; err != nil {
			return notFound(err)
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}
		next := append(GenerationLog{}, sh.GenerationLog...)
		next = append(next, entry)
		return tx.Model(&Shot{}).Where("id = ?", shotID).Update("generation_log", next).Error
	})
}

// ==================== compilation log ====================

// CreateCompilation appends a record to the compilation log.
func (s *Store) CreateCompilation(ctx context.Context, c *Compilation) error {
	ensureID(&c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(c).Error
}

// ListCompilations returns the newest compilations of a project first,
// optionally narrowed to one shot. limit <= 0 means no limit.
func (s *Store) ListCompilations(ctx context.Context, projectID, shotID string, limit int) ([]Compilation, error) {
	q := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if shotID != "" {
		q = q.Where("shot_id = ?", shotID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Compilation
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// LatestCompilations maps each shot of the project to its newest compilation.
func (s *Store) LatestCompilations(ctx context.Context, projectID string) (map[string]Compilation, error) {
	var rows []Compilation
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND shot_id IS NOT NULL", projectID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]Compilation)
	for _, c := range rows {
		if _, ok := out[*c.ShotID]; !ok {
			out[*c.ShotID] = c
		}
	}
	return out, nil
}

// ==================== jobs ====================

func (s *Store) CreateJob(ctx context.Context, j *Job) error {
	ensureID(&j.ID)
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return s.db.WithContext(ctx).Create(j).Error
}

func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &j, nil
}

func (s *Store) UpdateJobProgress(ctx context.Context, id string, progress int, message string) error {
	return s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":   progress,
			"message":    message,
			"updated_at": time.Now(),
		}).Error
}
