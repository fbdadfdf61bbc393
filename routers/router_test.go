package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StoryForge-server/compiler"
	"StoryForge-server/config"
	"StoryForge-server/logger"
	"StoryForge-server/models"
	"StoryForge-server/routers/api"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCompiler struct {
	got      compiler.Request
	outcome  *compiler.Outcome
	err      error
	batchErr error
}

func (f *fakeCompiler) Compile(_ context.Context, req compiler.Request) (*compiler.Outcome, error) {
	f.got = req
	return f.outcome, f.err
}

func (f *fakeCompiler) CompileBatch(_ context.Context, _ string, shotIDs []string, _ compiler.Progress) (*compiler.BatchResult, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	res := &compiler.BatchResult{Status: compiler.BatchStatus, Total: len(shotIDs)}
	for _, id := range shotIDs {
		res.Results = append(res.Results, compiler.BatchItem{ShotID: id, Error: compiler.ShotNotFound})
	}
	return res, nil
}

func (f *fakeCompiler) Chain(_ context.Context, projectID string) ([]compiler.ChainLink, error) {
	if projectID == "missing" {
		return nil, compiler.ErrNotFound
	}
	return []compiler.ChainLink{}, nil
}

type fakeQueue struct{ jobs []string }

func (q *fakeQueue) EnqueueBatch(_ context.Context, jobID string) error {
	q.jobs = append(q.jobs, jobID)
	return nil
}

type fakeSecrets map[string]string

func (s fakeSecrets) Put(_ context.Context, name, value string) error {
	s[name] = value
	return nil
}

type testServer struct {
	engine *gin.Engine
	h      *api.Handler
	comp   *fakeCompiler
	store  *models.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	db, err := models.Open(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	store := models.NewStore(db.Gorm, logger.Nop())
	comp := &fakeCompiler{}
	h := &api.Handler{Store: store, Compiler: comp, Log: logger.Nop()}
	return &testServer{engine: NewRouter(h, cfg, logger.Nop()), h: h, comp: comp, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createProject(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/api/projects", gin.H{"name": "Mito"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func (s *testServer) createScene(t *testing.T, projectID string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/api/projects/"+projectID+"/scenes", gin.H{"scene_number": 1, "title": "Opening"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestProjectRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/api/projects", gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := s.createProject(t)

	w = s.do(t, http.MethodGet, "/v1/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Mito", body["name"])
	assert.Equal(t, float64(0), body["shot_count"])
	assert.Equal(t, "16:9", body["default_aspect_ratio"])

	w = s.do(t, http.MethodPut, "/v1/api/projects/"+id, gin.H{"description": "a lonely orb", "id": "hijack"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "a lonely orb", body["description"])
	assert.Equal(t, "Mito", body["name"])

	w = s.do(t, http.MethodGet, "/v1/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = s.do(t, http.MethodDelete, "/v1/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/api/projects/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Project not found", decode(t, w)["error"])
}

func TestWorldAndCharacterRoutes(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProject(t)

	w := s.do(t, http.MethodPost, "/v1/api/projects/"+pid+"/worlds", gin.H{"name": "Wasteland", "emotional_zone": "gloomy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/api/projects/"+pid+"/worlds", gin.H{"name": "Wasteland", "emotional_zone": "desolate"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	wid := decode(t, w)["id"].(string)

	other := s.createProject(t)
	w = s.do(t, http.MethodGet, "/v1/api/projects/"+other+"/worlds/"+wid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/v1/api/projects/"+pid+"/characters", gin.H{"name": "Mito"})
	require.Equal(t, http.StatusOK, w.Code)
	cid := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/v1/api/projects/"+pid+"/characters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = s.do(t, http.MethodDelete, "/v1/api/projects/"+pid+"/characters/"+cid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/v1/api/projects/"+pid+"/characters/"+cid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestObjectRoutes(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProject(t)
	base := "/v1/api/projects/" + pid + "/objects"

	w := s.do(t, http.MethodPost, base, gin.H{"category": "artifact"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/api/projects/missing/objects", gin.H{"name": "Lantern"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Project not found", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, base, gin.H{
		"name": "Lantern", "category": "artifact",
		"reference_images": []string{"lantern.png"}, "narrative_significance": "last light",
		"tags": []string{"light"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	obj := decode(t, w)
	oid := obj["id"].(string)
	assert.Equal(t, pid, obj["project_id"])
	assert.Equal(t, []interface{}{"lantern.png"}, obj["reference_images"])

	w = s.do(t, http.MethodPut, base+"/"+oid, gin.H{"name": "Cracked Lantern", "project_id": "hijack"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	obj = decode(t, w)
	assert.Equal(t, "Cracked Lantern", obj["name"])
	assert.Equal(t, pid, obj["project_id"])

	other := s.createProject(t)
	w = s.do(t, http.MethodGet, "/v1/api/projects/"+other+"/objects/"+oid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/v1/api/projects/"+other+"/objects/"+oid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = s.do(t, http.MethodGet, "/v1/api/projects/"+pid, nil)
	assert.Equal(t, float64(1), decode(t, w)["object_count"])

	w = s.do(t, http.MethodDelete, base+"/"+oid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, base+"/"+oid, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Object not found", decode(t, w)["error"])
}

func TestShotRoutes(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProject(t)
	scene := s.createScene(t, pid)
	base := "/v1/api/projects/" + pid + "/shots"

	w := s.do(t, http.MethodPost, base, gin.H{"shot_number": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	foreign := s.createScene(t, s.createProject(t))
	w = s.do(t, http.MethodPost, base, gin.H{"scene_id": foreign, "shot_number": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, base, gin.H{"scene_id": scene, "shot_number": 1, "framing": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, base, gin.H{"scene_id": scene, "shot_number": 1, "description": "orb flickers"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	shot := decode(t, w)
	sid := shot["id"].(string)
	assert.Equal(t, "concept", shot["production_status"])
	assert.Equal(t, "medium", shot["framing"])

	w = s.do(t, http.MethodPut, base+"/"+sid, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", decode(t, w)["error"])

	w = s.do(t, http.MethodPut, base+"/"+sid, gin.H{"camera_movement": "spin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, base+"/"+sid, gin.H{"notes": "hold longer"})
	require.Equal(t, http.StatusOK, w.Code)
	shot = decode(t, w)
	assert.Equal(t, "hold longer", shot["notes"])
	assert.Equal(t, "orb flickers", shot["description"])

	w = s.do(t, http.MethodPatch, base+"/"+sid+"/status?status=done", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, base+"/"+sid+"/status?status=final", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final", decode(t, w)["new_status"])

	w = s.do(t, http.MethodPatch, base+"/nope/status?status=final", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, base+"?scene_id="+scene, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, float64(1), list["total_shots"])
	assert.Equal(t, pid, list["project_id"])

	w = s.do(t, http.MethodGet, "/v1/api/projects/"+pid, nil)
	assert.Equal(t, float64(100), decode(t, w)["completion_pct"])

	w = s.do(t, http.MethodDelete, base+"/"+sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, base+"/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompileRouteErrors(t *testing.T) {
	s := newTestServer(t)
	path := "/v1/api/projects/p1/compile"

	w := s.do(t, http.MethodPost, path, gin.H{"world_id": "w1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, gin.H{"scene_description": "x", "framing": "diagonal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.comp.err = fmt.Errorf("project p1: %w", compiler.ErrNotFound)
	w = s.do(t, http.MethodPost, path, gin.H{"scene_description": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.comp.err = fmt.Errorf("s9: %w", compiler.ErrShotNotFound)
	w = s.do(t, http.MethodPost, path, gin.H{"scene_description": "x", "shot_id": "s9"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, compiler.ShotNotFound, decode(t, w)["error"])

	s.comp.err = fmt.Errorf("%w: %w", compiler.ErrUpstream, compiler.ErrMissingCredential)
	w = s.do(t, http.MethodPost, path, gin.H{"scene_description": "x"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["error"].(string), "AI compilation failed"))
}

func TestCompileRouteSuccess(t *testing.T) {
	s := newTestServer(t)
	s.comp.outcome = &compiler.Outcome{
		Status:        models.CompilationStatusCompiled,
		Result:        compiler.Result{Raw: "not json"},
		CompilationID: "c1",
		ParseError:    true,
	}
	w := s.do(t, http.MethodPost, "/v1/api/projects/p1/compile", gin.H{
		"project_id":        "ignored",
		"scene_description": "A dim orb",
		"emotional_zone":    "desolate",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "p1", s.comp.got.ProjectID)
	assert.Equal(t, "desolate", s.comp.got.EmotionalZone)
	assert.JSONEq(t, `{"status":"compiled","result":{"raw_response":"not json"},"compilation_id":"c1","parse_error":true}`, w.Body.String())
}

func TestBatchRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/api/projects/p1/compile/batch", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/api/projects/p1/compile/batch", gin.H{"shot_ids": []string{"a"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"batch_compiled","total":1,"results":[{"shot_id":"a","error":"Shot not found"}]}`, w.Body.String())

	s.comp.batchErr = fmt.Errorf("%w: LLM_API_KEY", compiler.ErrMissingCredential)
	w = s.do(t, http.MethodPost, "/v1/api/projects/p1/compile/batch", gin.H{"shot_ids": []string{"a"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBatchAsyncRoute(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProject(t)
	path := "/v1/api/projects/" + pid + "/compile/batch/async"

	w := s.do(t, http.MethodPost, path, gin.H{"shot_ids": []string{"a"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	q := &fakeQueue{}
	s.h.Queue = q
	w = s.do(t, http.MethodPost, "/v1/api/projects/missing/compile/batch/async", gin.H{"shot_ids": []string{"a"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, path, gin.H{"shot_ids": []string{"a", "b"}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	jobID := body["job_id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, []string{jobID}, q.jobs)

	job, err := s.store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, job.Parameters.ShotIDs)

	w = s.do(t, http.MethodGet, "/v1/api/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID, decode(t, w)["job"].(map[string]interface{})["id"])

	w = s.do(t, http.MethodGet, "/v1/api/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContinuityAndCompilationRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/api/projects/missing/continuity", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/api/projects/p1/continuity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"project_id":"p1","chain":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/api/projects/p1/compilations?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.store.CreateCompilation(ctx, &models.Compilation{ProjectID: "p1", Status: models.CompilationStatusCompiled}))
	}
	w = s.do(t, http.MethodGet, "/v1/api/projects/p1/compilations?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["compilations"], 2)

	w = s.do(t, http.MethodPost, "/v1/api/projects/p1/packets", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiscRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/api/enums", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["production_stages"], 7)

	w = s.do(t, http.MethodPost, "/v1/api/seed/mito", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	assert.Equal(t, float64(15), first["shots"])

	w = s.do(t, http.MethodPost, "/v1/api/seed/mito", nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode(t, w)
	assert.Equal(t, "already_seeded", again["status"])
	assert.Equal(t, first["project_id"], again["project_id"])

	w = s.do(t, http.MethodGet, "/v1/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["project_count"])
	assert.Equal(t, float64(15), stats["total_shots"])

	w = s.do(t, http.MethodPut, "/v1/api/secrets/LLM_API_KEY", gin.H{"value": "sk-1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	secrets := fakeSecrets{}
	s.h.Secrets = secrets
	w = s.do(t, http.MethodPut, "/v1/api/secrets/LLM_API_KEY", gin.H{"value": " sk-1 "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-1")
	assert.Equal(t, "sk-1", secrets["LLM_API_KEY"])
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.test")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestJobWebSocketSendsFinalState(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	job := &models.Job{ProjectID: "p1", Type: models.JobTypeBatchCompile}
	require.NoError(t, s.store.CreateJob(ctx, job))
	require.NoError(t, job.UpdateStatus(ctx, s.store.DB(), models.JobStatusFinished, gin.H{"total": 0}, ""))

	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/api/jobs/" + job.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var got models.Job
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, models.JobStatusFinished, got.Status)
	assert.Equal(t, 100, got.Progress)

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestJobWebSocketStopsWhenClientLeaves(t *testing.T) {
	s := newTestServer(t)
	core, logs := observer.New(zap.DebugLevel)
	s.h.Log = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	s.h.PollInterval = 10 * time.Millisecond

	ctx := context.Background()
	job := &models.Job{ProjectID: "p1", Type: models.JobTypeBatchCompile}
	require.NoError(t, s.store.CreateJob(ctx, job))

	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/api/jobs/" + job.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var got models.Job
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, models.JobStatusPending, got.Status)

	// the job never finishes, so only the disconnect can end the handler
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("job websocket client gone").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
