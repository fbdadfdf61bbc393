package compiler

import (
	"context"
	"strings"
	"testing"

	"StoryForge-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntities() (*models.Project, *models.World, []models.Character) {
	p := &models.Project{
		ID: "p1", Name: "Mito", BrandPrimary: "EE", VisualStyle: "bioluminescent",
		ComplianceNotes:  models.StringList{"no medical claims"},
		DefaultTimeOfDay: "twilight", DefaultWeather: "clear", DefaultLighting: "glow", DefaultAspectRatio: "16:9",
	}
	w := &models.World{
		ID: "w1", Name: "Wasteland", EmotionalZone: "desolate",
		ReferenceImages: models.StringList{"w-a", "w-b", "w-c", "w-d", "w-e"},
	}
	chars := []models.Character{
		{ID: "c1", Name: "Mito", Role: "Protagonist", IdentityImages: models.StringList{"i-1", "i-2", "i-3"}},
		{ID: "c2", Name: "The Signal"},
	}
	return p, w, chars
}

func TestBuildContextIsDeterministic(t *testing.T) {
	p, w, chars := sampleEntities()
	req := Request{
		ProjectID: "p1", SceneDescription: "Mito glows dimly", Framing: "close",
		ReferenceImages: []string{"r1", "r2"}, PrevLastFrame: "f0",
	}
	first := BuildContext(req, p, w, chars).String()
	second := BuildContext(req, p, w, chars).String()
	assert.Equal(t, first, second)
}

func TestBuildContextBlockOrder(t *testing.T) {
	p, w, chars := sampleEntities()
	req := Request{
		SceneDescription:  "Mito glows dimly",
		AdditionalContext: "keep it quiet",
		ReferenceImages:   []string{"r1"},
		PrevLastFrame:     "f0",
		NextFirstFrame:    "f2",
	}
	text := BuildContext(req, p, w, chars).String()

	headers := []string{
		"PROJECT: Mito", "WORLD/LOCATION: Wasteland", "CHARACTER: Mito", "CHARACTER: The Signal",
		"CONTINUITY:", "REFERENCE IMAGES", "SHOT PARAMETERS:", "ADDITIONAL CONTEXT:", "SCENE DESCRIPTION:",
		closingInstruction,
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(text, h)
		require.GreaterOrEqual(t, idx, 0, "missing %q", h)
		assert.Greater(t, idx, last, "%q out of order", h)
		last = idx
	}
}

func TestBuildContextLimitsImages(t *testing.T) {
	p, w, chars := sampleEntities()
	req := Request{SceneDescription: "x", ReferenceImages: []string{"r1", "r2", "", "r3", "r4", "r5", "r6", "r7"}}
	b := BuildContext(req, p, w, chars)

	assert.Contains(t, b.Block("world").String(), "Reference Images: w-a, w-b, w-c")
	assert.NotContains(t, b.Block("world").String(), "w-d")
	assert.Contains(t, b.Block("character:c1").String(), "Identity Images: i-1, i-2")
	assert.NotContains(t, b.Block("character:c1").String(), "i-3")

	refs := b.Block("references")
	assert.Len(t, refs.Lines, 6)
	assert.Equal(t, "- r5", refs.Lines[5])
}

func TestShotBlockDefaults(t *testing.T) {
	p, w, _ := sampleEntities()

	withWorld := BuildContext(Request{SceneDescription: "x"}, p, w, nil).Block("shot").String()
	assert.Contains(t, withWorld, "Emotional Zone: desolate")
	assert.Contains(t, withWorld, "Framing: medium")
	assert.Contains(t, withWorld, "Camera Movement: static")
	assert.Contains(t, withWorld, "Time of Day: twilight")
	assert.Contains(t, withWorld, "Weather: clear")
	assert.Contains(t, withWorld, "Aspect Ratio: 16:9")

	noWorld := BuildContext(Request{SceneDescription: "x", TimeOfDay: "dawn", EmotionalZone: "tense"}, p, nil, nil)
	assert.Contains(t, noWorld.Block("shot").String(), "Emotional Zone: tense")
	assert.Contains(t, noWorld.Block("shot").String(), "Time of Day: dawn")
	assert.True(t, noWorld.Block("world").Empty())
	assert.True(t, noWorld.Block("continuity").Empty())
	assert.NotContains(t, noWorld.String(), "CONTINUITY")
}

func TestContinuityBlock(t *testing.T) {
	b := continuityBlock("f1", "")
	require.Len(t, b.Lines, 2)
	assert.Contains(t, b.Lines[1], "opening frame")
	assert.Contains(t, b.Lines[1], "f1")

	b = continuityBlock("", "f3")
	require.Len(t, b.Lines, 2)
	assert.Contains(t, b.Lines[1], "closing frame")
}

type mapReader struct {
	projects map[string]*models.Project
	worlds   map[string]*models.World
	chars    []models.Character
}

func (m mapReader) GetProject(_ context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, models.ErrNotFound
}

func (m mapReader) GetWorld(_ context.Context, id string) (*models.World, error) {
	if w, ok := m.worlds[id]; ok {
		return w, nil
	}
	return nil, models.ErrNotFound
}

func (m mapReader) GetCharacters(_ context.Context, _ string, ids []string) ([]models.Character, error) {
	var out []models.Character
	for _, id := range ids {
		for _, c := range m.chars {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func TestAssembleSkipsUnresolvedReferences(t *testing.T) {
	p, w, chars := sampleEntities()
	reader := mapReader{
		projects: map[string]*models.Project{"p1": p},
		worlds:   map[string]*models.World{"w1": w},
		chars:    chars,
	}
	a := NewAssembler(reader)
	ctx := context.Background()

	b, err := a.Assemble(ctx, Request{
		ProjectID: "p1", SceneDescription: "x", WorldID: "ghost", CharacterIDs: []string{"ghost", "c2"},
	})
	require.NoError(t, err)
	assert.True(t, b.Block("world").Empty())
	assert.Contains(t, b.String(), "CHARACTER: The Signal")
	assert.NotContains(t, b.String(), "CHARACTER: Mito")

	again, err := a.Assemble(ctx, Request{
		ProjectID: "p1", SceneDescription: "x", WorldID: "ghost", CharacterIDs: []string{"ghost", "c2"},
	})
	require.NoError(t, err)
	assert.Equal(t, b.String(), again.String())

	_, err = a.Assemble(ctx, Request{ProjectID: "missing", SceneDescription: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
