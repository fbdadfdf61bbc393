package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StoryForge-server/models"
)

const (
	maxWorldImages     = 3
	maxIdentityImages  = 2
	maxReferenceImages = 5
	closingInstruction = "Generate the structured production prompts as JSON."
)

// Block is one named section of the prompt context. The first line is the
// section header.
type Block struct {
	Name  string
	Lines []string
}

func (b Block) Empty() bool { return len(b.Lines) == 0 }

func (b Block) String() string { return strings.Join(b.Lines, "\n") }

// Bundle is the ordered list of blocks sent to the model as the user message.
type Bundle struct {
	Blocks []Block
}

func (b Bundle) String() string {
	parts := make([]string, 0, len(b.Blocks)+1)
	for _, blk := range b.Blocks {
		if !blk.Empty() {
			parts = append(parts, blk.String())
		}
	}
	parts = append(parts, closingInstruction)
	return strings.Join(parts, "\n\n")
}

// Block returns the named block, or an empty one.
func (b Bundle) Block(name string) Block {
	for _, blk := range b.Blocks {
		if blk.Name == name {
			return blk
		}
	}
	return Block{Name: name}
}

// section builds a block from a header and label/value pairs, skipping
// empty values.
func section(name, header string, kv ...string) Block {
	b := Block{Name: name, Lines: []string{header}}
	for i := 0; i+1 < len(kv); i += 2 {
		if v := strings.TrimSpace(kv[i+1]); v != "" {
			b.Lines = append(b.Lines, kv[i]+": "+v)
		}
	}
	return b
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func brandBlock(p *models.Project) Block {
	return section("brand", "PROJECT: "+p.Name,
		"Primary Brand", p.BrandPrimary,
		"Secondary Brand", p.BrandSecondary,
		"Description", p.Description,
		"Visual Style", p.VisualStyle,
		"Compliance", strings.Join(p.ComplianceNotes, ", "),
		"Forbidden Elements", strings.Join(p.ForbiddenElements, ", "),
		"Required Elements", strings.Join(p.RequiredElements, ", "),
	)
}

func worldBlock(w *models.World) Block {
	if w == nil {
		return Block{Name: "world"}
	}
	return section("world", "WORLD/LOCATION: "+w.Name,
		"Description", w.Description,
		"Emotional Zone", w.EmotionalZone,
		"Atmosphere", w.Atmosphere,
		"Lighting", w.LightingNotes,
		"Spatial Character", w.SpatialCharacter,
		"Reference Images", strings.Join(firstN(w.ReferenceImages, maxWorldImages), ", "),
	)
}

func characterBlocks(chars []models.Character) []Block {
	out := make([]Block, 0, len(chars))
	for _, c := range chars {
		header := "CHARACTER: " + c.Name
		if c.Role != "" {
			header += " (" + c.Role + ")"
		}
		out = append(out, section("character:"+c.ID, header,
			"Description", c.Description,
			"Visual Notes", c.VisualNotes,
			"Personality", c.Personality,
			"Identity Images", strings.Join(firstN(c.IdentityImages, maxIdentityImages), ", "),
		))
	}
	return out
}

func continuityBlock(prevLastFrame, nextFirstFrame string) Block {
	b := Block{Name: "continuity"}
	prev, next := strings.TrimSpace(prevLastFrame), strings.TrimSpace(nextFirstFrame)
	if prev == "" && next == "" {
		return b
	}
	b.Lines = append(b.Lines, "CONTINUITY:")
	if prev != "" {
		b.Lines = append(b.Lines, "The opening frame of this shot MUST visually match the previous shot's last frame: "+prev)
	}
	if next != "" {
		b.Lines = append(b.Lines, "The closing frame of this shot MUST visually match the next shot's first frame: "+next)
	}
	return b
}

func referenceBlock(images []string) Block {
	b := Block{Name: "references"}
	var kept []string
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			kept = append(kept, img)
		}
	}
	if len(kept) == 0 {
		return b
	}
	b.Lines = append(b.Lines, "REFERENCE IMAGES (visual guidance anchors):")
	for _, img := range firstN(kept, maxReferenceImages) {
		b.Lines = append(b.Lines, "- "+img)
	}
	return b
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func shotBlock(req Request, p *models.Project, w *models.World) Block {
	zone := req.EmotionalZone
	if zone == "" && w != nil {
		zone = w.EmotionalZone
	}
	return section("shot", "SHOT PARAMETERS:",
		"Emotional Zone", orDefault(zone, models.DefaultEmotionalZone),
		"Framing", orDefault(req.Framing, models.DefaultFraming),
		"Camera Movement", orDefault(req.CameraMovement, models.DefaultCameraMovement),
		"Time of Day", orDefault(req.TimeOfDay, orDefault(p.DefaultTimeOfDay, "day")),
		"Weather", orDefault(req.Weather, orDefault(p.DefaultWeather, "clear")),
		"Lighting", p.DefaultLighting,
		"Aspect Ratio", p.DefaultAspectRatio,
	)
}

func additionalBlock(text string) Block {
	b := Block{Name: "additional"}
	if t := strings.TrimSpace(text); t != "" {
		b.Lines = []string{"ADDITIONAL CONTEXT:", t}
	}
	return b
}

func sceneBlock(description string) Block {
	return Block{Name: "scene", Lines: []string{"SCENE DESCRIPTION:", strings.TrimSpace(description)}}
}

// BuildContext assembles the prompt bundle from already-resolved entities.
// w may be nil. The result depends only on its arguments.
func BuildContext(req Request, p *models.Project, w *models.World, chars []models.Character) Bundle {
	blocks := []Block{brandBlock(p), worldBlock(w)}
	blocks = append(blocks, characterBlocks(chars)...)
	blocks = append(blocks,
		continuityBlock(req.PrevLastFrame, req.NextFirstFrame),
		referenceBlock(req.ReferenceImages),
		shotBlock(req, p, w),
		additionalBlock(req.AdditionalContext),
		sceneBlock(req.SceneDescription),
	)
	return Bundle{Blocks: blocks}
}

// EntityReader is the read side of the entity store the assembler needs.
type EntityReader interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetWorld(ctx context.Context, id string) (*models.World, error)
	GetCharacters(ctx context.Context, projectID string, ids []string) ([]models.Character, error)
}

// Assembler resolves a request's references and builds its bundle.
type Assembler struct {
	reader EntityReader
}

func NewAssembler(reader EntityReader) *Assembler {
	return &Assembler{reader: reader}
}

// Assemble fails with ErrNotFound when the project is missing. A world or
// character that does not resolve is left out.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Bundle, error) {
	p, err := a.reader.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Bundle{}, fmt.Errorf("project %s: %w", req.ProjectID, ErrNotFound)
		}
		return Bundle{}, err
	}
	var w *models.World
	if req.WorldID != "" {
		w, err = a.reader.GetWorld(ctx, req.WorldID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return Bundle{}, err
		}
	}
	chars, err := a.reader.GetCharacters(ctx, req.ProjectID, req.CharacterIDs)
	if err != nil {
		return Bundle{}, err
	}
	return BuildContext(req, p, w, chars), nil
}
