package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"StoryForge-server/llm"
	"StoryForge-server/logger"
	"StoryForge-server/models"
)

// SystemPrompt is the fixed instruction that defines the output contract.
const SystemPrompt = `You are StoryForge Scene Compiler, an expert AI cinematographer and production designer.
You take natural language scene descriptions and generate structured production prompts.

You MUST output a JSON object with these exact keys:
{
  "image_prompt": "A detailed prompt for image generation. Be specific about composition, lighting, color palette, mood, and subjects.",
  "video_prompt": "A prompt for video generation. Describe motion, camera movement, timing, and action.",
  "audio_stack": {
    "sound_design": "Primary environmental and foley sound elements",
    "volume_layers": "BACKGROUND: [element] at [level] | MIDGROUND: [element] at [level] | FOREGROUND: [element] at [level]",
    "spatial": "Spatial positioning, movement, and stereo/surround placement",
    "narrative": "Emotional beats and narrative function of the audio",
    "exclude": "Elements to explicitly exclude from audio generation"
  },
  "director_notes": "Brief suggestions for blocking, timing, transitions, and coherence with adjacent shots",
  "coherence_flags": ["Any potential inconsistencies with the established world/character bible"],
  "continuity_notes": "How the opening and closing frames connect to the neighbouring shots"
}

RULES:
- Honor the brand config and compliance rails. Never violate forbidden elements.
- Reference the world's established atmosphere and lighting.
- Keep characters visually consistent with their identity sheets.
- When continuity frames are given, the matching frame must be reproduced exactly.
- The audio stack follows the Intent > Constraint > Emission architecture.
- Output ONLY valid JSON, no markdown wrapping.`

type AudioStack struct {
	SoundDesign  string `json:"sound_design"`
	VolumeLayers string `json:"volume_layers"`
	Spatial      string `json:"spatial"`
	Narrative    string `json:"narrative"`
	Exclude      string `json:"exclude"`
}

// Contract is the typed view of the fields the system prompt asks for.
type Contract struct {
	ImagePrompt     string     `json:"image_prompt"`
	VideoPrompt     string     `json:"video_prompt"`
	AudioStack      AudioStack `json:"audio_stack"`
	DirectorNotes   string     `json:"director_notes"`
	CoherenceFlags  []string   `json:"coherence_flags"`
	ContinuityNotes string     `json:"continuity_notes"`
}

// Result is either the model's JSON object, kept verbatim, or the raw text
// that did not satisfy the contract. Contract is a best-effort typed view of
// Object: fields whose JSON type differs from the Go type stay zero.
type Result struct {
	Object   json.RawMessage
	Contract *Contract
	Raw      string
}

func (r Result) ParseError() bool { return r.Object == nil }

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Object != nil {
		return r.Object, nil
	}
	return json.Marshal(map[string]string{"raw_response": r.Raw})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if raw, ok := keys["raw_response"]; ok && len(keys) == 1 {
		*r = Result{}
		return json.Unmarshal(raw, &r.Raw)
	}
	*r = contractResult(data)
	return nil
}

// contractResult wraps an object already known to be valid JSON.
func contractResult(obj []byte) Result {
	var c Contract
	// type mismatches leave the affected field zero; decoding carries on
	_ = json.Unmarshal(obj, &c)
	var buf bytes.Buffer
	if err := json.Compact(&buf, obj); err != nil {
		buf.Reset()
		buf.Write(obj)
	}
	return Result{Object: json.RawMessage(buf.Bytes()), Contract: &c}
}

// stripFence removes a wrapping markdown code fence such as ```json ... ```.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var requiredKeys = []string{"image_prompt", "video_prompt", "audio_stack"}

// ParseContract never fails. A JSON object carrying image_prompt,
// video_prompt and an audio_stack object is kept whole, extra keys included;
// anything else comes back as a raw fallback.
func ParseContract(text string) Result {
	body := stripFence(text)
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return Result{Raw: body}
	}
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			return Result{Raw: body}
		}
	}
	if a := bytes.TrimSpace(keys["audio_stack"]); len(a) == 0 || a[0] != '{' {
		return Result{Raw: body}
	}
	return contractResult([]byte(body))
}

// CompilationLog is the append-only store for compilation records.
type CompilationLog interface {
	CreateCompilation(ctx context.Context, c *models.Compilation) error
}

// Enforcer sends a bundle to the model under SystemPrompt and records the
// outcome.
type Enforcer struct {
	model llm.Client
	store CompilationLog
	log   *logger.Logger
}

func NewEnforcer(model llm.Client, store CompilationLog, log *logger.Logger) *Enforcer {
	return &Enforcer{model: model, store: store, log: log}
}

// Enforce makes exactly one model call. A model error is returned wrapped in
// ErrUpstream; an unparseable answer is a normal Result with ParseError set.
func (e *Enforcer) Enforce(ctx context.Context, apiKey string, req Request, bundle Bundle) (Result, *models.Compilation, error) {
	text, err := e.model.Complete(ctx, llm.Request{
		APIKey: apiKey,
		System: SystemPrompt,
		User:   bundle.String(),
	})
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	res := ParseContract(text)
	if res.ParseError() {
		e.log.Warn("model response violated contract, keeping raw text",
			"project_id", req.ProjectID, "shot_id", req.ShotID, "bytes", len(res.Raw))
	}

	input, err := json.Marshal(req)
	if err != nil {
		return Result{}, nil, fmt.Errorf("encode compilation input: %w", err)
	}
	output, err := json.Marshal(res)
	if err != nil {
		return Result{}, nil, fmt.Errorf("encode compilation output: %w", err)
	}
	rec := &models.Compilation{
		ProjectID:  req.ProjectID,
		Status:     models.CompilationStatusCompiled,
		Model:      e.model.ModelName(),
		Input:      models.RawJSON(input),
		Output:     models.RawJSON(output),
		ParseError: res.ParseError(),
	}
	if req.ShotID != "" {
		shotID := req.ShotID
		rec.ShotID = &shotID
	}
	if err := e.store.CreateCompilation(ctx, rec); err != nil {
		return Result{}, nil, fmt.Errorf("record compilation: %w", err)
	}
	return res, rec, nil
}
