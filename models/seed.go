package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const MitoProjectName = "Mito: The Animated Short"

// SeedResult reports what SeedMito created, or the existing project id when
// the sample was already present.
type SeedResult struct {
	Status     string `json:"status"`
	ProjectID  string `json:"project_id"`
	Worlds     int    `json:"worlds,omitempty"`
	Characters int    `json:"characters,omitempty"`
	Scenes     int    `json:"scenes,omitempty"`
	Shots      int    `json:"shots,omitempty"`
}

type seedShot struct {
	framing, movement string
	duration          float64
	description       string
}

// SeedMito inserts the "Mito" sample project with its worlds, characters,
// scenes and shots. Running it twice is a no-op.
func (s *Store) SeedMito(ctx context.Context) (*SeedResult, error) {
	var existing Project
	err := s.db.WithContext(ctx).First(&existing, "name = ?", MitoProjectName).Error
	if err == nil {
		return &SeedResult{Status: "already_seeded", ProjectID: existing.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	project := &Project{
		Name:           MitoProjectName,
		BrandPrimary:   "Everything's Energy",
		BrandSecondary: "EESYS / EESystem",
		Description:    "A 5-minute animated short exploring consciousness, scalar energy, and cellular healing through the journey of Mito, a mitochondrial entity awakening to its potential.",
		ComplianceNotes: StringList{
			"Content must respect the EESystem brand",
			"No medical claims, position as educational/exploratory",
			"Ethical sound design by construction",
		},
		ForbiddenElements: StringList{
			"Cheap emotional manipulation",
			"Horror tropes without purpose",
			"Generic stock imagery aesthetics",
		},
		RequiredElements: StringList{
			"Consistent character identity across all shots",
			"Declarative media grammar (Intent/Constraint/Emission)",
			"Zone-aware audio design",
		},
		VisualStyle:        "Cinematic, ethereal, bioluminescent. Think cellular landscapes meeting cosmic vistas. Color palette: deep indigos, electric teals, warm ambers for healing moments.",
		DefaultTimeOfDay:   "twilight",
		DefaultWeather:     "clear",
		DefaultLighting:    "bioluminescent",
		DefaultAspectRatio: "16:9",
		TargetDurationSec:  300,
		ModelPreferences:   StringMap{"image": "Nano Banana Pro", "video": "Veo 3.1", "world": "Marble (WorldLabs)"},
		Tags:               StringList{"animated_short", "eesystem", "consciousness", "healing"},
	}

	worlds := []World{
		{Name: "The Cellular Interior", Description: "Inside a living cell: mitochondria, organelles, flowing cytoplasm. Bioluminescent structures pulse with energy.", EmotionalZone: "intimate", Atmosphere: "Warm, alive, pulsing with potential", SpatialCharacter: "intimate/enclosed", LightingNotes: "Bioluminescent, soft blue-green glow from organelles, warm amber from energy production"},
		{Name: "The Neural Network", Description: "Vast interconnected pathways of neurons firing. Synaptic gaps bridged by light. Scale shifts from microscopic to cosmic.", EmotionalZone: "revelatory", Atmosphere: "Electric, expansive, awe-inspiring", SpatialCharacter: "vast/infinite", LightingNotes: "Electric blue synaptic flashes against deep purple void"},
		{Name: "The Wasteland", Description: "A depleted, toxic cellular environment. Damaged structures, dim light, entropy visible.", EmotionalZone: "desolate", Atmosphere: "Decayed, threatening, suffocating", SpatialCharacter: "vast/barren", LightingNotes: "Dim, desaturated, occasional sickly yellow-green"},
		{Name: "The Scalar Field", Description: "Abstract energy patterns: standing waves, interference patterns, golden ratio spirals. Where the EE System operates.", EmotionalZone: "transcendent", Atmosphere: "Pure energy, mathematical beauty, transcendence", SpatialCharacter: "infinite/unbounded", LightingNotes: "Pure white-gold energy with prismatic refractions"},
		{Name: "The Awakening Chamber", Description: "Where Mito first encounters the scalar field. A threshold space between the damaged cell and regeneration.", EmotionalZone: "liminal", Atmosphere: "Transitional, pregnant with possibility", SpatialCharacter: "threshold/between", LightingNotes: "Gradient from cold blue to warm gold, the transformation visible in light"},
	}

	characters := []Character{
		{Name: "Mito", Role: "Protagonist", Description: "A mitochondrial entity: small, luminous, curious. Begins depleted and dim, gradually brightens as it encounters the scalar field.", Personality: "Curious, resilient, innocent but growing in wisdom", VoiceProfile: "Childlike wonder evolving to quiet authority", VisualNotes: "Bioluminescent orb with internal structure visible. Color shifts from dim amber to radiant gold.", MotivationNotes: "Survival > Understanding > Purpose > Service", ArcSummary: "From depleted organelle to awakened energy being"},
		{Name: "The Signal", Role: "Catalyst", Description: "The scalar energy field personified as a presence. Not a character with a face, more a wave, a resonance, a calling.", Personality: "Patient, vast, impersonal but benevolent", VoiceProfile: "No voice, expressed through harmonic frequencies and spatial audio", VisualNotes: "Standing wave patterns, golden ratio spirals, interference patterns in light", MotivationNotes: "Exists to activate, not to persuade", ArcSummary: "Constant presence that Mito learns to perceive"},
	}

	// world index per scene, by scene number
	sceneWorld := []int{2, 4, 3, 1, 0}
	scenes := []Scene{
		{SceneNumber: 1, Title: "Diminished Light", Synopsis: "Mito exists in a depleted cell. Low energy, damaged environment. We see the cost of toxicity.", EmotionalZone: "desolate", NarrativePurpose: "Establish stakes: what happens when cellular health fails", DramaticTension: 3},
		{SceneNumber: 2, Title: "The First Pulse", Synopsis: "A faint signal reaches Mito. Something external, something new. The scalar field makes first contact.", EmotionalZone: "liminal", NarrativePurpose: "Inciting incident: hope enters the narrative", DramaticTension: 5},
		{SceneNumber: 3, Title: "The Awakening", Synopsis: "Mito enters the scalar field. Perception expands. The cell begins to regenerate.", EmotionalZone: "revelatory", NarrativePurpose: "Transformation: the core thesis made visible", DramaticTension: 8},
		{SceneNumber: 4, Title: "The Network", Synopsis: "Mito discovers it's connected to millions of others. Neural pathways light up. Collective healing begins.", EmotionalZone: "transcendent", NarrativePurpose: "Scale shift: from individual to collective", DramaticTension: 9},
		{SceneNumber: 5, Title: "Radiance", Synopsis: "The cell is restored. Mito pulses with full energy. A new signal goes out, calling the next cell.", EmotionalZone: "triumphant", NarrativePurpose: "Resolution and continuation: healing propagates", DramaticTension: 7},
	}

	shotsPerScene := [][]seedShot{
		{{"extreme_wide", "dolly_in", 8, "Vast depleted landscape. Mito barely visible."}, {"close", "static", 5, "Mito's dim glow flickering."}, {"medium", "pan_left", 6, "Damaged structures around Mito."}},
		{{"medium", "static", 5, "Mito senses something. Slight brightening."}, {"wide", "crane_up", 7, "The scalar pulse arrives, a visible wave."}, {"close", "dolly_in", 6, "Mito turns toward the signal."}},
		{{"extreme_wide", "orbit", 8, "Mito enters the scalar field. Explosion of light."}, {"close", "static", 5, "Mito's internal structure transforming."}, {"medium_wide", "tracking", 7, "Energy flowing through the cell."}},
		{{"extreme_wide", "crane_up", 8, "Neural network revealed. Millions of connections."}, {"medium", "tracking", 6, "Following the signal along pathways."}, {"wide", "orbit", 8, "Collective activation, cells lighting up."}},
		{{"medium", "dolly_out", 6, "Mito at full radiance."}, {"wide", "crane_up", 7, "The restored cell, vibrant and alive."}, {"extreme_wide", "static", 8, "A new signal goes out. The cycle continues."}},
	}

	res := &SeedResult{Status: "seeded"}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx, log: s.log}
		if err := txStore.CreateProject(ctx, project); err != nil {
			return err
		}
		pid := project.ID
		for i := range worlds {
			worlds[i].ProjectID = &pid
			if err := txStore.CreateWorld(ctx, &worlds[i]); err != nil {
				return err
			}
		}
		charIDs := make(StringList, 0, len(characters))
		for i := range characters {
			characters[i].ProjectID = pid
			if err := txStore.CreateCharacter(ctx, &characters[i]); err != nil {
				return err
			}
			charIDs = append(charIDs, characters[i].ID)
		}
		shotNumber := 1
		for i := range scenes {
			worldID := worlds[sceneWorld[i]].ID
			scenes[i].ProjectID = pid
			scenes[i].WorldID = &worldID
			scenes[i].CharacterIDs = charIDs
			if err := txStore.CreateScene(ctx, &scenes[i]); err != nil {
				return err
			}
			for _, ss := range shotsPerScene[i] {
				sh := &Shot{
					ProjectID:         pid,
					SceneID:           scenes[i].ID,
					ShotNumber:        shotNumber,
					DurationTargetSec: ss.duration,
					Framing:           ss.framing,
					CameraMovement:    ss.movement,
					Description:       ss.description,
				}
				if err := txStore.CreateShot(ctx, sh); err != nil {
					return err
				}
				shotNumber++
				res.Shots++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.ProjectID = project.ID
	res.Worlds = len(worlds)
	res.Characters = len(characters)
	res.Scenes = len(scenes)
	s.log.Info("seeded sample project", "project_id", project.ID, "shots", res.Shots)
	return res, nil
}
