package compiler

// Request is one compilation: a scene description plus the references and
// shot parameters that shape it.
type Request struct {
	ProjectID         string   `json:"project_id"`
	ShotID            string   `json:"shot_id,omitempty"`
	SceneDescription  string   `json:"scene_description" binding:"required"`
	WorldID           string   `json:"world_id,omitempty"`
	CharacterIDs      []string `json:"character_ids,omitempty"`
	EmotionalZone     string   `json:"emotional_zone,omitempty"`
	Framing           string   `json:"framing,omitempty"`
	CameraMovement    string   `json:"camera_movement,omitempty"`
	TimeOfDay         string   `json:"time_of_day,omitempty"`
	Weather           string   `json:"weather,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
	ReferenceImages   []string `json:"reference_images,omitempty"`
	PrevLastFrame     string   `json:"prev_last_frame,omitempty"`
	NextFirstFrame    string   `json:"next_first_frame,omitempty"`
}
