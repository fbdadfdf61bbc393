package models

import "time"

type Shot struct {
	ID                string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID         string        `gorm:"type:varchar(64);index" json:"project_id"`
	SceneID           string        `gorm:"type:varchar(64);index" json:"scene_id"`
	ShotNumber        int           `gorm:"index" json:"shot_number"`
	DurationTargetSec float64       `json:"duration_target_sec"`
	Framing           string        `gorm:"size:32" json:"framing"`
	CameraMovement    string        `gorm:"size:32" json:"camera_movement"`
	CameraNotes       string        `gorm:"type:text" json:"camera_notes"`
	Description       string        `gorm:"type:text" json:"description"`
	Intent            string        `gorm:"type:text" json:"intent"`
	Constraint        string        `gorm:"type:text" json:"constraint"`
	Emission          string        `gorm:"type:text" json:"emission"`
	SoundDesign       string        `gorm:"type:text" json:"sound_design"`
	VolumeLayers      string        `gorm:"type:text" json:"volume_layers"`
	Spatial           string        `gorm:"type:text" json:"spatial"`
	Narrative         string        `gorm:"type:text" json:"narrative"`
	Exclude           string        `gorm:"type:text" json:"exclude"`
	ProductionStatus  string        `gorm:"size:32;index" json:"production_status"`
	FirstFrameURL     string        `gorm:"size:1024" json:"first_frame_url"`
	LastFrameURL      string        `gorm:"size:1024" json:"last_frame_url"`
	TransitionIn      string        `gorm:"size:32" json:"transition_in"`
	TransitionOut     string        `gorm:"size:32" json:"transition_out"`
	ReferenceImages   StringList    `gorm:"type:json" json:"reference_images"`
	ReferenceFrameURL string        `gorm:"size:1024" json:"reference_frame_url"`
	GeneratedAssetURL string        `gorm:"size:1024" json:"generated_asset_url"`
	Notes             string        `gorm:"type:text" json:"notes"`
	GenerationLog     GenerationLog `gorm:"type:json" json:"ai_generation_log"`
	Seq               int64         `gorm:"index" json:"-"` // insertion order, breaks shot_number ties
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (Shot) TableName() string {
	return "shot"
}

// ApplyDefaults fills the values a freshly created shot starts with.
func (s *Shot) ApplyDefaults() {
	if s.DurationTargetSec <= 0 {
		s.DurationTargetSec = 5
	}
	if s.Framing == "" {
		s.Framing = DefaultFraming
	}
	if s.CameraMovement == "" {
		s.CameraMovement = DefaultCameraMovement
	}
	if s.ProductionStatus == "" {
		s.ProductionStatus = StageConcept
	}
	if s.TransitionIn == "" {
		s.TransitionIn = DefaultTransition
	}
	if s.TransitionOut == "" {
		s.TransitionOut = DefaultTransition
	}
}

// ShotPatch carries a partial shot update. Nil fields are left untouched.
type ShotPatch struct {
	SceneID           *string   `json:"scene_id"`
	ShotNumber        *int      `json:"shot_number"`
	DurationTargetSec *float64  `json:"duration_target_sec"`
	Framing           *string   `json:"framing"`
	CameraMovement    *string   `json:"camera_movement"`
	CameraNotes       *string   `json:"camera_notes"`
	Description       *string   `json:"description"`
	Intent            *string   `json:"intent"`
	Constraint        *string   `json:"constraint"`
	Emission          *string   `json:"emission"`
	SoundDesign       *string   `json:"sound_design"`
	VolumeLayers      *string   `json:"volume_layers"`
	Spatial           *string   `json:"spatial"`
	Narrative         *string   `json:"narrative"`
	Exclude           *string   `json:"exclude"`
	ProductionStatus  *string   `json:"production_status"`
	FirstFrameURL     *string   `json:"first_frame_url"`
	LastFrameURL      *string   `json:"last_frame_url"`
	TransitionIn      *string   `json:"transition_in"`
	TransitionOut     *string   `json:"transition_out"`
	ReferenceImages   *[]string `json:"reference_images"`
	ReferenceFrameURL *string   `json:"reference_frame_url"`
	GeneratedAssetURL *string   `json:"generated_asset_url"`
	Notes             *string   `json:"notes"`
}

// Apply copies the set fields onto s and reports whether anything changed.
func (p ShotPatch) Apply(s *Shot) bool {
	changed := false
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
			changed = true
		}
	}
	setStr(&s.SceneID, p.SceneID)
	if p.ShotNumber != nil {
		s.ShotNumber = *p.ShotNumber
		changed = true
	}
	if p.DurationTargetSec != nil {
		s.DurationTargetSec = *p.DurationTargetSec
		changed = true
	}
	setStr(&s.Framing, p.Framing)
	setStr(&s.CameraMovement, p.CameraMovement)
	setStr(&s.CameraNotes, p.CameraNotes)
	setStr(&s.Description, p.Description)
	setStr(&s.Intent, p.Intent)
	setStr(&s.Constraint, p.Constraint)
	setStr(&s.Emission, p.Emission)
	setStr(&s.SoundDesign, p.SoundDesign)
	setStr(&s.VolumeLayers, p.VolumeLayers)
	setStr(&s.Spatial, p.Spatial)
	setStr(&s.Narrative, p.Narrative)
	setStr(&s.Exclude, p.Exclude)
	setStr(&s.ProductionStatus, p.ProductionStatus)
	setStr(&s.FirstFrameURL, p.FirstFrameURL)
	setStr(&s.LastFrameURL, p.LastFrameURL)
	setStr(&s.TransitionIn, p.TransitionIn)
	setStr(&s.TransitionOut, p.TransitionOut)
	if p.ReferenceImages != nil {
		s.ReferenceImages = StringList(*p.ReferenceImages)
		changed = true
	}
	setStr(&s.ReferenceFrameURL, p.ReferenceFrameURL)
	setStr(&s.GeneratedAssetURL, p.GeneratedAssetURL)
	setStr(&s.Notes, p.Notes)
	return changed
}
