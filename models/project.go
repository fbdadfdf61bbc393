package models

import "time"

type Project struct {
	ID                 string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name               string     `gorm:"size:255;index" json:"name"`
	BrandPrimary       string     `gorm:"size:255" json:"brand_primary"`
	BrandSecondary     string     `gorm:"size:255" json:"brand_secondary"`
	Description        string     `gorm:"type:text" json:"description"`
	ComplianceNotes    StringList `gorm:"type:json" json:"compliance_notes"`
	ForbiddenElements  StringList `gorm:"type:json" json:"forbidden_elements"`
	RequiredElements   StringList `gorm:"type:json" json:"required_elements"`
	VisualStyle        string     `gorm:"type:text" json:"visual_style"`
	DefaultTimeOfDay   string     `gorm:"size:64" json:"default_time_of_day"`
	DefaultWeather     string     `gorm:"size:64" json:"default_weather"`
	DefaultLighting    string     `gorm:"size:64" json:"default_lighting"`
	DefaultAspectRatio string     `gorm:"size:16" json:"default_aspect_ratio"`
	TargetDurationSec  float64    `json:"target_duration_sec"`
	ModelPreferences   StringMap  `gorm:"type:json" json:"model_preferences"`
	Tags               StringList `gorm:"type:json" json:"tags"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Project) TableName() string {
	return "project"
}

// ApplyDefaults fills the visual defaults a new project starts with.
func (p *Project) ApplyDefaults() {
	if p.DefaultTimeOfDay == "" {
		p.DefaultTimeOfDay = "day"
	}
	if p.DefaultWeather == "" {
		p.DefaultWeather = "clear"
	}
	if p.DefaultLighting == "" {
		p.DefaultLighting = "natural"
	}
	if p.DefaultAspectRatio == "" {
		p.DefaultAspectRatio = "16:9"
	}
}

// ProjectStats is the derived progress summary shown next to a project.
type ProjectStats struct {
	WorldCount     int64          `json:"world_count"`
	CharacterCount int64          `json:"character_count"`
	ObjectCount    int64          `json:"object_count"`
	SceneCount     int64          `json:"scene_count"`
	ShotCount      int64          `json:"shot_count"`
	CompletionPct  float64        `json:"completion_pct"`
	TotalDuration  float64        `json:"total_duration"`
	StageCounts    map[string]int `json:"stage_counts"`
}
