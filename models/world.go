package models

import "time"

type World struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID        *string    `gorm:"type:varchar(64);index" json:"project_id"`
	Name             string     `gorm:"size:255" json:"name"`
	Description      string     `gorm:"type:text" json:"description"`
	MarbleURL        string     `gorm:"size:1024" json:"marble_url"`
	ReferenceImages  StringList `gorm:"type:json" json:"reference_images"`
	EmotionalZone    string     `gorm:"size:32" json:"emotional_zone"`
	Atmosphere       string     `gorm:"type:text" json:"atmosphere"`
	TimeOfDay        string     `gorm:"size:64" json:"time_of_day"`
	Weather          string     `gorm:"size:64" json:"weather"`
	LightingNotes    string     `gorm:"type:text" json:"lighting_notes"`
	SpatialCharacter string     `gorm:"type:text" json:"spatial_character"`
	Tags             StringList `gorm:"type:json" json:"tags"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (World) TableName() string {
	return "world"
}

type Character struct {
	ID              string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID       string        `gorm:"type:varchar(64);index" json:"project_id"`
	Name            string        `gorm:"size:255" json:"name"`
	Role            string        `gorm:"size:128" json:"role"`
	Description     string        `gorm:"type:text" json:"description"`
	IdentityImages  StringList    `gorm:"type:json" json:"identity_images"`
	Personality     string        `gorm:"type:text" json:"personality"`
	VoiceProfile    string        `gorm:"type:text" json:"voice_profile"`
	VisualNotes     string        `gorm:"type:text" json:"visual_notes"`
	MotivationNotes string        `gorm:"type:text" json:"motivation_notes"`
	ArcSummary      string        `gorm:"type:text" json:"arc_summary"`
	Relationships   Relationships `gorm:"type:json" json:"relationships"`
	Tags            StringList    `gorm:"type:json" json:"tags"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Character) TableName() string {
	return "character"
}
