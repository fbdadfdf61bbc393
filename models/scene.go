package models

import "time"

type Scene struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID        string     `gorm:"type:varchar(64);index" json:"project_id"`
	SceneNumber      int        `gorm:"index" json:"scene_number"`
	Title            string     `gorm:"size:255" json:"title"`
	Synopsis         string     `gorm:"type:text" json:"synopsis"`
	WorldID          *string    `gorm:"type:varchar(64)" json:"world_id"`
	CharacterIDs     StringList `gorm:"type:json" json:"character_ids"`
	EmotionalZone    string     `gorm:"size:32" json:"emotional_zone"`
	NarrativePurpose string     `gorm:"type:text" json:"narrative_purpose"`
	DramaticTension  int        `json:"dramatic_tension"`
	TimeOfDay        string     `gorm:"size:64" json:"time_of_day"`
	Weather          string     `gorm:"size:64" json:"weather"`
	Lighting         string     `gorm:"size:128" json:"lighting"`
	DirectorNotes    string     `gorm:"type:text" json:"director_notes"`
	ShotCount        int64      `gorm:"-" json:"shot_count,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Scene) TableName() string {
	return "scene"
}
