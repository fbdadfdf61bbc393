package models

import "time"

// Object is a prop or item that recurs across shots.
type Object struct {
	ID                    string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID             string     `gorm:"type:varchar(64);index" json:"project_id"`
	Name                  string     `gorm:"size:255" json:"name"`
	Category              string     `gorm:"size:128" json:"category"`
	Description           string     `gorm:"type:text" json:"description"`
	ReferenceImages       StringList `gorm:"type:json" json:"reference_images"`
	NarrativeSignificance string     `gorm:"type:text" json:"narrative_significance"`
	UsageNotes            string     `gorm:"type:text" json:"usage_notes"`
	Tags                  StringList `gorm:"type:json" json:"tags"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Object) TableName() string {
	return "story_object"
}
