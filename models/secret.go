package models

import "time"

// Secret is a named credential such as the generative-model API key.
type Secret struct {
	Name      string    `gorm:"primaryKey;type:varchar(128)" json:"name"`
	Value     string    `gorm:"type:text" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Secret) TableName() string {
	return "secret"
}
