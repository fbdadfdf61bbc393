package models

import "time"

const CompilationStatusCompiled = "compiled"

// Compilation is one recorded model invocation. Rows are inserted once and
// never updated.
type Compilation struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID  string    `gorm:"type:varchar(64);index:idx_compilation_scope,priority:1" json:"project_id"`
	ShotID     *string   `gorm:"type:varchar(64);index:idx_compilation_scope,priority:2" json:"shot_id"`
	Status     string    `gorm:"size:32" json:"status"`
	Model      string    `gorm:"size:128" json:"model"`
	Input      RawJSON   `gorm:"type:json" json:"input"`
	Output     RawJSON   `gorm:"type:json" json:"output"`
	ParseError bool      `json:"parse_error"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Compilation) TableName() string {
	return "compilation"
}
