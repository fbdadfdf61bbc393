package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a []string persisted as a JSON column.
type StringList []string

// StringMap is a map[string]string persisted as a JSON column.
type StringMap map[string]string

// Relationship links a character to another character of the same project.
type Relationship struct {
	CharacterID string `json:"character_id"`
	Kind        string `json:"kind"`
	Notes       string `json:"notes,omitempty"`
}

type Relationships []Relationship

// GenerationEntry is one line of a shot's generation history.
type GenerationEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	CompilationID string    `json:"compilation_id,omitempty"`
	Input         string    `json:"input_description,omitempty"`
	Error         string    `json:"error,omitempty"`
}

type GenerationLog []GenerationEntry

// RawJSON holds an already-encoded JSON document.
type RawJSON json.RawMessage

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error { return scanJSON(value, l) }

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		m = StringMap{}
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error { return scanJSON(value, m) }

func (r Relationships) Value() (driver.Value, error) {
	if r == nil {
		r = Relationships{}
	}
	return json.Marshal(r)
}

func (r *Relationships) Scan(value interface{}) error { return scanJSON(value, r) }

func (g GenerationLog) Value() (driver.Value, error) {
	if g == nil {
		g = GenerationLog{}
	}
	return json.Marshal(g)
}

func (g *GenerationLog) Scan(value interface{}) error { return scanJSON(value, g) }

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("models: cannot scan %T into RawJSON", value)
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// scanJSON decodes a JSON column. MySQL hands back []byte, SQLite may hand
// back either []byte or string depending on how the value was bound.
func scanJSON(value interface{}, dst interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into %T", value, dst)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
