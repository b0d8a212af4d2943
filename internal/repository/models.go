// Package repository provides database abstraction for the ingest run
// ledger: metadata about each ingest run (not graph data itself, which
// never touches this database).
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// IngestRun represents the ingest_runs table: one row per orchestrator
// Run call, recording its lifecycle for observability and post-hoc
// auditing (SPEC_FULL.md §2.6).
type IngestRun struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        string     `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Database     string     `gorm:"column:database;type:varchar(128)"`
	Mode         string     `gorm:"column:mode;type:varchar(32)"`
	State        string     `gorm:"column:state;type:varchar(32)"`
	Metagraph    JSONField  `gorm:"column:metagraph;type:json"`
	VertexCount  int64      `gorm:"column:vertex_count"`
	EdgeCount    int64      `gorm:"column:edge_count"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	StartedAt    time.Time  `gorm:"column:started_at;autoCreateTime"`
	EndedAt      *time.Time `gorm:"column:ended_at"`
}

// TableName returns the table name for IngestRun.
func (IngestRun) TableName() string {
	return "ingest_runs"
}

// JSONField is a custom type for handling JSON columns in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// MarshalMetagraph encodes any JSON-marshalable metagraph descriptor into
// a JSONField, for callers recording a run's request shape.
func MarshalMetagraph(v any) (JSONField, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONField(b), nil
}
