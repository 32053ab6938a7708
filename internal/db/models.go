package db

import (
	"time"

	"gorm.io/datatypes"
)

// Project is a tenant namespace. Clients push data points into a project
// authorized by its API key; the admin UI lists and registers projects.
type Project struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Slug identifies the project in URLs and ingest payloads. Immutable
	// after registration.
	Slug string `gorm:"uniqueIndex;size:64;not null"`

	Title string `gorm:"size:255;not null"`

	// APIKey is the shared secret authorizing writes for this project,
	// compared by exact match.
	APIKey string `gorm:"size:255;not null"`

	// FieldNames is the set of field names ever observed for this project.
	// It only grows; losing an update under concurrent ingest is tolerated
	// because a later ingest of the same field re-adds it.
	FieldNames datatypes.JSONSlice[string] `gorm:"type:json"`
}

// DataPoint is one timestamped measurement submission. The timestamp is
// assigned server-side at ingest so day bucketing is immune to client
// clock skew. Points are append-only and never updated.
type DataPoint struct {
	ID uint `gorm:"primaryKey"`

	ProjectID uint `gorm:"index;not null"`

	Timestamp  time.Time `gorm:"index;not null"`
	RemoteAddr string    `gorm:"size:64"`

	// Fields holds the point's field-name to numeric-value mapping. The
	// set of fields may differ between points of the same project.
	Fields datatypes.JSONMap `gorm:"type:json"`

	Project Project `gorm:"foreignKey:ProjectID"`
}

// DataAggregate is the per-day statistical summary for one field of one
// project. The raw values are retained alongside the derived statistics so
// a row is self-consistent and recomputation never has to re-read points.
// Rows are fully replaced on every aggregation run for their key.
type DataAggregate struct {
	ID uint `gorm:"primaryKey"`

	ProjectSlug string `gorm:"uniqueIndex:idx_aggregate_key,priority:1;size:64;not null"`
	FieldName   string `gorm:"uniqueIndex:idx_aggregate_key,priority:2;size:128;not null"`
	// Date is the ISO 8601 calendar day (YYYY-MM-DD); stored as a string so
	// range queries compare lexically, which for this format matches
	// chronological order.
	Date string `gorm:"uniqueIndex:idx_aggregate_key,priority:3;size:10;not null"`

	Values datatypes.JSONSlice[float64] `gorm:"type:json"`

	Min     float64 `gorm:"not null"`
	Max     float64 `gorm:"not null"`
	Average float64 `gorm:"not null"`
	Median  float64 `gorm:"not null"`
}

// AggregateKey identifies a DataAggregate row. Structural equality on the
// three parts avoids the ambiguity of separator-joined key strings.
type AggregateKey struct {
	ProjectSlug string
	FieldName   string
	Date        string
}
