package db

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InsertPoint persists one measurement for the project and records any
// newly observed field names on it. The timestamp is assigned here, from
// the server clock, so day bucketing never depends on the client's clock.
//
// Validation is all-or-nothing: an empty mapping or any non-finite value
// rejects the whole point; a partial point is never stored.
func InsertPoint(db *gorm.DB, prj *Project, remoteAddr string, fields map[string]float64) (*DataPoint, error) {
	if len(fields) == 0 {
		return nil, validationErrorf("no field values provided")
	}

	attrs := datatypes.JSONMap{}
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, validationErrorf("field %q is not a finite number", name)
		}
		attrs[name] = value
		names = append(names, name)
	}

	point := &DataPoint{
		ProjectID:  prj.ID,
		Timestamp:  time.Now(),
		RemoteAddr: remoteAddr,
		Fields:     attrs,
	}
	if err := db.Create(point).Error; err != nil {
		return nil, err
	}

	if err := RecordFieldUsage(db, prj, names); err != nil {
		return nil, err
	}

	return point, nil
}

// RawObservation is one (timestamp, value) pair from the raw point series.
type RawObservation struct {
	Timestamp time.Time
	Value     float64
}

// QueryRange returns the raw observations of one field between two calendar
// days, both inclusive, ordered by timestamp ascending. Points that do not
// carry the field are skipped. Each call re-reads the store; no cursor
// state is kept.
func QueryRange(db *gorm.DB, prj *Project, fieldName, startDate, endDate string) ([]RawObservation, error) {
	start, end, err := parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	var points []DataPoint
	if err := db.Where("project_id = ? AND timestamp >= ? AND timestamp <= ?",
		prj.ID, dayStart(start), dayEnd(end)).
		Order("timestamp").
		Find(&points).Error; err != nil {
		return nil, err
	}

	obs := make([]RawObservation, 0, len(points))
	for _, p := range points {
		if v, ok := fieldValue(p.Fields, fieldName); ok {
			obs = append(obs, RawObservation{Timestamp: p.Timestamp, Value: v})
		}
	}
	return obs, nil
}

// fieldValue extracts a numeric field from a point's mapping. JSON numbers
// decode as float64; anything else is ignored.
func fieldValue(fields datatypes.JSONMap, name string) (float64, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// ListRecentPoints returns the project's newest points, for the admin
// detail page.
func ListRecentPoints(db *gorm.DB, prj *Project, limit int) ([]DataPoint, error) {
	var points []DataPoint
	if err := db.Where("project_id = ?", prj.ID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
