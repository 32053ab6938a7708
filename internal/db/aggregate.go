package db

import (
	"errors"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecomputeProject rebuilds the daily aggregates of one project for the
// given ISO date. The rebuild is full-replace: every field the project has
// ever reported gets a fresh accumulator, the day's points are folded in,
// and each accumulator is either upserted (with recomputed statistics) or,
// when it collected no values, deleted. Re-running for the same
// (project, date) therefore always converges to the same stored rows and
// never double-counts.
//
// Concurrent runs for the same key are not guarded here; the caller is
// expected to serialize them (one scheduled run per day). Runs for
// different projects or dates share no state.
func RecomputeProject(db *gorm.DB, prj *Project, date string) error {
	day, err := ParseISODate(date)
	if err != nil {
		return err
	}

	values := make(map[string][]float64, len(prj.FieldNames))
	for _, name := range prj.FieldNames {
		values[name] = nil
	}

	var points []DataPoint
	if err := db.Where("project_id = ? AND timestamp >= ? AND timestamp <= ?",
		prj.ID, dayStart(day), dayEnd(day)).
		Find(&points).Error; err != nil {
		return err
	}

	for _, p := range points {
		for name := range p.Fields {
			v, ok := fieldValue(p.Fields, name)
			if !ok {
				continue
			}
			// A point can carry a field recorded on the project by a
			// later ingest than the one that stored it; fold it in
			// either way so the aggregate reflects every stored value.
			values[name] = append(values[name], v)
		}
	}

	for name, vals := range values {
		key := AggregateKey{ProjectSlug: prj.Slug, FieldName: name, Date: date}
		if len(vals) == 0 {
			if err := deleteAggregate(db, key); err != nil {
				return err
			}
			continue
		}
		if err := upsertAggregate(db, key, vals); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeAll rebuilds aggregates for every registered project on the
// given date.
func RecomputeAll(db *gorm.DB, date string) error {
	if _, err := ParseISODate(date); err != nil {
		return err
	}
	projects, err := ListProjects(db)
	if err != nil {
		return err
	}
	for i := range projects {
		if err := RecomputeProject(db, &projects[i], date); err != nil {
			return err
		}
	}
	return nil
}

// upsertAggregate stores the value set under its key, replacing any prior
// row, with statistics recomputed from scratch.
func upsertAggregate(db *gorm.DB, key AggregateKey, vals []float64) error {
	agg := DataAggregate{
		ProjectSlug: key.ProjectSlug,
		FieldName:   key.FieldName,
		Date:        key.Date,
		Values:      datatypes.JSONSlice[float64](vals),
	}
	applyStats(&agg)

	var existing DataAggregate
	err := db.Where("project_slug = ? AND field_name = ? AND date = ?",
		key.ProjectSlug, key.FieldName, key.Date).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&agg).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Updates(map[string]interface{}{
		"values":  agg.Values,
		"min":     agg.Min,
		"max":     agg.Max,
		"average": agg.Average,
		"median":  agg.Median,
	}).Error
}

func deleteAggregate(db *gorm.DB, key AggregateKey) error {
	return db.Where("project_slug = ? AND field_name = ? AND date = ?",
		key.ProjectSlug, key.FieldName, key.Date).
		Delete(&DataAggregate{}).Error
}

// applyStats derives min/max/average/median from the aggregate's value
// set. An empty set yields zeros, though empty aggregates are deleted
// before ever being stored.
//
// The median is the element at index len/2 of the ascending sort: for an
// even count that is the upper-middle value, not the mean of the two
// middle values. Downstream consumers of the historical data depend on
// this tie-break, so it is kept as-is.
func applyStats(agg *DataAggregate) {
	if len(agg.Values) == 0 {
		agg.Min, agg.Max, agg.Average, agg.Median = 0, 0, 0, 0
		return
	}

	sorted := append([]float64(nil), agg.Values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	agg.Min = sorted[0]
	agg.Max = sorted[len(sorted)-1]
	agg.Average = sum / float64(len(sorted))
	agg.Median = sorted[len(sorted)/2]
}

// SeriesEntry is one day of a pre-aggregated series as served to clients.
type SeriesEntry struct {
	Date   string
	Min    float64
	Median float64
	Max    float64
}

// QuerySeries reads the pre-aggregated rows of one field between two ISO
// dates, both inclusive, ordered by date ascending. Days without an
// aggregate are absent from the result; callers must not assume one entry
// per calendar day.
func QuerySeries(db *gorm.DB, prj *Project, fieldName, startDate, endDate string) ([]SeriesEntry, error) {
	if _, _, err := parseDateRange(startDate, endDate); err != nil {
		return nil, err
	}

	var rows []DataAggregate
	if err := db.Where("project_slug = ? AND field_name = ? AND date >= ? AND date <= ?",
		prj.Slug, fieldName, startDate, endDate).
		Order("date").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	series := make([]SeriesEntry, 0, len(rows))
	for _, r := range rows {
		series = append(series, SeriesEntry{
			Date:   r.Date,
			Min:    r.Min,
			Median: r.Median,
			Max:    r.Max,
		})
	}
	return series, nil
}
