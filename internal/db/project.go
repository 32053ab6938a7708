package db

import (
	"errors"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateProject registers a new project. All three parameters are required;
// a duplicate slug fails with ErrConflict rather than overwriting the
// existing project's API key.
func CreateProject(db *gorm.DB, slug, title, apiKey string) (*Project, error) {
	if slug == "" || title == "" || apiKey == "" {
		return nil, validationErrorf("slug, title and api_key are required")
	}

	var count int64
	if err := db.Model(&Project{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	prj := &Project{
		Slug:       slug,
		Title:      title,
		APIKey:     apiKey,
		FieldNames: datatypes.JSONSlice[string]{},
	}
	if err := db.Create(prj).Error; err != nil {
		return nil, err
	}
	return prj, nil
}

// GetProjectBySlug looks up a project. Absence is reported as ErrNotFound.
func GetProjectBySlug(db *gorm.DB, slug string) (*Project, error) {
	var prj Project
	if err := db.Where("slug = ?", slug).First(&prj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &prj, nil
}

// ListProjects returns all registered projects ordered by slug.
func ListProjects(db *gorm.DB) ([]Project, error) {
	var projects []Project
	if err := db.Order("slug").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// RecordFieldUsage merges the observed field names into the project's known
// set. If the union equals the current set no write is issued; this runs on
// every ingest, so the steady-state path must not touch the database.
//
// The read-modify-write races under concurrent ingest for the same project
// and the last writer wins. That is acceptable: the field set is an index
// over the points, not primary data, and the next ingest of a dropped name
// restores it.
func RecordFieldUsage(db *gorm.DB, prj *Project, observed []string) error {
	known := make(map[string]bool, len(prj.FieldNames))
	for _, name := range prj.FieldNames {
		known[name] = true
	}

	missing := make([]string, 0)
	for _, name := range observed {
		if !known[name] {
			known[name] = true
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	merged := append([]string(nil), prj.FieldNames...)
	merged = append(merged, missing...)
	sort.Strings(merged)

	prj.FieldNames = merged
	return db.Model(&Project{}).Where("id = ?", prj.ID).
		Update("field_names", prj.FieldNames).Error
}
