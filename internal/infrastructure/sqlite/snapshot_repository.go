package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/persist"
)

// snapshotColumns is the list of columns to select for snapshot queries.
const snapshotColumns = `id, guid, project, active_tab, active_grp, tabs, sessions, saved_at, updated_at`

// SnapshotRepository implements persist.Repository using SQLite.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository opens the database at path and returns a
// repository over it.
func NewSnapshotRepository(path string) (*SnapshotRepository, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	return &SnapshotRepository{db: db}, nil
}

// NewSnapshotRepositoryWithDB wraps an existing database handle,
// used by tests.
func NewSnapshotRepositoryWithDB(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Ensure SnapshotRepository implements persist.Repository.
var _ persist.Repository = (*SnapshotRepository)(nil)

// scanSnapshot scans a row into a SnapshotModel.
func scanSnapshot(scanner interface{ Scan(...any) error }) (*SnapshotModel, error) {
	var model SnapshotModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.Project,
		&model.ActiveTab, &model.ActiveGrp,
		&model.Tabs, &model.Sessions,
		&model.SavedAt, &model.UpdatedAt,
	)
	return &model, err
}

// Save persists the snapshot, replacing any previous one for the same
// project.
func (r *SnapshotRepository) Save(snapshot *persist.Snapshot) error {
	model, err := toSnapshotModel(snapshot)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (guid, project, active_tab, active_grp, tabs, sessions, saved_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project) DO UPDATE SET
			active_tab = excluded.active_tab,
			active_grp = excluded.active_grp,
			tabs = excluded.tabs,
			sessions = excluded.sessions,
			saved_at = excluded.saved_at,
			updated_at = excluded.updated_at`,
		uuid.NewString(), model.Project, model.ActiveTab, model.ActiveGrp,
		model.Tabs, model.Sessions, model.SavedAt, model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot for a project. A corrupt payload is
// logged and reported as SnapshotNotFoundError so restoration proceeds
// as a first run.
func (r *SnapshotRepository) Load(project string) (*persist.Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT `+snapshotColumns+` FROM snapshots WHERE project = ?`,
		project,
	)
	model, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persist.SnapshotNotFoundError{Project: project}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap, err := model.toDomain()
	if err != nil {
		log.Warn(log.CatDB, "discarding corrupt snapshot", "project", project, "error", err.Error())
		return nil, &persist.SnapshotNotFoundError{Project: project}
	}
	return snap, nil
}

// Delete removes the snapshot for a project. Missing rows are not an
// error.
func (r *SnapshotRepository) Delete(project string) error {
	_, err := r.db.Exec(`DELETE FROM snapshots WHERE project = ?`, project)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Projects lists the projects with stored snapshots, most recently
// updated first.
func (r *SnapshotRepository) Projects() ([]string, error) {
	rows, err := r.db.Query(`SELECT project FROM snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Close releases the underlying database handle.
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}
