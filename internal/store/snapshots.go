package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Snapshot represents an imported schema snapshot.
type Snapshot struct {
	Name       string
	ImportedAt string
	SourcePath string
}

// ErrSnapshotNotFound is returned when a named snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// upsertSnapshot creates or updates a snapshot record.
func (s *Store) upsertSnapshot(name, sourcePath string) error {
	_, err := s.q.Exec(`
		INSERT INTO snapshots (name, imported_at, source_path) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET imported_at=excluded.imported_at, source_path=excluded.source_path`,
		name, Now(), sourcePath)
	return err
}

// GetSnapshot returns a snapshot by name.
func (s *Store) GetSnapshot(name string) (*Snapshot, error) {
	var sn Snapshot
	err := s.q.QueryRow("SELECT name, imported_at, source_path FROM snapshots WHERE name=?", name).
		Scan(&sn.Name, &sn.ImportedAt, &sn.SourcePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

// ListSnapshots returns all imported snapshots.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.q.Query("SELECT name, imported_at, source_path FROM snapshots ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Snapshot
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(&sn.Name, &sn.ImportedAt, &sn.SourcePath); err != nil {
			return nil, err
		}
		result = append(result, &sn)
	}
	return result, rows.Err()
}

// DeleteSnapshot deletes a snapshot and all its classes and properties (CASCADE).
func (s *Store) DeleteSnapshot(name string) error {
	_, err := s.q.Exec("DELETE FROM snapshots WHERE name=?", name)
	return err
}
