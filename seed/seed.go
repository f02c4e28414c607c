// Package seed builds an initial board from a YAML description.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"kanban-board/domain"
)

// File is the YAML layout:
//
//	columns:
//	  - title: To Do
//	    tasks: [draft release notes, review]
//	  - id: done
//	    title: Done
type File struct {
	Columns []ColumnSeed `yaml:"columns"`
}

type ColumnSeed struct {
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Tasks []string `yaml:"tasks"`
}

// Parse decodes a seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// ReadFile parses the seed document at path.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed: %w", err)
	}
	return Parse(data)
}

// Snapshot turns the seed into a board, generating ids where none are given.
func (f File) Snapshot(newID func() string) (domain.Snapshot, error) {
	if newID == nil {
		newID = uuid.NewString
	}
	snap := domain.Snapshot{Columns: []domain.Column{}, Tasks: []domain.Task{}}
	for _, c := range f.Columns {
		id := c.ID
		if id == "" {
			id = newID()
		}
		snap.Columns = append(snap.Columns, domain.Column{ID: id, Title: c.Title})
		for _, content := range c.Tasks {
			snap.Tasks = append(snap.Tasks, domain.Task{ID: newID(), ColumnID: id, Content: content})
		}
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: %w", err)
	}
	return snap, nil
}

// Apply writes the seeded board to st unless st already holds columns or
// tasks. It reports whether anything was written.
func Apply(ctx context.Context, st domain.SnapshotStorage, f File) (bool, error) {
	current, err := st.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load current board: %w", err)
	}
	if len(current.Columns) > 0 || len(current.Tasks) > 0 {
		log.WithFields(log.Fields{"columns": len(current.Columns), "tasks": len(current.Tasks)}).Info("board already populated, skipping seed")
		return false, nil
	}
	snap, err := f.Snapshot(nil)
	if err != nil {
		return false, err
	}
	if err := st.Save(ctx, snap); err != nil {
		return false, fmt.Errorf("save seed: %w", err)
	}
	log.WithFields(log.Fields{"columns": len(snap.Columns), "tasks": len(snap.Tasks)}).Info("board seeded")
	return true, nil
}
