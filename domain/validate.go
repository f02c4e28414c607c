package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyID is returned when a persisted column or task has no id.
	ErrEmptyID = errors.New("empty id")
	// ErrDuplicateID is returned when a persisted id occurs more than once.
	ErrDuplicateID = errors.New("duplicate id")
)

// Validate checks the identity invariants of a loaded snapshot. Orphan tasks
// are tolerated here; they are hidden by readers instead.
func (s Snapshot) Validate() error {
	cols := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if c.ID == "" {
			return fmt.Errorf("columns[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := cols[c.ID]; dup {
			return fmt.Errorf("columns[%d] %q: %w", i, c.ID, ErrDuplicateID)
		}
		cols[c.ID] = struct{}{}
	}
	tasks := make(map[string]struct{}, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.ID == "" {
			return fmt.Errorf("tasks[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := tasks[t.ID]; dup {
			return fmt.Errorf("tasks[%d] %q: %w", i, t.ID, ErrDuplicateID)
		}
		tasks[t.ID] = struct{}{}
	}
	return nil
}
