package domain

import "context"

// Board event types, one per mutation.
const (
	ColumnAdded    = "column-added"
	ColumnUpdated  = "column-updated"
	ColumnsSwapped = "columns-swapped"
	ColumnDeleted  = "column-deleted"
	TaskAdded      = "task-added"
	TaskUpdated    = "task-updated"
	TaskMoved      = "task-moved"
	TasksDeleted   = "tasks-deleted"
)

// Event announces a committed mutation. It carries no board state; readers
// refetch the snapshot.
type Event struct {
	Type     string `json:"type"`
	EntityID string `json:"entityId,omitempty"`
	Version  uint64 `json:"version"`
	Time     int64  `json:"time"`
}

// Publisher receives events after the snapshot has been persisted.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}
