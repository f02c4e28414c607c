package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SnapshotStorage persists the whole board. Save must be durable before it
// returns.
type SnapshotStorage interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Store owns the authoritative board. All reads and writes go through one
// mutex so mutations are linearized; each committed mutation bumps Version.
type Store struct {
	st    SnapshotStorage
	pub   Publisher
	newID func() string
	now   func() time.Time

	mu      sync.Mutex
	snap    Snapshot
	version uint64
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithPublisher sets where committed mutations are announced.
func WithPublisher(p Publisher) StoreOption {
	return func(s *Store) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore loads the persisted snapshot and returns a Store serving it.
func NewStore(ctx context.Context, st SnapshotStorage, opts ...StoreOption) (*Store, error) {
	if st == nil {
		return nil, fmt.Errorf("domain.NewStore: storage is nil")
	}
	s := &Store{
		st:    st,
		pub:   nopPublisher{},
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if orphans := snap.Orphans(); len(orphans) > 0 {
		log.WithField("count", len(orphans)).Warn("snapshot contains orphan tasks")
	}
	if snap.Columns == nil {
		snap.Columns = []Column{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []Task{}
	}
	s.snap = snap
	return s, nil
}

// Board returns a copy of the current snapshot and its version.
func (s *Store) Board() (Snapshot, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), s.version
}

// Version returns the number of mutations committed since start-up.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// mutate stages fn on a copy, persists the copy when fn succeeded and only
// then makes it current. A failed fn or a failed save leaves the board as it
// was.
func (s *Store) mutate(ctx context.Context, evType, entityID string, fn func(*Snapshot) Result) (Result, error) {
	s.mu.Lock()
	next := s.snap.Clone()
	res := fn(&next)
	if !res.OK() {
		s.mu.Unlock()
		return res, nil
	}
	if err := s.st.Save(ctx, next); err != nil {
		s.mu.Unlock()
		log.WithError(err).WithField("event", evType).Error("persist snapshot failed")
		return Result{}, fmt.Errorf("persist snapshot: %w", err)
	}
	s.snap = next
	s.version++
	ev := Event{Type: evType, EntityID: entityID, Version: s.version, Time: s.now().UnixMilli()}
	s.mu.Unlock()

	s.pub.Publish(ctx, ev)
	return res, nil
}

// AddColumn appends a column with a fresh id.
func (s *Store) AddColumn(ctx context.Context, title string) (Result, error) {
	id := s.newID()
	return s.mutate(ctx, ColumnAdded, id, func(b *Snapshot) Result {
		return b.AddColumn(id, title)
	})
}

// UpdateColumn renames a column when title is non-empty.
func (s *Store) UpdateColumn(ctx context.Context, id string, title *string) (Result, error) {
	return s.mutate(ctx, ColumnUpdated, id, func(b *Snapshot) Result {
		return b.UpdateColumn(id, title)
	})
}

// DeleteColumn removes a column and its tasks in one write.
func (s *Store) DeleteColumn(ctx context.Context, id string) (Result, error) {
	return s.mutate(ctx, ColumnDeleted, id, func(b *Snapshot) Result {
		return b.DeleteColumn(id)
	})
}

// SwapColumns exchanges the positions of two columns.
func (s *Store) SwapColumns(ctx context.Context, activeID, overID string) (Result, error) {
	return s.mutate(ctx, ColumnsSwapped, activeID, func(b *Snapshot) Result {
		return b.SwapColumns(activeID, overID)
	})
}

// AddTask appends a task with a fresh id to an existing column.
func (s *Store) AddTask(ctx context.Context, columnID, content string) (Result, error) {
	id := s.newID()
	return s.mutate(ctx, TaskAdded, id, func(b *Snapshot) Result {
		return b.AddTask(id, columnID, content)
	})
}

// UpdateTask replaces a task's content when content is non-empty.
func (s *Store) UpdateTask(ctx context.Context, id string, content *string) (Result, error) {
	return s.mutate(ctx, TaskUpdated, id, func(b *Snapshot) Result {
		return b.UpdateTask(id, content)
	})
}

// MoveTask optionally reparents the active task and swaps it with the over task.
func (s *Store) MoveTask(ctx context.Context, activeID, overID, columnID string) (Result, error) {
	return s.mutate(ctx, TaskMoved, activeID, func(b *Snapshot) Result {
		return b.MoveTask(activeID, overID, columnID)
	})
}

// DeleteTasks removes the listed tasks, reporting partial success.
func (s *Store) DeleteTasks(ctx context.Context, ids []string) (Result, error) {
	return s.mutate(ctx, TasksDeleted, "", func(b *Snapshot) Result {
		return b.DeleteTasks(ids)
	})
}
