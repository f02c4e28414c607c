package view

import (
	"context"
	"sync"

	"kanban-board/domain"
)

// Session holds the last fetched board and an optional drag preview. The
// fetched board is replaced only by a full refetch; every action refetches
// whether or not it succeeded.
type Session struct {
	api API

	mu      sync.Mutex
	snap    domain.Snapshot
	version uint64
	loaded  bool
	preview *Preview
}

func NewSession(api API) *Session {
	return &Session{api: api, snap: domain.Snapshot{Columns: []domain.Column{}, Tasks: []domain.Task{}}}
}

// Refresh refetches the full board. On error the previous board is kept.
func (s *Session) Refresh(ctx context.Context) error {
	snap, version, err := s.api.Board(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snap
	s.version = version
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Loaded reports whether at least one fetch has succeeded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot returns a copy of the last fetched board.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Board is what should be on screen: the preview while dragging, otherwise
// the fetched board.
func (s *Session) Board() []ColumnView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview != nil {
		return s.preview.Board()
	}
	return Project(s.snap)
}

// Do issues op and then refetches. The operation's error wins over the
// refetch error.
func (s *Session) Do(ctx context.Context, op Operation) (domain.Result, error) {
	res, opErr := op.Apply(ctx, s.api)
	refreshErr := s.Refresh(ctx)
	if opErr != nil {
		return domain.Result{}, opErr
	}
	return res, refreshErr
}

// BeginDrag starts a preview for active. It fails if active is not on the
// fetched board.
func (s *Session) BeginDrag(active Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch active.Kind {
	case TaskItem:
		if _, ok := s.snap.Task(active.ID); !ok {
			return false
		}
	case ColumnItem:
		if _, ok := s.snap.Column(active.ID); !ok {
			return false
		}
	default:
		return false
	}
	s.preview = NewPreview(s.snap, active)
	return true
}

// Dragging returns the active item while a drag is in progress.
func (s *Session) Dragging() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return Item{}, false
	}
	return s.preview.Active(), true
}

// DragOver updates the preview for a new hover target.
func (s *Session) DragOver(over Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview != nil {
		s.preview.SetOver(over)
	}
}

// CancelDrag discards the preview.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	s.preview = nil
	s.mu.Unlock()
}

// Drop discards the preview and, when the drop means something, issues the
// matching operation and refetches. ok is false when nothing was issued.
func (s *Session) Drop(ctx context.Context, over *Item) (op Operation, res domain.Result, ok bool, err error) {
	s.mu.Lock()
	p := s.preview
	s.preview = nil
	snap := s.snap
	s.mu.Unlock()
	if p == nil {
		return Operation{}, domain.Result{}, false, nil
	}
	op, ok = DropOperation(snap, p.Active(), over)
	if !ok {
		return Operation{}, domain.Result{}, false, nil
	}
	res, err = s.Do(ctx, op)
	return op, res, true, err
}
