package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kanban-board/domain"
	"kanban-board/view"
)

type memStorage struct {
	mu   sync.Mutex
	snap domain.Snapshot
}

func (m *memStorage) Load(ctx context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

func (m *memStorage) Save(ctx context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

type storeAPI struct{ *domain.Store }

func (a storeAPI) Board(ctx context.Context) (domain.Snapshot, uint64, error) {
	snap, v := a.Store.Board()
	return snap, v, nil
}

func newTestModel(t *testing.T) (model, *domain.Store) {
	t.Helper()
	store, err := domain.NewStore(context.Background(), &memStorage{snap: domain.Snapshot{
		Columns: []domain.Column{{ID: "c1", Title: "To Do"}, {ID: "c2", Title: "Done"}},
		Tasks: []domain.Task{
			{ID: "t1", ColumnID: "c1", Content: "write docs"},
			{ID: "t2", ColumnID: "c2", Content: "ship it"},
		},
	}})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	m := newModel(view.NewSession(storeAPI{store}))
	return drain(t, m, m.Init()), store
}

func drain(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	for i := 0; cmd != nil && i < 16; i++ {
		msg := cmd()
		if msg == nil {
			return m
		}
		next, nextCmd := m.Update(msg)
		got, ok := next.(model)
		if !ok {
			t.Fatalf("Update returned %T, want model", next)
		}
		m, cmd = got, nextCmd
	}
	return m
}

func press(t *testing.T, m model, msg tea.KeyMsg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return drain(t, got, cmd)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m model, s string) model {
	t.Helper()
	for _, r := range s {
		if r == ' ' {
			m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m = press(t, m, key(string(r)))
	}
	return m
}

var (
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestInitLoadsBoard(t *testing.T) {
	m, _ := newTestModel(t)
	if !m.session.Loaded() {
		t.Fatal("board not loaded")
	}
	out := m.View()
	for _, want := range []string{"To Do", "Done", "write docs", "ship it"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestAddTaskToFocusedColumn(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, keyRight)
	m = press(t, m, key("a"))
	if m.input != inputAddTask || m.targetID != "c2" {
		t.Fatalf("unexpected input state %v %q", m.input, m.targetID)
	}
	m = typeText(t, m, "new card")
	m = press(t, m, keyEnter)

	if m.status != "Task added successfully" || m.failed {
		t.Fatalf("unexpected status %q", m.status)
	}
	snap, _ := store.Board()
	last := snap.Tasks[len(snap.Tasks)-1]
	if last.Content != "new card" || last.ColumnID != "c2" {
		t.Fatalf("unexpected task %#v", last)
	}
	if !strings.Contains(m.View(), "new card") {
		t.Fatal("new task not rendered after refetch")
	}
}

func TestDragTaskAcrossColumns(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, keyDown)
	m = press(t, m, keySpace)
	if active, ok := m.session.Dragging(); !ok || active.ID != "t1" {
		t.Fatalf("drag not started: %#v", active)
	}
	m = press(t, m, keyRight)
	if got := m.session.Board()[1].Tasks; len(got) != 2 {
		t.Fatalf("preview not updated: %#v", got)
	}
	m = press(t, m, keySpace)

	if m.status != "Task moved successfully" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if _, ok := m.session.Dragging(); ok {
		t.Fatal("still dragging after drop")
	}
	snap, v := store.Board()
	if v != 1 || snap.Tasks[0].ID != "t2" || snap.Tasks[1].ID != "t1" || snap.Tasks[1].ColumnID != "c2" {
		t.Fatalf("unexpected board v%d %#v", v, snap.Tasks)
	}
}

func TestEscCancelsDrag(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, keySpace)
	m = press(t, m, keyRight)
	m = press(t, m, keyEsc)
	if _, ok := m.session.Dragging(); ok {
		t.Fatal("drag not cancelled")
	}
	if store.Version() != 0 {
		t.Fatal("cancelled drag changed the board")
	}
}

func TestEditAndDeleteColumn(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, key("e"))
	if m.input != inputEditColumn || m.inputText != "To Do" {
		t.Fatalf("unexpected edit state %v %q", m.input, m.inputText)
	}
	m = typeText(t, m, "!")
	m = press(t, m, keyEnter)
	if col, _ := store.Board(); col.Columns[0].Title != "To Do!" {
		t.Fatalf("title not updated: %#v", col.Columns[0])
	}

	m = press(t, m, key("d"))
	if m.status != "Column and associated tasks deleted successfully" {
		t.Fatalf("unexpected status %q", m.status)
	}
	snap, _ := store.Board()
	if len(snap.Columns) != 1 || len(snap.Tasks) != 1 {
		t.Fatalf("cascade delete failed: %#v", snap)
	}
	if m.col != 0 || m.row != -1 {
		t.Fatalf("cursor not clamped: %d,%d", m.col, m.row)
	}
}

func TestNotFoundIsReportedAndBoardRefetched(t *testing.T) {
	m, store := newTestModel(t)
	m = press(t, m, keyDown)
	// Remove the task behind the view's back.
	if _, err := store.DeleteTasks(context.Background(), []string{"t1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	m = press(t, m, key("d"))
	if !m.failed || !strings.Contains(m.status, "Task not found") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.session.Version() != 1 {
		t.Fatalf("board not refetched after failure, version %d", m.session.Version())
	}
}

func TestChangedMsgRefetchesOnlyNewVersions(t *testing.T) {
	m, store := newTestModel(t)
	if _, cmd := m.Update(changedMsg{version: 0}); cmd == nil {
		t.Fatal("expected refetch for hello event")
	}
	if _, err := store.AddColumn(context.Background(), "Later"); err != nil {
		t.Fatalf("add column: %v", err)
	}
	next, cmd := m.Update(changedMsg{version: 1})
	m = drain(t, next.(model), cmd)
	if m.session.Version() != 1 || !strings.Contains(m.View(), "Later") {
		t.Fatal("board not refetched after change")
	}
	if _, cmd := m.Update(changedMsg{version: 1}); cmd != nil {
		t.Fatal("refetched an already seen version")
	}
}
