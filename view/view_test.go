package view

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"kanban-board/domain"
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

// storeAPI serves a domain.Store through the API interface and counts
// fetches.
type storeAPI struct {
	*domain.Store
	fetches  int
	fetchErr error
	calls    []string
}

func (a *storeAPI) Board(ctx context.Context) (domain.Snapshot, uint64, error) {
	a.fetches++
	if a.fetchErr != nil {
		return domain.Snapshot{}, 0, a.fetchErr
	}
	snap, v := a.Store.Board()
	return snap, v, nil
}

func (a *storeAPI) MoveTask(ctx context.Context, activeID, overID, columnID string) (domain.Result, error) {
	a.calls = append(a.calls, "moveTask:"+activeID+","+overID+","+columnID)
	return a.Store.MoveTask(ctx, activeID, overID, columnID)
}

func (a *storeAPI) SwapColumns(ctx context.Context, activeID, overID string) (domain.Result, error) {
	a.calls = append(a.calls, "swapColumns:"+activeID+","+overID)
	return a.Store.SwapColumns(ctx, activeID, overID)
}

func board() domain.Snapshot {
	return domain.Snapshot{
		Columns: []domain.Column{{ID: "c1", Title: "To Do"}, {ID: "c2", Title: "Done"}},
		Tasks: []domain.Task{
			{ID: "t1", ColumnID: "c1", Content: "a"},
			{ID: "t2", ColumnID: "c2", Content: "b"},
			{ID: "t3", ColumnID: "c1", Content: "c"},
			{ID: "orphan", ColumnID: "gone", Content: "x"},
		},
	}
}

func newAPI(t *testing.T, snap domain.Snapshot) *storeAPI {
	t.Helper()
	store, err := domain.NewStore(context.Background(), &memStorage{snap: snap})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return &storeAPI{Store: store}
}

func taskIDs(cv ColumnView) []string {
	out := []string{}
	for _, t := range cv.Tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestProjectHidesOrphansAndKeepsOrder(t *testing.T) {
	cols := Project(board())
	if len(cols) != 2 || cols[0].Column.ID != "c1" || cols[1].Column.ID != "c2" {
		t.Fatalf("unexpected columns: %#v", cols)
	}
	if got := taskIDs(cols[0]); !reflect.DeepEqual(got, []string{"t1", "t3"}) {
		t.Fatalf("unexpected c1 tasks: %v", got)
	}
	if got := taskIDs(cols[1]); !reflect.DeepEqual(got, []string{"t2"}) {
		t.Fatalf("unexpected c2 tasks: %v", got)
	}
}

func TestArrayMoveShifts(t *testing.T) {
	got := arrayMove([]int{0, 1, 2, 3}, 0, 2)
	if !reflect.DeepEqual(got, []int{1, 2, 0, 3}) {
		t.Fatalf("forward move: %v", got)
	}
	got = arrayMove([]int{0, 1, 2, 3}, 3, 1)
	if !reflect.DeepEqual(got, []int{0, 3, 1, 2}) {
		t.Fatalf("backward move: %v", got)
	}
	got = arrayMove([]int{0, 1}, 0, 5)
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("out of range move changed slice: %v", got)
	}
}

func TestPreviewTaskOverTask(t *testing.T) {
	base := board()
	p := NewPreview(base, Item{Kind: TaskItem, ID: "t1"})
	p.SetOver(Item{Kind: TaskItem, ID: "t2"})

	cols := p.Board()
	if got := taskIDs(cols[0]); !reflect.DeepEqual(got, []string{"t3"}) {
		t.Fatalf("unexpected c1 preview: %v", got)
	}
	if got := taskIDs(cols[1]); !reflect.DeepEqual(got, []string{"t2", "t1"}) {
		t.Fatalf("unexpected c2 preview: %v", got)
	}
	if !reflect.DeepEqual(base, board()) {
		t.Fatal("preview mutated the durable snapshot")
	}

	// Each hover starts again from the durable board.
	p.SetOver(Item{Kind: TaskItem, ID: "t3"})
	cols = p.Board()
	if got := taskIDs(cols[0]); !reflect.DeepEqual(got, []string{"t3", "t1"}) {
		t.Fatalf("unexpected c1 preview after second hover: %v", got)
	}
}

func TestPreviewTaskOverColumnAndColumnOverColumn(t *testing.T) {
	p := NewPreview(board(), Item{Kind: TaskItem, ID: "t1"})
	p.SetOver(Item{Kind: ColumnItem, ID: "c2"})
	if got := taskIDs(p.Board()[1]); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Fatalf("unexpected c2 preview: %v", got)
	}

	p = NewPreview(board(), Item{Kind: ColumnItem, ID: "c1"})
	p.SetOver(Item{Kind: ColumnItem, ID: "c2"})
	cols := p.Board()
	if cols[0].Column.ID != "c2" || cols[1].Column.ID != "c1" {
		t.Fatalf("unexpected column preview: %#v", cols)
	}
	if over, ok := p.Over(); !ok || over.ID != "c2" {
		t.Fatalf("unexpected hover target: %#v", over)
	}
}

func TestDropOperation(t *testing.T) {
	snap := board()
	tests := []struct {
		name   string
		active Item
		over   *Item
		want   Operation
		ok     bool
	}{
		{name: "no target", active: Item{TaskItem, "t1"}},
		{name: "onto itself", active: Item{TaskItem, "t1"}, over: &Item{TaskItem, "t1"}},
		{name: "task over task same column", active: Item{TaskItem, "t1"}, over: &Item{TaskItem, "t3"}, want: MoveTask("t1", "t3", ""), ok: true},
		{name: "task over task other column", active: Item{TaskItem, "t1"}, over: &Item{TaskItem, "t2"}, want: MoveTask("t1", "t2", "c2"), ok: true},
		{name: "task over column", active: Item{TaskItem, "t1"}, over: &Item{ColumnItem, "c2"}, want: MoveTask("t1", "t1", "c2"), ok: true},
		{name: "task over own column", active: Item{TaskItem, "t1"}, over: &Item{ColumnItem, "c1"}},
		{name: "column over column", active: Item{ColumnItem, "c1"}, over: &Item{ColumnItem, "c2"}, want: SwapColumns("c1", "c2"), ok: true},
		{name: "column over task", active: Item{ColumnItem, "c1"}, over: &Item{TaskItem, "t2"}, want: SwapColumns("c1", "c2"), ok: true},
		{name: "column over own task", active: Item{ColumnItem, "c1"}, over: &Item{TaskItem, "t3"}},
		{name: "column over orphan", active: Item{ColumnItem, "c1"}, over: &Item{TaskItem, "orphan"}},
		{name: "unknown task", active: Item{TaskItem, "nope"}, over: &Item{TaskItem, "t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DropOperation(snap, tt.active, tt.over)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSessionRefetchesAfterEveryAction(t *testing.T) {
	api := newAPI(t, board())
	s := NewSession(api)
	ctx := context.Background()

	if s.Loaded() {
		t.Fatal("session loaded before first fetch")
	}
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	res, err := s.Do(ctx, UpdateColumn("missing-id", ptr("X")))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if api.fetches != 2 {
		t.Fatalf("expected a refetch after a failed action, got %d fetches", api.fetches)
	}

	res, err = s.Do(ctx, AddTask("c2", "new"))
	if err != nil || res.StatusCode != http.StatusCreated {
		t.Fatalf("add task: %#v %v", res, err)
	}
	if api.fetches != 3 || s.Version() != 1 {
		t.Fatalf("expected refetch to pick up version 1, fetches=%d version=%d", api.fetches, s.Version())
	}
	if got := taskIDs(s.Board()[1]); len(got) != 2 || got[1] != res.Task.ID {
		t.Fatalf("new task not shown: %v", got)
	}
}

func TestSessionKeepsBoardWhenRefetchFails(t *testing.T) {
	api := newAPI(t, board())
	s := NewSession(api)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	api.fetchErr = errors.New("offline")
	if _, err := s.Do(ctx, AddColumn("Later")); err == nil {
		t.Fatal("expected refetch error")
	}
	if len(s.Snapshot().Columns) != 2 {
		t.Fatal("board replaced despite failed fetch")
	}
}

func TestSessionDragAndDrop(t *testing.T) {
	api := newAPI(t, board())
	s := NewSession(api)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if s.BeginDrag(Item{TaskItem, "nope"}) {
		t.Fatal("drag of unknown task started")
	}
	if !s.BeginDrag(Item{TaskItem, "t1"}) {
		t.Fatal("drag did not start")
	}
	over := Item{TaskItem, "t2"}
	s.DragOver(over)
	if got := taskIDs(s.Board()[1]); !reflect.DeepEqual(got, []string{"t2", "t1"}) {
		t.Fatalf("preview not shown: %v", got)
	}
	if got := taskIDs(Project(s.Snapshot())[1]); !reflect.DeepEqual(got, []string{"t2"}) {
		t.Fatalf("preview leaked into fetched board: %v", got)
	}

	op, res, ok, err := s.Drop(ctx, &over)
	if err != nil || !ok || res.StatusCode != http.StatusOK {
		t.Fatalf("drop: %#v %v %v", res, ok, err)
	}
	if op.Kind != OpMoveTask || !reflect.DeepEqual(api.calls, []string{"moveTask:t1,t2,c2"}) {
		t.Fatalf("unexpected calls: %v", api.calls)
	}
	if _, dragging := s.Dragging(); dragging {
		t.Fatal("preview not discarded after drop")
	}

	// The durable result is a swap, not the shifted preview.
	snap := s.Snapshot()
	if snap.Tasks[0].ID != "t2" || snap.Tasks[1].ID != "t1" || snap.Tasks[1].ColumnID != "c2" {
		t.Fatalf("unexpected durable order: %#v", snap.Tasks)
	}

	if !s.BeginDrag(Item{ColumnItem, "c1"}) {
		t.Fatal("column drag did not start")
	}
	s.CancelDrag()
	if _, _, ok, _ := s.Drop(ctx, &Item{ColumnItem, "c2"}); ok {
		t.Fatal("drop after cancel issued an operation")
	}
}

func TestOperationApplyUnknownKind(t *testing.T) {
	api := newAPI(t, board())
	if _, err := (Operation{}).Apply(context.Background(), api); err == nil {
		t.Fatal("expected error for zero operation")
	}
	if OpDeleteTasks.String() != "deleteTasks" {
		t.Fatalf("unexpected name %q", OpDeleteTasks.String())
	}
}

func ptr(s string) *string { return &s }
