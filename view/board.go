// Package view implements the client side of the board: projecting a
// snapshot into columns, the transient drag preview, translating drops into
// store operations, and the refetch-after-every-action session.
package view

import (
	"context"

	"kanban-board/domain"
)

// API is the board surface a view drives. client.Client implements it.
type API interface {
	Board(ctx context.Context) (domain.Snapshot, uint64, error)
	AddColumn(ctx context.Context, title string) (domain.Result, error)
	UpdateColumn(ctx context.Context, id string, title *string) (domain.Result, error)
	SwapColumns(ctx context.Context, activeID, overID string) (domain.Result, error)
	DeleteColumn(ctx context.Context, id string) (domain.Result, error)
	AddTask(ctx context.Context, columnID, content string) (domain.Result, error)
	UpdateTask(ctx context.Context, id string, content *string) (domain.Result, error)
	MoveTask(ctx context.Context, activeID, overID, columnID string) (domain.Result, error)
	DeleteTasks(ctx context.Context, ids []string) (domain.Result, error)
}

// ColumnView is one rendered column with its tasks in board order.
type ColumnView struct {
	Column domain.Column
	Tasks  []domain.Task
}

// Project lays out snap column by column. Tasks whose column is missing are
// not shown.
func Project(snap domain.Snapshot) []ColumnView {
	out := make([]ColumnView, len(snap.Columns))
	idx := make(map[string]int, len(snap.Columns))
	for i, c := range snap.Columns {
		out[i] = ColumnView{Column: c, Tasks: []domain.Task{}}
		idx[c.ID] = i
	}
	for _, t := range snap.Tasks {
		if i, ok := idx[t.ColumnID]; ok {
			out[i].Tasks = append(out[i].Tasks, t)
		}
	}
	return out
}
