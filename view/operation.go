package view

import (
	"context"
	"fmt"

	"kanban-board/domain"
)

// OpKind names a store mutation.
type OpKind int

const (
	OpAddColumn OpKind = iota + 1
	OpUpdateColumn
	OpSwapColumns
	OpDeleteColumn
	OpAddTask
	OpUpdateTask
	OpMoveTask
	OpDeleteTasks
)

var opNames = map[OpKind]string{
	OpAddColumn:    "addColumn",
	OpUpdateColumn: "updateColumn",
	OpSwapColumns:  "swapColumns",
	OpDeleteColumn: "deleteColumn",
	OpAddTask:      "addTask",
	OpUpdateTask:   "updateTask",
	OpMoveTask:     "moveTask",
	OpDeleteTasks:  "deleteTasks",
}

func (k OpKind) String() string {
	if n, ok := opNames[k]; ok {
		return n
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Operation is one store call issued by the view. Fields not used by Kind
// are ignored.
type Operation struct {
	Kind     OpKind
	ID       string
	OverID   string
	ColumnID string
	Text     *string
	IDs      []string
}

func AddColumn(title string) Operation { return Operation{Kind: OpAddColumn, Text: &title} }

func UpdateColumn(id string, title *string) Operation {
	return Operation{Kind: OpUpdateColumn, ID: id, Text: title}
}

func SwapColumns(activeID, overID string) Operation {
	return Operation{Kind: OpSwapColumns, ID: activeID, OverID: overID}
}

func DeleteColumn(id string) Operation { return Operation{Kind: OpDeleteColumn, ID: id} }

func AddTask(columnID, content string) Operation {
	return Operation{Kind: OpAddTask, ColumnID: columnID, Text: &content}
}

func UpdateTask(id string, content *string) Operation {
	return Operation{Kind: OpUpdateTask, ID: id, Text: content}
}

func MoveTask(activeID, overID, columnID string) Operation {
	return Operation{Kind: OpMoveTask, ID: activeID, OverID: overID, ColumnID: columnID}
}

func DeleteTasks(ids ...string) Operation { return Operation{Kind: OpDeleteTasks, IDs: ids} }

func (op Operation) text() string {
	if op.Text == nil {
		return ""
	}
	return *op.Text
}

// Apply issues op against api.
func (op Operation) Apply(ctx context.Context, api API) (domain.Result, error) {
	switch op.Kind {
	case OpAddColumn:
		return api.AddColumn(ctx, op.text())
	case OpUpdateColumn:
		return api.UpdateColumn(ctx, op.ID, op.Text)
	case OpSwapColumns:
		return api.SwapColumns(ctx, op.ID, op.OverID)
	case OpDeleteColumn:
		return api.DeleteColumn(ctx, op.ID)
	case OpAddTask:
		return api.AddTask(ctx, op.ColumnID, op.text())
	case OpUpdateTask:
		return api.UpdateTask(ctx, op.ID, op.Text)
	case OpMoveTask:
		return api.MoveTask(ctx, op.ID, op.OverID, op.ColumnID)
	case OpDeleteTasks:
		return api.DeleteTasks(ctx, op.IDs)
	default:
		return domain.Result{}, fmt.Errorf("unknown operation %v", op.Kind)
	}
}
