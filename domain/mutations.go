package domain

import (
	"fmt"
	"net/http"
)

const (
	msgColumnAdded    = "Column added successfully"
	msgColumnUpdated  = "Column updated successfully"
	msgColumnMoved    = "Column moved successfully"
	msgColumnDeleted  = "Column and associated tasks deleted successfully"
	msgColumnNotFound = "Column not found"
	msgTaskAdded      = "Task added successfully"
	msgTaskUpdated    = "Task updated successfully"
	msgTaskMoved      = "Task moved successfully"
	msgTaskDeleted    = "Task deleted successfully"
	msgTaskNotFound   = "Task not found"
)

// Result is what every board mutation reports back to the caller. NotFound
// is carried here as a status code and never as a Go error.
type Result struct {
	StatusCode int
	Message    string
	Column     *Column
	Task       *Task
}

// OK reports whether the mutation was applied.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func notFound(msg string) Result {
	return Result{StatusCode: http.StatusNotFound, Message: msg}
}

// AddColumn appends a new column with the given id and title.
func (s *Snapshot) AddColumn(id, title string) Result {
	col := Column{ID: id, Title: title}
	s.Columns = append(s.Columns, col)
	return Result{StatusCode: http.StatusCreated, Message: msgColumnAdded, Column: &col}
}

// UpdateColumn renames a column. An empty title keeps the current one.
func (s *Snapshot) UpdateColumn(id string, title *string) Result {
	i := s.columnIndex(id)
	if i < 0 {
		return notFound(msgColumnNotFound)
	}
	if title != nil && *title != "" {
		s.Columns[i].Title = *title
	}
	col := s.Columns[i]
	return Result{StatusCode: http.StatusOK, Message: msgColumnUpdated, Column: &col}
}

// DeleteColumn removes a column together with every task it owns.
func (s *Snapshot) DeleteColumn(id string) Result {
	i := s.columnIndex(id)
	if i < 0 {
		return notFound(msgColumnNotFound)
	}
	removed := s.Columns[i]
	s.Columns = append(s.Columns[:i], s.Columns[i+1:]...)

	kept := s.Tasks[:0]
	for _, t := range s.Tasks {
		if t.ColumnID != id {
			kept = append(kept, t)
		}
	}
	s.Tasks = kept
	return Result{StatusCode: http.StatusOK, Message: msgColumnDeleted, Column: &removed}
}

// SwapColumns exchanges the slots of two columns. Columns between them keep
// their positions.
func (s *Snapshot) SwapColumns(activeID, overID string) Result {
	a := s.columnIndex(activeID)
	o := s.columnIndex(overID)
	if a < 0 || o < 0 {
		return notFound(msgColumnNotFound)
	}
	s.Columns[a], s.Columns[o] = s.Columns[o], s.Columns[a]
	return Result{StatusCode: http.StatusOK, Message: msgColumnMoved}
}

// AddTask appends a task to the task sequence. The column must exist.
func (s *Snapshot) AddTask(id, columnID, content string) Result {
	if s.columnIndex(columnID) < 0 {
		return notFound(msgColumnNotFound)
	}
	t := Task{ID: id, ColumnID: columnID, Content: content}
	s.Tasks = append(s.Tasks, t)
	return Result{StatusCode: http.StatusCreated, Message: msgTaskAdded, Task: &t}
}

// UpdateTask replaces a task's content. Empty content keeps the current one.
func (s *Snapshot) UpdateTask(id string, content *string) Result {
	i := s.taskIndex(id)
	if i < 0 {
		return notFound(msgTaskNotFound)
	}
	if content != nil && *content != "" {
		s.Tasks[i].Content = *content
	}
	t := s.Tasks[i]
	return Result{StatusCode: http.StatusOK, Message: msgTaskUpdated, Task: &t}
}

// MoveTask reassigns the active task to columnID when it is non-empty and
// then swaps the slots of the active and over tasks. Passing the same id for
// active and over only reassigns the column.
func (s *Snapshot) MoveTask(activeID, overID, columnID string) Result {
	a := s.taskIndex(activeID)
	o := s.taskIndex(overID)
	if a < 0 || o < 0 {
		return notFound(msgTaskNotFound)
	}
	if columnID != "" {
		if s.columnIndex(columnID) < 0 {
			return notFound(msgColumnNotFound)
		}
		s.Tasks[a].ColumnID = columnID
	}
	s.Tasks[a], s.Tasks[o] = s.Tasks[o], s.Tasks[a]
	t := s.Tasks[o]
	return Result{StatusCode: http.StatusOK, Message: msgTaskMoved, Task: &t}
}

// DeleteTasks removes every task whose id is listed. Missing ids are
// reported in the message rather than failing the whole call.
func (s *Snapshot) DeleteTasks(ids []string) Result {
	deleted := 0
	for _, id := range ids {
		i := s.taskIndex(id)
		if i < 0 {
			continue
		}
		s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
		deleted++
	}
	if deleted == 0 {
		return notFound(msgTaskNotFound)
	}
	var msg string
	switch {
	case len(ids) < 2:
		msg = msgTaskDeleted
	case deleted == len(ids):
		msg = fmt.Sprintf("%d tasks deleted successfully", deleted)
	default:
		msg = fmt.Sprintf("%d out of %d tasks found and deleted", deleted, len(ids))
	}
	return Result{StatusCode: http.StatusOK, Message: msg}
}
