package domain

// Column is a single board lane. Its position in Snapshot.Columns is its
// left-to-right display order.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Task is a card owned by the column referenced by ColumnID.
type Task struct {
	ID       string `json:"id"`
	ColumnID string `json:"columnId"`
	Content  string `json:"content"`
}

// Snapshot is the whole persisted board. Task order within a column is the
// relative order of its tasks in Tasks.
type Snapshot struct {
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
}

// Clone returns a deep copy so a mutation can be staged without touching s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Columns: make([]Column, len(s.Columns)),
		Tasks:   make([]Task, len(s.Tasks)),
	}
	copy(out.Columns, s.Columns)
	copy(out.Tasks, s.Tasks)
	return out
}

func (s Snapshot) columnIndex(id string) int {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) taskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Column looks up a column by id.
func (s Snapshot) Column(id string) (Column, bool) {
	if i := s.columnIndex(id); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// Task looks up a task by id.
func (s Snapshot) Task(id string) (Task, bool) {
	if i := s.taskIndex(id); i >= 0 {
		return s.Tasks[i], true
	}
	return Task{}, false
}

// TasksFor returns the tasks of a column in display order.
func (s Snapshot) TasksFor(columnID string) []Task {
	out := make([]Task, 0)
	for _, t := range s.Tasks {
		if t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	return out
}

// Orphans returns tasks whose column is not present.
func (s Snapshot) Orphans() []Task {
	known := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		known[c.ID] = struct{}{}
	}
	var out []Task
	for _, t := range s.Tasks {
		if _, ok := known[t.ColumnID]; !ok {
			out = append(out, t)
		}
	}
	return out
}
