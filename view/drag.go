package view

import "kanban-board/domain"

// ItemKind distinguishes draggable things.
type ItemKind int

const (
	TaskItem ItemKind = iota + 1
	ColumnItem
)

// Item identifies a task or column on the board.
type Item struct {
	Kind ItemKind
	ID   string
}

// Preview is the board as shown while something is being dragged. It is
// rebuilt from the durable snapshot on every Over call and never sent to
// the store.
type Preview struct {
	base   domain.Snapshot
	snap   domain.Snapshot
	active Item
	over   *Item
}

// NewPreview starts a drag of active over a copy of snap.
func NewPreview(snap domain.Snapshot, active Item) *Preview {
	return &Preview{base: snap.Clone(), snap: snap.Clone(), active: active}
}

func (p *Preview) Active() Item { return p.active }

// Over returns the current hover target, if any.
func (p *Preview) Over() (Item, bool) {
	if p.over == nil {
		return Item{}, false
	}
	return *p.over, true
}

// SetOver moves the hover target. The preview shifts the active item to the
// target position, the way the list looks while dragging.
func (p *Preview) SetOver(over Item) {
	p.over = &over
	p.snap = p.base.Clone()
	if over == p.active {
		return
	}
	switch p.active.Kind {
	case TaskItem:
		a := taskIndex(p.snap, p.active.ID)
		if a < 0 {
			return
		}
		switch over.Kind {
		case TaskItem:
			o := taskIndex(p.snap, over.ID)
			if o < 0 {
				return
			}
			p.snap.Tasks[a].ColumnID = p.snap.Tasks[o].ColumnID
			p.snap.Tasks = arrayMove(p.snap.Tasks, a, o)
		case ColumnItem:
			if _, ok := p.snap.Column(over.ID); ok {
				p.snap.Tasks[a].ColumnID = over.ID
			}
		}
	case ColumnItem:
		if over.Kind != ColumnItem {
			return
		}
		a, o := columnIndex(p.snap, p.active.ID), columnIndex(p.snap, over.ID)
		if a < 0 || o < 0 {
			return
		}
		p.snap.Columns = arrayMove(p.snap.Columns, a, o)
	}
}

// Board projects the preview.
func (p *Preview) Board() []ColumnView { return Project(p.snap) }

// DropOperation turns a drop of active onto over into the store call that
// makes it durable, judged against the durable snapshot. It reports false
// when the drop changes nothing.
//
// A task over a task becomes moveTask(active, over, col) where col is the
// over task's column only if it differs from the active task's. A task over
// a column becomes moveTask(active, active, column), which just reparents.
// A column over a column becomes swapColumns.
func DropOperation(snap domain.Snapshot, active Item, over *Item) (Operation, bool) {
	if over == nil || *over == active {
		return Operation{}, false
	}
	switch active.Kind {
	case TaskItem:
		at, ok := snap.Task(active.ID)
		if !ok {
			return Operation{}, false
		}
		switch over.Kind {
		case TaskItem:
			ot, ok := snap.Task(over.ID)
			if !ok {
				return Operation{}, false
			}
			col := ""
			if ot.ColumnID != at.ColumnID {
				col = ot.ColumnID
			}
			return MoveTask(at.ID, ot.ID, col), true
		case ColumnItem:
			if at.ColumnID == over.ID {
				return Operation{}, false
			}
			return MoveTask(at.ID, at.ID, over.ID), true
		}
	case ColumnItem:
		target := over.ID
		if over.Kind == TaskItem {
			t, ok := snap.Task(over.ID)
			if !ok {
				return Operation{}, false
			}
			target = t.ColumnID
		}
		if _, ok := snap.Column(target); !ok || target == active.ID {
			return Operation{}, false
		}
		return SwapColumns(active.ID, target), true
	}
	return Operation{}, false
}

func taskIndex(snap domain.Snapshot, id string) int {
	for i, t := range snap.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func columnIndex(snap domain.Snapshot, id string) int {
	for i, c := range snap.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// arrayMove removes the element at from and reinserts it at to, shifting
// the elements in between.
func arrayMove[T any](s []T, from, to int) []T {
	if from == to || from < 0 || to < 0 || from >= len(s) || to >= len(s) {
		return s
	}
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
	return s
}
