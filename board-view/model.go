package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kanban-board/domain"
	"kanban-board/view"
)

const requestTimeout = 10 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(28)
	focusStyle    = columnStyle.BorderForeground(lipgloss.Color("69"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	draggingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type inputKind int

const (
	inputNone inputKind = iota
	inputAddColumn
	inputAddTask
	inputEditColumn
	inputEditTask
)

var inputPrompts = map[inputKind]string{
	inputAddColumn:  "New column",
	inputAddTask:    "New task",
	inputEditColumn: "Column title",
	inputEditTask:   "Task",
}

// boardMsg reports a finished refetch.
type boardMsg struct{ err error }

// opMsg reports a finished operation. The session has already refetched.
type opMsg struct {
	op     view.Operation
	res    domain.Result
	issued bool
	err    error
}

// changedMsg announces a mutation seen on the event stream.
type changedMsg struct{ version uint64 }

type model struct {
	session *view.Session

	col int
	// row -1 is the column header.
	row int

	input     inputKind
	inputText string
	targetID  string

	status  string
	failed  bool
	pending int
	width   int
	height  int
}

func newModel(s *view.Session) model {
	return model{session: s, row: -1, status: "loading board"}
}

func refreshCmd(s *view.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return boardMsg{err: s.Refresh(ctx)}
	}
}

func doCmd(s *view.Session, op view.Operation) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := s.Do(ctx, op)
		return opMsg{op: op, res: res, issued: true, err: err}
	}
}

func dropCmd(s *view.Session, over view.Item) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		op, res, issued, err := s.Drop(ctx, &over)
		return opMsg{op: op, res: res, issued: issued, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return refreshCmd(m.session)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case boardMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if m.status == "loading board" {
			m.setStatus("")
		}
		m.clamp()
		return m, nil
	case changedMsg:
		if msg.version != 0 && msg.version == m.session.Version() {
			return m, nil
		}
		return m, refreshCmd(m.session)
	case opMsg:
		m.pending--
		switch {
		case msg.err != nil:
			m.setError(msg.err)
		case !msg.issued:
			m.setStatus("nothing to move")
		case !msg.res.OK():
			m.failed = true
			m.status = fmt.Sprintf("%s: %s", msg.op.Kind, msg.res.Message)
		default:
			m.setStatus(msg.res.Message)
		}
		m.clamp()
		return m, nil
	case tea.KeyMsg:
		if m.input != inputNone {
			return m.updateInput(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input, m.inputText = inputNone, ""
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.inputText)
		kind, target := m.input, m.targetID
		m.input, m.inputText, m.targetID = inputNone, "", ""
		var op view.Operation
		switch kind {
		case inputAddColumn:
			op = view.AddColumn(text)
		case inputAddTask:
			op = view.AddTask(target, text)
		case inputEditColumn:
			op = view.UpdateColumn(target, &text)
		case inputEditTask:
			op = view.UpdateTask(target, &text)
		}
		return m.issue(doCmd(m.session, op))
	case tea.KeyBackspace:
		if r := []rune(m.inputText); len(r) > 0 {
			m.inputText = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.inputText += " "
		return m, nil
	case tea.KeyRunes:
		m.inputText += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, dragging := m.session.Dragging()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		m.col--
		m.clamp()
	case "right", "l":
		m.col++
		m.clamp()
	case "up", "k":
		m.row--
		m.clamp()
	case "down", "j":
		m.row++
		m.clamp()
	case "esc":
		if dragging {
			m.session.CancelDrag()
			m.setStatus("move cancelled")
		}
		return m, nil
	case " ", "enter":
		item, ok := m.cursorItem()
		if !ok {
			return m, nil
		}
		if dragging {
			return m.issue(dropCmd(m.session, item))
		}
		if m.session.BeginDrag(item) {
			m.setStatus("moving: arrows to choose a target, space to drop, esc to cancel")
		}
		return m, nil
	case "r":
		return m, refreshCmd(m.session)
	case "c":
		if !dragging {
			m.input = inputAddColumn
		}
		return m, nil
	case "a":
		if cols := m.columns(); !dragging && len(cols) > 0 {
			m.input, m.targetID = inputAddTask, cols[m.col].Column.ID
		}
		return m, nil
	case "e":
		item, ok := m.cursorItem()
		if !ok || dragging {
			return m, nil
		}
		m.targetID = item.ID
		if item.Kind == view.ColumnItem {
			m.input = inputEditColumn
			m.inputText = m.columns()[m.col].Column.Title
		} else {
			m.input = inputEditTask
			m.inputText = m.columns()[m.col].Tasks[m.row].Content
		}
		return m, nil
	case "d":
		item, ok := m.cursorItem()
		if !ok || dragging {
			return m, nil
		}
		if item.Kind == view.ColumnItem {
			return m.issue(doCmd(m.session, view.DeleteColumn(item.ID)))
		}
		return m.issue(doCmd(m.session, view.DeleteTasks(item.ID)))
	default:
		return m, nil
	}
	if dragging {
		if item, ok := m.cursorItem(); ok {
			m.session.DragOver(item)
		}
	}
	return m, nil
}

func (m model) issue(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.pending++
	return m, cmd
}

// columns is the fetched board the cursor moves over. While dragging the
// screen shows the preview but targets are still picked on the fetched
// layout.
func (m model) columns() []view.ColumnView {
	return view.Project(m.session.Snapshot())
}

func (m model) cursorItem() (view.Item, bool) {
	cols := m.columns()
	if m.col < 0 || m.col >= len(cols) {
		return view.Item{}, false
	}
	cv := cols[m.col]
	if m.row < 0 || m.row >= len(cv.Tasks) {
		return view.Item{Kind: view.ColumnItem, ID: cv.Column.ID}, true
	}
	return view.Item{Kind: view.TaskItem, ID: cv.Tasks[m.row].ID}, true
}

func (m *model) clamp() {
	cols := m.columns()
	if len(cols) == 0 {
		m.col, m.row = 0, -1
		return
	}
	m.col = max(0, min(m.col, len(cols)-1))
	m.row = max(-1, min(m.row, len(cols[m.col].Tasks)-1))
}

func (m *model) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *model) setError(err error) {
	m.status, m.failed = "error: "+err.Error(), true
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Kanban Board"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  v%d", m.session.Version())))
	b.WriteString("\n\n")

	active, dragging := m.session.Dragging()
	cursor, hasCursor := m.cursorItem()
	board := m.session.Board()
	if len(board) == 0 && m.session.Loaded() {
		b.WriteString(mutedStyle.Render("No columns yet. Press c to add one."))
		b.WriteString("\n")
	}
	rendered := make([]string, 0, len(board))
	for _, cv := range board {
		rendered = append(rendered, m.renderColumn(cv, active, dragging, cursor, hasCursor))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	b.WriteString("\n")

	if m.input != inputNone {
		b.WriteString(fmt.Sprintf("%s: %s_\n", inputPrompts[m.input], m.inputText))
	}
	status := m.status
	if m.pending > 0 {
		status = "saving... " + status
	}
	if m.failed {
		status = errorStyle.Render(status)
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("arrows move  space grab/drop  a task  c column  e edit  d delete  r refresh  q quit"))
	return b.String()
}

func (m model) renderColumn(cv view.ColumnView, active view.Item, dragging bool, cursor view.Item, hasCursor bool) string {
	mark := func(it view.Item, text string) string {
		switch {
		case dragging && it == active:
			return draggingStyle.Render(text)
		case hasCursor && it == cursor:
			return cursorStyle.Render(text)
		}
		return text
	}
	colItem := view.Item{Kind: view.ColumnItem, ID: cv.Column.ID}
	lines := []string{mark(colItem, titleStyle.Render(cv.Column.Title)+mutedStyle.Render(fmt.Sprintf(" (%d)", len(cv.Tasks))))}
	for _, t := range cv.Tasks {
		lines = append(lines, mark(view.Item{Kind: view.TaskItem, ID: t.ID}, "• "+t.Content))
	}
	style := columnStyle
	if hasCursor && ((cursor.Kind == view.ColumnItem && cursor.ID == cv.Column.ID) || m.taskIn(cursor, cv)) {
		style = focusStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m model) taskIn(it view.Item, cv view.ColumnView) bool {
	if it.Kind != view.TaskItem {
		return false
	}
	for _, t := range cv.Tasks {
		if t.ID == it.ID {
			return true
		}
	}
	return false
}
