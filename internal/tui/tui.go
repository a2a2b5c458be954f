// Package tui is the interactive list view. Every action runs the matching
// todolist operation in a command and reloads the view from its snapshot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-ee/internal/model"
	"github.com/idilsaglam/todo-ee/internal/todolist"
)

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.todo.IsCompleted {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.todo.Title)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

// editState is shared with the delegate so the row being edited renders
// its input in place. inputView is refreshed on every View.
type editState struct {
	active    bool
	id        int
	inputView string
}

// op names the action a refreshedMsg finished.
type op int

const (
	opFetch op = iota
	opAdd
	opSave
	opToggle
	opDelete
)

// refreshedMsg is sent once an action and its refetch completed.
type refreshedMsg struct {
	op  op
	err error
}

type modelTUI struct {
	ctx   context.Context
	todos *todolist.List
	list  list.Model

	// Inline add
	adding bool
	ti     textinput.Model // shared text input model (used for add & edit)

	// Inline edit
	edit *editState

	width, height int
}

// Custom delegate to control how items render (single line)
type itemDelegate struct {
	edit *editState
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.todo.Title
	if it.todo.IsCompleted {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.todo.Title)
	}
	if d.edit != nil && d.edit.active && d.edit.id == it.todo.ID {
		textStyled = d.edit.inputView + "  " + helpStyle.Render("enter save • esc cancel")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+boxStyled+" "+textStyled)
}

var (
	addBind     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
)

func newModel(ctx context.Context, todos *todolist.List) modelTUI {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := modelTUI{
		ctx:    ctx,
		todos:  todos,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.edit = &editState{}

	l := list.New(nil, itemDelegate{edit: m.edit}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	extra := []key.Binding{refreshBind}
	if todos.Edition() == todolist.Enterprise {
		extra = []key.Binding{addBind, editBind, toggleBind, deleteBind, refreshBind}
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return extra }
	l.AdditionalFullHelpKeys = func() []key.Binding { return extra }

	m.list = l
	m.list.Title = m.header()
	m.resize()
	return m
}

// Run starts the Bubble Tea program on the alt screen.
func Run(ctx context.Context, todos *todolist.List) error {
	p := tea.NewProgram(newModel(ctx, todos), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// action runs fn off the event loop and reports back with a refreshedMsg.
func (m modelTUI) action(o op, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return refreshedMsg{op: o, err: fn(ctx)}
	}
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Init() tea.Cmd {
	return m.action(opFetch, m.todos.FetchTodos)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case refreshedMsg:
		return m.reload(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	if m.adding {
		return m.updateAdd(msg)
	}
	if m.edit.active {
		return m.updateEdit(msg)
	}

	if kmsg, isKey := msg.(tea.KeyMsg); isKey && m.list.FilterState() != list.Filtering {
		if next, cmd, handled := m.handleKey(kmsg); handled {
			return next, cmd
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q", "esc":
		if msg.String() == "esc" && m.list.FilterState() == list.FilterApplied {
			return m, nil, false
		}
		return m, tea.Quit, true
	case "r":
		return m, m.action(opFetch, m.todos.FetchTodos), true
	}

	if m.todos.Edition() != todolist.Enterprise {
		return m, nil, false
	}

	switch msg.String() {
	case "a":
		m.adding = true
		m.ti.SetValue(m.todos.Snapshot().NewTitle)
		m.ti.Placeholder = "New todo title"
		m.ti.CursorEnd()
		m.resize()
		return m, m.ti.Focus(), true
	case "e":
		it, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		if err := m.todos.BeginEdit(it.todo); err != nil {
			return m, nil, true
		}
		m.edit.active = true
		m.edit.id = it.todo.ID
		m.ti.SetValue(it.todo.Title)
		m.ti.Placeholder = "Edit todo title"
		m.ti.CursorEnd()
		return m, m.ti.Focus(), true
	case " ":
		it, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		id, completed := it.todo.ID, it.todo.IsCompleted
		return m, m.action(opToggle, func(ctx context.Context) error {
			return m.todos.ToggleTodo(ctx, id, completed)
		}), true
	case "d":
		it, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		id := it.todo.ID
		return m, m.action(opDelete, func(ctx context.Context) error {
			return m.todos.DeleteTodo(ctx, id)
		}), true
	}
	return m, nil, false
}

func (m modelTUI) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, isKey := msg.(tea.KeyMsg); isKey {
		switch x.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			return m, m.action(opAdd, func(ctx context.Context) error {
				return m.todos.AddTodo(ctx, title)
			})
		case "esc":
			m.adding = false
			m.ti.Blur()
			m.resize()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.todos.SetNewTitle(m.ti.Value())
	return m, cmd
}

func (m modelTUI) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, isKey := msg.(tea.KeyMsg); isKey {
		switch x.String() {
		case "enter":
			id, title := m.edit.id, strings.TrimSpace(m.ti.Value())
			return m, m.action(opSave, func(ctx context.Context) error {
				return m.todos.SaveEdit(ctx, id, title)
			})
		case "esc":
			m.todos.CancelEdit()
			m.edit.active = false
			m.ti.SetValue("")
			m.ti.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.todos.SetEditingTitle(m.ti.Value())
	return m, cmd
}

// reload copies the list snapshot into the view. Failed actions leave the
// snapshot and any open draft as they were; a change that landed but could
// not be refetched still closes its draft.
func (m modelTUI) reload(msg refreshedMsg) (tea.Model, tea.Cmd) {
	snap := m.todos.Snapshot()

	if msg.err == nil || errors.Is(msg.err, todolist.ErrStale) {
		switch msg.op {
		case opAdd:
			m.adding = false
			m.ti.SetValue("")
			m.ti.Blur()
		case opSave:
			if !snap.Editing {
				m.edit.active = false
				m.ti.SetValue("")
				m.ti.Blur()
			}
		}
	}

	items := make([]list.Item, 0, len(snap.Todos))
	for _, t := range snap.Todos {
		items = append(items, listItem{todo: t})
	}
	cmd := m.list.SetItems(items)
	m.list.Title = m.header()
	m.resize()
	return m, cmd
}

func (m modelTUI) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// header renders the title with the edition badge and live counts.
func (m modelTUI) header() string {
	todos := m.todos.Snapshot().Todos
	dn, pn := model.Stats(todos)
	return fmt.Sprintf("%s %s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todo List"),
		badgeStyle.Render(m.todos.Edition().String()),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(todos),
	)
}

func (m *modelTUI) resize() {
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	if h < 1 {
		h = 1
	}
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	m.list.SetSize(w, h)
}

func (m modelTUI) View() string {
	m.edit.inputView = m.ti.View()
	content := m.list.View()
	if m.adding {
		inputLine := "Add new todo\n" + m.ti.View()
		content += "\n" + frameStyle.Render(inputLine)
	}
	return frameStyle.Render(content)
}
