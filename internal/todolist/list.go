// Package todolist holds the client-side copy of the todo list and the
// actions a user can take on it. Every successful mutation is followed by a
// full refetch; every failure is logged and leaves local state untouched.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/idilsaglam/todo-ee/internal/logging"
	"github.com/idilsaglam/todo-ee/internal/model"
)

// Edition selects which actions a list exposes.
type Edition int

const (
	// Enterprise allows add, inline edit, toggle and delete.
	Enterprise Edition = iota
	// Community only displays the list.
	Community
)

func (e Edition) String() string {
	if e == Community {
		return "Community Edition"
	}
	return "Enterprise Edition"
}

// ParseEdition accepts ce/ee and their long forms.
func ParseEdition(s string) (Edition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ee", "enterprise", "":
		return Enterprise, nil
	case "ce", "community":
		return Community, nil
	}
	return Enterprise, fmt.Errorf("unknown edition %q", s)
}

// ErrReadOnly is returned by mutating actions on a Community list.
var ErrReadOnly = errors.New("read-only list: editing needs the Enterprise Edition")

// ErrStale wraps a refetch failure that followed a successful mutation. The
// change reached the server and the drafts were cleared; only the local list
// is out of date.
var ErrStale = errors.New("change applied but list not refreshed")

// Backend is the subset of the REST client the list needs.
type Backend interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, title string) error
	Update(ctx context.Context, method string, id int, patch model.Patch) error
	Delete(ctx context.Context, id int) error
}

// State is a point-in-time copy of a List.
type State struct {
	Todos        []model.Todo
	NewTitle     string
	Editing      bool
	EditingID    int
	EditingTitle string
}

// List is the transient, fully replaceable copy of server state plus the
// user's drafts. Actions may run on any goroutine; readers use Snapshot.
type List struct {
	backend    Backend
	log        *logging.Logger
	edition    Edition
	editMethod string

	mu    sync.Mutex
	state State
}

// Option configures a List.
type Option func(*List)

// WithEdition sets the edition. Default is Enterprise.
func WithEdition(e Edition) Option { return func(l *List) { l.edition = e } }

// WithEditMethod sets the HTTP method SaveEdit uses (PUT or PATCH).
func WithEditMethod(m string) Option {
	return func(l *List) { l.editMethod = strings.ToUpper(m) }
}

// WithLogger sets where failures are reported.
func WithLogger(lg *logging.Logger) Option { return func(l *List) { l.log = lg } }

// New returns an empty list bound to backend. Call FetchTodos to load it.
func New(backend Backend, opts ...Option) *List {
	l := &List{
		backend:    backend,
		log:        logging.Discard(),
		editMethod: http.MethodPut,
		state:      State{Todos: []model.Todo{}},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Edition reports the list's edition.
func (l *List) Edition() Edition { return l.edition }

// Snapshot returns a copy of the current state.
func (l *List) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Todos = append([]model.Todo(nil), l.state.Todos...)
	return s
}

// Todos returns a copy of the last successfully fetched list.
func (l *List) Todos() []model.Todo { return l.Snapshot().Todos }

// FetchTodos replaces local state with the server's list.
func (l *List) FetchTodos(ctx context.Context) error {
	todos, err := l.backend.List(ctx)
	if err != nil {
		l.log.Error("Error fetching todos", "err", err)
		return fmt.Errorf("fetch todos: %w", err)
	}
	l.mu.Lock()
	l.state.Todos = todos
	l.mu.Unlock()
	return nil
}

// SetNewTitle updates the add-todo draft.
func (l *List) SetNewTitle(title string) {
	l.mu.Lock()
	l.state.NewTitle = title
	l.mu.Unlock()
}

// AddTodo creates a todo, clears the add draft and refetches.
func (l *List) AddTodo(ctx context.Context, title string) error {
	if err := l.writable("add todo"); err != nil {
		return err
	}
	if err := l.backend.Create(ctx, title); err != nil {
		l.log.Error("Error adding todo", "title", title, "err", err)
		return fmt.Errorf("add todo: %w", err)
	}
	l.SetNewTitle("")
	return l.refresh(ctx)
}

// BeginEdit opens the inline editor on t.
func (l *List) BeginEdit(t model.Todo) error {
	if err := l.writable("edit todo"); err != nil {
		return err
	}
	l.mu.Lock()
	l.state.Editing = true
	l.state.EditingID = t.ID
	l.state.EditingTitle = t.Title
	l.mu.Unlock()
	return nil
}

// SetEditingTitle updates the inline edit draft.
func (l *List) SetEditingTitle(title string) {
	l.mu.Lock()
	l.state.EditingTitle = title
	l.mu.Unlock()
}

// CancelEdit closes the inline editor without a request.
func (l *List) CancelEdit() {
	l.mu.Lock()
	l.clearEditLocked()
	l.mu.Unlock()
}

// SaveEdit sends the new title, clears the edit state and refetches.
func (l *List) SaveEdit(ctx context.Context, id int, title string) error {
	if err := l.writable("update todo"); err != nil {
		return err
	}
	if err := l.backend.Update(ctx, l.editMethod, id, model.TitlePatch(title)); err != nil {
		l.log.Error("Error updating todo", "id", id, "err", err)
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	l.mu.Lock()
	if l.state.EditingID == id {
		l.clearEditLocked()
	}
	l.mu.Unlock()
	return l.refresh(ctx)
}

// ToggleTodo stores the inverse of completed and refetches. completed is the
// flag the caller last saw, not the desired one.
func (l *List) ToggleTodo(ctx context.Context, id int, completed bool) error {
	if err := l.writable("toggle todo"); err != nil {
		return err
	}
	if err := l.backend.Update(ctx, http.MethodPut, id, model.CompletedPatch(!completed)); err != nil {
		l.log.Error("Error toggling todo", "id", id, "err", err)
		return fmt.Errorf("toggle todo %d: %w", id, err)
	}
	return l.refresh(ctx)
}

// DeleteTodo removes a todo and refetches.
func (l *List) DeleteTodo(ctx context.Context, id int) error {
	if err := l.writable("delete todo"); err != nil {
		return err
	}
	if err := l.backend.Delete(ctx, id); err != nil {
		l.log.Error("Error deleting todo", "id", id, "err", err)
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return l.refresh(ctx)
}

// refresh refetches after a mutation that already succeeded.
func (l *List) refresh(ctx context.Context) error {
	if err := l.FetchTodos(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return nil
}

func (l *List) writable(op string) error {
	if l.edition == Community {
		l.log.Warn("refused on read-only list", "op", op)
		return ErrReadOnly
	}
	return nil
}

func (l *List) clearEditLocked() {
	l.state.Editing = false
	l.state.EditingID = 0
	l.state.EditingTitle = ""
}
