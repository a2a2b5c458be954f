package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/idilsaglam/todo-ee/internal/model"
	"github.com/idilsaglam/todo-ee/internal/store/jsonstore"
)

// ErrNotFound is returned for an unknown id.
var ErrNotFound = errors.New("todo not found")

// Store is an in-memory todo table with an optional JSON snapshot.
type Store struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int
	path   string
}

// NewStore returns an empty store. When path is set the store is loaded
// from it and every mutation is written back.
func NewStore(path string) (*Store, error) {
	s := &Store{todos: []model.Todo{}, nextID: 1, path: path}
	if path == "" {
		return s, nil
	}
	todos, err := jsonstore.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.todos = todos
	for _, t := range todos {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	return s, nil
}

// List returns a copy of all todos in insertion order.
func (s *Store) List() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Create appends a todo and assigns its id.
func (s *Store) Create(title string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Todo{ID: s.nextID, Title: title}
	next := append(s.clone(), t)
	if err := s.commit(next); err != nil {
		return model.Todo{}, err
	}
	s.nextID++
	return t, nil
}

// Update merges p into the todo with id.
func (s *Store) Update(id int, p model.Patch) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Todo{}, ErrNotFound
	}
	next := s.clone()
	p.Apply(&next[i])
	if err := s.commit(next); err != nil {
		return model.Todo{}, err
	}
	return next[i], nil
}

// Delete removes the todo with id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	next := append(s.clone()[:i], s.todos[i+1:]...)
	return s.commit(next)
}

func (s *Store) index(id int) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clone() []model.Todo {
	out := make([]model.Todo, len(s.todos), len(s.todos)+1)
	copy(out, s.todos)
	return out
}

// commit writes next to the snapshot and only then swaps it in, so a failed
// save leaves the table as it was. Must be called with mu held.
func (s *Store) commit(next []model.Todo) error {
	if s.path != "" {
		if err := jsonstore.Save(s.path, next); err != nil {
			return fmt.Errorf("save %s: %w", s.path, err)
		}
	}
	s.todos = next
	return nil
}
