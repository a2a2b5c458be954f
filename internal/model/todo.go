package model

// Todo is the domain model for a todo entry as the backend stores it.
// ID is assigned by the server on create.
type Todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// NewTodo is the POST /todos body.
type NewTodo struct {
	Title string `json:"title"`
}

// Patch is the PUT/PATCH /todos/:id body. Nil fields are left out.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// TitlePatch sets only the title.
func TitlePatch(title string) Patch { return Patch{Title: &title} }

// CompletedPatch sets only the completion flag.
func CompletedPatch(done bool) Patch { return Patch{IsCompleted: &done} }

// Apply merges p into t.
func (p Patch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
}

// Empty reports whether p carries no field.
func (p Patch) Empty() bool { return p.Title == nil && p.IsCompleted == nil }

// Stats counts done and pending todos.
func Stats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}

// Find returns the todo with id and whether it exists.
func Find(todos []Todo, id int) (Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}
