package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idilsaglam/todo-ee/internal/model"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ts := httptest.NewServer(New(store, nil).Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doReq(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCRUD(t *testing.T) {
	ts, store := newTestServer(t)

	resp := doReq(t, http.MethodPost, ts.URL+"/todos", `{"title":"Buy milk"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST: got %d, want 201", resp.StatusCode)
	}
	var created model.Todo
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID != 1 || created.Title != "Buy milk" || created.IsCompleted {
		t.Fatalf("created: got %+v", created)
	}

	resp = doReq(t, http.MethodPut, ts.URL+"/todos/1", `{"isCompleted":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT: got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodPatch, ts.URL+"/todos/1", `{"title":"Buy oat milk"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH: got %d", resp.StatusCode)
	}
	got := store.List()
	want := model.Todo{ID: 1, Title: "Buy oat milk", IsCompleted: true}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("after updates: got %+v, want %+v", got, want)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/todos", "")
	var listed []model.Todo
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0] != want {
		t.Errorf("GET: got %+v", listed)
	}

	resp = doReq(t, http.MethodDelete, ts.URL+"/todos/1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE: got %d", resp.StatusCode)
	}
	if n := len(store.List()); n != 0 {
		t.Errorf("after delete: %d todos left", n)
	}
}

func TestErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank title", http.MethodPost, "/todos", `{"title":"  "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/todos", `{`, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/todos/42", `{"title":"x"}`, http.StatusNotFound},
		{"empty patch", http.MethodPatch, "/todos/42", `{}`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/todos/42", "", http.StatusNotFound},
		{"non numeric id", http.MethodDelete, "/todos/abc", "", http.StatusNotFound},
		{"wrong method", http.MethodPost, "/todos/1", `{}`, http.StatusMethodNotAllowed},
		{"oversized body", http.MethodPost, "/todos", `{"title":"` + strings.Repeat("x", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doReq(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("got %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/todos", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("echoed id: got %q", got)
	}

	resp2 := doReq(t, http.MethodGet, ts.URL+"/todos", "")
	if resp2.Header.Get(requestIDHeader) == "" {
		t.Error("expected a minted request id")
	}
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("second"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(1); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.List()
	if len(got) != 1 || got[0].Title != "second" {
		t.Fatalf("reopened: got %+v", got)
	}
	next, err := reopened.Create("third")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 3 {
		t.Errorf("next id: got %d, want 3", next.ID)
	}
}

func TestFailedSaveKeepsTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewStore(filepath.Join(dir, "todos.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("kept"); err != nil {
		t.Fatal(err)
	}

	// A file where the data directory should be makes every save fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create("ghost"); err == nil {
		t.Error("Create: expected a save error")
	}
	if _, err := s.Update(1, model.TitlePatch("renamed")); err == nil {
		t.Error("Update: expected a save error")
	}
	if err := s.Delete(1); err == nil {
		t.Error("Delete: expected a save error")
	}
	got := s.List()
	if len(got) != 1 || got[0].Title != "kept" {
		t.Fatalf("table changed by failed saves: %+v", got)
	}

	ts := httptest.NewServer(New(s, nil).Router())
	t.Cleanup(ts.Close)
	if resp := doReq(t, http.MethodPost, ts.URL+"/todos", `{"title":"ghost"}`); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("POST: got %d, want 500", resp.StatusCode)
	}
	if n := len(s.List()); n != 1 {
		t.Errorf("failed POST left %d todos", n)
	}

	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	next, err := s.Create("next")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 2 {
		t.Errorf("id after failed creates: got %d, want 2", next.ID)
	}
}
