package ui

import (
	"fmt"
	"io"

	"github.com/idilsaglam/todo-ee/internal/model"
)

const maxTitle = 80

// ListView is the static, read-only rendering of a fetched list.
type ListView struct {
	Heading string // e.g. "Todo List"
	Badge   string // edition label
	Group   bool   // split into pending/done
	Tip     string // optional footer
}

// Render writes the framed list to w.
func (v ListView) Render(w io.Writer, todos []model.Todo) {
	t := Current()
	d, p := model.Stats(todos)

	heading := v.Heading
	if heading == "" {
		heading = "Todo List"
	}
	header := C(t.Title, heading)
	if v.Badge != "" {
		header += "  " + C(t.Badge, " "+v.Badge+" ")
	}

	lines := []string{
		header,
		fmt.Sprintf("%s %d  %s %d  %s %d",
			C(t.Success, t.SymDone), d,
			C(t.Pending, t.SymPending), p,
			C(t.Accent, "Total"), len(todos)),
		C(t.Muted, ProgressBar(d, d+p, 28)),
		"",
	}
	if v.Group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, flatLines(todos)...)
	}
	if v.Tip != "" {
		lines = append(lines, "", C(t.Muted, v.Tip))
	}
	Panel(w, lines)
}

func flatLines(todos []model.Todo) []string {
	t := Current()
	if len(todos) == 0 {
		return []string{C(t.Muted, "no todos")}
	}
	out := make([]string, 0, len(todos))
	for _, it := range todos {
		box, color, title := t.BoxUnchecked, t.Muted, truncate(it.Title)
		if it.IsCompleted {
			box, color = t.BoxChecked, t.Success
			title = C(t.Done, title)
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			C(dim, fmt.Sprintf("#%-3d", it.ID)), C(color, box), title))
	}
	return out
}

func groupLines(todos []model.Todo) []string {
	t := Current()
	var pend, done []model.Todo
	for _, it := range todos {
		if it.IsCompleted {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	section := func(name string, items []model.Todo) []string {
		lines := []string{C(t.Accent, name)}
		if len(items) == 0 {
			return append(lines, C(t.Muted, "(none)"))
		}
		return append(lines, flatLines(items)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxTitle {
		return string(r[:maxTitle-3]) + "..."
	}
	return s
}
