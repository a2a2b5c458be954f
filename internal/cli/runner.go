package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/todo-ee/internal/api"
	"github.com/idilsaglam/todo-ee/internal/config"
	"github.com/idilsaglam/todo-ee/internal/logging"
	"github.com/idilsaglam/todo-ee/internal/model"
	"github.com/idilsaglam/todo-ee/internal/server"
	"github.com/idilsaglam/todo-ee/internal/todolist"
	"github.com/idilsaglam/todo-ee/internal/tui"
	"github.com/idilsaglam/todo-ee/internal/ui"
)

// Options carry what the root command resolved.
type Options struct {
	Config *config.Config
	Log    *logging.Logger
	Out    io.Writer // stdout unless tests redirect it

	// runTUI is swapped in tests; nil means tui.Run.
	runTUI func(context.Context, *todolist.List) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if opt.Config == nil {
		opt.Config = config.Default()
	}
	if opt.Log == nil {
		opt.Log = logging.Discard()
	}
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if len(args) == 0 {
		PrintHelp(opt.Out)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Out)
		return 0

	case "ls":
		return doList(ctx, opt)

	case "ui":
		return doUI(ctx, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(ctx, opt, strings.Join(a, " "))

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <id> <title...>")
			return 2
		}
		id, ok := parseID("edit", a[0])
		if !ok {
			return 2
		}
		return doEdit(ctx, opt, id, strings.Join(a[1:], " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <id>")
			return 2
		}
		id, ok := parseID("done", a[0])
		if !ok {
			return 2
		}
		return doToggle(ctx, opt, id)

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <id>")
			return 2
		}
		id, ok := parseID("rm", a[0])
		if !ok {
			return 2
		}
		return doRemove(ctx, opt, id)

	case "serve":
		return doServe(ctx, opt)

	case "config":
		if err := config.Encode(opt.Out, opt.Config); err != nil {
			ui.Fail("config: " + err.Error())
			return 1
		}
		return 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	PrintHelp(os.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - a small client for a /todos REST endpoint

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  ls                    List todos (read-only view)
  ui                    Interactive list (inline edit in the Enterprise Edition)
  add <title...>        Add a todo (title can be multiple words)
  edit <id> <title...>  Rename a todo
  done <id>             Toggle completion of a todo
  rm <id>               Delete a todo
  serve                 Run the in-memory development backend
  config                Print the effective configuration

Flags:
  -base-url URL     REST endpoint (default http://localhost:3000)
  -edition ce|ee    Community (view only) or Enterprise (full CRUD)
  -edit-method M    PUT or PATCH for saving edits
  -group            Group the list by pending/done
  -theme NAME       classic, neon or mono

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo edit 2 "Buy oat milk"
  todo rm 3
`)
}

func parseID(cmd, s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		ui.Fail(cmd + ": not a valid id: " + s)
		return 0, false
	}
	return n, true
}

// -------------- subcommand impls ----------------

func newList(opt Options, log *logging.Logger) (*todolist.List, error) {
	edition, err := todolist.ParseEdition(opt.Config.Edition)
	if err != nil {
		return nil, err
	}
	client := api.New(opt.Config.BaseURL,
		api.WithTimeout(opt.Config.Timeout),
		api.WithLogger(log),
	)
	return todolist.New(client,
		todolist.WithEdition(edition),
		todolist.WithEditMethod(opt.Config.EditMethod),
		todolist.WithLogger(log),
	), nil
}

func listView(opt Options, l *todolist.List) ui.ListView {
	v := ui.ListView{
		Badge: l.Edition().String(),
		Group: opt.Config.Group,
	}
	if l.Edition() == todolist.Enterprise {
		v.Tip = "Tip: add with `todo add \"Buy milk\"`, edit interactively with `todo ui`"
	}
	return v
}

func doList(ctx context.Context, opt Options) int {
	l, err := newList(opt, opt.Log)
	if err != nil {
		ui.Fail(err.Error())
		return 2
	}
	if err := l.FetchTodos(ctx); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	listView(opt, l).Render(opt.Out, l.Todos())
	return 0
}

func doUI(ctx context.Context, opt Options) int {
	// The alt screen owns the terminal, so logs go to a file.
	logOpts := logging.DefaultOptions()
	logOpts.Level = opt.Config.LogLevel
	logOpts.Format = opt.Config.LogFormat
	logOpts.File = opt.Config.LogFile
	if logOpts.File == "" {
		logOpts.File = logging.DefaultFile()
	}
	log, err := logging.New(nil, logOpts)
	if err != nil {
		ui.Fail("log: " + err.Error())
		return 1
	}
	defer log.Close()

	l, err := newList(opt, log)
	if err != nil {
		ui.Fail(err.Error())
		return 2
	}
	run := opt.runTUI
	if run == nil {
		run = tui.Run
	}
	if err := run(ctx, l); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

// mutate runs one action and prints the refreshed list on success.
func mutate(ctx context.Context, opt Options, done string, action func(*todolist.List) error) int {
	l, err := newList(opt, opt.Log)
	if err != nil {
		ui.Fail(err.Error())
		return 2
	}
	if err := action(l); err != nil {
		if errors.Is(err, todolist.ErrStale) {
			// The change is on the server; only the listing failed.
			ui.OK(done)
			ui.Fail(err.Error())
			return 0
		}
		ui.Fail(err.Error())
		if errors.Is(err, todolist.ErrReadOnly) {
			return 2
		}
		return 1
	}
	ui.OK(done)
	listView(opt, l).Render(opt.Out, l.Todos())
	return 0
}

func doAdd(ctx context.Context, opt Options, title string) int {
	return mutate(ctx, opt, "added", func(l *todolist.List) error {
		return l.AddTodo(ctx, strings.TrimSpace(title))
	})
}

func doEdit(ctx context.Context, opt Options, id int, title string) int {
	return mutate(ctx, opt, "updated", func(l *todolist.List) error {
		return l.SaveEdit(ctx, id, strings.TrimSpace(title))
	})
}

func doToggle(ctx context.Context, opt Options, id int) int {
	return mutate(ctx, opt, "toggled", func(l *todolist.List) error {
		if err := l.FetchTodos(ctx); err != nil {
			return err
		}
		t, ok := model.Find(l.Todos(), id)
		if !ok {
			return fmt.Errorf("no todo with id %d (run `todo ls` to see ids)", id)
		}
		return l.ToggleTodo(ctx, t.ID, t.IsCompleted)
	})
}

func doRemove(ctx context.Context, opt Options, id int) int {
	return mutate(ctx, opt, "removed", func(l *todolist.List) error {
		return l.DeleteTodo(ctx, id)
	})
}

func doServe(ctx context.Context, opt Options) int {
	store, err := server.NewStore(opt.Config.DataFile)
	if err != nil {
		ui.Fail("serve: " + err.Error())
		return 1
	}
	if err := server.New(store, opt.Log).ListenAndServe(ctx, opt.Config.Listen); err != nil {
		ui.Fail("serve: " + err.Error())
		return 1
	}
	return 0
}
