package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/todo-ee/internal/cli"
	"github.com/idilsaglam/todo-ee/internal/config"
	"github.com/idilsaglam/todo-ee/internal/logging"
	"github.com/idilsaglam/todo-ee/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.Usage = func() {
		cli.PrintHelp(os.Stderr)
		fmt.Fprintln(os.Stderr, "\nAll flags:")
		fs.PrintDefaults()
	}
	cfg, args, err := config.Load(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		ui.Fail(err.Error())
		os.Exit(2)
	}

	ui.SetColorForcing(cfg.ForceColor, cfg.NoColor)
	ui.SetTheme(cfg.Theme)

	logOpts := logging.DefaultOptions()
	logOpts.Level = cfg.LogLevel
	logOpts.Format = cfg.LogFormat
	logOpts.File = cfg.LogFile
	log, err := logging.New(os.Stderr, logOpts)
	if err != nil {
		ui.Fail("log: " + err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Hand the remaining args to the CLI runner.
	code := cli.Run(ctx, args, cli.Options{
		Config: cfg,
		Log:    log,
	})
	stop()
	log.Close()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
