package gotest

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"gotest/internal/events"
	"gotest/internal/registry"
	"gotest/internal/reporting"
	"gotest/internal/runconfig"
	"gotest/internal/runner"
)

// Main is the library's CLI entry point. A test-author binary's own main()
// blank-imports every package containing test_*.go files (so their init()
// registrations run), then calls gotest.Main(os.Args[1:]) — Go has no way
// to dynamically load an arbitrary compiled test file the way a dynamic
// host language can, so the binary that runs the tests must already have
// them linked in (see internal/discovery's package doc).
func Main(args []string) int {
	fs := flag.NewFlagSet("gotest", flag.ExitOnError)
	cmdr := subcommands.NewCommander(fs, "gotest")
	cmdr.Register(subcommands.HelpCommand(), "")
	cmdr.Register(subcommands.FlagsCommand(), "")
	cmdr.Register(subcommands.CommandsCommand(), "")
	cmdr.Register(&runCommand{}, "")
	cmdr.Register(&listCommand{}, "")
	cmdr.Register(&cleanCacheCommand{}, "")

	_ = fs.Parse(args)
	return int(cmdr.Execute(context.Background()))
}

// runCommand runs the discovered tests to completion (SPEC_FULL.md's
// ambient `run` subcommand), grounded in the teacher's own `cmd/tast`
// subcommand.Command pattern.
type runCommand struct {
	failFast    bool
	lastFailed  bool
	failedFirst bool
	capture     bool
	pattern     string
	attrExpr    string
	cacheDir    string
}

func (*runCommand) Name() string     { return "run" }
func (*runCommand) Synopsis() string { return "discover and run tests" }
func (*runCommand) Usage() string    { return "run [paths...]\n" }

func (c *runCommand) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.failFast, "x", false, "stop after the first failure or error")
	f.BoolVar(&c.lastFailed, "lf", false, "run only items that failed or errored last time")
	f.BoolVar(&c.failedFirst, "ff", false, "run failed items first")
	f.BoolVar(&c.capture, "capture", true, "capture per-item log output")
	f.StringVar(&c.pattern, "pattern", "", "substring filter against test ids")
	f.StringVar(&c.attrExpr, "k", "", "keyword expression filter against name/class/markers")
	f.StringVar(&c.cacheDir, "cache-dir", "", "override the persisted cache directory")
}

func (c *runCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := runconfig.Config{
		Paths:         f.Args(),
		FailFast:      c.failFast,
		LastFailed:    c.lastFailed,
		FailedFirst:   c.failedFirst,
		CaptureOutput: c.capture,
		Pattern:       c.pattern,
		AttrExpr:      c.attrExpr,
		CacheDir:      c.cacheDir,
	}

	console := reporting.NewConsole(os.Stdout, false)
	stream := events.NewStream()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range stream.Events() {
			console.Handle(ev)
		}
	}()

	res, err := runner.Run(ctx, cfg, registry.Default(), stream)
	stream.Close()
	<-done

	if err != nil {
		fmt.Fprintln(os.Stderr, "gotest: run failed:", err)
		return subcommands.ExitFailure
	}
	for _, ce := range res.CollectionErrors {
		fmt.Fprintf(os.Stderr, "gotest: collection error in %s: %s\n", ce.File, ce.Message)
	}
	if res.Report.ExitCode() != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// listCommand prints the id of every discovered item, one per line, without
// executing anything (SPEC_FULL.md's --collect-only).
type listCommand struct {
	pattern string
}

func (*listCommand) Name() string     { return "list" }
func (*listCommand) Synopsis() string { return "list discovered tests without running them" }
func (*listCommand) Usage() string    { return "list [paths...]\n" }

func (c *listCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pattern, "pattern", "", "substring filter against test ids")
}

func (c *listCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := runconfig.Config{Paths: f.Args(), Pattern: c.pattern, CollectOnly: true}
	res, err := runner.Run(ctx, cfg, registry.Default(), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gotest: list failed:", err)
		return subcommands.ExitFailure
	}
	for _, item := range res.Items {
		fmt.Println(item.ID)
	}
	return subcommands.ExitSuccess
}

// cleanCacheCommand removes the persisted last-failed cache.
type cleanCacheCommand struct {
	cacheDir string
}

func (*cleanCacheCommand) Name() string     { return "clean-cache" }
func (*cleanCacheCommand) Synopsis() string { return "remove the persisted last-failed cache" }
func (*cleanCacheCommand) Usage() string    { return "clean-cache\n" }

func (c *cleanCacheCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cacheDir, "cache-dir", runconfig.DefaultCacheDir, "cache directory to remove")
}

func (c *cleanCacheCommand) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	if err := os.RemoveAll(c.cacheDir); err != nil {
		fmt.Fprintln(os.Stderr, "gotest: clean-cache failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
