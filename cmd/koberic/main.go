// Package main provides the koberic command: it translates analyzed Koberi-C
// programs into C source files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/koberi-lang/koberic/internal/build"
	"github.com/koberi-lang/koberic/internal/cli"
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/watch"
)

const usage = "koberic [OPTIONS] <file.aast.json>..."

var flagInfo = []cli.FlagInfo{
	{Name: "o", Usage: "output file (single input only)", Default: "<input>.c"},
	{Name: "config", Usage: "configuration file", Default: cli.DefaultConfigFile},
	{Name: "out-dir", Usage: "directory for generated files"},
	{Name: "entry", Usage: "entry function name", Default: "main"},
	{Name: "jobs", Usage: "number of inputs translated concurrently", Default: "number of CPUs"},
	{Name: "v", Usage: "verbose output"},
	{Name: "debug", Usage: "debug output"},
	{Name: "watch", Usage: "translate again whenever an input changes"},
	{Name: "version", Usage: "show version information"},
	{Name: "json", Usage: "print version information as JSON"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("koberic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		output      = fs.String("o", "", "output file")
		configPath  = fs.String("config", cli.DefaultConfigFile, "configuration file")
		outDir      = fs.String("out-dir", "", "output directory")
		entry       = fs.String("entry", "", "entry function name")
		jobs        = fs.Int("jobs", 0, "concurrent translations")
		verbose     = fs.Bool("v", false, "verbose output")
		debug       = fs.Bool("debug", false, "debug output")
		watchMode   = fs.Bool("watch", false, "watch inputs")
		showVersion = fs.Bool("version", false, "show version information")
		jsonOutput  = fs.Bool("json", false, "JSON version output")
	)
	fs.Usage = func() { cli.PrintUsage(stderr, "koberic", usage, flagInfo) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if *showVersion {
		cli.PrintVersion(stdout, "koberic", *jsonOutput)
		return 0
	}

	inputs := fs.Args()
	if err := cli.ValidateArgs(inputs, 1, usage); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *output != "" && len(inputs) > 1 {
		fmt.Fprintln(stderr, "Error: -o requires exactly one input")
		return 1
	}

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out-dir":
			cfg.OutputDir = *outDir
		case "entry":
			cfg.Entry = *entry
		case "jobs":
			cfg.Jobs = *jobs
		case "v":
			cfg.Verbose = *verbose
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := cli.NewStreamLogger(stdout, stderr, cfg.Verbose, cfg.Debug)

	batch := build.NewBatch(build.NewPipeline(cfg, logger), cfg.Jobs)
	toJobs := func(paths []string) []build.Job {
		out := make([]build.Job, len(paths))
		for i, p := range paths {
			out[i] = build.Job{Input: p, Output: *output}
		}
		return out
	}

	failed := translateAll(ctx, batch, toJobs(inputs), logger)
	if !*watchMode {
		if failed {
			return 1
		}
		return 0
	}

	w, err := watch.New(inputs)
	if err != nil {
		logger.Error("cannot watch inputs: %v", err)
		return 1
	}
	defer w.Close()
	logger.Info("watching %d input(s)", len(inputs))

	err = w.Run(ctx, 100*time.Millisecond, func(path string) {
		translateAll(ctx, batch, toJobs([]string{path}), logger)
	})
	if err != nil && err != context.Canceled {
		logger.Error("watch: %v", err)
		return 1
	}
	return 0
}

// translateAll runs the jobs, reports every failure and tells whether any failed.
func translateAll(ctx context.Context, batch *build.Batch, jobs []build.Job, logger *cli.Logger) bool {
	results, stats, err := batch.Run(ctx, jobs)
	if err != nil {
		logger.Error("%v", err)
		return true
	}
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if se, ok := r.Err.(*errors.StandardError); ok && logger.DebugMode {
			logger.Error("%s: %s", r.Input, se.Detail())
		} else {
			logger.Error("%s: %v", r.Input, r.Err)
		}
	}
	logger.Debug("%d translated, %d cached, %d failed, at most %d at once",
		stats.Succeeded-stats.Cached, stats.Cached, stats.Failed, stats.MaxParallel)
	return stats.Failed > 0
}
