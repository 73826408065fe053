// Package build drives translations of analyzed programs stored on disk: it
// reads and decodes each input, checks its language version, translates it and
// writes the C source next to it or into the configured output directory.
package build

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/koberi-lang/koberic/internal/aast"
	"github.com/koberi-lang/koberic/internal/cli"
	"github.com/koberi-lang/koberic/internal/codegen"
	"github.com/koberi-lang/koberic/internal/errors"
)

// InputSuffix is the conventional extension of front-end output files.
const InputSuffix = ".aast.json"

// Job is one input file and the path its C source goes to.
type Job struct {
	Input  string
	Output string // derived from Input when empty
}

// Result captures the outcome of one job.
type Result struct {
	Input  string
	Output string
	Err    error
	Took   time.Duration
	Cached bool
}

// Pipeline translates single files. It is safe for concurrent use as long as the
// cache is.
type Pipeline struct {
	Config *cli.Config
	Logger *cli.Logger
	Cache  Cache

	mu   sync.Mutex
	keys map[string]CacheKey // input path -> key of its last translation
}

// NewPipeline creates a pipeline with an in-memory cache.
func NewPipeline(cfg *cli.Config, logger *cli.Logger) *Pipeline {
	if cfg == nil {
		cfg = cli.DefaultConfig()
	}
	if logger == nil {
		logger = cli.NewLogger(cfg.Verbose, cfg.Debug)
	}
	return &Pipeline{Config: cfg, Logger: logger, Cache: NewInMemoryLRUCache(0)}
}

// OutputPath derives the C file name of an input: prog.aast.json becomes prog.c,
// placed in the output directory when one is configured.
func (p *Pipeline) OutputPath(input string) string {
	base := filepath.Base(input)
	switch {
	case strings.HasSuffix(base, InputSuffix):
		base = strings.TrimSuffix(base, InputSuffix)
	default:
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	dir := p.Config.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+".c")
}

// Run executes one job.
func (p *Pipeline) Run(job Job) Result {
	if job.Output == "" {
		job.Output = p.OutputPath(job.Input)
	}
	start := time.Now()
	cached, err := p.run(job)
	res := Result{Input: job.Input, Output: job.Output, Err: err, Took: time.Since(start), Cached: cached}
	switch {
	case err != nil:
		p.Logger.Debug("%s failed after %s", job.Input, res.Took)
	case cached:
		p.Logger.Info("%s unchanged, %s is up to date", job.Input, job.Output)
	default:
		p.Logger.Info("translated %s -> %s (%s)", job.Input, job.Output, res.Took)
	}
	return res
}

func (p *Pipeline) run(job Job) (bool, error) {
	input, err := os.ReadFile(job.Input)
	if err != nil {
		return false, errors.FileNotOpened(job.Input, err)
	}

	key := Fingerprint(input, p.Config)
	p.remember(job.Input, key)
	if a, ok := p.Cache.Get(key); ok {
		if a.Output == job.Output && fileExists(job.Output) {
			return true, nil
		}
		return true, writeAtomic(job.Output, a.Source)
	}

	source, err := p.translate(job.Input, input)
	if err != nil {
		return false, err
	}
	if err := writeAtomic(job.Output, []byte(source)); err != nil {
		return false, err
	}
	p.Cache.Put(key, Artifact{Source: []byte(source), Output: job.Output})
	return false, nil
}

// translate decodes and translates one program held in memory.
func (p *Pipeline) translate(name string, input []byte) (string, error) {
	prog, err := aast.Decode(bytes.NewReader(input), name)
	if err != nil {
		return "", errors.MalformedInput(name, err)
	}
	if err := CheckVersion(prog.Version, p.Config.Language); err != nil {
		return "", err
	}
	p.Logger.Debug("%s: %d classes, %d globals, %d functions",
		name, len(prog.Classes), len(prog.Globals), len(prog.Functions))

	return codegen.New(prog, codegen.Options{
		Logger:    p.Logger,
		Indent:    p.Config.Indent,
		Entry:     p.Config.Entry,
		Libraries: p.Config.Libraries,
	}).Translate()
}

// CheckVersion verifies that a program's language version satisfies constraint.
// Programs that do not declare a version, and an empty constraint, are accepted.
func CheckVersion(version, constraint string) error {
	if version == "" || constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.UnsupportedVersion(version, constraint)
	}
	v, err := semver.NewVersion(version)
	if err != nil || !c.Check(v) {
		return errors.UnsupportedVersion(version, constraint)
	}
	return nil
}

// remember records key as the current key of input and drops the artifact of
// the input's previous contents, which can no longer be hit.
func (p *Pipeline) remember(input string, key CacheKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keys == nil {
		p.keys = make(map[string]CacheKey)
	}
	if old, ok := p.keys[input]; ok && old != key {
		p.Cache.Invalidate(old)
		p.Logger.Debug("%s changed, dropped cached translation", input)
	}
	p.keys[input] = key
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data to a temporary file beside path and renames it into
// place, so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.FileNotCreated(path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return errors.FileNotCreated(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.FileNotCreated(path, err)
	}
	return nil
}
