// Package watch reports changes to a fixed set of input files using OS-native
// notifications.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is a bit set of file operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) String() string {
	var parts []string
	for _, n := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}, {OpChmod, "chmod"}} {
		if op&n.op != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event is a change to one watched input.
type Event struct {
	Path string
	Op   Op
}

// Watcher watches the directories holding the inputs, since editors often replace
// a file instead of writing it in place, and forwards events for the inputs only.
type Watcher struct {
	w      *fsnotify.Watcher
	inputs map[string]bool
	evC    chan Event
	erC    chan error
}

// New starts watching inputs.
func New(inputs []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{w: w, inputs: make(map[string]bool, len(inputs)), evC: make(chan Event, 128), erC: make(chan error, 1)}

	dirs := make(map[string]bool)
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}

	go fw.loop()
	return fw, nil
}

func (fw *Watcher) loop() {
	defer close(fw.evC)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if !fw.inputs[filepath.Clean(ev.Name)] {
				continue
			}
			fw.evC <- Event{Path: filepath.Clean(ev.Name), Op: convert(ev.Op)}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default: // an error is already pending
			}
		}
	}
}

func convert(o fsnotify.Op) Op {
	var op Op
	if o&fsnotify.Create != 0 {
		op |= OpCreate
	}
	if o&fsnotify.Write != 0 {
		op |= OpWrite
	}
	if o&fsnotify.Remove != 0 {
		op |= OpRemove
	}
	if o&fsnotify.Rename != 0 {
		op |= OpRename
	}
	if o&fsnotify.Chmod != 0 {
		op |= OpChmod
	}
	return op
}

func (fw *Watcher) Close() error { return fw.w.Close() }

// Run calls fn once per changed input after the inputs have been quiet for
// debounce, until ctx is done or the watcher is closed. Only writes and
// creations count as changes. Watcher errors end the loop.
func (fw *Watcher) Run(ctx context.Context, debounce time.Duration, fn func(path string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-fw.erC:
			return err
		case ev, ok := <-fw.evC:
			if !ok {
				return nil
			}
			if ev.Op&(OpWrite|OpCreate) == 0 {
				continue
			}
			pending[ev.Path] = true
			timer.Reset(debounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				fn(p)
			}
		}
	}
}
