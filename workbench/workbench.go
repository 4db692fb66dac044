// Package workbench holds the named frames a pipeline reads from and
// writes to. Input operations read it, Output operations write it.
package workbench

import (
	"sort"
	"sync"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
)

// Workbench is a thread-safe name to frame store. Frames are immutable, so
// they are shared without copying.
type Workbench struct {
	mu     sync.RWMutex
	frames map[string]*frame.Frame
}

// New creates an empty Workbench.
func New() *Workbench {
	return &Workbench{frames: make(map[string]*frame.Frame)}
}

// Get returns the named frame.
func (w *Workbench) Get(name string) (*frame.Frame, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.frames[name]
	return f, ok
}

// Frame returns the named frame or a NOT_FOUND error.
func (w *Workbench) Frame(name string) (*frame.Frame, error) {
	f, ok := w.Get(name)
	if !ok {
		return nil, errors.NotFound("frame", name)
	}
	return f, nil
}

// Shape returns the shape of the named frame.
func (w *Workbench) Shape(name string) (*frame.Shape, bool) {
	f, ok := w.Get(name)
	if !ok {
		return nil, false
	}
	return f.Shape(), true
}

// Set stores f under name, replacing any previous frame.
func (w *Workbench) Set(name string, f *frame.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames[name] = f
}

// Delete removes the named frame and reports whether it existed.
func (w *Workbench) Delete(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.frames[name]
	delete(w.frames, name)
	return ok
}

// Names returns the stored names, sorted.
func (w *Workbench) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.frames))
	for name := range w.frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the name to frame map.
func (w *Workbench) Snapshot() map[string]*frame.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]*frame.Frame, len(w.frames))
	for k, v := range w.frames {
		out[k] = v
	}
	return out
}

// Load stores every frame of set.
func (w *Workbench) Load(set map[string]*frame.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, v := range set {
		w.frames[k] = v
	}
}
