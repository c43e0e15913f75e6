// Package sandbox manages the scoped workspace resource an agent run holds
// exclusively. The resource is acquired lazily on first use and released
// unconditionally when the run's step loop exits, regardless of exit path.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is an exclusively-held external resource scoped to one agent run.
type Session interface {
	// Dir returns the working directory backing the session, creating it on
	// first use.
	Dir() (string, error)

	// Cleanup releases the session. It must be safe to call when the session
	// was never used and safe to call more than once.
	Cleanup(ctx context.Context) error
}

// Workspace is a Session backed by a local directory. The directory is
// created lazily; Cleanup removes it only if Workspace created it.
type Workspace struct {
	mu      sync.Mutex
	path    string
	temp    bool
	created bool
	removed bool
}

// NewWorkspace returns a Workspace rooted at path. An empty path defaults to
// a per-process temp directory allocated on first use.
func NewWorkspace(path string) *Workspace {
	return &Workspace{path: path}
}

// Dir implements Session.
func (w *Workspace) Dir() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.removed {
		return "", fmt.Errorf("sandbox: session already cleaned up")
	}
	if w.created {
		return w.path, nil
	}
	if w.path == "" {
		dir, err := os.MkdirTemp("", "stride-workspace-")
		if err != nil {
			return "", fmt.Errorf("sandbox: create workspace: %w", err)
		}
		w.path = dir
		w.temp = true
		w.created = true
		return w.path, nil
	}
	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return "", fmt.Errorf("sandbox: create workspace: %w", err)
	}
	w.created = true
	return w.path, nil
}

// Path returns the configured directory without creating it.
func (w *Workspace) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Join resolves a path relative to the workspace directory, creating the
// workspace if needed.
func (w *Workspace) Join(elem ...string) (string, error) {
	dir, err := w.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

// Cleanup implements Session. Directories supplied by the caller are left in
// place; only temp directories allocated by the Workspace itself are removed.
func (w *Workspace) Cleanup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.removed || !w.created {
		w.removed = true
		return nil
	}
	w.removed = true

	if err := ctx.Err(); err != nil {
		return err
	}
	if w.temp {
		if err := os.RemoveAll(w.path); err != nil {
			return fmt.Errorf("sandbox: remove workspace: %w", err)
		}
	}
	return nil
}

// NoopSession is a Session with no backing resource.
type NoopSession struct{}

// Dir implements Session.
func (NoopSession) Dir() (string, error) { return "", nil }

// Cleanup implements Session.
func (NoopSession) Cleanup(context.Context) error { return nil }
