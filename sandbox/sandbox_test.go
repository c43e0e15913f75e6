package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkspaceLazyCreation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws")
	w := NewWorkspace(path)

	// Not created until first use.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	dir, err := w.Dir()
	assert.NoError(t, err)
	assert.Equal(t, path, dir)

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkspaceJoin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws")
	w := NewWorkspace(path)

	p, err := w.Join("sub", "file.txt")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(path, "sub", "file.txt"), p)
}

func TestWorkspaceCleanupKeepsCallerDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws")
	w := NewWorkspace(path)

	_, err := w.Dir()
	assert.NoError(t, err)
	assert.NoError(t, w.Cleanup(context.Background()))

	// Caller-supplied directories survive cleanup.
	_, err = os.Stat(path)
	assert.NoError(t, err)

	// The session is unusable afterwards.
	_, err = w.Dir()
	assert.Error(t, err)
}

func TestWorkspaceCleanupRemovesTempDirectories(t *testing.T) {
	w := NewWorkspace("")

	dir, err := w.Dir()
	assert.NoError(t, err)
	_, err = os.Stat(dir)
	assert.NoError(t, err)

	assert.NoError(t, w.Cleanup(context.Background()))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspaceCleanupIdempotent(t *testing.T) {
	w := NewWorkspace("")
	assert.NoError(t, w.Cleanup(context.Background()))
	assert.NoError(t, w.Cleanup(context.Background()))
}
