package tasklist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TODO.md")
	return NewStore(path, func(o *StoreOptions) {
		o.PersistRetries = 3
		o.PersistRetryDelay = time.Millisecond
	})
}

func TestStoreExistsAndLoad(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Exists())

	assert.NoError(t, s.WriteText("- [ ] Task 1: write file A\n"))
	assert.True(t, s.Exists())

	doc, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, 1, doc.Len())
}

func TestMarkCompletePersistsAcrossReload(t *testing.T) {
	s := newTestStore(t)
	text := "- [ ] Task 1: write file A\n- [ ] Task 2: write file B\n"
	assert.NoError(t, s.WriteText(text))

	doc, err := s.Load()
	assert.NoError(t, err)

	next, ok := doc.Next()
	assert.True(t, ok)
	assert.Equal(t, 1, next.Seq)

	assert.NoError(t, s.MarkComplete(doc, next))

	reloaded, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, "- [x] Task 1: write file A\n- [ ] Task 2: write file B\n", reloaded.Serialize())

	next, ok = reloaded.Next()
	assert.True(t, ok)
	assert.Equal(t, 2, next.Seq)
}

func TestMarkCompleteToleratesExternalRewrite(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.WriteText("- [ ] Task 1: a\n"))

	doc, err := s.Load()
	assert.NoError(t, err)
	task := doc.Tasks()[0]

	// A prior run already marked the line complete on disk.
	assert.NoError(t, os.WriteFile(s.Path(), []byte("- [x] Task 1: a\n"), 0o644))

	assert.NoError(t, s.MarkComplete(doc, task))
	data, err := os.ReadFile(s.Path())
	assert.NoError(t, err)
	assert.Contains(t, string(data), "- [x] Task 1: a")
}

func TestAppendSummary(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.WriteText("- [x] Task 1: a\n"))
	assert.NoError(t, s.AppendSummary("\n\n## Execution Summary\n1. Task 1 completed: a\n"))

	data, err := os.ReadFile(s.Path())
	assert.NoError(t, err)
	assert.Contains(t, string(data), "## Execution Summary")
	assert.Contains(t, string(data), "- [x] Task 1: a")
}
