package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/model"
)

type fakeDelegate struct {
	fn func(ctx context.Context, request string) (string, error)
}

func (d *fakeDelegate) Run(ctx context.Context, request string) (string, error) {
	return d.fn(ctx, request)
}

// delegateRecorder builds a DelegateFactory whose delegates record their
// prompts and return canned results.
type delegateRecorder struct {
	mu      sync.Mutex
	prompts []string
	fn      func(ctx context.Context, request string) (string, error)
}

func (r *delegateRecorder) factory() DelegateFactory {
	return func() Delegate {
		return &fakeDelegate{fn: func(ctx context.Context, request string) (string, error) {
			r.mu.Lock()
			r.prompts = append(r.prompts, request)
			r.mu.Unlock()
			if r.fn != nil {
				return r.fn(ctx, request)
			}
			return "delegate finished", nil
		}}
	}
}

func (r *delegateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

func newTestCoordinator(t *testing.T, m model.Model, factory DelegateFactory, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	t.Helper()
	dir := t.TempDir()
	fns := append([]func(o *CoordinatorOptions){func(o *CoordinatorOptions) {
		o.TodoPath = filepath.Join(dir, "TODO.md")
		o.ContextPath = filepath.Join(dir, "Context.md")
		o.TaskCooldown = 0
		o.PostTaskCooldown = 0
		o.PersistRetryDelay = time.Millisecond
		o.MaxSteps = 20
	}}, optFns...)
	return NewCoordinator(m, factory, fns...)
}

func TestCoordinatorHappyPath(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueAsk("# Project Context\n\nBuild a small web app.")
	m.QueueAsk("- [ ] Task 1: write file A\n- [ ] Task 2: write file B\n")

	rec := &delegateRecorder{}
	c := newTestCoordinator(t, m, rec.factory())

	summary, err := c.Run(context.Background(), "build the app")
	assert.NoError(t, err)
	assert.Equal(t, core.StateFinished, c.State())
	assert.Contains(t, summary, "All tasks completed")

	// Both tasks ran, in order, each on its own delegate.
	assert.Equal(t, 2, rec.count())
	assert.Contains(t, rec.prompts[0], "write file A")
	assert.Contains(t, rec.prompts[1], "write file B")

	// Delegates receive the context and the original request, plus scope
	// restrictions pinning them to their single task.
	assert.Contains(t, rec.prompts[0], "Build a small web app")
	assert.Contains(t, rec.prompts[0], "build the app")
	assert.Contains(t, rec.prompts[0], "Task 1 of 2")

	// The checklist converged on disk with the summary appended.
	data, readErr := os.ReadFile(c.store.Path())
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "- [x] Task 1: write file A")
	assert.Contains(t, string(data), "- [x] Task 2: write file B")
	assert.Contains(t, string(data), "## Execution Summary")
	assert.Contains(t, string(data), "Task 1 completed: write file A")

	// Context document persisted.
	ctxData, readErr := os.ReadFile(c.contextPath)
	assert.NoError(t, readErr)
	assert.Contains(t, string(ctxData), "Build a small web app")
}

func TestCoordinatorFiltersModelProseFromChecklist(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueAsk("context")
	m.QueueAsk("# Task Breakdown\n\nHere you go:\n- [ ] Task 1: only real task\nGood luck!")

	rec := &delegateRecorder{}
	c := newTestCoordinator(t, m, rec.factory())

	_, err := c.Run(context.Background(), "small request")
	assert.NoError(t, err)

	data, readErr := os.ReadFile(c.store.Path())
	assert.NoError(t, readErr)
	assert.NotContains(t, string(data), "Good luck")
	assert.Contains(t, string(data), "- [x] Task 1: only real task")
}

func TestCoordinatorTimeoutStillCompletesTask(t *testing.T) {
	dir := t.TempDir()
	todoPath := filepath.Join(dir, "TODO.md")
	assert.NoError(t, os.WriteFile(todoPath, []byte("- [ ] Task 1: slow work\n"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "Context.md"), []byte("ctx"), 0o644))

	rec := &delegateRecorder{fn: func(ctx context.Context, request string) (string, error) {
		// Ignores cancellation: the wall-clock bound must still hold.
		time.Sleep(200 * time.Millisecond)
		return "too late", nil
	}}

	c := NewCoordinator(model.NewMockModel("mock"), rec.factory(), func(o *CoordinatorOptions) {
		o.TodoPath = todoPath
		o.ContextPath = filepath.Join(dir, "Context.md")
		o.TaskTimeout = 20 * time.Millisecond
		o.TaskCooldown = 0
		o.PostTaskCooldown = 0
		o.PersistRetryDelay = time.Millisecond
		o.MaxSteps = 10
	})

	summary, err := c.Run(context.Background(), "resume")
	assert.NoError(t, err)
	assert.Equal(t, core.StateFinished, c.State())
	assert.Contains(t, summary, "timed out")

	data, readErr := os.ReadFile(todoPath)
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "- [x] Task 1: slow work")
}

func TestCoordinatorCancellationLeavesChecklistResumable(t *testing.T) {
	dir := t.TempDir()
	todoPath := filepath.Join(dir, "TODO.md")
	checklist := "- [ ] Task 1: first\n- [ ] Task 2: second\n- [ ] Task 3: third\n"
	assert.NoError(t, os.WriteFile(todoPath, []byte(checklist), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "Context.md"), []byte("ctx"), 0o644))

	rec := &delegateRecorder{fn: func(ctx context.Context, request string) (string, error) {
		// Ignores cancellation, like a delegate mid provider call.
		time.Sleep(200 * time.Millisecond)
		return "too late", nil
	}}

	c := NewCoordinator(model.NewMockModel("mock"), rec.factory(), func(o *CoordinatorOptions) {
		o.TodoPath = todoPath
		o.ContextPath = filepath.Join(dir, "Context.md")
		o.TaskTimeout = 10 * time.Second
		o.TaskCooldown = 0
		o.PostTaskCooldown = 0
		o.PersistRetryDelay = time.Millisecond
		o.MaxSteps = 10
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Run(ctx, "big job")
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.StateIdle, c.State())

	// Cancellation is not a timeout: no task was marked complete and no
	// summary was written, so a later run resumes from Task 1.
	data, readErr := os.ReadFile(todoPath)
	assert.NoError(t, readErr)
	assert.Equal(t, checklist, string(data))
	assert.Equal(t, 1, rec.count())
}

func TestCoordinatorResumesFromExistingChecklist(t *testing.T) {
	dir := t.TempDir()
	todoPath := filepath.Join(dir, "TODO.md")
	assert.NoError(t, os.WriteFile(todoPath, []byte("- [x] Task 1: already done\n- [ ] Task 2: still open\n"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "Context.md"), []byte("restored context"), 0o644))

	rec := &delegateRecorder{}
	c := NewCoordinator(model.NewMockModel("mock"), rec.factory(), func(o *CoordinatorOptions) {
		o.TodoPath = todoPath
		o.ContextPath = filepath.Join(dir, "Context.md")
		o.TaskCooldown = 0
		o.PostTaskCooldown = 0
		o.PersistRetryDelay = time.Millisecond
		o.MaxSteps = 10
	})

	_, err := c.Run(context.Background(), "carry on")
	assert.NoError(t, err)
	assert.Equal(t, core.StateFinished, c.State())

	// Only the open task was delegated.
	assert.Equal(t, 1, rec.count())
	assert.Contains(t, rec.prompts[0], "still open")
	assert.NotContains(t, rec.prompts[0], "already done")

	data, readErr := os.ReadFile(todoPath)
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "- [x] Task 2: still open")
}

func TestCoordinatorDelegateFailureIsNonFatal(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueAsk("ctx")
	m.QueueAsk("- [ ] Task 1: fails\n- [ ] Task 2: succeeds\n")

	calls := 0
	rec := &delegateRecorder{fn: func(ctx context.Context, request string) (string, error) {
		calls++
		if calls == 1 {
			return "", assert.AnError
		}
		return "ok", nil
	}}

	c := newTestCoordinator(t, m, rec.factory())
	summary, err := c.Run(context.Background(), "mixed outcome")
	assert.NoError(t, err)
	assert.Equal(t, core.StateFinished, c.State())
	assert.Contains(t, summary, "Error executing task 1")

	// The failed task is still marked complete and never retried.
	data, readErr := os.ReadFile(c.store.Path())
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "- [x] Task 1: fails")
	assert.Contains(t, string(data), "- [x] Task 2: succeeds")
	assert.Equal(t, 2, rec.count())
}

func TestCoordinatorStepWithoutRequest(t *testing.T) {
	c := newTestCoordinator(t, model.NewMockModel("mock"), func() Delegate {
		return &fakeDelegate{fn: func(ctx context.Context, request string) (string, error) {
			return "unused", nil
		}}
	})

	result, err := c.Step(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "No user request found in memory.", result)
}

func TestCoordinatorEmptyChecklistFallback(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueAsk("ctx")
	m.QueueAsk("the model rambled and produced no checklist lines")

	rec := &delegateRecorder{}
	c := newTestCoordinator(t, m, rec.factory())

	_, err := c.Run(context.Background(), "vague request")
	assert.NoError(t, err)

	data, readErr := os.ReadFile(c.store.Path())
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "- [x] Task 1: Complete the requested task")
	assert.Equal(t, 1, rec.count())
}
