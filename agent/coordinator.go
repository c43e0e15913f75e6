package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/model"
	"github.com/stride-agent/stride/progress"
	"github.com/stride-agent/stride/tasklist"
)

// Truncation limits applied when the context document is embedded into
// prompts. The document itself is never modified.
const (
	contextEmbedLimit = 1000
	contextTodoLimit  = 2000
)

// Delegate is a disposable executor for exactly one subtask. A fresh
// delegate is constructed per task; no memory is carried over between tasks.
type Delegate interface {
	Run(ctx context.Context, request string) (string, error)
}

// DelegateFactory constructs a fresh Delegate for each subtask.
type DelegateFactory func() Delegate

// CoordinatorOptions configure a Coordinator on top of the base lifecycle
// options.
type CoordinatorOptions struct {
	Options

	// TodoPath is the durable checklist document.
	TodoPath string

	// ContextPath is the project context document.
	ContextPath string

	// TaskTimeout bounds the wall-clock time of each delegated run.
	TaskTimeout time.Duration

	// TaskCooldown is the pause after a delegated run returns, before the
	// checklist is updated. PostTaskCooldown is the pause after the update.
	// Both exist to respect provider rate limits.
	TaskCooldown     time.Duration
	PostTaskCooldown time.Duration

	// PersistRetries and PersistRetryDelay bound the checklist
	// rewrite-and-verify loop.
	PersistRetries    int
	PersistRetryDelay time.Duration
}

// Coordinator decomposes a large request into a durable checklist of small
// subtasks and executes them strictly in order, one delegated run per task.
// Each call to Step handles exactly one phase transition: generate context,
// build or load the checklist, execute the next task, or finish.
type Coordinator struct {
	*BaseAgent

	model   model.Model
	factory DelegateFactory

	store       *tasklist.Store
	contextPath string

	doc             *tasklist.Document
	contextContent  string
	originalRequest string
	summary         []string

	taskTimeout      time.Duration
	taskCooldown     time.Duration
	postTaskCooldown time.Duration
}

// NewCoordinator constructs a Coordinator. The model generates the context
// document and the task breakdown; the factory supplies one fresh delegate
// per subtask.
func NewCoordinator(m model.Model, factory DelegateFactory, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{
		Options: Options{
			MaxSteps:           50,
			DuplicateThreshold: 2,
			SystemPrompt:       coordinatorSystemPrompt,
		},
		TodoPath:          filepath.Join("workspace", "TODO.md"),
		ContextPath:       filepath.Join("workspace", "Context.md"),
		TaskTimeout:       600 * time.Second,
		TaskCooldown:      3 * time.Second,
		PostTaskCooldown:  5 * time.Second,
		PersistRetries:    3,
		PersistRetryDelay: time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Coordinator{
		BaseAgent: NewBaseAgent("coordinator", func(o *Options) {
			*o = opts.Options
		}),
		model:   m,
		factory: factory,
		store: tasklist.NewStore(opts.TodoPath, func(o *tasklist.StoreOptions) {
			o.PersistRetries = opts.PersistRetries
			o.PersistRetryDelay = opts.PersistRetryDelay
			o.Logger = opts.Logger
		}),
		contextPath:      opts.ContextPath,
		taskTimeout:      opts.TaskTimeout,
		taskCooldown:     opts.TaskCooldown,
		postTaskCooldown: opts.PostTaskCooldown,
	}
	c.Bind(c)
	return c
}

// Tasks returns the current parsed checklist, or nil before decomposition.
func (c *Coordinator) Tasks() *tasklist.Document { return c.doc }

// Run discards any task state left over from a previous coordination and
// executes the base step loop.
func (c *Coordinator) Run(ctx context.Context, request string) (string, error) {
	c.doc = nil
	c.summary = nil
	c.contextContent = ""
	c.originalRequest = request
	return c.BaseAgent.Run(ctx, request)
}

// Step implements Stepper. Each invocation advances exactly one phase.
func (c *Coordinator) Step(ctx context.Context) (string, error) {
	c.logger.Info("coordination step", "step", c.CurrentStep())

	// Pick up a context document left by a previous run.
	if c.contextContent == "" {
		if data, err := os.ReadFile(c.contextPath); err == nil {
			c.contextContent = string(data)
		}
	}

	if c.contextContent == "" {
		request, ok := c.lastUserRequest()
		if !ok {
			c.logger.Warn("no user request found in memory")
			return "No user request found in memory.", nil
		}
		return c.createContext(ctx, request)
	}

	// A checklist from a previous run is the source of truth across
	// restarts: load it instead of regenerating.
	if c.doc == nil && c.store.Exists() {
		if err := c.loadTasks(); err != nil {
			return "", err
		}
	}

	if c.doc == nil || c.doc.Len() == 0 {
		request, ok := c.lastUserRequest()
		if !ok {
			c.logger.Warn("no user request found in memory")
			return "No user request found in memory.", nil
		}
		return c.createTasks(ctx, request)
	}

	next, ok := c.doc.Next()
	if !ok {
		return c.finish()
	}

	done := c.doc.Len() - c.doc.Remaining()
	progress.Status(c.sink, fmt.Sprintf("Preparing task %d (progress: %d/%d)", next.Seq, done, c.doc.Len()))

	result, err := c.executeTask(ctx, next)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Completed task %d: %s\nResult: %s", next.Seq, next.CleanDescription(), result), nil
}

// lastUserRequest returns the most recent user message content.
func (c *Coordinator) lastUserRequest() (string, bool) {
	msg, ok := c.Memory().LastByRole(core.RoleUser)
	if !ok || msg.Content == "" {
		return "", false
	}
	return msg.Content, true
}

// createContext generates the project context document with a single model
// call and persists it.
func (c *Coordinator) createContext(ctx context.Context, request string) (string, error) {
	c.logger.Info("creating context document", "path", c.contextPath)
	progress.Status(c.sink, "Analyzing request and creating project context...")

	c.originalRequest = request
	prompt := fmt.Sprintf(contextPromptTemplate, request)
	response, err := c.model.Ask(ctx, []core.Message{core.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if response == "" {
		response = "# Project Context\n\nNo context available."
	}
	c.contextContent = response

	if dir := filepath.Dir(c.contextPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("coordinator: create context dir: %w", err)
		}
	}
	if err := os.WriteFile(c.contextPath, []byte(c.contextContent), 0o644); err != nil {
		return "", fmt.Errorf("coordinator: write context document: %w", err)
	}

	c.sink.Send("Project context document created")
	progress.Refresh(c.sink)
	return fmt.Sprintf("Created %s with project understanding", filepath.Base(c.contextPath)), nil
}

// createTasks generates the checklist with a single model call, filters the
// response down to valid checklist lines and persists it.
func (c *Coordinator) createTasks(ctx context.Context, request string) (string, error) {
	c.logger.Info("creating task breakdown", "path", c.store.Path())
	progress.Status(c.sink, "Analyzing request and planning granular tasks...")

	prompt := fmt.Sprintf(todoPromptTemplate, request, truncate(c.contextContent, contextTodoLimit))
	response, err := c.model.Ask(ctx, []core.Message{core.UserMessage(prompt)})
	if err != nil {
		return "", err
	}

	content := tasklist.FilterChecklist(response)
	if content == "" {
		content = "- [ ] Task 1: Complete the requested task\n"
	}
	if err := c.store.WriteText(content); err != nil {
		return "", err
	}
	c.doc = tasklist.Parse(content)

	c.logger.Info("task breakdown created", "tasks", c.doc.Len())
	progress.Stepf(c.sink, "Task plan created with %d steps to execute", c.doc.Len())
	progress.Refresh(c.sink)
	return fmt.Sprintf("Created %s with %d tasks", filepath.Base(c.store.Path()), c.doc.Len()), nil
}

// loadTasks parses an existing checklist and rewrites it so the on-disk marks
// reflect the parsed state.
func (c *Coordinator) loadTasks() error {
	progress.Status(c.sink, "Loading existing tasks")

	doc, err := c.store.Load()
	if err != nil {
		return err
	}
	doc.Reconcile(c.doc)
	c.doc = doc
	if err := c.store.Write(c.doc); err != nil {
		return err
	}

	done := c.doc.Len() - c.doc.Remaining()
	c.logger.Info("tasks loaded", "total", c.doc.Len(), "completed", done)
	progress.Status(c.sink, fmt.Sprintf("Progress: %d/%d tasks", done, c.doc.Len()))
	progress.Refresh(c.sink)
	return nil
}

// executeTask runs one subtask on a fresh delegate under the wall-clock
// timeout, then durably marks it complete. A timeout or delegate failure is
// captured in the result string and the task still completes. Caller
// cancellation is different: it aborts before the mark so the checklist
// stays resumable.
func (c *Coordinator) executeTask(ctx context.Context, task *tasklist.Task) (string, error) {
	c.logger.Info("executing task", "task", task.Seq, "description", task.CleanDescription())
	progress.Status(c.sink, fmt.Sprintf("Starting task %d of %d", task.Seq, c.doc.Len()))
	progress.Stepf(c.sink, "Starting task %d: %s", task.Seq, task.CleanDescription())

	prompt := fmt.Sprintf(taskPromptTemplate,
		truncate(c.contextContent, contextEmbedLimit),
		task.Seq, c.doc.Len(),
		task.CleanDescription(),
		c.originalRequest,
	)

	result, err := c.runDelegate(ctx, task, prompt)
	if err != nil {
		return "", err
	}

	// Cooldown before touching the checklist, to space out provider calls.
	sleep(ctx, c.taskCooldown)

	if err := c.store.MarkComplete(c.doc, task); err != nil {
		c.logger.Error("failed to persist task completion", "task", task.Seq, "error", err)
		progress.Status(c.sink, fmt.Sprintf("Warning: could not update %s", filepath.Base(c.store.Path())))
	}

	c.summary = append(c.summary, fmt.Sprintf("Task %d completed: %s", task.Seq, task.CleanDescription()))

	done := c.doc.Len() - c.doc.Remaining()
	c.logger.Info("task finished", "task", task.Seq, "completed", done, "total", c.doc.Len())
	progress.Refresh(c.sink)
	progress.Status(c.sink, fmt.Sprintf("Progress: %d/%d tasks completed", done, c.doc.Len()))

	sleep(ctx, c.postTaskCooldown)
	return result, nil
}

// runDelegate executes the delegated run with a hard wall-clock bound. The
// bound holds even if the delegate ignores context cancellation; a timed-out
// delegate's partial state is discarded with it. Caller cancellation is not
// a timeout: it returns an error and the task is not completed.
func (c *Coordinator) runDelegate(ctx context.Context, task *tasklist.Task, prompt string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	type outcome struct {
		result string
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		delegate := c.factory()
		result, err := delegate.Run(runCtx, prompt)
		ch <- outcome{result: result, err: err}
	}()

	select {
	case o := <-ch:
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("coordinator: task %d interrupted: %w", task.Seq, err)
		}
		if o.err != nil {
			c.logger.Error("delegated run failed", "task", task.Seq, "error", o.err)
			progress.Status(c.sink, fmt.Sprintf("Error in task %d", task.Seq))
			return fmt.Sprintf("Error executing task %d: %v", task.Seq, o.err), nil
		}
		return o.result, nil
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("coordinator: task %d interrupted: %w", task.Seq, err)
		}
		c.logger.Error("delegated run timed out", "task", task.Seq, "timeout", c.taskTimeout)
		progress.Status(c.sink, fmt.Sprintf("Error: task %d timed out", task.Seq))
		return fmt.Sprintf("Error: task %d timed out after %s", task.Seq, c.taskTimeout), nil
	}
}

// finish appends the execution summary to the checklist document and ends
// the run.
func (c *Coordinator) finish() (string, error) {
	c.logger.Info("all tasks completed")
	progress.Status(c.sink, "Completed: all tasks finished")

	summary := "\n\n## Execution Summary\n# Task Execution Summary\n\n"
	for i, line := range c.summary {
		summary += fmt.Sprintf("%d. %s\n", i+1, line)
	}
	if err := c.store.AppendSummary(summary); err != nil {
		c.logger.Error("failed to append execution summary", "error", err)
	}

	c.state = core.StateFinished
	c.sink.Send("All tasks have been completed")
	progress.Refresh(c.sink)
	progress.Status(c.sink, "Done!")
	return fmt.Sprintf("All tasks completed. Results saved to %s", c.store.Path()), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// sleep pauses for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
