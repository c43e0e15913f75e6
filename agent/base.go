// Package agent implements the execution engine: the generic lifecycle and
// step loop shared by all agents, the tool-calling think/act agent, and the
// coordinator that decomposes large requests into a durable checklist of
// delegated subtasks.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/logging"
	"github.com/stride-agent/stride/model"
	"github.com/stride-agent/stride/progress"
	"github.com/stride-agent/stride/sandbox"
)

const stuckPrompt = "Observed duplicate responses. Consider new strategies and avoid repeating ineffective paths already attempted."

// Stepper supplies the per-step behavior of a concrete agent variant. The
// BaseAgent drives the loop; Step decides and acts once.
type Stepper interface {
	Step(ctx context.Context) (string, error)
}

// StepperFunc adapts a function to the Stepper interface.
type StepperFunc func(ctx context.Context) (string, error)

// Step implements Stepper.
func (f StepperFunc) Step(ctx context.Context) (string, error) { return f(ctx) }

// Options configure the shared agent lifecycle.
type Options struct {
	Description        string
	SystemPrompt       string
	NextStepPrompt     string
	MaxSteps           int
	DuplicateThreshold int
	Logger             logging.Logger
	Sink               progress.Sink
	Session            sandbox.Session
}

// BaseAgent owns the conversation store, the lifecycle state machine and the
// step budget. Concrete agents embed it and bind themselves as the Stepper.
// A BaseAgent serves one run at a time; it is not safe for concurrent Run
// calls.
type BaseAgent struct {
	name           string
	description    string
	systemPrompt   string
	nextStepPrompt string

	state              core.AgentState
	maxSteps           int
	currentStep        int
	duplicateThreshold int

	memory  *core.Memory
	logger  logging.Logger
	sink    progress.Sink
	session sandbox.Session
	stepper Stepper
}

// NewBaseAgent constructs a BaseAgent in the Idle state. The concrete agent
// must call Bind before Run.
func NewBaseAgent(name string, optFns ...func(o *Options)) *BaseAgent {
	opts := Options{
		MaxSteps:           10,
		DuplicateThreshold: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Agent %s", name)
	}
	return &BaseAgent{
		name:               name,
		description:        opts.Description,
		systemPrompt:       opts.SystemPrompt,
		nextStepPrompt:     opts.NextStepPrompt,
		state:              core.StateIdle,
		maxSteps:           opts.MaxSteps,
		duplicateThreshold: opts.DuplicateThreshold,
		memory:             core.NewMemory(),
		logger:             logging.OrNoop(opts.Logger),
		sink:               progress.OrNoop(opts.Sink),
		session:            opts.Session,
	}
}

// Bind registers the concrete step implementation driven by Run.
func (a *BaseAgent) Bind(s Stepper) { a.stepper = s }

// Name returns the agent's name.
func (a *BaseAgent) Name() string { return a.name }

// Description returns the agent's description.
func (a *BaseAgent) Description() string { return a.description }

// State returns the current lifecycle state.
func (a *BaseAgent) State() core.AgentState { return a.state }

// SetState transitions the lifecycle state, rejecting values outside the
// enum. Concrete steppers use it to signal completion.
func (a *BaseAgent) SetState(s core.AgentState) error {
	if !s.Valid() {
		return fmt.Errorf("invalid state: %v", s)
	}
	a.state = s
	return nil
}

// Memory returns the agent's conversation store.
func (a *BaseAgent) Memory() *core.Memory { return a.memory }

// CurrentStep returns the step counter for the run in progress.
func (a *BaseAgent) CurrentStep() int { return a.currentStep }

// MaxSteps returns the step budget.
func (a *BaseAgent) MaxSteps() int { return a.maxSteps }

// NextStepPrompt returns the steering prompt appended before each think.
func (a *BaseAgent) NextStepPrompt() string { return a.nextStepPrompt }

// SetNextStepPrompt replaces the steering prompt.
func (a *BaseAgent) SetNextStepPrompt(p string) { a.nextStepPrompt = p }

// Run executes the step loop until the stepper signals Finished or the step
// budget is exhausted. The request, when non-empty, is appended as a user
// message before the loop starts.
//
// Invoking Run while not Idle logs a warning and force-resets the lifecycle
// rather than failing; prior memory is preserved. On budget exhaustion the
// agent returns to Idle with the step counter cleared and the summary carries
// a max-steps line, which is not an error. A token-budget failure from a step
// finishes the run with an explanatory summary line. Any other step failure
// propagates; the transient Error state is reverted before returning so
// callers only ever observe Idle or Finished.
//
// Any held sandbox session is released when the loop exits, on every path.
func (a *BaseAgent) Run(ctx context.Context, request string) (string, error) {
	if a.stepper == nil {
		return "", fmt.Errorf("agent %s: no step implementation bound", a.name)
	}
	if a.state != core.StateIdle {
		a.logger.Warn("run invoked while not idle, resetting", "agent", a.name, "state", a.state.String())
		a.state = core.StateIdle
		a.currentStep = 0
	}

	a.memory.DropOrphanToolResponses()
	if request != "" {
		a.memory.MustAdd(core.UserMessage(request))
		progress.Status(a.sink, "Initializing request analysis...")
	}

	if a.session != nil {
		defer func() {
			if err := a.session.Cleanup(context.WithoutCancel(ctx)); err != nil {
				a.logger.Warn("session cleanup failed", "agent", a.name, "error", err)
			}
		}()
	}

	prev := a.state
	a.state = core.StateRunning
	progress.Status(a.sink, "Planning response...")

	var results []string
	for a.currentStep < a.maxSteps && a.state != core.StateFinished {
		a.currentStep++
		a.logger.Info("executing step", "agent", a.name, "step", a.currentStep, "max_steps", a.maxSteps)
		progress.Status(a.sink, fmt.Sprintf("Executing step %d/%d", a.currentStep, a.maxSteps))

		stepResult, err := a.stepper.Step(ctx)
		if err != nil {
			if model.IsTokenBudget(err) {
				a.logger.Error("token budget exceeded", "agent", a.name, "error", err)
				a.state = core.StateFinished
				results = append(results, fmt.Sprintf("Terminated: %v", err))
				break
			}
			// StateError is transient: revert to the pre-run state so the
			// caller observes Idle or Finished alongside the failure.
			a.state = prev
			return joinResults(results), fmt.Errorf("agent %s step %d: %w", a.name, a.currentStep, err)
		}

		if a.isStuck() {
			a.handleStuck()
		}

		results = append(results, fmt.Sprintf("Step %d: %s", a.currentStep, stepResult))
	}

	if a.currentStep >= a.maxSteps && a.state != core.StateFinished {
		a.currentStep = 0
		a.state = core.StateIdle
		a.logger.Info("terminated at step budget", "agent", a.name, "max_steps", a.maxSteps)
		progress.Status(a.sink, "Completed: step limit reached")
		results = append(results, fmt.Sprintf("Terminated: Reached max steps (%d)", a.maxSteps))
	}

	progress.Status(a.sink, "Run complete")
	return joinResults(results), nil
}

func joinResults(results []string) string {
	if len(results) == 0 {
		return "No steps executed"
	}
	return strings.Join(results, "\n")
}

// isStuck reports whether the agent is looping: the most recent message is a
// non-empty assistant message whose content already occurs in at least
// duplicateThreshold earlier assistant messages.
func (a *BaseAgent) isStuck() bool {
	msgs := a.memory.Messages()
	if len(msgs) < 2 {
		return false
	}
	last := msgs[len(msgs)-1]
	if last.Role != core.RoleAssistant || last.Content == "" {
		return false
	}

	duplicates := 0
	for i := len(msgs) - 2; i >= 0; i-- {
		if msgs[i].Role == core.RoleAssistant && msgs[i].Content == last.Content {
			duplicates++
		}
	}
	return duplicates >= a.duplicateThreshold
}

// handleStuck prepends a change-strategy instruction to the steering prompt.
// Repeated triggers accumulate; the prompt is not deduplicated.
func (a *BaseAgent) handleStuck() {
	a.nextStepPrompt = stuckPrompt + "\n" + a.nextStepPrompt
	a.logger.Warn("stuck state detected, steering prompt updated", "agent", a.name)
	progress.Status(a.sink, "Changing approach to make progress...")
}
