package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stride-agent/stride/agent"
	"github.com/stride-agent/stride/sandbox"
)

var coordinateCmd = &cobra.Command{
	Use:   "coordinate [request]",
	Short: "Decompose a large request into a checklist and execute it task by task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, sink, err := setup()
		if err != nil {
			return err
		}
		m, err := buildModel(cfg)
		if err != nil {
			return err
		}

		// Each subtask gets a fresh executor; no memory crosses tasks.
		factory := func() agent.Delegate {
			return agent.NewToolCallAgent("executor", m, func(o *agent.ToolCallOptions) {
				o.MaxSteps = cfg.Agent.MaxSteps
				o.DuplicateThreshold = cfg.Agent.DuplicateThreshold
				o.MaxObserve = cfg.Agent.MaxObserve
				o.Logger = logger
				o.Sink = sink
				o.Session = sandbox.NewWorkspace(cfg.Agent.Workspace)
			})
		}

		c := agent.NewCoordinator(m, factory, func(o *agent.CoordinatorOptions) {
			o.MaxSteps = cfg.Coordinator.MaxSteps
			o.Logger = logger
			o.Sink = sink
			o.TodoPath = cfg.Coordinator.TodoPath
			o.ContextPath = cfg.Coordinator.ContextPath
			o.TaskTimeout = cfg.Coordinator.TaskTimeout()
			o.TaskCooldown = cfg.Coordinator.TaskCooldown()
			o.PostTaskCooldown = cfg.Coordinator.PostTaskCooldown()
			o.PersistRetries = cfg.Coordinator.PersistRetries
			o.PersistRetryDelay = cfg.Coordinator.PersistRetryDelay()
		})

		request := strings.Join(args, " ")
		summary, err := c.Run(cmd.Context(), request)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}
