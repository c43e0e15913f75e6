package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stride-agent/stride/agent"
	"github.com/stride-agent/stride/sandbox"
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Run a single tool-calling agent on a request",
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

		a := agent.NewToolCallAgent("stride", m, func(o *agent.ToolCallOptions) {
			o.MaxSteps = cfg.Agent.MaxSteps
			o.DuplicateThreshold = cfg.Agent.DuplicateThreshold
			o.MaxObserve = cfg.Agent.MaxObserve
			o.Logger = logger
			o.Sink = sink
			o.Session = sandbox.NewWorkspace(cfg.Agent.Workspace)
		})

		request := strings.Join(args, " ")
		summary, err := a.Run(cmd.Context(), request)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}
