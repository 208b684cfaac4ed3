package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/agent"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/mcp"
	"github.com/droverhq/drover/tool"
)

func newRunCmd() *cobra.Command {
	var (
		system     string
		mcpCommand []string
		mcpSSE     string
		audit      bool
	)

	cmd := &cobra.Command{
		Use:   "run -- <prompt>",
		Short: "Run a one-shot agentic task",
		Long: `Run a single task to completion and print the final answer.

Everything after "--" is treated as the prompt text. Tools come from an
MCP server when one is configured; without one the model answers directly.`,
		Example: `  drover run -- "What is the capital of Norway?"
  drover run --mcp "npx,-y,@modelcontextprotocol/server-filesystem,/tmp" -- "List the files in /tmp"
  drover run --mcp-sse http://localhost:8811/sse -- "Look up the weather in Oslo"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("prompt required: drover run -- \"your prompt here\"")
			}
			prompt := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			model, err := buildModel(ctx, cfg)
			if err != nil {
				return err
			}

			var registry agent.ToolSource = tool.NewRegistry()
			switch {
			case len(mcpCommand) > 0:
				remote, err := mcp.NewRemoteRegistry(ctx, mcpCommand[0], os.Environ(), mcpCommand[1:]...)
				if err != nil {
					return fmt.Errorf("connecting to MCP server: %w", err)
				}
				defer remote.Close()
				registry = remote
			case mcpSSE != "":
				remote, err := mcp.NewRemoteRegistrySSE(ctx, mcpSSE)
				if err != nil {
					return fmt.Errorf("connecting to MCP server: %w", err)
				}
				defer remote.Close()
				registry = remote
			}

			opts := agentOptions(cfg)
			if audit {
				opts = append(opts, agent.WithSink(event.NewZapSink(logger)))
			}

			var messages []drover.Message
			if system != "" {
				messages = append(messages, drover.NewSystemMessage(system))
			}
			messages = append(messages, drover.NewUserMessage(prompt))

			result, err := agent.New(model, registry).Run(ctx, messages, opts...)
			if err != nil {
				return err
			}

			switch result.Termination {
			case agent.TerminationCancelled:
				return fmt.Errorf("run cancelled after %d iterations", result.Iterations)
			case agent.TerminationTimeout:
				return fmt.Errorf("run timed out after %d iterations", result.Iterations)
			}

			fmt.Println(result.FinalAnswer)
			return nil
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "System prompt")
	cmd.Flags().StringSliceVar(&mcpCommand, "mcp", nil, "MCP server command and args (comma separated)")
	cmd.Flags().StringVar(&mcpSSE, "mcp-sse", "", "MCP server SSE endpoint URL")
	cmd.Flags().BoolVar(&audit, "audit", false, "Log audit events while the run executes")

	return cmd
}
