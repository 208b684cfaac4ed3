// Package drover provides the shared data model for conversation-driven
// tool orchestration: messages, tool descriptors, model responses, and
// classified errors.
//
// The root package is deliberately small. The moving parts live in
// subpackages:
//
//   - agent       the orchestration loop, run handles, and stop conditions
//   - tool        the tool registry, typed handler binding, and argument validation
//   - transcript  the append-only conversation log
//   - event       the execution audit stream and its sinks
//   - retry       bounded exponential backoff for transient model errors
//   - store       pluggable persistence (memory, bbolt, redis)
//   - provider/*  ModelClient adapters for Anthropic, OpenAI, and Google
//   - mcp         Model Context Protocol tool bridging
//   - config      file- and environment-based configuration
//
// A minimal run looks like:
//
//	reg := tool.NewRegistry().Add(
//	    tool.Func("lookup_order", "Look up an order by id", lookupOrder),
//	)
//	a := agent.New(anthropic.New(apiKey), reg)
//	res, err := a.Run(ctx, []drover.Message{drover.NewUserMessage("find order 42")})
package drover
