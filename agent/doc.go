// Package agent drives autonomous tool-calling runs for the drover library.
//
// A run alternates between a model call and the execution of whatever tool
// calls the model requested. Results are appended to the run's transcript
// and fed back to the model until it answers without tool calls, invokes
// the terminate tool, or a configured limit trips.
//
// # Basic Usage
//
// Create a registry, register tools with their handlers, then create an agent:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	        }),
//	)
//
//	a := agent.New(client, registry)
//	result, err := a.Run(ctx, []drover.Message{drover.NewUserMessage("What's the weather in Oslo?")},
//	    agent.WithMaxIterations(5),
//	)
//
// For non-blocking use, Start returns a handle that can be awaited or
// cancelled independently:
//
//	run := a.Start(ctx, messages, agent.WithMaxIterations(5))
//	// ... later
//	result, err := run.Wait(ctx)
//
// # Termination
//
// A run ends exactly once, with one of the reasons in Termination:
//
//   - The model responds without tool calls (TerminationComplete)
//   - The model invokes the terminate tool (TerminationToolStop)
//   - MaxIterations model calls have been made (TerminationMaxIterations)
//   - The run context is cancelled (TerminationCancelled) or its
//     deadline passes (TerminationTimeout)
//   - A fatal model error occurs (TerminationError)
//
// Tool failures never end a run: an unknown tool name, a schema violation,
// or a handler error becomes a failed tool result the model can react to.
package agent
