package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/droverhq/drover"
)

type registeredTool struct {
	tool    drover.Tool
	handler Handler
}

// Registry maps tool names to descriptors and handlers. It is configured
// before a run starts and treated as read-only while runs execute, which
// makes it safe to share across concurrent runs.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool with its handler. Registering a name twice fails
// with ErrToolAlreadyRegistered.
func (r *Registry) Register(t drover.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: t.Name}
	}
	r.tools[t.Name] = registeredTool{tool: t, handler: handler}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t drover.Tool, handler Handler) {
	if err := r.Register(t, handler); err != nil {
		panic(err)
	}
}

// Get returns the handler for a tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// GetTool returns the descriptor for a tool name.
func (r *Registry) GetTool(name string) (drover.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok {
		return drover.Tool{}, false
	}
	return rt.tool, true
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Tools returns every registered descriptor. The orchestrator includes
// this set in each model call so the model always knows the current tool
// surface.
func (r *Registry) Tools() []drover.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]drover.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	return tools
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute resolves one tool call: validate the arguments against the
// declared schema, then run the handler. Validation failures and handler
// errors become failed results rather than errors, so the model sees them
// and can react. The only error return is ErrToolNotFound.
func (r *Registry) Execute(ctx context.Context, call drover.ToolCall) (drover.ToolResult, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return drover.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	if err := ValidateArguments(rt.tool, call.Arguments); err != nil {
		violation := &ErrInvalidArguments{Name: call.Name, Err: err}
		return drover.ToolResult{
			ToolCallID: call.ID,
			Content:    violation.Error(),
			IsError:    true,
		}, nil
	}

	content, err := rt.handler(ctx, call)
	if err != nil {
		return drover.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}

	return drover.ToolResult{
		ToolCallID: call.ID,
		Content:    content,
	}, nil
}

// Registration pairs a descriptor with its handler for fluent setup.
type Registration struct {
	Tool    drover.Tool
	Handler Handler
}

// Func builds a Registration from a typed handler, generating the input
// schema from struct tags on T. Panics if schema generation fails.
//
// Example:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("weather", "Get current weather", weatherHandler),
//	    tool.Func("search", "Search the web", searchHandler),
//	)
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	schema := drover.MustSchemaFor[T]()
	return Registration{
		Tool: drover.Tool{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		Handler: wrapTyped(fn),
	}
}

// WithHandler builds a Registration from a raw handler and an explicit
// schema.
func WithHandler(name, description string, schema json.RawMessage, h Handler) Registration {
	return Registration{
		Tool: drover.Tool{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		Handler: h,
	}
}

// Add registers one or more registrations, panicking on duplicates.
// Returns the registry for chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}

func wrapTyped[T any](fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call drover.ToolCall) (string, error) {
		var args T
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", err
		}
		return fn(ctx, args)
	}
}
