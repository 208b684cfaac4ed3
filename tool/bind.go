package tool

import (
	"github.com/droverhq/drover"
)

// Bind creates a descriptor and handler from a typed function. The JSON
// schema for the tool's parameters is generated from struct tags on T.
//
// Example:
//
//	type TranslateArgs struct {
//	    Text string `json:"text" desc:"Text to translate" required:"true"`
//	    To   string `json:"to" desc:"Target language" required:"true"`
//	}
//
//	t, h, err := tool.Bind("translate", "Translate text", translateFn)
func Bind[T any](name, description string, fn TypedHandler[T]) (drover.Tool, Handler, error) {
	schema, err := drover.SchemaFor[T]()
	if err != nil {
		return drover.Tool{}, nil, err
	}

	t := drover.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
	return t, wrapTyped(fn), nil
}

// RegisterFunc binds a typed handler and registers it in one step.
func RegisterFunc[T any](r *Registry, name, description string, fn TypedHandler[T]) error {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(t, h)
}

// MustRegisterFunc is like RegisterFunc but panics on error.
func MustRegisterFunc[T any](r *Registry, name, description string, fn TypedHandler[T]) {
	if err := RegisterFunc(r, name, description, fn); err != nil {
		panic(err)
	}
}
