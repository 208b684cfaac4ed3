package drover

// Options configures a single model call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	// Tools is the descriptor set offered to the model for this call.
	Tools      []Tool
	ToolChoice ToolChoice
}

// Option is a functional option for configuring model calls.
type Option func(*Options)

// WithModel selects the model for the request.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = &t }
}

// WithTools offers the given tool descriptors to the model.
func WithTools(tools []Tool) Option {
	return func(o *Options) { o.Tools = tools }
}

// WithToolChoice controls whether the model may, must, or must not use tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) { o.ToolChoice = choice }
}

// ApplyOptions folds functional options into an Options value.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
