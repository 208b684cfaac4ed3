package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/droverhq/drover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, call drover.ToolCall) (string, error) {
	return call.Arguments, nil
}

func TestRegistry_Register(t *testing.T) {
	t.Run("registers a tool", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(drover.Tool{Name: "echo"}, echoHandler)

		require.NoError(t, err)
		assert.Equal(t, 1, r.Len())
		assert.True(t, r.Has("echo"))
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(drover.Tool{Name: "echo"}, echoHandler))

		err := r.Register(drover.Tool{Name: "echo"}, echoHandler)
		var dup *ErrToolAlreadyRegistered
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "echo", dup.Name)
	})

	t.Run("MustRegister panics on duplicate", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(drover.Tool{Name: "echo"}, echoHandler)
		assert.Panics(t, func() {
			r.MustRegister(drover.Tool{Name: "echo"}, echoHandler)
		})
	})
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(drover.Tool{Name: "echo", Description: "Echo back"}, echoHandler)

	h, ok := r.Get("echo")
	assert.True(t, ok)
	assert.NotNil(t, h)

	desc, ok := r.GetTool("echo")
	assert.True(t, ok)
	assert.Equal(t, "Echo back", desc.Description)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	_, ok = r.GetTool("missing")
	assert.False(t, ok)
}

func TestRegistry_Tools(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(drover.Tool{Name: "a"}, echoHandler)
	r.MustRegister(drover.Tool{Name: "b"}, echoHandler)

	tools := r.Tools()
	assert.Len(t, tools, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_Execute(t *testing.T) {
	t.Run("returns handler output", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(drover.Tool{Name: "echo"}, echoHandler)

		res, err := r.Execute(context.Background(), drover.ToolCall{
			ID: "c1", Name: "echo", Arguments: `{"k":"v"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "c1", res.ToolCallID)
		assert.Equal(t, `{"k":"v"}`, res.Content)
		assert.False(t, res.IsError)
	})

	t.Run("unknown tool is an error return", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Execute(context.Background(), drover.ToolCall{ID: "c1", Name: "nope"})

		var notFound *ErrToolNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nope", notFound.Name)
	})

	t.Run("handler error becomes a failed result", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(drover.Tool{Name: "boom"}, func(ctx context.Context, call drover.ToolCall) (string, error) {
			return "", errors.New("disk full")
		})

		res, err := r.Execute(context.Background(), drover.ToolCall{ID: "c2", Name: "boom"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "disk full")
		assert.Equal(t, "c2", res.ToolCallID)
	})

	t.Run("schema violation becomes a failed result", func(t *testing.T) {
		type args struct {
			Query string `json:"query" required:"true"`
		}
		r := NewRegistry().Add(Func("search", "Search", func(ctx context.Context, a args) (string, error) {
			return "should not run", nil
		}))

		res, err := r.Execute(context.Background(), drover.ToolCall{
			ID: "c3", Name: "search", Arguments: `{}`,
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "invalid arguments")
	})
}

func TestBind(t *testing.T) {
	type greetArgs struct {
		Name string `json:"name" desc:"Who to greet" required:"true"`
	}

	desc, handler, err := Bind("greet", "Greet someone", func(ctx context.Context, a greetArgs) (string, error) {
		return "hello " + a.Name, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "greet", desc.Name)
	assert.Contains(t, string(desc.Parameters), `"required":["name"]`)

	out, err := handler(context.Background(), drover.ToolCall{Arguments: `{"name":"ada"}`})
	require.NoError(t, err)
	assert.Equal(t, "hello ada", out)
}

func TestRegisterFunc(t *testing.T) {
	type addArgs struct {
		A int `json:"a" required:"true"`
		B int `json:"b" required:"true"`
	}

	r := NewRegistry()
	require.NoError(t, RegisterFunc(r, "add", "Add two integers", func(ctx context.Context, a addArgs) (string, error) {
		return "ok", nil
	}))
	assert.True(t, r.Has("add"))

	res, err := r.Execute(context.Background(), drover.ToolCall{
		ID: "c1", Name: "add", Arguments: `{"a":1,"b":2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
}
