package pipeline

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type greetInput struct {
	Greeting string `hcl:"greeting"`
	Times    int    `hcl:"times,optional"`
}

func testHandlers() *handlers.Handlers {
	h := handlers.New()
	h.RegisterHandler("greet", &handlers.RegisteredHandler{
		NewInput: func() any { return new(greetInput) },
		Fn:       func(context.Context, *handlers.Invocation) error { return nil },
	})
	h.RegisterHandler("noop", &handlers.RegisteredHandler{
		Fn: func(context.Context, *handlers.Invocation) error { return nil },
	})
	return h
}

func parseBody(t *testing.T, src string) hcl.Body {
	t.Helper()
	f, diags := hclparse.NewParser().ParseHCL([]byte(src), "test.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	return f.Body
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and links stages", func(t *testing.T) {
		model := &config.Model{
			EvalContext: &hcl.EvalContext{Variables: map[string]cty.Value{
				"var": cty.ObjectVal(map[string]cty.Value{"who": cty.StringVal("world")}),
			}},
			Stages: []*config.Stage{
				{Kind: "greet", Name: "hello", Threads: 3, Arguments: parseBody(t, `greeting = "hi ${var.who}"`)},
				{Kind: "noop", Name: "left", Inputs: []string{"hello"}},
				{Kind: "noop", Name: "right", Inputs: []string{"hello"}},
				{Kind: "noop", Name: "join", Inputs: []string{"left", "right"}},
			},
		}

		p, err := Build(ctx, model, testHandlers())
		require.NoError(t, err)
		require.Len(t, p.Stages(), 4)

		hello, ok := p.Stage("hello")
		require.True(t, ok)
		input, ok := hello.input.(*greetInput)
		require.True(t, ok)
		assert.Equal(t, "hi world", input.Greeting)
		assert.Equal(t, 3, hello.ResourcePool().Threads())

		join, _ := p.Stage("join")
		assert.Equal(t, 2, join.NumberOfInputPorts())
		assert.Equal(t, 1, join.ResourcePool().Threads())

		assert.Equal(t, []node.Node{hello}, p.Sources())
		assert.Equal(t, []node.Node{join}, p.Sinks())
		assert.Len(t, node.Consumers(hello), 2)
	})

	errorCases := []struct {
		name   string
		stages []*config.Stage
		errMsg string
	}{
		{
			name:   "unknown kind",
			stages: []*config.Stage{{Kind: "missing", Name: "a"}},
			errMsg: "unknown kind 'missing'",
		},
		{
			name: "unknown input",
			stages: []*config.Stage{
				{Kind: "noop", Name: "a", Inputs: []string{"ghost"}},
			},
			errMsg: "unknown stage 'ghost'",
		},
		{
			name: "duplicate name",
			stages: []*config.Stage{
				{Kind: "noop", Name: "a"},
				{Kind: "noop", Name: "a"},
			},
			errMsg: "duplicate stage 'a'",
		},
		{
			name:   "self input",
			stages: []*config.Stage{{Kind: "noop", Name: "a", Inputs: []string{"a"}}},
			errMsg: "cannot consume its own output",
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(ctx, &config.Model{Stages: tc.stages}, testHandlers())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("argument errors are reported", func(t *testing.T) {
		model := &config.Model{Stages: []*config.Stage{
			{Kind: "greet", Name: "hello", Arguments: parseBody(t, `times = 2`)},
		}}
		_, err := Build(ctx, model, testHandlers())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding arguments of stage 'hello'")
	})

	t.Run("kinds without input reject arguments", func(t *testing.T) {
		model := &config.Model{Stages: []*config.Stage{
			{Kind: "noop", Name: "a", Arguments: parseBody(t, `x = 1`)},
		}}
		_, err := Build(ctx, model, testHandlers())
		require.Error(t, err)
	})
}

func TestStage(t *testing.T) {
	t.Run("execute passes the invocation", func(t *testing.T) {
		var got *handlers.Invocation
		s := NewStage("s", "k", func(_ context.Context, inv *handlers.Invocation) error {
			got = inv
			return nil
		}, WithInput("payload"))
		s.ConfigureThreadCount(4)
		md := &node.Metadata{Values: map[string]any{"k": 1}}

		require.NoError(t, s.Execute(context.Background(), md))
		require.NotNil(t, got)
		assert.Equal(t, "s", got.Stage)
		assert.Equal(t, "k", got.Kind)
		assert.Equal(t, 4, got.Threads)
		assert.Equal(t, "payload", got.Input)
		assert.Same(t, md, got.Metadata)
		assert.EqualValues(t, 1, s.Runs())
	})

	t.Run("nil handler is a no-op", func(t *testing.T) {
		s := NewStage("s", "k", nil)
		assert.NoError(t, s.Execute(context.Background(), nil))
		assert.EqualValues(t, 1, s.Runs())
	})

	t.Run("connect validates ports without side effects", func(t *testing.T) {
		a := NewStage("a", "k", nil)
		b := NewStage("b", "k", nil)

		assert.Error(t, Connect(a, 1, b, 0))
		assert.Error(t, Connect(a, 0, b, 0), "b has no input ports yet")
		assert.Empty(t, a.Consumers(0))

		port := b.AddInputPort()
		require.NoError(t, Connect(a, 0, b, port))
		assert.Equal(t, []node.Node{b}, a.Consumers(0))
		assert.Equal(t, []node.Connection{{Producer: a, Port: 0}}, b.InputConnections(0))
		assert.Nil(t, b.InputConnections(5))
	})
}

func TestStage_Err(t *testing.T) {
	s := NewStage("s", "k", func(context.Context, *handlers.Invocation) error { return assert.AnError })

	assert.ErrorIs(t, s.Execute(context.Background(), nil), assert.AnError)
	assert.NoError(t, s.Err(), "only recorded results are kept")

	s.RecordResult(assert.AnError)
	assert.ErrorIs(t, s.Err(), assert.AnError)

	s.RecordResult(nil)
	assert.NoError(t, s.Err())
}

func TestStage_PanicsPropagate(t *testing.T) {
	s := NewStage("boom", "k", func(context.Context, *handlers.Invocation) error { panic("kaboom") })

	assert.PanicsWithValue(t, "kaboom", func() { _ = s.Execute(context.Background(), nil) })
	assert.EqualValues(t, 1, s.Runs())
}
