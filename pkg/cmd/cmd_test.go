package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	name string
	runs []string
}

func (e *echo) Name() string        { return e.name }
func (e *echo) Description() string { return "echoes " + e.name }
func (e *echo) Run(_ context.Context, inv *Invocation) error {
	e.runs = append(e.runs, inv.Args)
	return nil
}

func tag(label string, trail *[]string) Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
			*trail = append(*trail, label)
			return c.Run(ctx, inv)
		})
	}
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry()
	help := &echo{name: "help"}
	r.Register(help, "?")
	r.Register(&echo{name: "play"})

	assert.Same(t, help, r.Get("help"))
	assert.Same(t, help, r.Get("?"))
	assert.Nil(t, r.Get("missing"))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "help", all[0].Name())
	assert.Equal(t, "play", all[1].Name())
}

func TestApplyOrder(t *testing.T) {
	var trail []string
	inner := &echo{name: "play"}

	c := Apply(inner, tag("inner", &trail), tag("outer", &trail))
	require.NoError(t, c.Run(context.Background(), &Invocation{Args: "daft punk"}))

	assert.Equal(t, []string{"outer", "inner"}, trail)
	assert.Equal(t, []string{"daft punk"}, inner.runs)
	assert.Equal(t, "play", c.Name())
	assert.Equal(t, "echoes play", c.Description())
	assert.Same(t, inner, Root(c))
}

func TestRegistryApplyKeepsAliases(t *testing.T) {
	var trail []string
	r := NewRegistry()
	inner := &echo{name: "help"}
	r.Register(inner, "?")

	r.Apply(tag("logged", &trail))
	require.NoError(t, r.Get("?").Run(context.Background(), &Invocation{}))

	assert.Equal(t, []string{"logged"}, trail)
	assert.Same(t, inner, Root(r.Get("help")))
}
