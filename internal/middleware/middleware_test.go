package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/beatsbot/internal/command"
	"github.com/keshon/beatsbot/pkg/cmd"
)

type counter struct {
	runs int
	err  error
}

func (c *counter) Name() string        { return "count" }
func (c *counter) Description() string { return "counts runs" }
func (c *counter) Run(context.Context, *cmd.Invocation) error {
	c.runs++
	return c.err
}

func invocation(guildID string) *cmd.Invocation {
	return &cmd.Invocation{
		Name: "count",
		Data: &command.Context{Message: command.Message{GuildID: guildID, ChannelID: "text", AuthorID: "u1", AuthorName: "alice"}},
	}
}

func TestGuildOnly(t *testing.T) {
	inner := &counter{}
	c := WithGuildOnly()(inner)

	require.NoError(t, c.Run(context.Background(), invocation("")))
	assert.Zero(t, inner.runs)

	require.NoError(t, c.Run(context.Background(), invocation("g1")))
	assert.Equal(t, 1, inner.runs)

	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{}), "foreign payloads pass through")
	assert.Equal(t, 2, inner.runs)
}

func TestCommandLoggerPassesErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &counter{err: boom}
	c := cmd.Apply(inner, WithCommandLogger(), WithGuildOnly())

	assert.ErrorIs(t, c.Run(context.Background(), invocation("g1")), boom)
	assert.Equal(t, 1, inner.runs)
	assert.Equal(t, "count", c.Name())
	assert.Same(t, inner, cmd.Root(c))
}
