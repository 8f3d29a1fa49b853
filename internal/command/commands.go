package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/internal/jukebox"
	"github.com/keshon/beatsbot/pkg/cmd"
)

// Jukebox is what the commands drive.
type Jukebox interface {
	SetTextChannel(id string)
	Join(ctx context.Context, req jukebox.Request) error
	Play(ctx context.Context, req jukebox.Request, query string, now bool) error
	Random(ctx context.Context, req jukebox.Request, query string, now bool) error
	Recent(ctx context.Context, req jukebox.Request, now bool) error
	Skip(ctx context.Context, req jukebox.Request) error
	Stop(ctx context.Context) error
	Queue(ctx context.Context, req jukebox.Request) error
	Repeat(ctx context.Context, req jukebox.Request, single bool) error
	Vote(ctx context.Context, req jukebox.Request, delta int) error
	Top(ctx context.Context, req jukebox.Request, n int) error
	Bottom(ctx context.Context, req jukebox.Request, n int) error
}

// Meta is the help listing of a command.
type Meta interface {
	Category() string
	// Args names the arguments shown after the command.
	Args() []string
	// BangHelp describes the "!!" variant, if any.
	BangHelp() string
}

// command is a prefix command backed by a function.
type command struct {
	name        string
	description string
	category    string
	args        []string
	bang        string
	run         func(ctx context.Context, c *Context, args string) error
}

func (c *command) Name() string        { return c.name }
func (c *command) Description() string { return c.description }
func (c *command) Category() string    { return c.category }
func (c *command) Args() []string      { return c.args }
func (c *command) BangHelp() string    { return c.bang }

func (c *command) Run(ctx context.Context, inv *cmd.Invocation) error {
	cc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	return c.run(ctx, cc, inv.Args)
}

func musicCommands(jb Jukebox) []*command {
	return []*command{
		{
			name:        "stop",
			description: "Stop any currently playing song and clear the playlist.",
			category:    config.CategoryMusic,
			run: func(ctx context.Context, _ *Context, _ string) error {
				return jb.Stop(ctx)
			},
		},
		{
			name:        "join",
			description: "Request the bot join your current voice channel.",
			category:    config.CategoryMusic,
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Join(ctx, c.Request())
			},
		},
		{
			name:        "rand",
			description: "Select a random song that matches the search query.",
			category:    config.CategoryMusic,
			args:        []string{"query"},
			bang:        "Plays immediately rather than adding to the queue.",
			run: func(ctx context.Context, c *Context, args string) error {
				return jb.Random(ctx, c.Request(), args, c.Bang)
			},
		},
		{
			name:        "skip",
			description: "Skip the currently playing song.",
			category:    config.CategoryMusic,
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Skip(ctx, c.Request())
			},
		},
		{
			name:        "play",
			description: "If a unique song matches the query, play it. Otherwise choose out of the top results.",
			category:    config.CategoryMusic,
			args:        []string{"query"},
			bang:        "Plays immediately rather than adding to the queue.",
			run: func(ctx context.Context, c *Context, args string) error {
				return jb.Play(ctx, c.Request(), args, c.Bang)
			},
		},
		{
			name:        "recent",
			description: "List the most recent 5 songs played. You may select one to play.",
			category:    config.CategoryMusic,
			bang:        "Plays the selection immediately.",
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Recent(ctx, c.Request(), c.Bang)
			},
		},
		{
			name:        "repeat",
			description: "Play the current tracklist on repeat.",
			category:    config.CategoryMusic,
			bang:        "Play only the current song on repeat.",
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Repeat(ctx, c.Request(), c.Bang)
			},
		},
		{
			name:        "queue",
			description: "List the currently queued tracks.",
			category:    config.CategoryMusic,
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Queue(ctx, c.Request())
			},
		},
	}
}

func voteCommands(jb Jukebox) []*command {
	return []*command{
		{
			name:        "upvote",
			description: "Upvote the currently playing song.",
			category:    config.CategoryVotes,
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Vote(ctx, c.Request(), 1)
			},
		},
		{
			name:        "downvote",
			description: "Downvote the currently playing song.",
			category:    config.CategoryVotes,
			run: func(ctx context.Context, c *Context, _ string) error {
				return jb.Vote(ctx, c.Request(), -1)
			},
		},
		{
			name:        "top",
			description: "Show the best rated songs.",
			category:    config.CategoryVotes,
			args:        []string{"count"},
			run: func(ctx context.Context, c *Context, args string) error {
				return jb.Top(ctx, c.Request(), count(args))
			},
		},
		{
			name:        "bot",
			description: "Show the worst rated songs.",
			category:    config.CategoryVotes,
			args:        []string{"count"},
			run: func(ctx context.Context, c *Context, args string) error {
				return jb.Bottom(ctx, c.Request(), count(args))
			},
		},
	}
}

// count reads the leading number of args, falling back to the default board
// size.
func count(args string) int {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return jukebox.DefaultBoardSize
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return jukebox.DefaultBoardSize
	}
	return n
}
