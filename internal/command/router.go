// Package command parses prefix commands out of chat messages and runs them
// against the jukebox.
package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/internal/jukebox"
	"github.com/keshon/beatsbot/pkg/cmd"
)

// Router dispatches messages to registered commands.
type Router struct {
	registry *cmd.Registry
	pattern  *regexp.Regexp
	prefix   string
	jukebox  Jukebox
	chat     chat.Chat
}

// NewRouter registers every command. shutdown is called by "kill" after the
// farewell is sent. mws wrap each command, the last outermost.
func NewRouter(jb Jukebox, c chat.Chat, prefix string, shutdown func(), mws ...cmd.Middleware) *Router {
	if prefix == "" {
		prefix = "!"
	}
	r := &Router{
		registry: cmd.NewRegistry(),
		pattern:  regexp.MustCompile(`^((?:` + regexp.QuoteMeta(prefix) + `)+)(\w+)(?:\((\w+)\))? ?(.*)$`),
		prefix:   prefix,
		jukebox:  jb,
		chat:     c,
	}

	for _, mc := range append(musicCommands(jb), voteCommands(jb)...) {
		r.registry.Register(mc)
	}
	r.registry.Register(&command{
		name:        "help",
		description: "List the available commands.",
		category:    config.CategoryInfo,
		run:         r.help,
	}, "?")
	r.registry.Register(&command{
		name:        "kill",
		description: "Terminate the bot. Pray he returns.",
		category:    config.CategoryMaintenance,
		run: func(ctx context.Context, cc *Context, _ string) error {
			if _, err := r.chat.Send(ctx, cc.Message.ChannelID, "Goodbye, cruel world."); err != nil {
				log.Printf("[WARN] [Command] Failed to say goodbye: %v", err)
			}
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})

	r.registry.Apply(append([]cmd.Middleware{r.withNoticeChannel()}, mws...)...)
	return r
}

// Commands lists the registered commands.
func (r *Router) Commands() []cmd.Command {
	return r.registry.GetAll()
}

// Handle runs the command in m, or a vote when m is one of the fallback
// phrases. It reports whether m was acted on.
func (r *Router) Handle(ctx context.Context, m Message) bool {
	var (
		name, alt, args string
		bang            bool
	)
	if match := r.pattern.FindStringSubmatch(m.Content); match != nil {
		bang = len(match[1]) > len(r.prefix)
		name = strings.ToLower(match[2])
		alt = match[3]
		args = match[4]

		if c := r.registry.Get(name); c != nil {
			r.run(ctx, c, name, args, &Context{Message: m, Bang: bang, Alt: alt})
			return true
		}
	}

	var target string
	switch delta := fallbackVote(name, m.Content); delta {
	case 1:
		target = "upvote"
	case -1:
		target = "downvote"
	default:
		return false
	}
	r.run(ctx, r.registry.Get(target), target, "", &Context{Message: m, Bang: bang})
	return true
}

func (r *Router) run(ctx context.Context, c cmd.Command, name, args string, cc *Context) {
	err := c.Run(ctx, &cmd.Invocation{Name: name, Args: args, Data: cc})
	if err == nil || errors.Is(err, jukebox.ErrNotInVoice) {
		return
	}
	log.Printf("[ERR] [Command] %s%s failed: %v", r.prefix, name, err)
	if _, err := r.chat.Send(ctx, cc.Message.ChannelID, fmt.Sprintf("Error running command: %v", err)); err != nil {
		log.Printf("[WARN] [Command] Failed to report error: %v", err)
	}
}

// withNoticeChannel makes the channel of an accepted command the one the
// jukebox posts notices to. It is the innermost wrapper so rejected commands
// never move notices.
func (r *Router) withNoticeChannel() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if cc, err := FromInvocation(inv); err == nil {
				r.jukebox.SetTextChannel(cc.Message.ChannelID)
			}
			return c.Run(ctx, inv)
		})
	}
}

// fallbackVote recognises vote phrases that are not registered commands.
func fallbackVote(name, content string) int {
	if name != "" {
		switch {
		case strings.HasPrefix(name, "up"):
			return 1
		case strings.HasPrefix(name, "down"):
			return -1
		}
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "updoot":
		return 1
	case "downboat":
		return -1
	}
	return 0
}
