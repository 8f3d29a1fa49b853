// Package middleware holds the cross-cutting wrappers applied to every
// prefix command.
package middleware

import (
	"context"
	"log"

	"github.com/keshon/beatsbot/internal/command"
	"github.com/keshon/beatsbot/pkg/cmd"
)

// WithGuildOnly drops commands sent outside a guild, e.g. in direct messages.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			cc, err := command.FromInvocation(inv)
			if err != nil {
				return c.Run(ctx, inv)
			}
			if cc.Message.GuildID == "" {
				log.Printf("[INFO] [Command] Ignoring %s from %s outside a guild", c.Name(), cc.Message.AuthorName)
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
