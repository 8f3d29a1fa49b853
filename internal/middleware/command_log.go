package middleware

import (
	"context"
	"log"
	"time"

	"github.com/keshon/beatsbot/internal/command"
	"github.com/keshon/beatsbot/pkg/cmd"
)

// WithCommandLogger logs who ran which command, where and how long it took.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			who, where := "unknown", "unknown"
			if cc, e := command.FromInvocation(inv); e == nil {
				who = cc.Message.AuthorName + " (" + cc.Message.AuthorID + ")"
				where = cc.Message.ChannelID
			}
			if err != nil {
				log.Printf("[WARN] [Command] %s ran %s in %s: %v (%s)", who, inv.Name, where, err, time.Since(start))
			} else {
				log.Printf("[INFO] [Command] %s ran %s in %s (%s)", who, inv.Name, where, time.Since(start))
			}
			return err
		})
	}
}
