package command

import (
	"errors"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/jukebox"
	"github.com/keshon/beatsbot/pkg/cmd"
)

var ErrWrongContext = errors.New("wrong context type")

// Message is an incoming chat message as the router sees it.
type Message struct {
	GuildID        string
	ChannelID      string
	ID             string
	AuthorID       string
	AuthorName     string
	VoiceChannelID string
	Content        string
}

// Context is the invocation payload of prefix commands.
type Context struct {
	Message Message
	// Bang is set when the prefix was repeated ("!!play").
	Bang bool
	// Alt is the optional parenthesised modifier ("!play(x)").
	Alt string
}

// Request describes the requester to the jukebox.
func (c *Context) Request() jukebox.Request {
	return jukebox.Request{
		Message:        chat.Message{ChannelID: c.Message.ChannelID, ID: c.Message.ID},
		UserID:         c.Message.AuthorID,
		VoiceChannelID: c.Message.VoiceChannelID,
	}
}

// FromInvocation extracts the Context an adapter attached to inv.
func FromInvocation(inv *cmd.Invocation) (*Context, error) {
	c, ok := inv.Data.(*Context)
	if !ok || c == nil {
		return nil, ErrWrongContext
	}
	return c, nil
}
