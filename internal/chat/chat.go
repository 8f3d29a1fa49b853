// Package chat describes what the jukebox needs from a chat service,
// independent of any particular client library.
package chat

import "context"

// Message identifies a posted message.
type Message struct {
	ChannelID string
	ID        string
}

// Field is one name/value row of a Notice.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notice is a rich message: a titled card with fields and an optional
// thumbnail.
type Notice struct {
	Title       string
	URL         string
	Description string
	Fields      []Field
	Thumbnail   string
	Footer      string
}

// Chat is the chat service as seen by the jukebox.
type Chat interface {
	Send(ctx context.Context, channelID, content string) (Message, error)
	Edit(ctx context.Context, m Message, content string) error
	Delete(ctx context.Context, m Message) error

	SendNotice(ctx context.Context, channelID string, n Notice) (Message, error)
	EditNotice(ctx context.Context, m Message, n Notice) error

	React(ctx context.Context, m Message, emoji string) error
	ClearReactions(ctx context.Context, m Message) error

	// StartThread opens a thread under m and returns its channel id.
	StartThread(ctx context.Context, m Message, name string) (string, error)

	// SetListening shows "listening to text" as the bot's status; an empty
	// text marks the bot idle.
	SetListening(ctx context.Context, text string) error
}
