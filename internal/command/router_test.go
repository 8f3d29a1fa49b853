package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/jukebox"
	"github.com/keshon/beatsbot/pkg/cmd"
)

type fakeJukebox struct {
	calls   []string
	channel string
	err     error
}

func (f *fakeJukebox) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeJukebox) SetTextChannel(id string) { f.channel = id }
func (f *fakeJukebox) Join(_ context.Context, req jukebox.Request) error {
	return f.record("join %s", req.VoiceChannelID)
}
func (f *fakeJukebox) Play(_ context.Context, _ jukebox.Request, q string, now bool) error {
	return f.record("play %q %t", q, now)
}
func (f *fakeJukebox) Random(_ context.Context, _ jukebox.Request, q string, now bool) error {
	return f.record("rand %q %t", q, now)
}
func (f *fakeJukebox) Recent(_ context.Context, _ jukebox.Request, now bool) error {
	return f.record("recent %t", now)
}
func (f *fakeJukebox) Skip(context.Context, jukebox.Request) error { return f.record("skip") }
func (f *fakeJukebox) Stop(context.Context) error                  { return f.record("stop") }
func (f *fakeJukebox) Queue(context.Context, jukebox.Request) error {
	return f.record("queue")
}
func (f *fakeJukebox) Repeat(_ context.Context, _ jukebox.Request, single bool) error {
	return f.record("repeat %t", single)
}
func (f *fakeJukebox) Vote(_ context.Context, req jukebox.Request, delta int) error {
	return f.record("vote %s %d on %s", req.UserID, delta, req.Message.ID)
}
func (f *fakeJukebox) Top(_ context.Context, _ jukebox.Request, n int) error {
	return f.record("top %d", n)
}
func (f *fakeJukebox) Bottom(_ context.Context, _ jukebox.Request, n int) error {
	return f.record("bot %d", n)
}

type fakeChat struct {
	chat.Chat
	sent    []string
	notices []chat.Notice
}

func (c *fakeChat) Send(_ context.Context, channelID, content string) (chat.Message, error) {
	c.sent = append(c.sent, content)
	return chat.Message{ChannelID: channelID, ID: "reply"}, nil
}

func (c *fakeChat) SendNotice(_ context.Context, channelID string, n chat.Notice) (chat.Message, error) {
	c.notices = append(c.notices, n)
	return chat.Message{ChannelID: channelID, ID: "notice"}, nil
}

func message(content string) Message {
	return Message{
		GuildID:        "g1",
		ChannelID:      "text",
		ID:             "m1",
		AuthorID:       "u1",
		AuthorName:     "alice",
		VoiceChannelID: "voice",
		Content:        content,
	}
}

func TestHandleDispatchesCommands(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"!play daft punk", `play "daft punk" false`},
		{"!!play daft punk", `play "daft punk" true`},
		{"!PLAY loud", `play "loud" false`},
		{"!rand(x) house", `rand "house" false`},
		{"!!rand", `rand "" true`},
		{"!join", "join voice"},
		{"!skip", "skip"},
		{"!stop", "stop"},
		{"!queue", "queue"},
		{"!recent", "recent false"},
		{"!repeat", "repeat false"},
		{"!!repeat", "repeat true"},
		{"!upvote", "vote u1 1 on m1"},
		{"!downvote", "vote u1 -1 on m1"},
		{"!top", "top 10"},
		{"!top 25 please", "top 25"},
		{"!top lots", "top 10"},
		{"!bot 3", "bot 3"},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			jb := &fakeJukebox{}
			r := NewRouter(jb, &fakeChat{}, "!", nil)

			assert.True(t, r.Handle(context.Background(), message(tt.content)))
			assert.Equal(t, []string{tt.want}, jb.calls)
			assert.Equal(t, "text", jb.channel)
		})
	}
}

func TestHandleFallbackVotes(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"!updoot", []string{"vote u1 1 on m1"}},
		{"!upboat", []string{"vote u1 1 on m1"}},
		{"!downer", []string{"vote u1 -1 on m1"}},
		{"updoot", []string{"vote u1 1 on m1"}},
		{"DownBoat", []string{"vote u1 -1 on m1"}},
		{"!sideways", nil},
		{"updoot please", nil},
		{"hello there", nil},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			jb := &fakeJukebox{}
			r := NewRouter(jb, &fakeChat{}, "!", nil)

			handled := r.Handle(context.Background(), message(tt.content))
			assert.Equal(t, tt.want != nil, handled)
			assert.Equal(t, tt.want, jb.calls)
			if !handled {
				assert.Empty(t, jb.channel, "ignored messages leave the notice channel alone")
			}
		})
	}
}

func TestCustomPrefix(t *testing.T) {
	jb := &fakeJukebox{}
	r := NewRouter(jb, &fakeChat{}, "$", nil)

	assert.True(t, r.Handle(context.Background(), message("$$play x")))
	assert.False(t, r.Handle(context.Background(), message("!play x")))
	assert.Equal(t, []string{`play "x" true`}, jb.calls)
}

func TestHelp(t *testing.T) {
	c := &fakeChat{}
	r := NewRouter(&fakeJukebox{}, c, "!", nil)

	require.True(t, r.Handle(context.Background(), message("!?")))
	require.Len(t, c.notices, 1)

	n := c.notices[0]
	assert.Equal(t, "Available Commands", n.Title)
	require.Len(t, n.Fields, len(r.Commands()))
	assert.Equal(t, "!help", n.Fields[0].Name)
	assert.Equal(t, "!kill", n.Fields[len(n.Fields)-1].Name)

	var play chat.Field
	for _, f := range n.Fields {
		if strings.HasPrefix(f.Name, "!play") {
			play = f
		}
	}
	assert.Equal(t, "!play [query]", play.Name)
	assert.Contains(t, play.Value, "\n(!!) Plays immediately")
}

func TestKill(t *testing.T) {
	c := &fakeChat{}
	stopped := false
	r := NewRouter(&fakeJukebox{}, c, "!", func() { stopped = true })

	require.True(t, r.Handle(context.Background(), message("!kill")))
	assert.True(t, stopped)
	assert.Equal(t, []string{"Goodbye, cruel world."}, c.sent)
}

func TestErrorsAreReported(t *testing.T) {
	c := &fakeChat{}
	jb := &fakeJukebox{err: errors.New("daemon offline")}
	r := NewRouter(jb, c, "!", nil)

	r.Handle(context.Background(), message("!skip"))
	assert.Equal(t, []string{"Error running command: daemon offline"}, c.sent)

	c.sent = nil
	jb.err = jukebox.ErrNotInVoice
	r.Handle(context.Background(), message("!play x"))
	assert.Empty(t, c.sent, "the jukebox already told the requester")
}

func TestMiddlewareWrapsEveryCommand(t *testing.T) {
	var seen []string
	audit := func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			seen = append(seen, inv.Name)
			return nil
		})
	}
	jb := &fakeJukebox{}
	r := NewRouter(jb, &fakeChat{}, "!", nil, audit)

	r.Handle(context.Background(), message("!play x"))
	r.Handle(context.Background(), message("updoot"))

	assert.Equal(t, []string{"play", "upvote"}, seen)
	assert.Empty(t, jb.calls)
	assert.Empty(t, jb.channel, "blocked commands do not move notices")
}
