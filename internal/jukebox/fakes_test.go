package jukebox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/song"
	"github.com/keshon/beatsbot/internal/voice"
	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/clock/clocktest"
)

type sent struct {
	Message chat.Message
	Content string
	Notice  *chat.Notice
}

type reaction struct {
	MessageID string
	Emoji     string
}

type fakeChat struct {
	mu        sync.Mutex
	seq       int
	sent      []sent
	edits     map[string]string
	notices   map[string]chat.Notice
	deleted   []string
	reactions []reaction
	cleared   []string
	threads   []string
	listening []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{edits: make(map[string]string), notices: make(map[string]chat.Notice)}
}

func (c *fakeChat) next(channelID string) chat.Message {
	c.seq++
	return chat.Message{ChannelID: channelID, ID: fmt.Sprintf("m%d", c.seq)}
}

func (c *fakeChat) Send(_ context.Context, channelID, content string) (chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.next(channelID)
	c.sent = append(c.sent, sent{Message: m, Content: content})
	return m, nil
}

func (c *fakeChat) Edit(_ context.Context, m chat.Message, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits[m.ID] = content
	return nil
}

func (c *fakeChat) Delete(_ context.Context, m chat.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, m.ID)
	return nil
}

func (c *fakeChat) SendNotice(_ context.Context, channelID string, n chat.Notice) (chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.next(channelID)
	c.sent = append(c.sent, sent{Message: m, Notice: &n})
	c.notices[m.ID] = n
	return m, nil
}

func (c *fakeChat) EditNotice(_ context.Context, m chat.Message, n chat.Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices[m.ID] = n
	return nil
}

func (c *fakeChat) React(_ context.Context, m chat.Message, emoji string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions = append(c.reactions, reaction{MessageID: m.ID, Emoji: emoji})
	return nil
}

func (c *fakeChat) ClearReactions(_ context.Context, m chat.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, m.ID)
	return nil
}

func (c *fakeChat) StartThread(_ context.Context, m chat.Message, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := "thread-" + m.ID
	c.threads = append(c.threads, name+"@"+m.ID)
	return id, nil
}

func (c *fakeChat) SetListening(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listening = append(c.listening, text)
	return nil
}

func (c *fakeChat) contents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, s := range c.sent {
		if s.Notice == nil {
			out = append(out, s.Content)
		}
	}
	return out
}

func (c *fakeChat) noticesIn(channelID string) []chat.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []chat.Notice
	for _, s := range c.sent {
		if s.Notice != nil && s.Message.ChannelID == channelID {
			out = append(out, c.notices[s.Message.ID])
		}
	}
	return out
}

func (c *fakeChat) reactionsOn(messageID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, r := range c.reactions {
		if r.MessageID == messageID {
			out = append(out, r.Emoji)
		}
	}
	return out
}

func (c *fakeChat) last() sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[len(c.sent)-1]
}

type play struct {
	URIs []string
	Now  bool
}

type fakePlayer struct {
	mu       sync.Mutex
	results  map[string][]song.Track
	library  map[string]song.Track
	images   map[string]string
	history  []song.Track
	tracks   []song.Track
	index    int
	more     bool
	plays    []play
	stops    int
	repeats  []bool
	searched []string
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		results: make(map[string][]song.Track),
		library: make(map[string]song.Track),
		images:  make(map[string]string),
		index:   -1,
	}
}

func (p *fakePlayer) Search(_ context.Context, query, source string) ([]song.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searched = append(p.searched, source)
	return p.results[source], nil
}

func (p *fakePlayer) Lookup(_ context.Context, uri string) (song.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.library[uri]
	if !ok {
		return song.Track{}, errors.New("not found")
	}
	return t, nil
}

func (p *fakePlayer) Image(_ context.Context, uri string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images[uri], nil
}

func (p *fakePlayer) History(_ context.Context, limit int) ([]song.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) > limit {
		return p.history[:limit], nil
	}
	return p.history, nil
}

func (p *fakePlayer) Tracklist(context.Context) ([]song.Track, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks, p.index, nil
}

func (p *fakePlayer) State(context.Context) (string, error) { return "stopped", nil }

func (p *fakePlayer) Play(_ context.Context, uris []string, now bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, play{URIs: uris, Now: now})
	return now, nil
}

func (p *fakePlayer) Next(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.more, nil
}

func (p *fakePlayer) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return nil
}

func (p *fakePlayer) Repeat(_ context.Context, single bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeats = append(p.repeats, single)
	return nil
}

type mapStore struct {
	keys   []string
	scores map[string]int
}

func newMapStore() *mapStore { return &mapStore{scores: make(map[string]int)} }

func (s *mapStore) Get(uri string) (int, bool) {
	v, ok := s.scores[uri]
	return v, ok
}

func (s *mapStore) Set(uri string, score int) error {
	if _, ok := s.scores[uri]; !ok {
		s.keys = append(s.keys, uri)
	}
	s.scores[uri] = score
	return nil
}

func (s *mapStore) ForEach(visit func(string, int)) {
	for _, k := range s.keys {
		visit(k, s.scores[k])
	}
}

type nopConn struct{}

func (nopConn) Disconnect() error { return nil }

type fakeDialer struct {
	joined []string
}

func (d *fakeDialer) Join(_ context.Context, channelID string) (voice.Conn, error) {
	d.joined = append(d.joined, channelID)
	return nopConn{}, nil
}

type harness struct {
	jb     *Jukebox
	chat   *fakeChat
	player *fakePlayer
	store  *mapStore
	ledger *vote.Ledger
	dialer *fakeDialer
	voice  *voice.Manager
	clock  *clocktest.Clock
}

func newHarness() *harness {
	h := &harness{
		chat:   newFakeChat(),
		player: newFakePlayer(),
		store:  newMapStore(),
		dialer: &fakeDialer{},
		clock:  clocktest.New(),
	}
	h.ledger = vote.NewLedger(h.store)
	h.voice = voice.NewManager(h.dialer, h.clock, time.Minute)
	h.jb = New(h.chat, h.player, h.ledger, h.voice, h.clock, Options{
		ExternalURL:  "https://beats.example",
		PlayLinkBase: "https://beats.example/play",
	})
	h.jb.SetSelfID("bot")
	return h
}

func request(userID string) Request {
	return Request{
		Message:        chat.Message{ChannelID: "text", ID: "cmd-" + userID},
		UserID:         userID,
		VoiceChannelID: "voice",
	}
}
