// Package jukebox ties the playback daemon, the chat service and the
// engagement components together: it announces tracks, collects votes,
// resolves searches and keeps the voice connection alive while music plays.
//
// A Jukebox owns exactly one vote ledger, queue tracker, choice prompt and
// voice session. Running it for several guilds at once would make them share
// all four.
package jukebox

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/choice"
	"github.com/keshon/beatsbot/internal/mopidy"
	"github.com/keshon/beatsbot/internal/queue"
	"github.com/keshon/beatsbot/internal/song"
	"github.com/keshon/beatsbot/internal/voice"
	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/clock"
)

var ErrNotInVoice = errors.New("requester is not in a voice channel")

// Player is the playback daemon.
type Player interface {
	Search(ctx context.Context, query, source string) ([]song.Track, error)
	Lookup(ctx context.Context, uri string) (song.Track, error)
	Image(ctx context.Context, uri string) (string, error)
	History(ctx context.Context, limit int) ([]song.Track, error)
	Tracklist(ctx context.Context) ([]song.Track, int, error)
	State(ctx context.Context) (string, error)
	Play(ctx context.Context, uris []string, now bool) (bool, error)
	Next(ctx context.Context) (bool, error)
	Stop(ctx context.Context) error
	Repeat(ctx context.Context, single bool) error
}

type Options struct {
	// ExternalURL is linked from the "Now Playing" title.
	ExternalURL string
	// PlayLinkBase is the redirect endpoint queued notices link to.
	PlayLinkBase  string
	ChoiceTimeout time.Duration
	// PlaylistURL is advertised under the leaderboard when set.
	PlaylistURL string
}

// Request describes who asked for something and where.
type Request struct {
	Message        chat.Message
	UserID         string
	VoiceChannelID string
}

func (r Request) channel() string { return r.Message.ChannelID }

type Jukebox struct {
	chat   chat.Chat
	player Player
	ledger *vote.Ledger
	queue  *queue.Tracker
	prompt *choice.Prompt[song.Song]
	voice  *voice.Manager
	opts   Options

	mu          sync.Mutex
	selfID      string
	textChannel string
	current     *song.Song
	nowPlaying  *chat.Message
	image       string
	queueThread string
	voteMsgs    map[string]bool

	onLeaderboard func(context.Context, []vote.Result)
}

func New(c chat.Chat, p Player, ledger *vote.Ledger, vm *voice.Manager, clk clock.Clock, opts Options) *Jukebox {
	if opts.ChoiceTimeout <= 0 {
		opts.ChoiceTimeout = time.Minute
	}
	j := &Jukebox{
		chat:     c,
		player:   p,
		ledger:   ledger,
		queue:    &queue.Tracker{},
		voice:    vm,
		opts:     opts,
		voteMsgs: make(map[string]bool),
	}
	j.prompt = choice.New[song.Song](&listBoard{j: j}, clk, "")
	return j
}

// SetSelfID tells the jukebox which user is the bot, whose reactions never
// count.
func (j *Jukebox) SetSelfID(id string) {
	j.mu.Lock()
	j.selfID = id
	j.mu.Unlock()
	j.prompt.SetSelfID(id)
}

// SetTextChannel picks the channel notices go to.
func (j *Jukebox) SetTextChannel(id string) {
	j.mu.Lock()
	j.textChannel = id
	j.mu.Unlock()
}

// OnLeaderboard registers f to receive the full results whenever the top
// list is shown.
func (j *Jukebox) OnLeaderboard(f func(context.Context, []vote.Result)) {
	j.mu.Lock()
	j.onLeaderboard = f
	j.mu.Unlock()
}

// Run handles playback events until ctx is done or events is closed.
func (j *Jukebox) Run(ctx context.Context, events <-chan mopidy.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			j.HandleEvent(ctx, e)
		}
	}
}

func (j *Jukebox) HandleEvent(ctx context.Context, e mopidy.Event) {
	switch e := e.(type) {
	case mopidy.Online:
		j.queue.Reset(uris(e.Upcoming))
		if e.Playing != nil {
			j.trackStarted(ctx, *e.Playing)
			return
		}
		// playback may have stopped while we were disconnected
		if _, playing := j.Current(); playing {
			j.trackStopped(ctx)
		}
	case mopidy.TrackStarted:
		j.queue.Advance(e.Track.URI)
		j.trackStarted(ctx, e.Track)
	case mopidy.TrackStopped:
		j.trackStopped(ctx)
	case mopidy.TracklistChanged:
		j.tracklistChanged(ctx, e.Upcoming)
	}
}

func (j *Jukebox) trackStarted(ctx context.Context, t song.Track) {
	s := song.FromTrack(t)
	log.Printf("[INFO] [Jukebox] Now playing %s (%s)", s.Derived.SongString, t.URI)

	j.ledger.StartSession(t.URI)
	j.voice.Hold()

	j.mu.Lock()
	cur := &s
	j.current = cur
	j.nowPlaying = nil
	j.image = ""
	j.queueThread = ""
	j.voteMsgs = make(map[string]bool)
	channel := j.textChannel
	j.mu.Unlock()

	if err := j.chat.SetListening(ctx, s.Derived.SongString); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to set presence: %v", err)
	}
	if channel == "" || !j.voice.Connected() {
		return
	}

	image := j.thumbnail(ctx, t.URI)
	msg, err := j.chat.SendNotice(ctx, channel, j.nowPlayingNotice(s, j.ledger.Score(t.URI), image))
	if err != nil {
		log.Printf("[ERR] [Jukebox] Failed to post now playing: %v", err)
		return
	}

	j.mu.Lock()
	if j.current != cur {
		j.mu.Unlock()
		return
	}
	j.nowPlaying = &msg
	j.image = image
	j.voteMsgs[msg.ID] = true
	j.mu.Unlock()

	for _, m := range []string{"🎺", "⚓"} {
		if err := j.chat.React(ctx, msg, m); err != nil {
			log.Printf("[WARN] [Jukebox] Failed to seed %s: %v", m, err)
			break
		}
	}
}

func (j *Jukebox) trackStopped(ctx context.Context) {
	j.ledger.EndSession()

	j.mu.Lock()
	j.current = nil
	j.nowPlaying = nil
	j.image = ""
	j.queueThread = ""
	j.voteMsgs = make(map[string]bool)
	j.mu.Unlock()

	if err := j.chat.SetListening(ctx, ""); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to set presence: %v", err)
	}
	j.voice.Touch()
	if err := j.player.Stop(ctx); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to stop playback: %v", err)
	}
}

func (j *Jukebox) tracklistChanged(ctx context.Context, upcoming []song.Track) {
	added := j.queue.Update(uris(upcoming))
	if len(added) == 0 {
		return
	}

	channel := j.queueChannel(ctx)
	if channel == "" {
		return
	}

	byURI := lo.KeyBy(upcoming, func(t song.Track) string { return t.URI })
	for _, uri := range added {
		t, ok := byURI[uri]
		if !ok {
			t = song.Track{URI: uri}
		}
		s := song.FromTrack(t)
		if _, err := j.chat.SendNotice(ctx, channel, j.queuedNotice(s, j.thumbnail(ctx, uri))); err != nil {
			log.Printf("[WARN] [Jukebox] Failed to announce %s: %v", uri, err)
		}
	}
}

// queueChannel returns the "Queue" thread under the current notice, opening
// it on first use, or the text channel when there is no notice.
func (j *Jukebox) queueChannel(ctx context.Context) string {
	j.mu.Lock()
	notice := j.nowPlaying
	thread := j.queueThread
	channel := j.textChannel
	j.mu.Unlock()

	if notice == nil {
		return channel
	}
	if thread != "" {
		return thread
	}

	thread, err := j.chat.StartThread(ctx, *notice, "Queue")
	if err != nil {
		log.Printf("[WARN] [Jukebox] Failed to open queue thread: %v", err)
		return channel
	}

	j.mu.Lock()
	if j.nowPlaying == notice {
		j.queueThread = thread
	}
	j.mu.Unlock()
	return thread
}

// Current returns the playing song, if any.
func (j *Jukebox) Current() (song.Song, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current == nil {
		return song.Song{}, false
	}
	return *j.current, true
}

func uris(tracks []song.Track) []string {
	return lo.Map(tracks, func(t song.Track, _ int) string { return t.URI })
}
