package jukebox

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/song"
	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/util"
)

const (
	DefaultBoardSize = 10
	maxBoardRows     = 100
	lookupWorkers    = 4
)

// Top shows ranks up to n of the leaderboard, best first.
func (j *Jukebox) Top(ctx context.Context, req Request, n int) error {
	results := j.ledger.Results()

	if err := j.board(ctx, req, "Top Beats", results, n); err != nil {
		return err
	}
	if j.opts.PlaylistURL != "" {
		text := fmt.Sprintf("To see the top %d beats in Spotify, visit <%s>", maxBoardRows, j.opts.PlaylistURL)
		if _, err := j.chat.Send(ctx, req.channel(), text); err != nil {
			return err
		}
	}

	j.mu.Lock()
	hook := j.onLeaderboard
	j.mu.Unlock()
	if hook != nil {
		hook(ctx, results)
	}
	return nil
}

// Bottom shows ranks up to n of the reversed leaderboard.
func (j *Jukebox) Bottom(ctx context.Context, req Request, n int) error {
	return j.board(ctx, req, "Bottom Beats", lo.Reverse(j.ledger.Results()), n)
}

// board renders ranks max(0, n-100)+1 through n.
func (j *Jukebox) board(ctx context.Context, req Request, title string, results []vote.Result, n int) error {
	if n <= 0 {
		n = DefaultBoardSize
	}
	first := max(0, n-maxBoardRows)
	page := lo.Slice(results, first, n)

	songs, err := util.Map(ctx, page, lookupWorkers, func(ctx context.Context, r vote.Result) (tableRow, error) {
		t, err := j.player.Lookup(ctx, r.URI)
		if err != nil {
			log.Printf("[WARN] [Leaderboard] Lookup of %s failed: %v", r.URI, err)
			t = song.Track{URI: r.URI}
		}
		return tableRow{Song: song.FromTrack(t), Score: r.Score}, nil
	})
	if err != nil {
		return err
	}
	return j.sendAll(ctx, req.channel(), renderTable(title, songs, first, -1))
}
