// Package spotifysync mirrors the best rated Spotify tracks into a playlist.
package spotifysync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/jobmgr"
	"github.com/keshon/beatsbot/pkg/retrylimit"
)

const (
	JobName   = "spotify-playlist-sync"
	MaxTracks = 100

	trackPrefix = "spotify:track:"
)

// Playlist is the mirrored playlist.
type Playlist interface {
	// Tracks returns the uris currently in the playlist, in order.
	Tracks(ctx context.Context) ([]string, error)
	// Replace sets the playlist to exactly uris.
	Replace(ctx context.Context, uris []string) error
}

// Syncer keeps a playlist in leaderboard order.
type Syncer struct {
	playlist Playlist
	jobs     *jobmgr.Manager
	retry    retrylimit.RetryConfig
	limiter  *retrylimit.AdaptiveLimiter
}

func New(p Playlist, jobs *jobmgr.Manager) *Syncer {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 5
	return &Syncer{
		playlist: p,
		jobs:     jobs,
		retry:    cfg,
		limiter:  retrylimit.NewAdaptiveLimiter(5, 0.5, 10, 0.5, 0.5),
	}
}

// Targets picks the Spotify tracks of results, best first, at most
// MaxTracks of them.
func Targets(results []vote.Result) []string {
	uris := lo.FilterMap(results, func(r vote.Result, _ int) (string, bool) {
		return r.URI, strings.HasPrefix(r.URI, trackPrefix)
	})
	return lo.Slice(lo.Uniq(uris), 0, MaxTracks)
}

// Sync makes the playlist match results. It reports whether the playlist
// had to change.
func (s *Syncer) Sync(ctx context.Context, results []vote.Result) (bool, error) {
	want := Targets(results)

	have, err := s.playlist.Tracks(ctx)
	if err != nil {
		return false, fmt.Errorf("read playlist: %w", err)
	}
	if slices.Equal(lo.Slice(have, 0, MaxTracks), want) {
		return false, nil
	}

	if err := s.playlist.Replace(ctx, want); err != nil {
		return false, fmt.Errorf("replace playlist: %w", err)
	}
	log.Printf("[INFO] [Spotify] Playlist updated: %d added, %d removed",
		len(lo.Without(want, have...)), len(lo.Without(have, want...)))
	return true, nil
}

// Trigger starts a background sync unless one is already running.
func (s *Syncer) Trigger(ctx context.Context, results []vote.Result) {
	err := s.jobs.StartAsync(ctx, JobName, func(ctx context.Context) error {
		return retrylimit.WithRetryConfig(ctx, func() error {
			_, err := s.Sync(ctx, results)
			return err
		}, s.limiter, s.retry)
	})
	if errors.Is(err, jobmgr.ErrAlreadyRunning) {
		log.Printf("[INFO] [Spotify] Sync already running, skipping")
	}
}

// PlaylistURL is the public web link of a user's playlist.
func PlaylistURL(userID, playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/user/%s/playlist/%s", userID, playlistID)
}
