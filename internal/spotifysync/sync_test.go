package spotifysync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/keshon/beatsbot/internal/vote"
	"github.com/keshon/beatsbot/pkg/jobmgr"
	"github.com/keshon/beatsbot/pkg/retrylimit"
)

type mockPlaylist struct {
	mock.Mock
}

func (m *mockPlaylist) Tracks(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	uris, _ := args.Get(0).([]string)
	return uris, args.Error(1)
}

func (m *mockPlaylist) Replace(ctx context.Context, uris []string) error {
	return m.Called(ctx, uris).Error(0)
}

func results(uris ...string) []vote.Result {
	out := make([]vote.Result, len(uris))
	for i, uri := range uris {
		out[i] = vote.Result{URI: uri, Score: len(uris) - i}
	}
	return out
}

func fastSyncer(p Playlist) *Syncer {
	s := New(p, jobmgr.NewManager(nil))
	s.retry.InitialDelay = time.Millisecond
	s.retry.MaxDelay = time.Millisecond
	s.retry.Jitter = false
	s.limiter = nil
	return s
}

func TestTargets(t *testing.T) {
	got := Targets(results("spotify:track:a", "local:x", "yt:y", "spotify:album:z", "spotify:track:b"))
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, got)

	var many []string
	for i := 0; i < 150; i++ {
		many = append(many, fmt.Sprintf("spotify:track:%d", i))
	}
	got = Targets(results(many...))
	assert.Len(t, got, MaxTracks)
	assert.Equal(t, "spotify:track:0", got[0])
}

func TestSyncSkipsMatchingPlaylist(t *testing.T) {
	p := &mockPlaylist{}
	p.On("Tracks", mock.Anything).Return([]string{"spotify:track:a", "spotify:track:b"}, nil)

	changed, err := fastSyncer(p).Sync(context.Background(), results("spotify:track:a", "local:x", "spotify:track:b"))

	require.NoError(t, err)
	assert.False(t, changed)
	p.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestSyncReplacesOnReorder(t *testing.T) {
	p := &mockPlaylist{}
	p.On("Tracks", mock.Anything).Return([]string{"spotify:track:b", "spotify:track:a"}, nil)
	p.On("Replace", mock.Anything, []string{"spotify:track:a", "spotify:track:b"}).Return(nil)

	changed, err := fastSyncer(p).Sync(context.Background(), results("spotify:track:a", "spotify:track:b"))

	require.NoError(t, err)
	assert.True(t, changed)
	p.AssertExpectations(t)
}

func TestSyncReadFailure(t *testing.T) {
	p := &mockPlaylist{}
	p.On("Tracks", mock.Anything).Return(nil, errors.New("offline"))

	_, err := fastSyncer(p).Sync(context.Background(), results("spotify:track:a"))

	assert.ErrorContains(t, err, "read playlist")
}

func TestTriggerRetriesTransientFailures(t *testing.T) {
	p := &mockPlaylist{}
	p.On("Tracks", mock.Anything).Return(nil, statusError{spotify.Error{Status: 502, Message: "bad gateway"}}).Once()
	p.On("Tracks", mock.Anything).Return([]string{}, nil).Once()
	p.On("Replace", mock.Anything, []string{"spotify:track:a"}).Return(nil).Once()

	s := fastSyncer(p)
	s.Trigger(context.Background(), results("spotify:track:a"))
	s.jobs.Wait()

	p.AssertExpectations(t)
}

func TestTriggerGivesUpOnClientErrors(t *testing.T) {
	p := &mockPlaylist{}
	p.On("Tracks", mock.Anything).Return(nil, classify(spotify.Error{Status: 404, Message: "no such playlist"}))

	s := fastSyncer(p)
	s.Trigger(context.Background(), results("spotify:track:a"))
	s.jobs.Wait()

	p.AssertNumberOfCalls(t, "Tracks", 1)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("dial tcp: timeout")
	assert.Same(t, plain, classify(plain))

	var fatal *retrylimit.FatalError
	assert.ErrorAs(t, classify(spotify.Error{Status: 403}), &fatal)

	limited := classify(spotify.Error{Status: 429})
	assert.False(t, errors.As(limited, &fatal))
	var coded retrylimit.HTTPError
	require.ErrorAs(t, limited, &coded)
	assert.Equal(t, 429, coded.StatusCode())
}

func TestPlaylistURL(t *testing.T) {
	assert.Equal(t, "https://open.spotify.com/user/me/playlist/top", PlaylistURL("me", "top"))
}
