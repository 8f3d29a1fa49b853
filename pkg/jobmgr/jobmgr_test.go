package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reports struct {
	mu   sync.Mutex
	msgs []string
}

func (r *reports) add(s string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, s)
	r.mu.Unlock()
}

func (r *reports) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestStartAsyncRefusesDuplicates(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})

	require.NoError(t, m.StartAsync(context.Background(), "sync", func(ctx context.Context) error {
		<-release
		return nil
	}))
	assert.True(t, m.Running("sync"))

	err := m.StartAsync(context.Background(), "sync", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, "Running jobs: sync", m.Status())

	close(release)
	m.Wait()
	assert.False(t, m.Running("sync"))
	assert.Equal(t, "No jobs are running.", m.Status())
}

func TestReporterSeesLifecycle(t *testing.T) {
	r := &reports{}
	m := NewManager(r.add)

	require.NoError(t, m.StartAsync(context.Background(), "ok", func(context.Context) error { return nil }))
	m.Wait()
	require.NoError(t, m.StartAsync(context.Background(), "bad", func(context.Context) error { return errors.New("quota") }))
	m.Wait()

	assert.Equal(t, []string{"running:ok", "done:ok", "running:bad", "error:bad:quota"}, r.all())
}

func TestStopCancelsJob(t *testing.T) {
	m := NewManager(nil)
	started := make(chan struct{})

	require.NoError(t, m.StartAsync(context.Background(), "long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	require.NoError(t, m.Stop("long"))
	m.Wait()
	assert.ErrorIs(t, m.Stop("long"), ErrNotRunning)
	assert.Empty(t, m.List())
}

func TestParentContextCancelsJobs(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())

	for _, name := range []string{"b", "a"} {
		require.NoError(t, m.StartAsync(ctx, name, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))
	}
	assert.Equal(t, []string{"a", "b"}, m.List())

	cancel()
	m.Wait()
	assert.Empty(t, m.List())
}

func TestStopAll(t *testing.T) {
	m := NewManager(nil)
	for _, name := range []string{"x", "y"} {
		require.NoError(t, m.StartAsync(context.Background(), name, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))
	}

	m.StopAll()
	m.Wait()
	assert.Empty(t, m.List())
}
