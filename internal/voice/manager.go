// Package voice owns the bot's single voice connection and tears it down
// after a period of inactivity.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/keshon/beatsbot/pkg/clock"
)

var ErrConnectionFailure = errors.New("voice connection failed")

// Conn is an established voice connection.
type Conn interface {
	Disconnect() error
}

// Dialer opens voice connections.
type Dialer interface {
	Join(ctx context.Context, channelID string) (Conn, error)
}

// Manager keeps at most one voice connection per process.
type Manager struct {
	dialMu sync.Mutex
	mu     sync.Mutex
	dialer Dialer
	clock  clock.Clock
	idle   time.Duration

	channelID string
	conn      Conn
	timer     clock.Timer
	gen       uint64
	epoch     uint64
	held      bool

	onIdle func(channelID string)
}

// NewManager returns a disconnected manager that leaves the channel after
// idle without activity.
func NewManager(dialer Dialer, clk clock.Clock, idle time.Duration) *Manager {
	return &Manager{dialer: dialer, clock: clk, idle: idle}
}

// OnIdle registers f to run after an idle disconnect.
func (m *Manager) OnIdle(f func(channelID string)) {
	m.mu.Lock()
	m.onIdle = f
	m.mu.Unlock()
}

// Join connects to channelID, leaving any other channel first. Joining the
// channel already connected only resets the idle timer. The dial runs
// without holding the state lock; joins are serialized among themselves.
func (m *Manager) Join(ctx context.Context, channelID string) error {
	m.dialMu.Lock()
	defer m.dialMu.Unlock()

	m.mu.Lock()
	if m.conn != nil && m.channelID != channelID {
		m.disconnectLocked()
	}
	m.stopTimerLocked()
	if m.conn != nil {
		if !m.held {
			m.armLocked()
		}
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	conn, err := m.dialer.Join(ctx, channelID)
	if err != nil {
		return fmt.Errorf("%w: channel %s: %v", ErrConnectionFailure, channelID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		// disconnected while dialing
		if err := conn.Disconnect(); err != nil {
			log.Printf("[WARN] [Voice] Disconnect from %s failed: %v", channelID, err)
		}
		return fmt.Errorf("%w: channel %s: disconnected while joining", ErrConnectionFailure, channelID)
	}
	m.conn = conn
	m.channelID = channelID
	log.Printf("[INFO] [Voice] Joined channel %s", channelID)

	m.stopTimerLocked()
	if !m.held {
		m.armLocked()
	}
	return nil
}

// Hold suspends the idle countdown, e.g. while a track is playing.
func (m *Manager) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = true
	m.stopTimerLocked()
}

// Touch lifts a hold and restarts the idle countdown if connected.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = false
	m.stopTimerLocked()
	if m.conn != nil {
		m.armLocked()
	}
}

// Disconnect leaves the current channel. It is a no-op when disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.disconnectLocked()
}

// ChannelID returns the connected channel, or "" when disconnected.
func (m *Manager) ChannelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channelID
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

func (m *Manager) armLocked() {
	m.gen++
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.idle, func() { m.expire(gen) })
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	channelID := m.channelID
	log.Printf("[INFO] [Voice] Idle for %s, leaving channel %s", m.idle, channelID)
	m.disconnectLocked()
	onIdle := m.onIdle
	m.mu.Unlock()

	if onIdle != nil {
		onIdle(channelID)
	}
}

func (m *Manager) disconnectLocked() {
	m.stopTimerLocked()
	if m.conn == nil {
		return
	}
	if err := m.conn.Disconnect(); err != nil {
		log.Printf("[WARN] [Voice] Disconnect from %s failed: %v", m.channelID, err)
	}
	m.conn = nil
	m.channelID = ""
}
