// Package mopidy talks JSON-RPC to a Mopidy server over its websocket API and
// turns the server's core events into typed playback events.
package mopidy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keshon/beatsbot/pkg/retrylimit"
)

var (
	ErrClosed       = errors.New("mopidy: client closed")
	ErrNotConnected = errors.New("mopidy: not connected")
)

// RPCError is an error object returned by the server.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("mopidy: rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// frame is anything the server sends: a response or an event.
type frame struct {
	ID     *int64          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
}

type response struct {
	result json.RawMessage
	err    error
}

// Client is a reconnecting Mopidy websocket client. Call Run to connect.
type Client struct {
	url     string
	dialer  *websocket.Dialer
	limiter *retrylimit.AdaptiveLimiter
	timeout time.Duration

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	nextID    atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan response

	incoming chan rawEvent
	raw      chan rawEvent
	events   chan Event

	closed    chan struct{}
	closeOnce sync.Once
}

// New returns a client for the websocket endpoint url, for example
// ws://mopidy:6680/mopidy/ws/.
func New(url string) *Client {
	return &Client{
		url:      url,
		dialer:   websocket.DefaultDialer,
		limiter:  retrylimit.NewAdaptiveLimiter(1, 1, 5, 1, 0.5),
		timeout:  10 * time.Second,
		pending:  make(map[int64]chan response),
		incoming: make(chan rawEvent),
		raw:      make(chan rawEvent),
		events:   make(chan Event, 16),
		closed:   make(chan struct{}),
	}
}

// Events delivers playback events in arrival order. It is closed when Run
// returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Run connects and keeps reconnecting until ctx is done or Close is called.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
		c.dropConn()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.pump(ctx) }()
	go func() { defer wg.Done(); c.dispatch(ctx) }()
	defer func() {
		wg.Wait()
		close(c.events)
	}()

	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = retrylimit.Unlimited
	cfg.MaxDelay = 30 * time.Second

	for {
		err := retrylimit.WithRetryConfig(ctx, func() error { return c.connect(ctx) }, c.limiter, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Printf("[INFO] [Mopidy] Connected to %s", c.url)
		c.emit(ctx, rawEvent{name: eventOnline})

		err = c.readLoop(ctx)
		c.dropConn()
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("[WARN] [Mopidy] Connection lost: %v", err)
	}
}

// Close disconnects and stops Run.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	c.dropConn()
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("mopidy: dial %s: %w", c.url, err)
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	if ctx.Err() != nil {
		c.dropConn()
		return &retrylimit.FatalError{Err: ctx.Err()}
	}
	return nil
}

func (c *Client) dropConn() {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		ch <- response{err: ErrNotConnected}
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

func (c *Client) readLoop(ctx context.Context) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("[WARN] [Mopidy] Unreadable frame: %v", err)
			continue
		}

		switch {
		case f.Event != "":
			select {
			case c.incoming <- rawEvent{name: f.Event, data: data}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case f.ID != nil:
			c.pendingMu.Lock()
			ch, ok := c.pending[*f.ID]
			delete(c.pending, *f.ID)
			c.pendingMu.Unlock()
			if !ok {
				continue
			}
			if f.Error != nil {
				ch <- response{err: f.Error}
			} else {
				ch <- response{result: f.Result}
			}
		}
	}
}

// Call invokes method and decodes the result into result, which may be nil.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	id := c.nextID.Add(1)
	ch := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err := conn.WriteJSON(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		forget()
		return fmt.Errorf("mopidy: %s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.err != nil {
			return fmt.Errorf("%s: %w", method, resp.err)
		}
		if result == nil || len(resp.result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.result, result); err != nil {
			return fmt.Errorf("mopidy: %s: decode result: %w", method, err)
		}
		return nil
	case <-timer.C:
		forget()
		return fmt.Errorf("mopidy: %s: timed out after %s", method, c.timeout)
	case <-ctx.Done():
		forget()
		return ctx.Err()
	case <-c.closed:
		forget()
		return ErrClosed
	}
}

// pump buffers events without bound so the read loop never waits on the
// consumer, which may itself be waiting on an rpc response.
func (c *Client) pump(ctx context.Context) {
	var queue []rawEvent
	for {
		var out chan<- rawEvent
		var next rawEvent
		if len(queue) > 0 {
			out = c.raw
			next = queue[0]
		}
		select {
		case e := <-c.incoming:
			queue = append(queue, e)
		case out <- next:
			queue = queue[1:]
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) emit(ctx context.Context, e rawEvent) {
	select {
	case c.incoming <- e:
	case <-ctx.Done():
	}
}
