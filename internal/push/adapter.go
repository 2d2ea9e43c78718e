// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package push

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Configuration constants for the push channel.
const (
	// dialTimeout bounds a single connection attempt.
	dialTimeout = 10 * time.Second

	// reconnectBaseDelay is the base delay for reconnect backoff.
	reconnectBaseDelay = time.Second

	// DefaultMaxBackoff caps the reconnect backoff unless overridden.
	DefaultMaxBackoff = 30 * time.Second

	// maxFrameSize bounds inbound frames. A single pushed message is small;
	// anything near this limit is a protocol violation.
	maxFrameSize = 1 * 1024 * 1024
)

// Deliver receives decoded events on the adapter's read goroutine. It is
// wired to the UI program's Send, which is safe to call from any goroutine.
type Deliver func(event any)

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter owns at most one websocket connection to the server's push
// endpoint, authenticated by the session token.
//
// The adapter is driven from two sides: the session store pushes token
// changes through SetToken, and the UI loop calls Join/Leave as the user
// moves between conversations. Each token change bumps a generation counter;
// goroutines from older generations notice and exit, so a late frame from a
// dying connection is never delivered.
type Adapter struct {
	wsURL   string
	deliver Deliver
	log     *zap.Logger

	reconnect  bool
	maxBackoff time.Duration

	// limiter paces dial attempts across reconnects and token churn.
	limiter *rate.Limiter

	mu            sync.Mutex
	token         string
	gen           int
	cancel        context.CancelFunc
	conn          *websocket.Conn
	state         ConnState
	joined        map[string]struct{}
	everConnected bool
	closed        bool
}

// NewAdapter creates a push adapter for the given websocket URL. The adapter
// stays disconnected until SetToken installs a non-empty token.
func NewAdapter(wsURL string, deliver Deliver, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		wsURL:      wsURL,
		deliver:    deliver,
		log:        log,
		reconnect:  true,
		maxBackoff: DefaultMaxBackoff,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		joined:     make(map[string]struct{}),
	}
}

// WithReconnect enables or disables automatic reconnection and sets the
// backoff cap. A non-positive cap keeps the default.
func (a *Adapter) WithReconnect(enabled bool, maxBackoff time.Duration) *Adapter {
	a.reconnect = enabled
	if maxBackoff > 0 {
		a.maxBackoff = maxBackoff
	}
	return a
}

// State returns the current connection state.
func (a *Adapter) State() ConnState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetToken installs the credential for the push channel. Any existing
// connection is torn down; a non-empty token starts a fresh connection.
// An empty token (logout) leaves the adapter disconnected. Calling with the
// current token is a no-op.
func (a *Adapter) SetToken(token string) {
	a.mu.Lock()
	if a.closed || token == a.token {
		a.mu.Unlock()
		return
	}
	a.token = token
	a.teardownLocked()
	a.everConnected = false

	if token == "" {
		a.setStateLocked(StateDisconnected)
		a.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	gen := a.gen
	a.mu.Unlock()

	go a.run(ctx, gen, token)
}

// Join subscribes to a conversation's room. The membership is remembered and
// replayed after every reconnect.
func (a *Adapter) Join(chatID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.joined[chatID] = struct{}{}
	a.sendLocked(cmdJoin, chatID)
}

// Leave unsubscribes from a conversation's room.
func (a *Adapter) Leave(chatID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.joined, chatID)
	a.sendLocked(cmdLeave, chatID)
}

// Close shuts the adapter down permanently.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.teardownLocked()
	a.setStateLocked(StateDisconnected)
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

// run dials and reads until its generation is superseded. One run goroutine
// exists per generation; it owns the reconnect loop for that credential.
func (a *Adapter) run(ctx context.Context, gen int, token string) {
	attempt := 0
	for {
		a.setState(gen, StateConnecting, false)

		if err := a.limiter.Wait(ctx); err != nil {
			return
		}

		conn, err := a.dial(ctx, token)
		if err != nil {
			a.log.Warn("push dial failed", zap.Error(err))
			if !a.retryable(ctx, gen) {
				a.setState(gen, StateDisconnected, false)
				return
			}
			attempt++
			if !sleep(ctx, a.backoff(attempt)) {
				return
			}
			continue
		}
		attempt = 0

		if !a.install(gen, conn) {
			conn.Close()
			return
		}

		a.readLoop(gen, conn)

		a.mu.Lock()
		stale := gen != a.gen || a.closed
		if !stale {
			a.conn = nil
		}
		a.mu.Unlock()
		if stale {
			return
		}

		a.setState(gen, StateDisconnected, a.reconnect)
		if !a.reconnect {
			return
		}
		a.log.Info("push channel lost, reconnecting")
	}
}

// dial opens a websocket connection carrying the token as a query parameter.
func (a *Adapter) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	endpoint := a.wsURL + "?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return conn, nil
}

// install publishes a freshly dialed connection, replays room memberships,
// and announces the connected state. Returns false when the generation was
// superseded while dialing.
func (a *Adapter) install(gen int, conn *websocket.Conn) bool {
	a.mu.Lock()
	if gen != a.gen || a.closed {
		a.mu.Unlock()
		return false
	}
	a.conn = conn
	resumed := a.everConnected
	a.everConnected = true
	for chatID := range a.joined {
		a.sendLocked(cmdJoin, chatID)
	}
	a.state = StateConnected
	a.mu.Unlock()

	a.deliver(StateChangedEvent{State: StateConnected, Resumed: resumed})
	a.log.Info("push channel connected", zap.Bool("resumed", resumed))
	return true
}

// readLoop decodes and delivers frames until the connection fails.
func (a *Adapter) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if a.current(gen) && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				a.log.Warn("push read failed", zap.Error(err))
			}
			return
		}

		event, err := decodeEvent(frame)
		if err != nil {
			// A malformed frame is logged and skipped; the stream stays up.
			a.log.Warn("push frame rejected", zap.Error(err))
			continue
		}
		if event == nil || !a.current(gen) {
			continue
		}
		a.deliver(event)
	}
}

// =============================================================================
// INTERNALS
// =============================================================================

// sendLocked writes a join/leave command when connected. Dropped commands are
// fine: install replays the full membership set after every connect.
func (a *Adapter) sendLocked(cmd, chatID string) {
	if a.conn == nil {
		return
	}
	frame, err := encodeCommand(cmd, chatID)
	if err != nil {
		a.log.Warn("encode push command failed", zap.Error(err))
		return
	}
	a.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := a.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		a.log.Warn("push write failed", zap.String("cmd", cmd), zap.Error(err))
	}
}

// current reports whether gen is still the live generation.
func (a *Adapter) current(gen int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return gen == a.gen && !a.closed
}

// retryable reports whether the run loop should keep dialing.
func (a *Adapter) retryable(ctx context.Context, gen int) bool {
	if ctx.Err() != nil {
		return false
	}
	return a.reconnect && a.current(gen)
}

// setState transitions the connection state and notifies the UI, unless the
// generation is stale or the state did not change.
func (a *Adapter) setState(gen int, state ConnState, retrying bool) {
	a.mu.Lock()
	if gen != a.gen || a.closed || a.state == state {
		a.mu.Unlock()
		return
	}
	a.state = state
	a.mu.Unlock()
	a.deliver(StateChangedEvent{State: state, Retrying: retrying})
}

// setStateLocked transitions the state without notifying. Used on teardown
// paths where the UI is told through other means or is going away.
func (a *Adapter) setStateLocked(state ConnState) {
	a.state = state
}

// teardownLocked invalidates the live generation and closes any connection.
func (a *Adapter) teardownLocked() {
	a.gen++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
}

// backoff returns the delay before the given reconnect attempt.
func (a *Adapter) backoff(attempt int) time.Duration {
	delay := reconnectBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > a.maxBackoff {
		delay = a.maxBackoff
	}
	return delay
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
