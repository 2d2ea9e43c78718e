// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushServer is a minimal websocket endpoint recording connections and their
// auth tokens, and echoing canned frames on demand.
type pushServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	tokens   chan string
	inbound  chan envelope
}

func newPushServer(t *testing.T) (*pushServer, string) {
	t.Helper()
	ps := &pushServer{
		t:       t,
		conns:   make(chan *websocket.Conn, 4),
		tokens:  make(chan string, 4),
		inbound: make(chan envelope, 16),
	}
	srv := httptest.NewServer(http.HandlerFunc(ps.handle))
	t.Cleanup(srv.Close)
	return ps, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (ps *pushServer) handle(w http.ResponseWriter, r *http.Request) {
	ps.tokens <- r.URL.Query().Get("token")
	conn, err := ps.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ps.conns <- conn
	go func() {
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			ps.inbound <- env
		}
	}()
}

// collect funnels delivered events into a channel for assertions.
func collect() (Deliver, chan any) {
	events := make(chan any, 32)
	return func(ev any) { events <- ev }, events
}

func waitEvent(t *testing.T, events chan any) any {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// waitState skips over intermediate transitions until the wanted state.
func waitState(t *testing.T, events chan any, want ConnState) StateChangedEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if sc, ok := ev.(StateChangedEvent); ok && sc.State == want {
				return sc
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestAdapter_ConnectsWithToken(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil)
	defer a.Close()
	a.SetToken("tok-1")

	assert.Equal(t, "tok-1", <-ps.tokens)
	sc := waitState(t, events, StateConnected)
	assert.False(t, sc.Resumed)
}

func TestAdapter_DeliversDecodedEvents(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil)
	defer a.Close()
	a.SetToken("tok")

	conn := <-ps.conns
	waitState(t, events, StateConnected)

	data, _ := json.Marshal(map[string]any{"_id": "m1", "chat_id": "c1", "content": "hi"})
	require.NoError(t, conn.WriteJSON(envelope{Event: "new_message", Data: data}))

	ev := waitEvent(t, events)
	msg, ok := ev.(NewMessageEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "m1", msg.Message.ID)
}

func TestAdapter_JoinIsSentAndReplayedOnReconnect(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil).WithReconnect(true, time.Second)
	defer a.Close()
	a.SetToken("tok")

	conn := <-ps.conns
	waitState(t, events, StateConnected)

	a.Join("c1")
	env := <-ps.inbound
	assert.Equal(t, "join", env.Event)

	// Drop the connection; the adapter must reconnect and rejoin.
	conn.Close()
	down := waitState(t, events, StateDisconnected)
	assert.True(t, down.Retrying, "drop with reconnect enabled should announce the retry")

	<-ps.conns
	sc := waitState(t, events, StateConnected)
	assert.True(t, sc.Resumed, "second connect within a session is a resume")

	select {
	case env := <-ps.inbound:
		assert.Equal(t, "join", env.Event)
	case <-time.After(3 * time.Second):
		t.Fatal("join was not replayed after reconnect")
	}
}

func TestAdapter_DropWithoutReconnectIsFinal(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil).WithReconnect(false, 0)
	defer a.Close()
	a.SetToken("tok")
	assert.Equal(t, "tok", <-ps.tokens)
	conn := <-ps.conns
	waitState(t, events, StateConnected)

	conn.Close()
	down := waitState(t, events, StateDisconnected)
	assert.False(t, down.Retrying, "no retry follows when reconnect is disabled")

	select {
	case tok := <-ps.tokens:
		t.Fatalf("unexpected reconnect with token %q", tok)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestAdapter_EmptyTokenDisconnects(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil)
	defer a.Close()
	a.SetToken("tok")
	assert.Equal(t, "tok", <-ps.tokens)
	conn := <-ps.conns
	waitState(t, events, StateConnected)

	a.SetToken("")
	assert.Equal(t, StateDisconnected, a.State())

	// The server side sees the close; no reconnect follows.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	select {
	case tok := <-ps.tokens:
		t.Fatalf("unexpected reconnect with token %q", tok)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestAdapter_TokenChangeReconnectsWithNewToken(t *testing.T) {
	ps, wsURL := newPushServer(t)
	deliver, events := collect()

	a := NewAdapter(wsURL, deliver, nil)
	defer a.Close()

	a.SetToken("old")
	assert.Equal(t, "old", <-ps.tokens)
	waitState(t, events, StateConnected)

	a.SetToken("new")
	assert.Equal(t, "new", <-ps.tokens)
	waitState(t, events, StateConnected)
}
