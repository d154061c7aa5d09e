// SPDX-License-Identifier: GPL-3.0
// Copyright 2026 Pete Heist

package flic

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsReconnectDelay    = 1 * time.Second
	wsMaxReconnectDelay = 30 * time.Second
)

// WSEndpoint exchanges payload frames with a peer process over a
// websocket connection.  While disconnected, sends are dropped and polls
// return nothing, which the interface handles as peer silence.
type WSEndpoint struct {
	log    zerolog.Logger
	mu     sync.Mutex
	conn   *websocket.Conn
	latest []byte
	fresh  bool
	// scratch decodes frames before they are copied out, so a corrupt
	// frame leaves the caller's payload untouched
	scratch *Payload
	buf     []byte
	done   chan struct{}
	server *http.Server
	ln     net.Listener
}

// Addr returns the listen address, or nil for a dialing endpoint.  Useful
// when listening on an ephemeral port.
func (e *WSEndpoint) Addr() net.Addr {
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

func newWSEndpoint(log zerolog.Logger) *WSEndpoint {
	return &WSEndpoint{
		log:  log,
		done: make(chan struct{}),
	}
}

// DialWS returns an endpoint that dials the peer at the given websocket
// URL, reconnecting with backoff if the connection drops.
func DialWS(url string, log zerolog.Logger) *WSEndpoint {
	e := newWSEndpoint(log)
	go e.dialLoop(url)
	return e
}

// ListenWS returns an endpoint that accepts the peer on addr.  Sends go to
// the most recently accepted connection; further connections are not
// refused.
func ListenWS(addr string, log zerolog.Logger) (*WSEndpoint, error) {
	e := newWSEndpoint(log)
	var up websocket.Upgrader
	e.server = &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter,
			r *http.Request) {
			c, err := up.Upgrade(w, r, nil)
			if err != nil {
				e.log.Warn().Err(err).Msg("websocket upgrade failed")
				return
			}
			e.log.Info().Str("peer", r.RemoteAddr).Msg("peer connected")
			e.setConn(c)
			e.readLoop(c)
			e.setConn(nil)
		}),
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	e.ln = ln
	go e.server.Serve(ln)
	return e, nil
}

func (e *WSEndpoint) dialLoop(url string) {
	delay := wsReconnectDelay
	for {
		select {
		case <-e.done:
			return
		default:
		}
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			e.log.Warn().Err(err).Dur("retry", delay).
				Msg("websocket dial failed")
			select {
			case <-e.done:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > wsMaxReconnectDelay {
				delay = wsMaxReconnectDelay
			}
			continue
		}
		e.log.Info().Str("url", url).Msg("connected")
		delay = wsReconnectDelay
		e.setConn(c)
		e.readLoop(c)
		e.setConn(nil)
	}
}

// readLoop reads frames into the latest slot until the connection fails.
// Only the newest frame is kept; the interface resynchronizes from the
// latest state regardless of skips.
func (e *WSEndpoint) readLoop(c *websocket.Conn) {
	for {
		_, b, err := c.ReadMessage()
		if err != nil {
			e.log.Warn().Err(err).Msg("websocket read failed")
			c.Close()
			return
		}
		e.mu.Lock()
		e.latest = append(e.latest[:0], b...)
		e.fresh = true
		e.mu.Unlock()
	}
}

func (e *WSEndpoint) setConn(c *websocket.Conn) {
	e.mu.Lock()
	if e.conn != nil && c == nil {
		e.conn.Close()
	}
	e.conn = c
	e.mu.Unlock()
}

// Send implements Endpoint.  Frames sent while disconnected are dropped.
func (e *WSEndpoint) Send(p *Payload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil
	}
	e.buf = p.AppendBinary(e.buf[:0])
	return e.conn.WriteMessage(websocket.BinaryMessage, e.buf)
}

// Poll implements Endpoint.
func (e *WSEndpoint) Poll(p *Payload) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.fresh {
		return false, nil
	}
	e.fresh = false
	if e.scratch == nil {
		e.scratch = NewPayload(len(p.X), len(p.TC))
	}
	if err := e.scratch.UnmarshalBinary(e.latest); err != nil {
		return false, err
	}
	p.CopyFrom(e.scratch)
	return true, nil
}

// Close shuts the endpoint down.
func (e *WSEndpoint) Close() error {
	close(e.done)
	e.setConn(nil)
	if e.server != nil {
		return e.server.Close()
	}
	return nil
}
