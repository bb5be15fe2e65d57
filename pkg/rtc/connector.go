/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package rtc opens a WebRTC data channel to a peer, negotiated over a plain
// websocket signaling exchange (one offer, one answer).
package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/carverauto/noderadar/pkg/logger"
)

const (
	defaultLabel         = "noderadar"
	defaultAnswerTimeout = 10 * time.Second
)

var (
	ErrNoDestination = errors.New("rtc destination host or port not set")
	ErrNoAnswer      = errors.New("signaling closed before an answer arrived")
)

// SignalMessage is exchanged over the signaling websocket.
type SignalMessage struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type Connector struct {
	logger        logger.Logger
	dialer        *websocket.Dialer
	api           *webrtc.API
	config        webrtc.Configuration
	label         string
	answerTimeout time.Duration

	mu   sync.Mutex
	host string
	port int
	ws   *websocket.Conn
	pc   *webrtc.PeerConnection
	dc   *webrtc.DataChannel

	connected atomic.Bool

	inMu  sync.Mutex
	inbox []json.RawMessage
}

type Option func(*Connector)

func WithLogger(log logger.Logger) Option {
	return func(c *Connector) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithSettingEngine builds peer connections from a customized pion API.
func WithSettingEngine(se webrtc.SettingEngine) Option {
	return func(c *Connector) {
		c.api = webrtc.NewAPI(webrtc.WithSettingEngine(se))
	}
}

func WithICEServers(urls ...string) Option {
	return func(c *Connector) {
		if len(urls) > 0 {
			c.config.ICEServers = []webrtc.ICEServer{{URLs: urls}}
		}
	}
}

func WithLabel(label string) Option {
	return func(c *Connector) {
		if label != "" {
			c.label = label
		}
	}
}

func WithAnswerTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.answerTimeout = d
		}
	}
}

func NewConnector(opts ...Option) *Connector {
	c := &Connector{
		logger:        logger.NewTestLogger(),
		dialer:        websocket.DefaultDialer,
		api:           webrtc.NewAPI(),
		label:         defaultLabel,
		answerTimeout: defaultAnswerTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect dials the signaling websocket at ws://host:port, sends an offer with
// every gathered candidate, and applies the answer. The data channel opens
// asynchronously once ICE completes.
func (c *Connector) Connect(ctx context.Context, host string, port int) error {
	if host == "" || port <= 0 {
		return fmt.Errorf("%w (host=%q, port=%d)", ErrNoDestination, host, port)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	c.host = host
	c.port = port

	ctx, cancel := context.WithTimeout(ctx, c.answerTimeout)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, strconv.Itoa(port))}

	ws, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("signaling dial %s: %w", u.String(), err)
	}

	pc, dc, err := c.newPeer()
	if err != nil {
		_ = ws.Close()
		return err
	}

	c.ws, c.pc, c.dc = ws, pc, dc

	if err := c.negotiate(ctx, ws, pc); err != nil {
		c.closeLocked()
		return err
	}

	c.connected.Store(true)
	c.logger.Info().Str("peer", u.Host).Msg("RTC peer negotiated")

	return nil
}

func (c *Connector) newPeer() (*webrtc.PeerConnection, *webrtc.DataChannel, error) {
	pc, err := c.api.NewPeerConnection(c.config)
	if err != nil {
		return nil, nil, fmt.Errorf("create peer connection: %w", err)
	}

	dc, err := pc.CreateDataChannel(c.label, nil)
	if err != nil {
		_ = pc.Close()
		return nil, nil, fmt.Errorf("create data channel: %w", err)
	}

	dc.OnOpen(func() {
		c.logger.Debug().Str("label", dc.Label()).Msg("Data channel open")
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !json.Valid(msg.Data) {
			c.logger.Warn().Int("size", len(msg.Data)).Msg("Dropping malformed data channel message")
			return
		}

		c.inMu.Lock()
		c.inbox = append(c.inbox, append(json.RawMessage(nil), msg.Data...))
		c.inMu.Unlock()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			c.connected.Store(false)
			c.logger.Debug().Str("state", state.String()).Msg("RTC peer connection lost")
		default:
		}
	})

	return pc, dc, nil
}

func (c *Connector) negotiate(ctx context.Context, ws *websocket.Conn, pc *webrtc.PeerConnection) error {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)

	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return fmt.Errorf("ice gathering: %w", ctx.Err())
	}

	local := pc.LocalDescription()
	if err := ws.WriteJSON(SignalMessage{Type: "offer", SDP: local.SDP}); err != nil {
		return fmt.Errorf("send offer: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
	}

	for {
		var msg SignalMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return fmt.Errorf("%w: %w", ErrNoAnswer, err)
		}

		if msg.Type != "answer" {
			continue
		}

		answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.SDP}
		if err := pc.SetRemoteDescription(answer); err != nil {
			return fmt.Errorf("set remote description: %w", err)
		}

		return nil
	}
}

func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
}

func (c *Connector) closeLocked() {
	c.connected.Store(false)

	if c.pc != nil {
		if err := c.pc.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Peer connection close failed")
		}
	}

	if c.ws != nil {
		_ = c.ws.Close()
	}

	c.pc, c.dc, c.ws = nil, nil, nil
}

// Reconnect drops the current peer and any undelivered messages, then connects anew.
func (c *Connector) Reconnect(ctx context.Context, host string, port int) error {
	c.Disconnect()

	c.inMu.Lock()
	c.inbox = nil
	c.inMu.Unlock()

	return c.Connect(ctx, host, port)
}

func (c *Connector) IsConnected() bool {
	return c.connected.Load()
}

// IsOpen reports whether the data channel can carry messages yet.
func (c *Connector) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dc != nil && c.dc.ReadyState() == webrtc.DataChannelStateOpen
}

// Send writes v as JSON on the data channel. It reports false until the
// channel is open.
func (c *Connector) Send(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping unencodable rtc message")
		return false
	}

	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return false
	}

	if err := dc.Send(data); err != nil {
		c.logger.Debug().Err(err).Msg("Data channel send failed")
		return false
	}

	return true
}

// Received drains messages read from the data channel.
func (c *Connector) Received() []json.RawMessage {
	c.inMu.Lock()
	defer c.inMu.Unlock()

	out := c.inbox
	c.inbox = nil

	return out
}

// PeerConnection exposes the underlying connection for adding media tracks.
func (c *Connector) PeerConnection() *webrtc.PeerConnection {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pc
}

func (c *Connector) Destination() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.host, c.port
}
