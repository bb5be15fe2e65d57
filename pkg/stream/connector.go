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

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/metrics"
)

const (
	transportTCP       = "tcp"
	readBufferSize     = 4096
	readTimeout        = 100 * time.Millisecond
	defaultDialTimeout = 2 * time.Second
)

var ErrNoDestination = errors.New("stream destination host or port not set")

// Connector owns one TCP connection and a single worker that alternates
// between sending one queued frame and polling for inbound frames.
type Connector struct {
	logger      logger.Logger
	dialTimeout time.Duration
	maxFrame    int

	lifeMu sync.Mutex
	host   string
	port   int
	conn   net.Conn
	cancel context.CancelFunc
	done   chan struct{}

	connected atomic.Bool

	qMu    sync.Mutex
	outbox [][]byte
	inbox  []json.RawMessage
}

type Option func(*Connector)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithMaxFrameSize(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxFrame = n
		}
	}
}

func NewConnector(log logger.Logger, opts ...Option) *Connector {
	if log == nil {
		log = logger.NewTestLogger()
	}

	c := &Connector{
		logger:      log,
		dialTimeout: defaultDialTimeout,
		maxFrame:    MaxFrameSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect dials host:port and starts the worker. An existing connection is
// torn down first; queued messages are kept.
func (c *Connector) Connect(ctx context.Context, host string, port int) error {
	if host == "" || port <= 0 {
		return fmt.Errorf("%w (host=%q, port=%d)", ErrNoDestination, host, port)
	}

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.stopLocked()

	c.host = host
	c.port = port

	dialer := net.Dialer{Timeout: c.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		c.logger.Warn().Err(err).Str("host", host).Int("port", port).Msg("Stream connection failed")
		return err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	c.done = make(chan struct{})
	c.connected.Store(true)

	go c.worker(workerCtx, conn, c.done)

	c.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Stream connected")

	return nil
}

// Disconnect closes the socket and waits for the worker to exit.
func (c *Connector) Disconnect() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.stopLocked()
}

func (c *Connector) stopLocked() {
	c.connected.Store(false)

	if c.cancel == nil {
		return
	}

	c.cancel()
	_ = c.conn.Close()
	<-c.done

	c.cancel = nil
	c.conn = nil
	c.done = nil
}

// Reconnect tears everything down, drops both queues, and connects to the new
// destination.
func (c *Connector) Reconnect(ctx context.Context, host string, port int) error {
	c.Disconnect()
	c.clearQueues()

	return c.Connect(ctx, host, port)
}

// Send queues v for the worker. It reports false when not connected or when v
// cannot be encoded.
func (c *Connector) Send(v interface{}) bool {
	if !c.connected.Load() {
		return false
	}

	data, err := EncodeFrame(v)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping unencodable stream message")
		return false
	}

	c.qMu.Lock()
	c.outbox = append(c.outbox, data)
	c.qMu.Unlock()

	return true
}

// Received drains every decoded inbound message.
func (c *Connector) Received() []json.RawMessage {
	c.qMu.Lock()
	defer c.qMu.Unlock()

	out := c.inbox
	c.inbox = nil

	return out
}

func (c *Connector) IsConnected() bool {
	return c.connected.Load()
}

// Destination returns the host and port last passed to Connect.
func (c *Connector) Destination() (string, int) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	return c.host, c.port
}

func (c *Connector) clearQueues() {
	c.qMu.Lock()
	c.outbox = nil
	c.inbox = nil
	c.qMu.Unlock()
}

func (c *Connector) popOutbound() []byte {
	c.qMu.Lock()
	defer c.qMu.Unlock()

	if len(c.outbox) == 0 {
		return nil
	}

	data := c.outbox[0]
	c.outbox = c.outbox[1:]

	return data
}

func (c *Connector) pushInbound(msg json.RawMessage) {
	c.qMu.Lock()
	c.inbox = append(c.inbox, msg)
	c.qMu.Unlock()
}

func (c *Connector) worker(ctx context.Context, conn net.Conn, done chan struct{}) {
	defer close(done)

	frames := NewFrameBuffer(c.maxFrame)
	buf := make([]byte, readBufferSize)

	for ctx.Err() == nil {
		if data := c.popOutbound(); data != nil {
			if _, err := conn.Write(data); err != nil {
				metrics.RecordSendError(ctx, transportTCP)
				c.fail(ctx, err)

				return
			}

			metrics.RecordFrameSent(ctx, transportTCP, "json", 1, len(data))
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.fail(ctx, err)
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			frames.Write(buf[:n])

			if err := c.drainFrames(ctx, frames); err != nil {
				c.fail(ctx, err)
				return
			}
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			c.fail(ctx, err)

			return
		}
	}
}

func (c *Connector) drainFrames(ctx context.Context, frames *FrameBuffer) error {
	payloads, err := frames.Frames()

	for _, p := range payloads {
		if !json.Valid(p) {
			c.logger.Warn().Int("size", len(p)).Msg("Dropping malformed stream frame")
			continue
		}

		c.pushInbound(p)
		metrics.RecordFrameReceived(ctx, transportTCP)
	}

	return err
}

func (c *Connector) fail(ctx context.Context, err error) {
	c.connected.Store(false)

	if ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("Stream worker stopped")
	}
}
