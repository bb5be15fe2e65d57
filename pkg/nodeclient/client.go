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

// Package nodeclient keeps a node registered with the registry: it connects,
// heartbeats, reconnects after repeated failures, and caches whatever the
// registry hands back (actions, config, discovered peer ports).
package nodeclient

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/schema"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

const (
	DefaultHeartbeatInterval = 300 * time.Millisecond
	DefaultReconnectInterval = 2 * time.Second
	maxHeartbeatFailures     = 3
	stopTimeout              = 200 * time.Millisecond
)

type Client struct {
	name              string
	registry          RegistryClient
	payload           PayloadProvider
	clock             clock.Clock
	logger            logger.Logger
	heartbeatInterval time.Duration
	reconnectInterval time.Duration
	verboseActions    bool

	mu            sync.Mutex
	state         State
	nodeID        string
	lastSuccess   bool
	failures      int
	configSchema  schema.ConfigSchema
	commandSchema schema.ActionSchema

	cacheMu       sync.Mutex
	actions       []models.Action
	configChanges []interface{}
	remote        models.RemoteData
	hasRemote     bool

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Client)

func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.heartbeatInterval = d
		}
	}
}

func WithReconnectInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectInterval = d
		}
	}
}

func WithRegistryClient(rc RegistryClient) Option {
	return func(c *Client) {
		if rc != nil {
			c.registry = rc
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

func WithPayloadProvider(p PayloadProvider) Option {
	return func(c *Client) {
		c.payload = p
	}
}

// WithVerboseActions logs every received action at info level.
func WithVerboseActions(v bool) Option {
	return func(c *Client) {
		c.verboseActions = v
	}
}

func WithSchemas(config schema.ConfigSchema, command schema.ActionSchema) Option {
	return func(c *Client) {
		c.configSchema = config.Clone()
		c.commandSchema = command.Clone()
	}
}

// New creates a client for nodeName talking to the registry at DefaultRegistryURL
// unless WithRegistryClient is given.
func New(nodeName string, opts ...Option) *Client {
	c := &Client{
		name:              nodeName,
		clock:             clock.New(),
		logger:            logger.NewTestLogger(),
		heartbeatInterval: DefaultHeartbeatInterval,
		reconnectInterval: DefaultReconnectInterval,
		state:             StateDisconnected,
		configSchema:      schema.ConfigSchema{},
		commandSchema:     schema.ActionSchema{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = NewHTTPRegistryClient(DefaultRegistryURL, 0)
	}

	return c
}

func (c *Client) Name() string { return c.name }

// Start makes one immediate connection attempt and then runs the heartbeat
// loop in the background until ctx is canceled or Stop is called. It never
// fails; an unreachable registry just leaves the client reconnecting.
func (c *Client) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.running {
		return nil
	}

	if c.connect(ctx) {
		c.logger.Info().Str("node_name", c.name).Str("node_id", c.NodeID()).Msg("Node client connected")
	} else {
		c.logger.Info().Str("node_name", c.name).Msg("Registry unavailable, will reconnect automatically")
		c.enterReconnecting()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.run(loopCtx, c.done)

	return nil
}

// Stop ends the loop and disconnects from the registry if connected.
func (c *Client) Stop(ctx context.Context) error {
	c.runMu.Lock()

	if !c.running {
		c.runMu.Unlock()
		return nil
	}

	c.running = false
	c.cancel()
	done := c.done

	c.runMu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(stopTimeout):
	}

	c.mu.Lock()
	connected := c.state == StateConnected
	nodeID := c.nodeID
	c.mu.Unlock()

	if connected && nodeID != "" {
		if _, err := c.registry.Disconnect(ctx, &models.DisconnectRequest{NodeID: nodeID}); err != nil {
			c.logger.Debug().Err(err).Str("node_id", nodeID).Msg("Disconnect failed")
		}
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.lastSuccess = false
	c.mu.Unlock()

	c.logger.Info().Str("node_name", c.name).Msg("Node client stopped")

	return nil
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := c.step(ctx)

		if ctx.Err() != nil {
			return
		}

		if wait <= 0 {
			continue
		}

		timer := c.clock.Timer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// step performs one iteration of the loop and returns how long to wait before
// the next one.
func (c *Client) step(ctx context.Context) time.Duration {
	if c.State() == StateReconnecting {
		if !c.connect(ctx) {
			return c.reconnectInterval
		}

		c.logger.Info().Str("node_name", c.name).Str("node_id", c.NodeID()).Msg("Node client reconnected")

		return 0
	}

	if c.sendHeartbeat(ctx) {
		c.mu.Lock()
		c.failures = 0
		c.mu.Unlock()

		return c.heartbeatInterval
	}

	c.mu.Lock()
	c.failures++
	failures := c.failures
	c.mu.Unlock()

	if failures >= maxHeartbeatFailures {
		c.logger.Warn().Str("node_name", c.name).Int("failures", failures).Msg("Lost connection to registry")
		c.enterReconnecting()
	}

	return c.heartbeatInterval
}

func (c *Client) connect(ctx context.Context) bool {
	c.mu.Lock()
	configSchema := c.configSchema.Clone()
	commandSchema := c.commandSchema.Clone()
	c.mu.Unlock()

	resp, err := c.registry.Connect(ctx, &models.ConnectRequest{
		NodeName:      c.name,
		ConfigSchema:  &configSchema,
		CommandSchema: &commandSchema,
	})
	if err != nil || resp == nil || resp.MessageType != models.MessageTypeSuccess {
		if err != nil {
			c.logger.Debug().Err(err).Str("node_name", c.name).Msg("Connect failed")
		}

		return false
	}

	c.mu.Lock()
	c.nodeID = resp.NodeID
	c.state = StateConnected
	c.lastSuccess = true
	c.failures = 0
	c.mu.Unlock()

	c.mergeRemote(resp.RemotePorts)

	return true
}

func (c *Client) enterReconnecting() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateReconnecting
	c.lastSuccess = false
	c.nodeID = ""
}

func (c *Client) sendHeartbeat(ctx context.Context) bool {
	c.mu.Lock()
	nodeID := c.nodeID
	c.mu.Unlock()

	if nodeID == "" {
		c.setLastSuccess(false)
		return false
	}

	req := &models.HeartbeatRequest{
		NodeID:    nodeID,
		NodeName:  c.name,
		Timestamp: epochSeconds(c.clock.Now()),
	}

	if c.payload != nil {
		if payload, err := c.payload.Payload(ctx); err == nil {
			req.Payload = payload
		} else {
			c.logger.Debug().Err(err).Msg("Heartbeat payload unavailable")
		}
	}

	resp, err := c.registry.Heartbeat(ctx, req)
	if err != nil || resp == nil {
		c.logger.Debug().Err(err).Str("node_id", nodeID).Msg("Heartbeat failed")
		c.setLastSuccess(false)

		return false
	}

	c.processResponse(resp)
	c.setLastSuccess(true)

	return true
}

func (c *Client) processResponse(resp *models.HeartbeatResponse) {
	if c.verboseActions {
		for _, a := range resp.Actions {
			c.logger.Info().Str("action", a.Name).Interface("params", a.Params).Msg("Received action")
		}
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.actions = append(c.actions, resp.Actions...)

	if resp.RemotePorts != nil {
		c.remote.Merge(resp.RemotePorts)
		c.hasRemote = true
	}

	if len(resp.ConfigUpdate) > 0 {
		c.configChanges = append([]interface{}(nil), resp.ConfigUpdate...)
	}
}

func (c *Client) mergeRemote(remote *models.RemoteData) {
	if remote == nil {
		return
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.remote.Merge(remote)
	c.hasRemote = true
}

func (c *Client) setLastSuccess(ok bool) {
	c.mu.Lock()
	c.lastSuccess = ok
	c.mu.Unlock()
}

// UpdateSchemas stores new schemas and, only while connected, pushes them to the
// registry. A push attempted while disconnected is dropped; the stored schemas
// still go out with the next Connect.
func (c *Client) UpdateSchemas(ctx context.Context, config *schema.ConfigSchema, command *schema.ActionSchema) {
	c.mu.Lock()

	if config != nil {
		c.configSchema = config.Clone()
	}

	if command != nil {
		c.commandSchema = command.Clone()
	}

	connected := c.state == StateConnected
	nodeID := c.nodeID

	c.mu.Unlock()

	if !connected || nodeID == "" {
		c.logger.Debug().Str("node_name", c.name).Msg("Schema update not pushed while disconnected")
		return
	}

	req := &models.HeartbeatRequest{
		NodeID:    nodeID,
		NodeName:  c.name,
		Timestamp: epochSeconds(c.clock.Now()),
	}

	if config != nil {
		cfg := config.Clone()
		req.ConfigSchema = &cfg
	}

	if command != nil {
		cmd := command.Clone()
		req.CommandSchema = &cmd
	}

	if _, err := c.registry.Heartbeat(ctx, req); err != nil {
		c.logger.Debug().Err(err).Msg("Schema push failed")
		return
	}

	c.logger.Info().Str("node_name", c.name).Msg("Updated schemas")
}

// GetPendingActions drains the action queue.
func (c *Client) GetPendingActions() []models.Action {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	out := c.actions
	c.actions = nil

	return out
}

// GetConfigChanges drains the latest config vector received from the registry.
func (c *Client) GetConfigChanges() []interface{} {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	out := c.configChanges
	c.configChanges = nil

	return out
}

// GetRemoteDiscovery returns a copy of the peer view learned from the registry.
func (c *Client) GetRemoteDiscovery() (models.RemoteData, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if !c.hasRemote {
		return models.RemoteData{}, false
	}

	return *c.remote.Clone(), true
}

// IsConnected is true only when connected and the latest heartbeat succeeded.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state == StateConnected && c.lastSuccess
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Client) NodeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nodeID
}

func (c *Client) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.failures
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
