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

// Package registry keeps the authoritative table of connected nodes, their
// liveness, and the config and actions waiting to be delivered to them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/metrics"
	"github.com/carverauto/noderadar/pkg/models"
)

const DefaultNodeExpiry = time.Second

// Registry is safe for concurrent use. mu guards the node table, the name
// counters, the outbound cache and the remote data; paramMu guards expiry.
type Registry struct {
	mu           sync.Mutex
	nodes        map[string]*models.Node
	nameCounters map[string]int
	outbound     map[string]*models.OutboundMessages
	remote       *models.RemoteData

	paramMu sync.RWMutex
	expiry  time.Duration

	clock  clock.Clock
	logger logger.Logger

	stopOnce sync.Once
	done     chan struct{}
}

type Option func(*Registry)

func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

func WithNodeExpiry(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.expiry = d
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		nodes:        make(map[string]*models.Node),
		nameCounters: make(map[string]int),
		outbound:     make(map[string]*models.OutboundMessages),
		expiry:       DefaultNodeExpiry,
		clock:        clock.New(),
		logger:       logger.NewTestLogger(),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ConnectResult is what a successful Connect hands back to the node.
type ConnectResult struct {
	NodeID      string
	RemotePorts *models.RemoteData
}

// HeartbeatResult carries the remote view and any outbound messages drained
// for the node. HasOutbound is false when nothing was ever queued for it.
type HeartbeatResult struct {
	NodeID       string
	RemotePorts  *models.RemoteData
	HasOutbound  bool
	ConfigUpdate []interface{}
	Actions      []models.Action
}

// Connect registers a node. A dead node with the same name gives up its id;
// otherwise a fresh "<name>_<n>" id is allocated from a per-name counter starting at 1.
func (r *Registry) Connect(ctx context.Context, req *models.ConnectRequest) (*ConnectResult, error) {
	if req == nil || req.NodeName == "" {
		metrics.RecordControlRequest(ctx, "connect", metrics.OutcomeRejected)
		return nil, &ValidationError{Fields: []string{"node_name"}}
	}

	now := r.clock.Now()

	r.mu.Lock()

	nodeID, reused := r.findDeadByNameLocked(req.NodeName)
	if !reused {
		r.nameCounters[req.NodeName]++
		nodeID = fmt.Sprintf("%s_%d", req.NodeName, r.nameCounters[req.NodeName])
	}

	node := models.NewNode(req.NodeName, nodeID, now)
	node.ChangeFlags.NewNode = true

	appendPayload(node, req.Payload)

	if req.ConfigSchema != nil {
		node.ConfigSchema = req.ConfigSchema.Clone()
		node.ChangeFlags.ConfigSchema = true
	}

	if req.CommandSchema != nil {
		node.CommandSchema = req.CommandSchema.Clone()
		node.ChangeFlags.CommandSchema = true
	}

	r.nodes[nodeID] = node
	remote := r.remoteLocked()

	r.mu.Unlock()

	metrics.RecordControlRequest(ctx, "connect", metrics.OutcomeSuccess)
	metrics.RecordNodeTransition(ctx, metrics.TransitionConnected)

	r.logger.Info().
		Str("node_id", nodeID).
		Str("node_name", req.NodeName).
		Bool("reused_id", reused).
		Msg("Node connected")

	return &ConnectResult{NodeID: nodeID, RemotePorts: remote}, nil
}

func (r *Registry) findDeadByNameLocked(name string) (string, bool) {
	ids := make([]string, 0, len(r.nodes))

	for id, n := range r.nodes {
		if n.NodeName == name && !n.IsAlive() {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return "", false
	}

	// deterministic when several dead nodes share a name
	sort.Strings(ids)

	return ids[0], true
}

// Disconnect marks a node dead with reason "disconnected".
func (r *Registry) Disconnect(ctx context.Context, nodeID string) error {
	if nodeID == "" {
		metrics.RecordControlRequest(ctx, "disconnect", metrics.OutcomeRejected)
		return &ValidationError{Fields: []string{"node_id"}}
	}

	now := r.clock.Now()

	r.mu.Lock()

	node, ok := r.nodes[nodeID]
	if !ok {
		r.mu.Unlock()
		metrics.RecordControlRequest(ctx, "disconnect", metrics.OutcomeUnknownNode)

		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}

	reason := models.ReasonDisconnected
	node.LifeStatus = models.LifeStatus{Status: models.NodeDead, Reason: &reason, LastSeen: now}
	node.ChangeFlags.StatusUpdate = true

	r.mu.Unlock()

	metrics.RecordControlRequest(ctx, "disconnect", metrics.OutcomeSuccess)
	metrics.RecordNodeTransition(ctx, metrics.TransitionDisconnected)

	r.logger.Info().Str("node_id", nodeID).Msg("Node disconnected")

	return nil
}

// Heartbeat refreshes a node and drains its pending actions. The cached config
// stays in place and is repeated on every heartbeat until replaced.
func (r *Registry) Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*HeartbeatResult, error) {
	if err := validateHeartbeat(req); err != nil {
		metrics.RecordControlRequest(ctx, "data", metrics.OutcomeRejected)
		return nil, err
	}

	now := r.clock.Now()

	r.mu.Lock()

	node, ok := r.nodes[req.NodeID]
	if !ok {
		r.mu.Unlock()
		metrics.RecordControlRequest(ctx, "data", metrics.OutcomeUnknownNode)

		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, req.NodeID)
	}

	node.LastMessageTime = now
	appendPayload(node, req.Payload)

	if req.ConfigSchema != nil {
		node.ConfigSchema = req.ConfigSchema.Clone()
		node.ChangeFlags.ConfigSchema = true
	}

	if req.CommandSchema != nil {
		node.CommandSchema = req.CommandSchema.Clone()
		node.ChangeFlags.CommandSchema = true
	}

	result := &HeartbeatResult{NodeID: req.NodeID, RemotePorts: r.remoteLocked()}

	if entry, ok := r.outbound[req.NodeID]; ok {
		result.HasOutbound = true
		result.ConfigUpdate = cloneConfig(entry.Config)
		result.Actions = entry.Actions
		entry.Actions = []models.Action{}
	}

	r.mu.Unlock()

	metrics.RecordControlRequest(ctx, "data", metrics.OutcomeSuccess)

	r.logger.Debug().
		Str("node_id", req.NodeID).
		Int("actions", len(result.Actions)).
		Msg("Heartbeat")

	return result, nil
}

func validateHeartbeat(req *models.HeartbeatRequest) error {
	if req == nil {
		return &ValidationError{Fields: []string{"node_id", "node_name", "timestamp"}}
	}

	var missing []string

	if req.NodeID == "" {
		missing = append(missing, "node_id")
	}

	if req.NodeName == "" {
		missing = append(missing, "node_name")
	}

	if req.Timestamp == 0 {
		missing = append(missing, "timestamp")
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	return nil
}

// GetNodeRegistry returns a deep copy of every node, then clears change flags
// and payload queues on the live table. The copy is the only record of what
// changed since the previous call.
func (r *Registry) GetNodeRegistry() map[string]*models.Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]*models.Node, len(r.nodes))

	for id, n := range r.nodes {
		snapshot[id] = n.Clone()
		n.ChangeFlags = models.ChangeFlags{}
		n.PayloadQueue = []json.RawMessage{}
	}

	return snapshot
}

// Nodes returns deep copies sorted by id without clearing anything.
func (r *Registry) Nodes() []*models.Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })

	return out
}

func (r *Registry) Node(nodeID string) (*models.Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return nil, false
	}

	return n.Clone(), true
}

// AddOutboundMessages queues config and actions for nodeID. A non-empty config
// replaces the cached one; actions accumulate in call order.
func (r *Registry) AddOutboundMessages(ctx context.Context, nodeID string, config []interface{}, actions []models.Action) {
	r.mu.Lock()

	entry, ok := r.outbound[nodeID]
	if !ok {
		entry = &models.OutboundMessages{Config: []interface{}{}, Actions: []models.Action{}}
		r.outbound[nodeID] = entry
	}

	if len(config) > 0 {
		entry.Config = cloneConfig(config)
	}

	entry.Actions = append(entry.Actions, actions...)

	r.mu.Unlock()

	metrics.RecordOutboundActions(ctx, len(actions))
}

// Outbound returns a copy of the pending entry for nodeID.
func (r *Registry) Outbound(nodeID string) (models.OutboundMessages, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.outbound[nodeID]
	if !ok {
		return models.OutboundMessages{}, false
	}

	return models.OutboundMessages{
		Config:  cloneConfig(entry.Config),
		Actions: append([]models.Action(nil), entry.Actions...),
	}, true
}

// UpdateRemoteData sets the peer view mirrored into every response. nil clears it.
func (r *Registry) UpdateRemoteData(data *models.RemoteData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remote = data.Clone()
}

func (r *Registry) RemoteData() *models.RemoteData {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.remoteLocked()
}

func (r *Registry) remoteLocked() *models.RemoteData {
	if r.remote.IsEmpty() {
		return nil
	}

	return r.remote.Clone()
}

func (r *Registry) SetNodeExpiryTimeout(d time.Duration) error {
	if d <= 0 {
		return &ValidationError{Fields: []string{"node_expiry"}}
	}

	r.paramMu.Lock()
	r.expiry = d
	r.paramMu.Unlock()

	r.logger.Info().Dur("node_expiry", d).Msg("Node expiry updated")

	return nil
}

func (r *Registry) NodeExpiryTimeout() time.Duration {
	r.paramMu.RLock()
	defer r.paramMu.RUnlock()

	return r.expiry
}

func appendPayload(node *models.Node, payload json.RawMessage) {
	if len(payload) == 0 || string(payload) == "null" {
		return
	}

	node.PayloadQueue = append(node.PayloadQueue, append(json.RawMessage(nil), payload...))
}

func cloneConfig(config []interface{}) []interface{} {
	if config == nil {
		return nil
	}

	return append([]interface{}(nil), config...)
}
