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

package models

import (
	"encoding/json"
	"time"

	"github.com/carverauto/noderadar/pkg/schema"
)

// NodeStatus is the liveness classification of a registered node.
type NodeStatus string

const (
	NodeAlive NodeStatus = "alive"
	NodeDead  NodeStatus = "dead"
)

const (
	ReasonDisconnected = "disconnected"
	ReasonTimeout      = "timeout"
)

// LifeStatus records whether a node is alive, why it died, and when it was last seen.
type LifeStatus struct {
	Status   NodeStatus `json:"status"`
	Reason   *string    `json:"reason"`
	LastSeen time.Time  `json:"last_seen"`
}

// ReasonString returns the reason or an empty string.
func (l LifeStatus) ReasonString() string {
	if l.Reason == nil {
		return ""
	}

	return *l.Reason
}

// ChangeFlags mark what changed since the registry was last read.
type ChangeFlags struct {
	ConfigSchema  bool `json:"config_schema"`
	CommandSchema bool `json:"command_schema"`
	NewNode       bool `json:"new_node"`
	StatusUpdate  bool `json:"status_update"`
}

// Any reports whether any flag is set.
func (c ChangeFlags) Any() bool {
	return c.ConfigSchema || c.CommandSchema || c.NewNode || c.StatusUpdate
}

// Node is the registry's record of one logical node identity.
type Node struct {
	NodeID          string              `json:"node_id"`
	NodeName        string              `json:"node_name"`
	ConfigSchema    schema.ConfigSchema `json:"config_schema"`
	CommandSchema   schema.ActionSchema `json:"command_schema"`
	LifeStatus      LifeStatus          `json:"life_status"`
	LastMessageTime time.Time           `json:"last_message_time"`
	PayloadQueue    []json.RawMessage   `json:"payload_queue"`
	ChangeFlags     ChangeFlags         `json:"change_flags"`
}

// NewNode returns an alive node first seen at t.
func NewNode(name, id string, t time.Time) *Node {
	return &Node{
		NodeID:          id,
		NodeName:        name,
		LastMessageTime: t,
		LifeStatus:      LifeStatus{Status: NodeAlive, LastSeen: t},
		PayloadQueue:    []json.RawMessage{},
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	out := *n
	out.ConfigSchema = n.ConfigSchema.Clone()
	out.CommandSchema = n.CommandSchema.Clone()

	if n.LifeStatus.Reason != nil {
		reason := *n.LifeStatus.Reason
		out.LifeStatus.Reason = &reason
	}

	out.PayloadQueue = make([]json.RawMessage, len(n.PayloadQueue))

	for i, p := range n.PayloadQueue {
		out.PayloadQueue[i] = append(json.RawMessage(nil), p...)
	}

	return &out
}

// IsAlive reports whether the node is currently classified alive.
func (n *Node) IsAlive() bool {
	return n.LifeStatus.Status == NodeAlive
}
