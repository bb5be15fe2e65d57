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
	"errors"
	"fmt"

	"github.com/carverauto/noderadar/pkg/schema"
)

var errInvalidAction = errors.New("action must be a non-empty [name, params] list")

// Control-plane message_type values.
const (
	MessageTypeSuccess           = "success"
	MessageTypeError             = "error"
	MessageTypeHeartbeatResponse = "heartbeat_response"
)

// Action is a named command delivered to a node, encoded as [name, params].
type Action struct {
	Name   string
	Params []interface{}
}

// MarshalJSON implements json.Marshaler.
func (a Action) MarshalJSON() ([]byte, error) {
	params := a.Params
	if params == nil {
		params = []interface{}{}
	}

	return json.Marshal([]interface{}{a.Name, params})
}

// UnmarshalJSON accepts [name] or [name, params]. A non-list params value is
// wrapped into a single-element list.
func (a *Action) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("%w: %w", errInvalidAction, err)
	}

	if len(parts) == 0 {
		return errInvalidAction
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return fmt.Errorf("%w: name: %w", errInvalidAction, err)
	}

	params := []interface{}{}

	if len(parts) > 1 {
		var raw interface{}
		if err := json.Unmarshal(parts[1], &raw); err != nil {
			return fmt.Errorf("%w: params: %w", errInvalidAction, err)
		}

		switch v := raw.(type) {
		case []interface{}:
			params = v
		case nil:
		default:
			params = []interface{}{v}
		}
	}

	a.Name = name
	a.Params = params

	return nil
}

// OutboundMessages is the per-node cache of config and actions awaiting delivery.
type OutboundMessages struct {
	Config  []interface{} `json:"config"`
	Actions []Action      `json:"actions"`
}

// RemoteData is the discovered peer view mirrored to nodes as remote_ports.
type RemoteData struct {
	RemoteIP    string         `json:"remote_ip,omitempty"`
	RemotePorts map[string]int `json:"remote_ports,omitempty"`
}

// Clone returns a deep copy.
func (r *RemoteData) Clone() *RemoteData {
	if r == nil {
		return nil
	}

	out := &RemoteData{RemoteIP: r.RemoteIP}

	if r.RemotePorts != nil {
		out.RemotePorts = make(map[string]int, len(r.RemotePorts))
		for k, v := range r.RemotePorts {
			out.RemotePorts[k] = v
		}
	}

	return out
}

// Merge overlays the fields present in other onto r.
func (r *RemoteData) Merge(other *RemoteData) {
	if other == nil {
		return
	}

	if other.RemoteIP != "" {
		r.RemoteIP = other.RemoteIP
	}

	if other.RemotePorts != nil {
		r.RemotePorts = make(map[string]int, len(other.RemotePorts))
		for k, v := range other.RemotePorts {
			r.RemotePorts[k] = v
		}
	}
}

// IsEmpty reports whether no peer information is present.
func (r *RemoteData) IsEmpty() bool {
	return r == nil || (r.RemoteIP == "" && len(r.RemotePorts) == 0)
}

// ConnectRequest registers a node. Absent optional fields stay nil.
type ConnectRequest struct {
	NodeName      string               `json:"node_name"`
	ConfigSchema  *schema.ConfigSchema `json:"config_schema,omitempty"`
	CommandSchema *schema.ActionSchema `json:"command_schema,omitempty"`
	Payload       json.RawMessage      `json:"payload,omitempty"`
}

type ConnectResponse struct {
	MessageType string      `json:"message_type"`
	NodeID      string      `json:"node_id,omitempty"`
	RemotePorts *RemoteData `json:"remote_ports,omitempty"`
	Message     string      `json:"message,omitempty"`
}

type DisconnectRequest struct {
	NodeID string `json:"node_id"`
}

type DisconnectResponse struct {
	MessageType string `json:"message_type"`
	Message     string `json:"message,omitempty"`
}

// HeartbeatRequest refreshes liveness. Timestamp is seconds since the epoch.
type HeartbeatRequest struct {
	NodeID        string               `json:"node_id"`
	NodeName      string               `json:"node_name"`
	Timestamp     float64              `json:"timestamp"`
	Payload       json.RawMessage      `json:"payload,omitempty"`
	ConfigSchema  *schema.ConfigSchema `json:"config_schema,omitempty"`
	CommandSchema *schema.ActionSchema `json:"command_schema,omitempty"`
}

type HeartbeatResponse struct {
	MessageType  string        `json:"message_type"`
	NodeID       string        `json:"node_id,omitempty"`
	RemotePorts  *RemoteData   `json:"remote_ports,omitempty"`
	ConfigUpdate []interface{} `json:"config_update,omitempty"`
	Actions      []Action      `json:"actions,omitempty"`
	Message      string        `json:"message,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
	// Outbound forces config_update and actions onto the wire, as empty lists
	// when unset, once the node has an outbound entry.
	Outbound bool `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (r HeartbeatResponse) MarshalJSON() ([]byte, error) {
	type plain HeartbeatResponse

	if !r.Outbound {
		return json.Marshal(plain(r))
	}

	config := r.ConfigUpdate
	if config == nil {
		config = []interface{}{}
	}

	actions := r.Actions
	if actions == nil {
		actions = []Action{}
	}

	return json.Marshal(struct {
		plain
		ConfigUpdate []interface{} `json:"config_update"`
		Actions      []Action      `json:"actions"`
	}{plain(r), config, actions})
}

// ErrorResponse is the body returned by the inspection API on failure.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
