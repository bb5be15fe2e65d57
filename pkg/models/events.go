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

import "time"

// CloudEvent represents a CloudEvents v1.0 envelope.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// NodeEventType names a node lifecycle transition.
type NodeEventType string

const (
	NodeEventConnected     NodeEventType = "connected"
	NodeEventDisconnected  NodeEventType = "disconnected"
	NodeEventExpired       NodeEventType = "expired"
	NodeEventRecovered     NodeEventType = "recovered"
	NodeEventSchemaChanged NodeEventType = "schema_changed"
)

// NodeLifecycleEventData is the data payload of a node lifecycle CloudEvent.
type NodeLifecycleEventData struct {
	NodeID        string        `json:"node_id"`
	NodeName      string        `json:"node_name"`
	Event         NodeEventType `json:"event"`
	Status        NodeStatus    `json:"status"`
	Reason        string        `json:"reason,omitempty"`
	LastSeen      time.Time     `json:"last_seen"`
	Timestamp     time.Time     `json:"timestamp"`
	ConfigSchema  bool          `json:"config_schema_changed,omitempty"`
	CommandSchema bool          `json:"command_schema_changed,omitempty"`
}
