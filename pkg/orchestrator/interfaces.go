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

package orchestrator

//go:generate mockgen -destination=mock_orchestrator.go -package=orchestrator github.com/carverauto/noderadar/pkg/orchestrator RegistryStore,RemoteSource,EventSink,SnapshotSink

import (
	"context"

	"github.com/carverauto/noderadar/pkg/models"
)

// RegistryStore is the slice of registry.Registry the loop drives.
type RegistryStore interface {
	UpdateRemoteData(data *models.RemoteData)
	AddOutboundMessages(ctx context.Context, nodeID string, config []interface{}, actions []models.Action)
	GetNodeRegistry() map[string]*models.Node
}

// RemoteSource yields the latest discovered peer (discovery.Listener).
type RemoteSource interface {
	Remote() *models.RemoteData
}

// EventSink receives node lifecycle transitions (natsutil.EventPublisher).
type EventSink interface {
	PublishNodeEvent(ctx context.Context, data models.NodeLifecycleEventData) error
}

// SnapshotSink receives the node list whenever it changed (api.APIServer).
type SnapshotSink interface {
	Broadcast(nodes []*models.Node)
}
