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

package nodeclient

//go:generate mockgen -destination=mock_nodeclient.go -package=nodeclient github.com/carverauto/noderadar/pkg/nodeclient RegistryClient,PayloadProvider

import (
	"context"
	"encoding/json"

	"github.com/carverauto/noderadar/pkg/models"
)

// RegistryClient performs the three control-plane calls against a registry.
type RegistryClient interface {
	Connect(ctx context.Context, req *models.ConnectRequest) (*models.ConnectResponse, error)
	Disconnect(ctx context.Context, req *models.DisconnectRequest) (*models.DisconnectResponse, error)
	Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error)
}

// PayloadProvider supplies an optional payload attached to every heartbeat.
type PayloadProvider interface {
	Payload(ctx context.Context) (json.RawMessage, error)
}
