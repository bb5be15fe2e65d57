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

package commsnode

//go:generate mockgen -destination=mock_commsnode.go -package=commsnode github.com/carverauto/noderadar/pkg/commsnode RegistryLink,FrameSink,ControlLink

import (
	"context"
	"encoding/json"
	"image"

	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/schema"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

// RegistryLink is the node's control-plane client (nodeclient.Client).
type RegistryLink interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsConnected() bool
	GetPendingActions() []models.Action
	GetConfigChanges() []interface{}
	GetRemoteDiscovery() (models.RemoteData, bool)
	UpdateSchemas(ctx context.Context, config *schema.ConfigSchema, command *schema.ActionSchema)
}

// FrameSink is the UDP data plane (udpstream.Connector).
type FrameSink interface {
	Connect(ip string, port int) error
	Disconnect()
	Reconnect(ip string, port int) error
	IsConnected() bool
	SetCameraIntrinsics(in udpstream.Intrinsics)
	SendRGBFrame(img image.Image) error
	SendDepthFrame(depth *image.Gray16) error
	SendPointCloud(points []udpstream.Point) error
}

// ControlLink carries low-rate JSON messages to the peer (stream.Connector or
// rtc.Connector).
type ControlLink interface {
	Connect(ctx context.Context, host string, port int) error
	Disconnect()
	Reconnect(ctx context.Context, host string, port int) error
	IsConnected() bool
	Send(v interface{}) bool
	Received() []json.RawMessage
}
