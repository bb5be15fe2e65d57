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

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/schema"
)

var errBoom = errors.New("boom")

func newTestClient(t *testing.T, opts ...Option) (*Client, *MockRegistryClient, *clock.Mock) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRegistry := NewMockRegistryClient(ctrl)
	mockClock := clock.NewMock()
	mockClock.Set(time.Unix(1_700_000_000, 0))

	opts = append([]Option{WithRegistryClient(mockRegistry), WithClock(mockClock)}, opts...)

	return New("camera", opts...), mockRegistry, mockClock
}

func connectOK(id string) *models.ConnectResponse {
	return &models.ConnectResponse{MessageType: models.MessageTypeSuccess, NodeID: id}
}

func heartbeatOK(id string) *models.HeartbeatResponse {
	return &models.HeartbeatResponse{MessageType: models.MessageTypeHeartbeatResponse, NodeID: id}
}

func TestStartConnectsAndStopDisconnects(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.ConnectRequest) (*models.ConnectResponse, error) {
			assert.Equal(t, "camera", req.NodeName)
			assert.NotNil(t, req.ConfigSchema)
			assert.NotNil(t, req.CommandSchema)

			return connectOK("camera_0"), nil
		})
	reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(heartbeatOK("camera_0"), nil).AnyTimes()
	reg.EXPECT().Disconnect(gomock.Any(), &models.DisconnectRequest{NodeID: "camera_0"}).
		Return(&models.DisconnectResponse{MessageType: models.MessageTypeSuccess}, nil)

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, "camera_0", c.NodeID())
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, c.IsConnected())
}

func TestStartWithRegistryDownReconnects(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, ErrRegistryUnavailable).AnyTimes()

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateReconnecting, c.State())
	assert.False(t, c.IsConnected())
	assert.Empty(t, c.NodeID())

	// no Disconnect expected while reconnecting
	require.NoError(t, c.Stop(ctx))
}

func TestHeartbeatFailuresTriggerReconnect(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	gomock.InOrder(
		reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(connectOK("camera_0"), nil),
		reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(nil, ErrRegistryUnavailable).Times(3),
		reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, ErrRegistryUnavailable),
		reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(connectOK("camera_0"), nil),
	)

	require.True(t, c.connect(ctx))

	assert.Equal(t, DefaultHeartbeatInterval, c.step(ctx))
	assert.Equal(t, 1, c.ConsecutiveFailures())
	assert.Equal(t, StateConnected, c.State())
	assert.False(t, c.IsConnected())

	c.step(ctx)
	assert.Equal(t, 2, c.ConsecutiveFailures())
	assert.Equal(t, StateConnected, c.State())

	c.step(ctx)
	assert.Equal(t, StateReconnecting, c.State())
	assert.Empty(t, c.NodeID())
	assert.False(t, c.IsConnected())

	assert.Equal(t, DefaultReconnectInterval, c.step(ctx))
	assert.Equal(t, StateReconnecting, c.State())

	assert.Equal(t, time.Duration(0), c.step(ctx))
	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, 0, c.ConsecutiveFailures())
	assert.Equal(t, "camera_0", c.NodeID())
	assert.True(t, c.IsConnected())
}

func TestSuccessfulHeartbeatResetsFailures(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	gomock.InOrder(
		reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(connectOK("camera_0"), nil),
		reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(nil, errBoom).Times(2),
		reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(heartbeatOK("camera_0"), nil),
	)

	require.True(t, c.connect(ctx))
	c.step(ctx)
	c.step(ctx)
	assert.Equal(t, 2, c.ConsecutiveFailures())

	c.step(ctx)
	assert.Equal(t, 0, c.ConsecutiveFailures())
	assert.True(t, c.IsConnected())
}

func TestRejectedHeartbeatCountsAsFailure(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(connectOK("camera_0"), nil)
	reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(
		&models.HeartbeatResponse{MessageType: models.MessageTypeError, Message: "unknown node"},
		ErrRegistryRejected,
	)

	require.True(t, c.connect(ctx))
	c.step(ctx)

	assert.Equal(t, 1, c.ConsecutiveFailures())
	assert.False(t, c.IsConnected())
}

func TestHeartbeatResponseIsCached(t *testing.T) {
	c, reg, clk := newTestClient(t)
	ctx := context.Background()

	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(&models.ConnectResponse{
		MessageType: models.MessageTypeSuccess,
		NodeID:      "camera_0",
		RemotePorts: &models.RemoteData{RemoteIP: "10.0.0.9"},
	}, nil)

	gomock.InOrder(
		reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
				assert.Equal(t, "camera_0", req.NodeID)
				assert.Equal(t, "camera", req.NodeName)
				assert.InDelta(t, float64(clk.Now().Unix()), req.Timestamp, 0.001)

				return &models.HeartbeatResponse{
					MessageType:  models.MessageTypeHeartbeatResponse,
					NodeID:       "camera_0",
					RemotePorts:  &models.RemoteData{RemotePorts: map[string]int{"stream": 9001}},
					ConfigUpdate: []interface{}{true, 5.0},
					Actions:      []models.Action{{Name: "reset", Params: []interface{}{}}},
				}, nil
			}),
		reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(&models.HeartbeatResponse{
			MessageType: models.MessageTypeHeartbeatResponse,
			Actions:     []models.Action{{Name: "flash", Params: []interface{}{2.0}}},
		}, nil),
	)

	require.True(t, c.connect(ctx))
	c.step(ctx)
	c.step(ctx)

	remote, ok := c.GetRemoteDiscovery()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9", remote.RemoteIP)
	assert.Equal(t, map[string]int{"stream": 9001}, remote.RemotePorts)

	// an empty config_update leaves the cached vector alone
	assert.Equal(t, []interface{}{true, 5.0}, c.GetConfigChanges())
	assert.Empty(t, c.GetConfigChanges())

	actions := c.GetPendingActions()
	require.Len(t, actions, 2)
	assert.Equal(t, "reset", actions[0].Name)
	assert.Equal(t, "flash", actions[1].Name)
	assert.Empty(t, c.GetPendingActions())
}

func TestHeartbeatCarriesPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockPayloadProvider(ctrl)

	c, reg, _ := newTestClient(t, WithPayloadProvider(provider))
	ctx := context.Background()

	provider.EXPECT().Payload(gomock.Any()).Return(json.RawMessage(`{"cpu":12.5}`), nil)
	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(connectOK("camera_0"), nil)
	reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
			assert.JSONEq(t, `{"cpu":12.5}`, string(req.Payload))

			return heartbeatOK("camera_0"), nil
		})

	require.True(t, c.connect(ctx))
	c.step(ctx)
}

func TestUpdateSchemas(t *testing.T) {
	c, reg, _ := newTestClient(t)
	ctx := context.Background()

	config := schema.ConfigSchema{{Kind: schema.KindBool, Label: "Enabled", Options: schema.EmptyOptions{}, Default: true}}
	command := schema.ActionSchema{"reset": {}}

	// not connected: stored but not pushed
	c.UpdateSchemas(ctx, &config, &command)

	reg.EXPECT().Connect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.ConnectRequest) (*models.ConnectResponse, error) {
			require.NotNil(t, req.ConfigSchema)
			assert.Len(t, *req.ConfigSchema, 1)
			assert.Contains(t, *req.CommandSchema, "reset")

			return connectOK("camera_0"), nil
		})
	require.True(t, c.connect(ctx))

	reg.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
			assert.Nil(t, req.ConfigSchema)
			require.NotNil(t, req.CommandSchema)
			assert.Contains(t, *req.CommandSchema, "flash")

			return heartbeatOK("camera_0"), nil
		})

	c.UpdateSchemas(ctx, nil, &schema.ActionSchema{"flash": {}})
}
