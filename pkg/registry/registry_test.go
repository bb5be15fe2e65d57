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

package registry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/schema"
)

func newTestRegistry(t *testing.T) (*Registry, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	return NewRegistry(WithClock(mock), WithLogger(logger.NewTestLogger())), mock
}

func connect(t *testing.T, r *Registry, name string) string {
	t.Helper()

	res, err := r.Connect(context.Background(), &models.ConnectRequest{NodeName: name})
	require.NoError(t, err)

	return res.NodeID
}

func heartbeat(t *testing.T, r *Registry, id, name string) *HeartbeatResult {
	t.Helper()

	res, err := r.Heartbeat(context.Background(), &models.HeartbeatRequest{NodeID: id, NodeName: name, Timestamp: 1})
	require.NoError(t, err)

	return res
}

func TestConnectAllocatesPerNameCounters(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.Equal(t, "camera_1", connect(t, r, "camera"))
	assert.Equal(t, "camera_2", connect(t, r, "camera"))
	assert.Equal(t, "arm_1", connect(t, r, "arm"))
}

func TestConnectRequiresName(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Connect(context.Background(), &models.ConnectRequest{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, r.Nodes())
}

func TestReconnectAfterDisconnectReusesID(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	id := connect(t, r, "camera")
	other := connect(t, r, "arm")

	require.NoError(t, r.Disconnect(ctx, id))

	assert.Equal(t, id, connect(t, r, "camera"))

	// a different name never lands on a live node's id
	fresh := connect(t, r, "lidar")
	assert.NotEqual(t, id, fresh)
	assert.NotEqual(t, other, fresh)

	// the counter keeps climbing even after a reuse
	assert.Equal(t, "camera_2", connect(t, r, "camera"))

	node, ok := r.Node(id)
	require.True(t, ok)
	assert.True(t, node.IsAlive())
	assert.Nil(t, node.LifeStatus.Reason)
	assert.True(t, node.ChangeFlags.NewNode)
}

func TestConnectStoresSchemasAndPayload(t *testing.T) {
	r, _ := newTestRegistry(t)

	cfg := schema.ConfigSchema{{Kind: schema.KindBool, Label: "Enabled", Options: &schema.EmptyOptions{}, Default: true}}
	cmds := schema.ActionSchema{"home": {Button: "Home"}}

	res, err := r.Connect(context.Background(), &models.ConnectRequest{
		NodeName:      "arm",
		ConfigSchema:  &cfg,
		CommandSchema: &cmds,
		Payload:       json.RawMessage(`{"battery":0.9}`),
	})
	require.NoError(t, err)

	node, ok := r.Node(res.NodeID)
	require.True(t, ok)
	assert.Len(t, node.ConfigSchema, 1)
	assert.Contains(t, node.CommandSchema, "home")
	assert.True(t, node.ChangeFlags.ConfigSchema)
	assert.True(t, node.ChangeFlags.CommandSchema)
	require.Len(t, node.PayloadQueue, 1)
	assert.JSONEq(t, `{"battery":0.9}`, string(node.PayloadQueue[0]))
}

func TestDisconnect(t *testing.T) {
	r, mock := newTestRegistry(t)
	ctx := context.Background()

	id := connect(t, r, "camera")
	r.GetNodeRegistry()

	mock.Add(100 * time.Millisecond)
	require.NoError(t, r.Disconnect(ctx, id))

	node, _ := r.Node(id)
	assert.Equal(t, models.NodeDead, node.LifeStatus.Status)
	assert.Equal(t, models.ReasonDisconnected, node.LifeStatus.ReasonString())
	assert.Equal(t, mock.Now(), node.LifeStatus.LastSeen)
	assert.True(t, node.ChangeFlags.StatusUpdate)

	require.ErrorIs(t, r.Disconnect(ctx, "ghost_0"), ErrUnknownNode)
	require.ErrorIs(t, r.Disconnect(ctx, ""), ErrValidation)
}

func TestHeartbeatValidation(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Heartbeat(context.Background(), &models.HeartbeatRequest{NodeName: "camera"})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"node_id", "timestamp"}, verr.Fields)

	_, err = r.Heartbeat(context.Background(), &models.HeartbeatRequest{NodeID: "ghost_0", NodeName: "ghost", Timestamp: 1})
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestHeartbeatUpdatesNode(t *testing.T) {
	r, mock := newTestRegistry(t)

	id := connect(t, r, "camera")
	r.GetNodeRegistry()

	mock.Add(250 * time.Millisecond)

	cmds := schema.ActionSchema{"snap": {Button: "Snap"}}

	_, err := r.Heartbeat(context.Background(), &models.HeartbeatRequest{
		NodeID:        id,
		NodeName:      "camera",
		Timestamp:     float64(mock.Now().Unix()),
		Payload:       json.RawMessage(`[1,2]`),
		CommandSchema: &cmds,
	})
	require.NoError(t, err)

	node, _ := r.Node(id)
	assert.Equal(t, mock.Now(), node.LastMessageTime)
	assert.Len(t, node.PayloadQueue, 1)
	assert.True(t, node.ChangeFlags.CommandSchema)
	assert.False(t, node.ChangeFlags.ConfigSchema)
}

func TestOutboundActionsAccumulateAndDrain(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	id := connect(t, r, "arm")

	config := []interface{}{true, 3.5, "auto"}
	r.AddOutboundMessages(ctx, id, config, []models.Action{{Name: "A"}})
	r.AddOutboundMessages(ctx, id, nil, []models.Action{{Name: "B", Params: []interface{}{1.0}}})

	first := heartbeat(t, r, id, "arm")
	require.True(t, first.HasOutbound)
	require.Len(t, first.Actions, 2)
	assert.Equal(t, "A", first.Actions[0].Name)
	assert.Equal(t, "B", first.Actions[1].Name)
	assert.Equal(t, config, first.ConfigUpdate)

	second := heartbeat(t, r, id, "arm")
	require.True(t, second.HasOutbound)
	assert.Empty(t, second.Actions)
	assert.Equal(t, config, second.ConfigUpdate)
}

func TestOutboundConfigLastWriteWins(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	r.AddOutboundMessages(ctx, "arm_0", []interface{}{1.0}, nil)
	r.AddOutboundMessages(ctx, "arm_0", []interface{}{2.0}, nil)
	r.AddOutboundMessages(ctx, "arm_0", []interface{}{}, nil)

	entry, ok := r.Outbound("arm_0")
	require.True(t, ok)
	assert.Equal(t, []interface{}{2.0}, entry.Config)
	assert.Empty(t, entry.Actions)
}

func TestHeartbeatWithoutOutbound(t *testing.T) {
	r, _ := newTestRegistry(t)

	id := connect(t, r, "camera")

	res := heartbeat(t, r, id, "camera")
	assert.False(t, res.HasOutbound)
	assert.Nil(t, res.Actions)
	assert.Nil(t, res.RemotePorts)
}

func TestRemoteDataMirroredIntoResponses(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.UpdateRemoteData(&models.RemoteData{RemoteIP: "192.168.1.100", RemotePorts: map[string]int{"stream": 9001}})

	res, err := r.Connect(context.Background(), &models.ConnectRequest{NodeName: "camera"})
	require.NoError(t, err)
	require.NotNil(t, res.RemotePorts)
	assert.Equal(t, 9001, res.RemotePorts.RemotePorts["stream"])

	hb := heartbeat(t, r, res.NodeID, "camera")
	require.NotNil(t, hb.RemotePorts)
	assert.Equal(t, "192.168.1.100", hb.RemotePorts.RemoteIP)

	r.UpdateRemoteData(nil)
	assert.Nil(t, r.RemoteData())
}

func TestGetNodeRegistryReadAndClear(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Connect(context.Background(), &models.ConnectRequest{NodeName: "camera", Payload: json.RawMessage(`1`)})
	require.NoError(t, err)

	snap := r.GetNodeRegistry()
	require.Contains(t, snap, res.NodeID)
	assert.True(t, snap[res.NodeID].ChangeFlags.NewNode)
	assert.Len(t, snap[res.NodeID].PayloadQueue, 1)

	again := r.GetNodeRegistry()
	assert.False(t, again[res.NodeID].ChangeFlags.Any())
	assert.Empty(t, again[res.NodeID].PayloadQueue)

	// the earlier snapshot is unaffected by the clear
	assert.True(t, snap[res.NodeID].ChangeFlags.NewNode)
}

func TestSweepExpiresAndRecovers(t *testing.T) {
	r, mock := newTestRegistry(t)
	ctx := context.Background()

	id := connect(t, r, "camera")
	r.GetNodeRegistry()

	mock.Add(900 * time.Millisecond)
	r.Sweep(ctx)

	node, _ := r.Node(id)
	assert.True(t, node.IsAlive())
	assert.False(t, node.ChangeFlags.StatusUpdate)

	mock.Add(200 * time.Millisecond)
	r.Sweep(ctx)

	node, _ = r.Node(id)
	assert.Equal(t, models.NodeDead, node.LifeStatus.Status)
	assert.Equal(t, models.ReasonTimeout, node.LifeStatus.ReasonString())
	assert.True(t, node.ChangeFlags.StatusUpdate)

	r.GetNodeRegistry()

	mock.Add(10 * time.Millisecond)
	heartbeat(t, r, id, "camera")
	r.Sweep(ctx)

	node, _ = r.Node(id)
	assert.True(t, node.IsAlive())
	assert.Nil(t, node.LifeStatus.Reason)
	assert.True(t, node.ChangeFlags.StatusUpdate)
}

func TestSweepKeepsDisconnectReason(t *testing.T) {
	r, mock := newTestRegistry(t)
	ctx := context.Background()

	id := connect(t, r, "camera")

	mock.Add(100 * time.Millisecond)
	require.NoError(t, r.Disconnect(ctx, id))

	// still inside the expiry window, but nothing newer than the disconnect
	r.Sweep(ctx)

	node, _ := r.Node(id)
	assert.Equal(t, models.NodeDead, node.LifeStatus.Status)
	assert.Equal(t, models.ReasonDisconnected, node.LifeStatus.ReasonString())

	mock.Add(5 * time.Second)
	r.Sweep(ctx)

	node, _ = r.Node(id)
	assert.Equal(t, models.ReasonDisconnected, node.LifeStatus.ReasonString())
}

func TestSetNodeExpiryTimeout(t *testing.T) {
	r, mock := newTestRegistry(t)
	ctx := context.Background()

	require.ErrorIs(t, r.SetNodeExpiryTimeout(0), ErrValidation)
	require.NoError(t, r.SetNodeExpiryTimeout(3*time.Second))
	assert.Equal(t, 3*time.Second, r.NodeExpiryTimeout())

	id := connect(t, r, "camera")

	mock.Add(2 * time.Second)
	r.Sweep(ctx)

	node, _ := r.Node(id)
	assert.True(t, node.IsAlive())
}

func TestStartSweepsOnSchedule(t *testing.T) {
	r, mock := newTestRegistry(t)

	id := connect(t, r, "camera")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(550 * time.Millisecond)

		node, _ := r.Node(id)

		return !node.IsAlive()
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Stop(ctx))
	require.NoError(t, r.Stop(ctx))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep loop did not stop")
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			res, err := r.Connect(ctx, &models.ConnectRequest{NodeName: "worker"})
			if !assert.NoError(t, err) {
				return
			}

			for j := 0; j < 20; j++ {
				r.AddOutboundMessages(ctx, res.NodeID, nil, []models.Action{{Name: "tick"}})
				_, _ = r.Heartbeat(ctx, &models.HeartbeatRequest{NodeID: res.NodeID, NodeName: "worker", Timestamp: 1})
				r.Sweep(ctx)
				r.GetNodeRegistry()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, r.Nodes(), 8)
}
