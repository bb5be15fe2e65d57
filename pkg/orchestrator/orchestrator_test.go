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

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/registry"
	"github.com/carverauto/noderadar/pkg/schema"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.NodeLifecycleEventData
}

func (r *recordingSink) add(ev models.NodeLifecycleEventData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recordingSink) kinds() []models.NodeEventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.NodeEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}

	return out
}

func newRegistry(t *testing.T) (*registry.Registry, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	reg := registry.NewRegistry(
		registry.WithClock(mock),
		registry.WithNodeExpiry(time.Second),
		registry.WithLogger(logger.NewTestLogger()),
	)

	return reg, mock
}

// expectEvents records every published event through a gomock sink.
func expectEvents(ctrl *gomock.Controller) (*MockEventSink, *recordingSink) {
	sink := NewMockEventSink(ctrl)
	rec := &recordingSink{}

	sink.EXPECT().PublishNodeEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev models.NodeLifecycleEventData) error {
			rec.add(ev)
			return nil
		}).AnyTimes()

	return sink, rec
}

func TestPoll_FeedsRemoteDataIntoRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, _ := newRegistry(t)

	remote := NewMockRemoteSource(ctrl)
	remote.EXPECT().Remote().Return(&models.RemoteData{RemoteIP: "10.1.1.1", RemotePorts: map[string]int{"stream": 5000}})

	o := New(reg, WithRemoteSource(remote))
	o.Poll(context.Background())

	got := reg.RemoteData()
	require.NotNil(t, got)
	assert.Equal(t, "10.1.1.1", got.RemoteIP)
	assert.Equal(t, 5000, got.RemotePorts["stream"])
}

func TestPoll_NilRemoteLeavesRegistryAlone(t *testing.T) {
	ctrl := gomock.NewController(t)

	store := NewMockRegistryStore(ctrl)
	remote := NewMockRemoteSource(ctrl)

	remote.EXPECT().Remote().Return(nil)
	store.EXPECT().GetNodeRegistry().Return(map[string]*models.Node{})

	New(store, WithRemoteSource(remote)).Poll(context.Background())
}

func TestPoll_ForwardsQueuedOutbound(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockRegistryStore(ctrl)

	o := New(store)
	o.Input().Push("camera_0", []interface{}{1.0}, nil)
	o.Input().Push("camera_0", nil, []models.Action{{Name: "reset"}})

	gomock.InOrder(
		store.EXPECT().AddOutboundMessages(gomock.Any(), "camera_0", []interface{}{1.0}, gomock.Nil()),
		store.EXPECT().AddOutboundMessages(gomock.Any(), "camera_0", gomock.Nil(), []models.Action{{Name: "reset"}}),
	)
	store.EXPECT().GetNodeRegistry().Return(map[string]*models.Node{})

	o.Poll(context.Background())
	assert.Zero(t, o.Input().Len())
}

func TestPoll_LifecycleEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, mock := newRegistry(t)
	ctx := context.Background()

	sink, rec := expectEvents(ctrl)
	o := New(reg, WithEventSink(sink))

	res, err := reg.Connect(ctx, &models.ConnectRequest{NodeName: "camera"})
	require.NoError(t, err)

	o.Poll(ctx)
	assert.Equal(t, []models.NodeEventType{models.NodeEventConnected}, rec.kinds())

	// quiet pass emits nothing
	o.Poll(ctx)
	assert.Len(t, rec.events, 1)

	mock.Add(2 * time.Second)
	reg.Sweep(ctx)
	o.Poll(ctx)
	assert.Equal(t, models.NodeEventExpired, rec.events[1].Event)
	assert.Equal(t, models.ReasonTimeout, rec.events[1].Reason)

	_, err = reg.Heartbeat(ctx, &models.HeartbeatRequest{NodeID: res.NodeID, NodeName: "camera", Timestamp: 1})
	require.NoError(t, err)
	reg.Sweep(ctx)
	o.Poll(ctx)
	assert.Equal(t, models.NodeEventRecovered, rec.events[2].Event)

	require.NoError(t, reg.Disconnect(ctx, res.NodeID))
	o.Poll(ctx)
	assert.Equal(t, models.NodeEventDisconnected, rec.events[3].Event)
	assert.Equal(t, "camera_1", rec.events[3].NodeID)
}

func TestPoll_SchemaChangedEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, _ := newRegistry(t)
	ctx := context.Background()

	sink, rec := expectEvents(ctrl)
	o := New(reg, WithEventSink(sink))

	res, err := reg.Connect(ctx, &models.ConnectRequest{NodeName: "arm"})
	require.NoError(t, err)
	o.Poll(ctx)

	cs := schema.ConfigSchema{}

	_, err = reg.Heartbeat(ctx, &models.HeartbeatRequest{
		NodeID:       res.NodeID,
		NodeName:     "arm",
		Timestamp:    1,
		ConfigSchema: &cs,
	})
	require.NoError(t, err)
	o.Poll(ctx)

	require.Len(t, rec.events, 2)
	assert.Equal(t, models.NodeEventSchemaChanged, rec.events[1].Event)
	assert.True(t, rec.events[1].ConfigSchema)
	assert.False(t, rec.events[1].CommandSchema)
}

func TestPoll_PublishFailureDoesNotStopLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, _ := newRegistry(t)
	ctx := context.Background()

	sink := NewMockEventSink(ctrl)
	sink.EXPECT().PublishNodeEvent(gomock.Any(), gomock.Any()).Return(errors.New("nats down")).Times(2)

	o := New(reg, WithEventSink(sink))

	_, err := reg.Connect(ctx, &models.ConnectRequest{NodeName: "a"})
	require.NoError(t, err)
	_, err = reg.Connect(ctx, &models.ConnectRequest{NodeName: "b"})
	require.NoError(t, err)

	o.Poll(ctx)
	assert.Len(t, o.Snapshot(), 2)
}

func TestPoll_BroadcastsOnlyOnChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, _ := newRegistry(t)
	ctx := context.Background()

	snaps := NewMockSnapshotSink(ctrl)
	o := New(reg, WithSnapshotSink(snaps))

	_, err := reg.Connect(ctx, &models.ConnectRequest{NodeName: "b"})
	require.NoError(t, err)
	_, err = reg.Connect(ctx, &models.ConnectRequest{NodeName: "a"})
	require.NoError(t, err)

	snaps.EXPECT().Broadcast(gomock.Any()).Do(func(nodes []*models.Node) {
		require.Len(t, nodes, 2)
		assert.Equal(t, "a_1", nodes[0].NodeID)
		assert.Equal(t, "b_1", nodes[1].NodeID)
		assert.True(t, nodes[0].ChangeFlags.NewNode)
	})

	o.Poll(ctx)

	// flags were cleared by the first read, so no second broadcast
	o.Poll(ctx)

	snapshot := o.Snapshot()
	require.Len(t, snapshot, 2)
	assert.False(t, snapshot[0].ChangeFlags.NewNode)
}

func TestStartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockRegistryStore(ctrl)
	mock := clock.NewMock()

	polled := make(chan struct{}, 16)
	store.EXPECT().GetNodeRegistry().DoAndReturn(func() map[string]*models.Node {
		polled <- struct{}{}
		return map[string]*models.Node{}
	}).AnyTimes()

	o := New(store, WithClock(mock), WithPollInterval(10*time.Millisecond))

	errCh := make(chan error, 1)

	go func() { errCh <- o.Start(context.Background()) }()

	<-polled

	require.Eventually(t, func() bool {
		mock.Add(10 * time.Millisecond)

		select {
		case <-polled:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, o.Stop(context.Background()))
	require.NoError(t, <-errCh)
}

func TestStart_ContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockRegistryStore(ctrl)
	store.EXPECT().GetNodeRegistry().Return(map[string]*models.Node{}).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(store, WithClock(clock.NewMock())).Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueueInput(t *testing.T) {
	q := NewQueueInput()

	q.Push("a", nil, nil)
	q.Push("b", []interface{}{"x"}, nil)

	entries := q.Drain()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].NodeID)
	assert.Equal(t, "b", entries[1].NodeID)
	assert.Empty(t, q.Drain())
}
