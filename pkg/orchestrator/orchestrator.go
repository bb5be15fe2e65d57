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

// Package orchestrator runs the coordinator loop: it feeds discovered peers
// into the registry, forwards queued outbound messages and turns registry
// change flags into lifecycle events and UI snapshots.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
)

const (
	DefaultPollInterval = 10 * time.Millisecond

	publishConcurrency = 4
	publishTimeout     = 2 * time.Second
)

type Orchestrator struct {
	registry  RegistryStore
	remote    RemoteSource
	input     *QueueInput
	events    EventSink
	snapshots SnapshotSink
	clock     clock.Clock
	logger    logger.Logger
	interval  time.Duration

	mu       sync.RWMutex
	latest   map[string]*models.Node
	statuses map[string]models.NodeStatus

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Orchestrator)

func WithRemoteSource(src RemoteSource) Option {
	return func(o *Orchestrator) { o.remote = src }
}

func WithInput(q *QueueInput) Option {
	return func(o *Orchestrator) {
		if q != nil {
			o.input = q
		}
	}
}

func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

func WithSnapshotSink(sink SnapshotSink) Option {
	return func(o *Orchestrator) { o.snapshots = sink }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.logger = log
		}
	}
}

func New(reg RegistryStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		input:    NewQueueInput(),
		clock:    clock.New(),
		logger:   logger.NewTestLogger(),
		interval: DefaultPollInterval,
		latest:   make(map[string]*models.Node),
		statuses: make(map[string]models.NodeStatus),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Input is the queue API submissions are pushed into.
func (o *Orchestrator) Input() *QueueInput {
	return o.input
}

// Start polls until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.wg.Add(1)
	defer o.wg.Done()

	ticker := o.clock.Ticker(o.interval)
	defer ticker.Stop()

	o.logger.Info().Dur("interval", o.interval).Msg("Starting orchestrator")

	for {
		o.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.done:
			return nil
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) Stop(context.Context) error {
	o.closeOnce.Do(func() { close(o.done) })
	o.wg.Wait()

	return nil
}

// Poll runs one pass of the loop.
func (o *Orchestrator) Poll(ctx context.Context) {
	if o.remote != nil {
		if data := o.remote.Remote(); data != nil {
			o.registry.UpdateRemoteData(data)
		}
	}

	for _, e := range o.input.Drain() {
		o.registry.AddOutboundMessages(ctx, e.NodeID, e.Config, e.Actions)
	}

	snapshot := o.registry.GetNodeRegistry()

	events, changed := o.absorb(snapshot)

	if len(events) > 0 && o.events != nil {
		o.publish(ctx, events)
	}

	if changed && o.snapshots != nil {
		o.snapshots.Broadcast(sortedNodes(snapshot))
	}
}

// absorb stores the snapshot and derives lifecycle events from its change flags.
func (o *Orchestrator) absorb(snapshot map[string]*models.Node) ([]models.NodeLifecycleEventData, bool) {
	now := o.clock.Now()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.latest = snapshot

	var (
		events  []models.NodeLifecycleEventData
		changed bool
	)

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		n := snapshot[id]
		flags := n.ChangeFlags

		if flags.Any() || len(n.PayloadQueue) > 0 {
			changed = true
		}

		if flags.NewNode {
			events = append(events, newEvent(n, models.NodeEventConnected, now))
		} else if flags.ConfigSchema || flags.CommandSchema {
			events = append(events, newEvent(n, models.NodeEventSchemaChanged, now))
		}

		prev, known := o.statuses[id]
		o.statuses[id] = n.LifeStatus.Status

		if !flags.StatusUpdate {
			continue
		}

		switch {
		case n.LifeStatus.Status == models.NodeDead && n.LifeStatus.ReasonString() == models.ReasonDisconnected:
			events = append(events, newEvent(n, models.NodeEventDisconnected, now))
		case n.LifeStatus.Status == models.NodeDead:
			events = append(events, newEvent(n, models.NodeEventExpired, now))
		case known && prev == models.NodeDead:
			events = append(events, newEvent(n, models.NodeEventRecovered, now))
		}
	}

	return events, changed
}

func newEvent(n *models.Node, kind models.NodeEventType, now time.Time) models.NodeLifecycleEventData {
	return models.NodeLifecycleEventData{
		NodeID:        n.NodeID,
		NodeName:      n.NodeName,
		Event:         kind,
		Status:        n.LifeStatus.Status,
		Reason:        n.LifeStatus.ReasonString(),
		LastSeen:      n.LifeStatus.LastSeen,
		Timestamp:     now,
		ConfigSchema:  n.ChangeFlags.ConfigSchema,
		CommandSchema: n.ChangeFlags.CommandSchema,
	}
}

// publish fans events out to the sink; a failed publish is logged and dropped.
func (o *Orchestrator) publish(ctx context.Context, events []models.NodeLifecycleEventData) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var g errgroup.Group

	g.SetLimit(publishConcurrency)

	for _, ev := range events {
		g.Go(func() error {
			if err := o.events.PublishNodeEvent(pubCtx, ev); err != nil {
				o.logger.Warn().Err(err).
					Str("node_id", ev.NodeID).
					Str("event", string(ev.Event)).
					Msg("Failed to publish node event")
			}

			return nil
		})
	}

	_ = g.Wait()
}

// Snapshot returns the most recent registry snapshot, sorted by node id.
func (o *Orchestrator) Snapshot() []*models.Node {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return sortedNodes(o.latest)
}

func sortedNodes(m map[string]*models.Node) []*models.Node {
	out := make([]*models.Node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })

	return out
}
