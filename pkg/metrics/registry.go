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

// Package metrics holds the OpenTelemetry instruments shared by the registry and
// the stream connectors. Instruments bind to the global MeterProvider lazily, so
// recording is a no-op until logger.InitializeMetrics installs an exporter.
package metrics

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	registryMeterName      = "noderadar.registry"
	metricControlRequests  = "registry_control_requests_total"
	metricNodeTransitions  = "registry_node_transitions_total"
	metricAliveNodes       = "registry_alive_nodes"
	metricKnownNodes       = "registry_known_nodes"
	metricOutboundEnqueued = "registry_outbound_actions_enqueued_total"
	OutcomeSuccess         = "success"
	OutcomeRejected        = "rejected"
	OutcomeUnknownNode     = "unknown_node"
	TransitionConnected    = "connected"
	TransitionDisconnected = "disconnected"
	TransitionExpired      = "expired"
	TransitionRecovered    = "recovered"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	registryOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	registryInstruments struct {
		requests    metric.Int64Counter
		transitions metric.Int64Counter
		outbound    metric.Int64Counter
		alive       metric.Int64ObservableGauge
		known       metric.Int64ObservableGauge
	}
	//nolint:gochecknoglobals // gauge values observed by the callback
	aliveNodes, knownNodes atomic.Int64
	//nolint:unused,gochecknoglobals // reference retained to keep callback registered
	registryRegistration metric.Registration
)

func initRegistryMeter() {
	meter := otel.Meter(registryMeterName)

	var err error

	registryInstruments.requests, err = meter.Int64Counter(
		metricControlRequests,
		metric.WithDescription("Control plane requests handled by the registry"),
	)
	if err != nil {
		otel.Handle(err)
	}

	registryInstruments.transitions, err = meter.Int64Counter(
		metricNodeTransitions,
		metric.WithDescription("Node liveness transitions"),
	)
	if err != nil {
		otel.Handle(err)
	}

	registryInstruments.outbound, err = meter.Int64Counter(
		metricOutboundEnqueued,
		metric.WithDescription("Actions queued for delivery on the next heartbeat"),
	)
	if err != nil {
		otel.Handle(err)
	}

	registryInstruments.alive, err = meter.Int64ObservableGauge(
		metricAliveNodes,
		metric.WithDescription("Nodes currently alive"),
	)
	if err != nil {
		otel.Handle(err)
		return
	}

	registryInstruments.known, err = meter.Int64ObservableGauge(
		metricKnownNodes,
		metric.WithDescription("Nodes in the registry table, alive or dead"),
	)
	if err != nil {
		otel.Handle(err)
		return
	}

	registryRegistration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(registryInstruments.alive, aliveNodes.Load())
		o.ObserveInt64(registryInstruments.known, knownNodes.Load())

		return nil
	}, registryInstruments.alive, registryInstruments.known)
	if err != nil {
		otel.Handle(err)
	}
}

// RecordControlRequest counts one connect, disconnect or heartbeat request.
func RecordControlRequest(ctx context.Context, route, outcome string) {
	registryOnce.Do(initRegistryMeter)

	if registryInstruments.requests == nil {
		return
	}

	registryInstruments.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("outcome", outcome),
	))
}

func RecordNodeTransition(ctx context.Context, transition string) {
	registryOnce.Do(initRegistryMeter)

	if registryInstruments.transitions == nil {
		return
	}

	registryInstruments.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("transition", transition)))
}

func RecordOutboundActions(ctx context.Context, count int) {
	if count == 0 {
		return
	}

	registryOnce.Do(initRegistryMeter)

	if registryInstruments.outbound == nil {
		return
	}

	registryInstruments.outbound.Add(ctx, int64(count))
}

// SetNodeCounts publishes the latest table sizes for the gauges.
func SetNodeCounts(alive, known int) {
	registryOnce.Do(initRegistryMeter)

	aliveNodes.Store(int64(alive))
	knownNodes.Store(int64(known))
}
