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
	"time"

	"github.com/carverauto/noderadar/pkg/metrics"
	"github.com/carverauto/noderadar/pkg/models"
)

// sweepFactor spaces passes slightly wider than the expiry window.
const sweepFactor = 1.1

// Start runs the liveness sweep until ctx is canceled or Stop is called.
func (r *Registry) Start(ctx context.Context) error {
	r.logger.Info().Dur("node_expiry", r.NodeExpiryTimeout()).Msg("Starting liveness sweep")

	for {
		timer := r.clock.Timer(sweepInterval(r.NodeExpiryTimeout()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-r.done:
			timer.Stop()
			return nil
		case <-timer.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) Stop(context.Context) error {
	r.stopOnce.Do(func() { close(r.done) })

	return nil
}

func sweepInterval(expiry time.Duration) time.Duration {
	return time.Duration(float64(expiry) * sweepFactor)
}

// Sweep classifies every node once. A node is alive when its last message is
// inside the expiry window and it was either already alive or has spoken since
// it was last marked dead; a disconnect is only undone by a newer message.
// A timeout never overwrites an existing reason.
func (r *Registry) Sweep(ctx context.Context) {
	expiry := r.NodeExpiryTimeout()
	now := r.clock.Now()

	var (
		expired, recovered []string
		alive              int
	)

	r.mu.Lock()

	for id, n := range r.nodes {
		fresh := now.Sub(n.LastMessageTime) <= expiry

		switch {
		case fresh && (n.IsAlive() || n.LastMessageTime.After(n.LifeStatus.LastSeen)):
			if !n.IsAlive() {
				n.ChangeFlags.StatusUpdate = true

				recovered = append(recovered, id)
			}

			n.LifeStatus = models.LifeStatus{Status: models.NodeAlive, LastSeen: n.LastMessageTime}
			alive++
		case !fresh && n.IsAlive():
			reason := models.ReasonTimeout
			if n.LifeStatus.Reason != nil {
				reason = *n.LifeStatus.Reason
			}

			n.LifeStatus = models.LifeStatus{Status: models.NodeDead, Reason: &reason, LastSeen: n.LastMessageTime}
			n.ChangeFlags.StatusUpdate = true

			expired = append(expired, id)
		}
	}

	known := len(r.nodes)

	r.mu.Unlock()

	metrics.SetNodeCounts(alive, known)

	for _, id := range expired {
		metrics.RecordNodeTransition(ctx, metrics.TransitionExpired)
		r.logger.Info().Str("node_id", id).Msg("Node expired")
	}

	for _, id := range recovered {
		metrics.RecordNodeTransition(ctx, metrics.TransitionRecovered)
		r.logger.Info().Str("node_id", id).Msg("Node recovered")
	}
}
