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

package udpstream

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/metrics"
)

// Stats are the samples gathered since the last flush.
type Stats struct {
	Since            time.Time
	RGBFrames        int
	DepthFrames      int
	PointCloudFrames int
	RGBEncode        []time.Duration
	DepthEncode      []time.Duration
	PointCloudEncode []time.Duration
}

func average(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	var sum time.Duration
	for _, s := range samples {
		sum += s
	}

	return sum / time.Duration(len(samples))
}

func (s Stats) clone() Stats {
	s.RGBEncode = append([]time.Duration(nil), s.RGBEncode...)
	s.DepthEncode = append([]time.Duration(nil), s.DepthEncode...)
	s.PointCloudEncode = append([]time.Duration(nil), s.PointCloudEncode...)

	return s
}

type perfTracker struct {
	mu       sync.Mutex
	clock    clock.Clock
	logger   logger.Logger
	interval time.Duration
	current  Stats
}

func newPerfTracker(clk clock.Clock, log logger.Logger, interval time.Duration) *perfTracker {
	return &perfTracker{
		clock:    clk,
		logger:   log,
		interval: interval,
		current:  Stats{Since: clk.Now()},
	}
}

func (p *perfTracker) record(ctx context.Context, kind FrameType, encode time.Duration) {
	metrics.RecordEncodeLatency(ctx, kind.String(), encode)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case FrameTypeRGB:
		p.current.RGBFrames++
		p.current.RGBEncode = append(p.current.RGBEncode, encode)
	case FrameTypeDepth:
		p.current.DepthFrames++
		p.current.DepthEncode = append(p.current.DepthEncode, encode)
	case FrameTypePointCloud:
		p.current.PointCloudFrames++
		p.current.PointCloudEncode = append(p.current.PointCloudEncode, encode)
	}

	p.maybeFlushLocked()
}

// maybeFlushLocked logs a summary and starts a new sample window once the log
// interval has elapsed.
func (p *perfTracker) maybeFlushLocked() {
	now := p.clock.Now()

	elapsed := now.Sub(p.current.Since)
	if elapsed < p.interval {
		return
	}

	s := p.current
	secs := elapsed.Seconds()

	p.logger.Info().
		Float64("rgb_fps", float64(s.RGBFrames)/secs).
		Float64("depth_fps", float64(s.DepthFrames)/secs).
		Float64("pointcloud_fps", float64(s.PointCloudFrames)/secs).
		Dur("rgb_encode_avg", average(s.RGBEncode)).
		Dur("depth_encode_avg", average(s.DepthEncode)).
		Dur("pointcloud_encode_avg", average(s.PointCloudEncode)).
		Msg("UDP stream frame rates")

	p.current = Stats{Since: now}
}

func (p *perfTracker) snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current.clone()
}
