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

// Package hoststats samples host CPU, memory and uptime for heartbeat payloads.
package hoststats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrStatsUnavailable is returned when no host metric could be read.
var ErrStatsUnavailable = errors.New("host stats unavailable")

var (
	percentWithContext       = cpu.PercentWithContext
	virtualMemoryWithContext = mem.VirtualMemoryWithContext
	uptimeWithContext        = host.UptimeWithContext
	hostname                 = os.Hostname
	now                      = time.Now
)

// Snapshot is one host sample. It is the JSON body placed in heartbeat payloads.
type Snapshot struct {
	Hostname        string    `json:"hostname,omitempty"`
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryUsedBytes uint64    `json:"memory_used_bytes"`
	MemoryTotal     uint64    `json:"memory_total_bytes"`
	MemoryPercent   float64   `json:"memory_percent"`
	UptimeSeconds   uint64    `json:"uptime_seconds"`
	CollectedAt     time.Time `json:"collected_at"`
}

type Collector struct {
	// cpu percent is averaged over this window; 0 compares against the previous call
	window time.Duration
}

func NewCollector(window time.Duration) *Collector {
	if window < 0 {
		window = 0
	}

	return &Collector{window: window}
}

// Collect reads whatever metrics are available. It fails only when all of them fail.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{CollectedAt: now().UTC()}

	var errs []error

	if pct, err := percentWithContext(ctx, c.window, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}

	if vm, err := virtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else if vm != nil {
		snap.MemoryUsedBytes = vm.Used
		snap.MemoryTotal = vm.Total
		snap.MemoryPercent = vm.UsedPercent
	}

	if up, err := uptimeWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uptime: %w", err))
	} else {
		snap.UptimeSeconds = up
	}

	if len(errs) == 3 {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrStatsUnavailable, errors.Join(errs...))
	}

	if name, err := hostname(); err == nil {
		snap.Hostname = name
	}

	return snap, nil
}

// Payload makes the collector a heartbeat payload provider.
func (c *Collector) Payload(ctx context.Context) (json.RawMessage, error) {
	snap, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}

	return json.Marshal(snap)
}
