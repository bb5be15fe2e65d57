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

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
)

const DefaultAnnounceInterval = 3 * time.Second

// Announcer periodically broadcasts an Announcement. It stands in for a real
// peer when testing discovery on a LAN.
type Announcer struct {
	announcement Announcement
	target       string
	interval     time.Duration
	clock        clock.Clock
	logger       logger.Logger
}

type AnnouncerOption func(*Announcer)

// WithTarget sets the destination; the default is the IPv4 broadcast address
// on DefaultPort.
func WithTarget(addr string) AnnouncerOption {
	return func(a *Announcer) {
		if addr != "" {
			a.target = addr
		}
	}
}

func WithInterval(d time.Duration) AnnouncerOption {
	return func(a *Announcer) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithAnnouncerClock(c clock.Clock) AnnouncerOption {
	return func(a *Announcer) {
		if c != nil {
			a.clock = c
		}
	}
}

func WithAnnouncerLogger(log logger.Logger) AnnouncerOption {
	return func(a *Announcer) {
		if log != nil {
			a.logger = log
		}
	}
}

func NewAnnouncer(ann Announcement, opts ...AnnouncerOption) *Announcer {
	if ann.Service == "" {
		ann.Service = DefaultServiceName
	}

	a := &Announcer{
		announcement: ann,
		target:       net.JoinHostPort(net.IPv4bcast.String(), fmt.Sprint(DefaultPort)),
		interval:     DefaultAnnounceInterval,
		clock:        clock.New(),
		logger:       logger.NewTestLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run sends one announcement immediately and then one per interval until ctx
// is canceled. Individual send failures are logged and do not stop the loop.
func (a *Announcer) Run(ctx context.Context) error {
	payload, err := json.Marshal(a.announcement)
	if err != nil {
		return err
	}

	dst, err := net.ResolveUDPAddr("udp4", a.target)
	if err != nil {
		return fmt.Errorf("resolve announce target %q: %w", a.target, err)
	}

	lc := net.ListenConfig{Control: broadcastControl}

	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("open announce socket: %w", err)
	}

	defer func() { _ = conn.Close() }()

	a.logger.Info().
		Str("service", a.announcement.Service).
		Str("target", dst.String()).
		Dur("interval", a.interval).
		Msg("Broadcasting service announcement")

	ticker := a.clock.Ticker(a.interval)
	defer ticker.Stop()

	for {
		if _, err := conn.WriteTo(payload, dst); err != nil {
			a.logger.Warn().Err(err).Msg("Announcement send failed")
		} else {
			a.logger.Debug().Msg("Announcement sent")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
