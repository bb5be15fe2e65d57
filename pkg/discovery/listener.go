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

// Package discovery learns a peer's address and port map from UDP broadcast
// announcements, and can emit such announcements itself.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/ipv4"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
)

const (
	DefaultServiceName = "XR Quest"
	DefaultPort        = 9999

	readTimeout   = 100 * time.Millisecond
	maxDatagram   = 4096
	stopJoinLimit = 2 * time.Second
)

var errListenerNotIPv4 = errors.New("discovery listener requires an IPv4 socket")

// Announcement is the JSON body of a discovery broadcast.
type Announcement struct {
	Service string         `json:"service"`
	IP      string         `json:"ip"`
	Ports   map[string]int `json:"ports"`
}

// Record is the latest matching announcement seen by a Listener.
type Record struct {
	ServiceName string         `json:"service_name"`
	IP          string         `json:"ip"`
	Ports       map[string]int `json:"ports"`
	LastSeen    time.Time      `json:"last_seen"`
	Source      string         `json:"source,omitempty"`
	Interface   string         `json:"interface,omitempty"`
}

// Listener caches the most recent announcement for one service name.
type Listener struct {
	bindAddr string
	port     int
	clock    clock.Clock
	logger   logger.Logger

	mu          sync.Mutex
	serviceName string
	latest      *Record

	runMu     sync.Mutex
	conn      *ipv4.PacketConn
	localAddr net.Addr
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Listener)

func WithClock(c clock.Clock) Option {
	return func(l *Listener) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithBindAddress restricts the listener to one local address. The default
// listens on all interfaces.
func WithBindAddress(addr string) Option {
	return func(l *Listener) {
		l.bindAddr = addr
	}
}

func NewListener(serviceName string, port int, log logger.Logger, opts ...Option) *Listener {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	l := &Listener{
		serviceName: serviceName,
		port:        port,
		clock:       clock.New(),
		logger:      log,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start binds the discovery socket and runs the receive loop in the background.
// Starting a running listener restarts it.
func (l *Listener) Start(ctx context.Context) error {
	l.Stop()

	l.runMu.Lock()
	defer l.runMu.Unlock()

	lc := net.ListenConfig{Control: broadcastControl}

	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(l.bindAddr, fmt.Sprint(l.port)))
	if err != nil {
		return fmt.Errorf("bind discovery port %d: %w", l.port, err)
	}

	udpConn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return errListenerNotIPv4
	}

	conn := ipv4.NewPacketConn(udpConn)

	if err := conn.SetControlMessage(ipv4.FlagInterface|ipv4.FlagDst, true); err != nil {
		// not every platform reports the receiving interface
		l.logger.Debug().Err(err).Msg("Interface control messages unavailable")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.conn = conn
	l.localAddr = udpConn.LocalAddr()
	l.cancel = cancel
	l.done = make(chan struct{})

	l.logger.Info().
		Str("service", l.ServiceName()).
		Str("addr", l.localAddr.String()).
		Msg("Discovery listener started")

	go l.receiveLoop(loopCtx, conn, l.done)

	return nil
}

// Stop ends the receive loop and closes the socket. The cached record is kept.
func (l *Listener) Stop() {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.cancel == nil {
		return
	}

	l.cancel()

	select {
	case <-l.done:
	case <-time.After(stopJoinLimit):
		l.logger.Warn().Msg("Discovery listener did not stop in time")
	}

	_ = l.conn.Close()

	l.cancel = nil
	l.conn = nil
	l.done = nil
}

// Restart stops and starts the listener, switching service name unless it is empty.
func (l *Listener) Restart(ctx context.Context, serviceName string) error {
	l.Stop()

	if serviceName != "" {
		l.mu.Lock()
		l.serviceName = serviceName
		l.mu.Unlock()
	}

	return l.Start(ctx)
}

func (l *Listener) receiveLoop(ctx context.Context, conn *ipv4.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxDatagram)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			l.logger.Error().Err(err).Msg("Failed to set discovery read deadline")
			return
		}

		n, cm, src, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			if ctx.Err() == nil {
				l.logger.Warn().Err(err).Msg("Discovery receive failed")
			}

			return
		}

		l.handleDatagram(buf[:n], cm, src)
	}
}

func (l *Listener) handleDatagram(data []byte, cm *ipv4.ControlMessage, src net.Addr) {
	var ann Announcement
	if err := json.Unmarshal(data, &ann); err != nil {
		l.logger.Debug().Err(err).Msg("Ignoring malformed discovery datagram")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ann.Service != l.serviceName {
		l.logger.Debug().Str("service", ann.Service).Msg("Ignoring announcement for other service")
		return
	}

	rec := &Record{
		ServiceName: ann.Service,
		IP:          ann.IP,
		Ports:       copyPorts(ann.Ports),
		LastSeen:    l.clock.Now(),
	}

	if src != nil {
		rec.Source = src.String()
	}

	if cm != nil && cm.IfIndex > 0 {
		if ifi, err := net.InterfaceByIndex(cm.IfIndex); err == nil {
			rec.Interface = ifi.Name
		}
	}

	l.latest = rec

	l.logger.Debug().Str("ip", rec.IP).Interface("ports", rec.Ports).Msg("Updated discovered service")
}

// Latest returns a copy of the cached record.
func (l *Listener) Latest() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.latest == nil {
		return Record{}, false
	}

	out := *l.latest
	out.Ports = copyPorts(l.latest.Ports)

	return out, true
}

// Remote returns the cached record in the registry's remote_ports shape, or nil.
func (l *Listener) Remote() *models.RemoteData {
	rec, ok := l.Latest()
	if !ok {
		return nil
	}

	return &models.RemoteData{RemoteIP: rec.IP, RemotePorts: rec.Ports}
}

func (l *Listener) ServiceName() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.serviceName
}

// LocalAddr is the bound socket address, nil when stopped.
func (l *Listener) LocalAddr() net.Addr {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.conn == nil {
		return nil
	}

	return l.localAddr
}

func copyPorts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}

	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
