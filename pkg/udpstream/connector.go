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
	"errors"
	"fmt"
	"image"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/metrics"
)

const transportUDP = "udp"

var ErrNotConnected = errors.New("udp connector not connected")

type packetWriter interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	Close() error
}

// Connector is a stateless UDP sender: connecting only records the
// destination. Every packet goes to the primary destination and any mirrors.
type Connector struct {
	cfg    Config
	clock  clock.Clock
	logger logger.Logger
	perf   *perfTracker
	listen func() (packetWriter, error)

	sockMu     sync.Mutex
	conn       packetWriter
	dests      []*net.UDPAddr
	remoteIP   string
	remotePort int

	idMu    sync.Mutex
	rgbID   uint32
	cloudID uint32 // shared by depth and point-cloud frames

	intrMu         sync.Mutex
	intrinsics     *Intrinsics
	lastIntrinsics time.Time
}

type Option func(*Connector)

func WithConfig(cfg Config) Option {
	return func(c *Connector) {
		c.cfg = cfg
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Connector) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Connector) {
		if log != nil {
			c.logger = log
		}
	}
}

func NewConnector(opts ...Option) *Connector {
	c := &Connector{
		cfg:    DefaultConfig(),
		clock:  clock.New(),
		logger: logger.NewTestLogger(),
		listen: func() (packetWriter, error) {
			return net.ListenUDP("udp", nil)
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cfg.ApplyDefaults()
	c.perf = newPerfTracker(c.clock, c.logger, time.Duration(c.cfg.LogInterval))

	return c
}

// Connect opens a fresh socket for ip:port plus the configured mirrors.
func (c *Connector) Connect(ip string, port int) error {
	primary, err := net.ResolveUDPAddr("udp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("resolve udp destination: %w", err)
	}

	dests := []*net.UDPAddr{primary}

	if c.cfg.LocalhostPort > 0 {
		dests = append(dests, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: c.cfg.LocalhostPort})
	}

	for _, d := range c.cfg.ExtraDestinations {
		addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
		if err != nil {
			c.logger.Warn().Err(err).Str("ip", d.IP).Int("port", d.Port).Msg("Skipping unresolvable mirror")
			continue
		}

		dests = append(dests, addr)
	}

	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	conn, err := c.listen()
	if err != nil {
		return fmt.Errorf("open udp socket: %w", err)
	}

	c.conn = conn
	c.dests = dests
	c.remoteIP = ip
	c.remotePort = port

	c.logger.Info().Strs("destinations", addrStrings(dests)).Msg("UDP connector ready")

	return nil
}

func (c *Connector) Disconnect() {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}

	c.conn = nil
	c.dests = nil
}

func (c *Connector) Reconnect(ip string, port int) error {
	c.Disconnect()

	return c.Connect(ip, port)
}

func (c *Connector) IsConnected() bool {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	return c.conn != nil
}

// Remote returns the primary destination last passed to Connect.
func (c *Connector) Remote() (string, int) {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	return c.remoteIP, c.remotePort
}

// Destinations lists every address a packet is sent to.
func (c *Connector) Destinations() []string {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	return addrStrings(c.dests)
}

// SetCameraIntrinsics enables the periodic intrinsics packet on the RGB path.
func (c *Connector) SetCameraIntrinsics(in Intrinsics) {
	c.intrMu.Lock()
	defer c.intrMu.Unlock()

	c.intrinsics = &in
}

// Stats returns the samples collected since the last summary.
func (c *Connector) Stats() Stats {
	return c.perf.snapshot()
}

// SendRGBFrame JPEG-encodes img and sends it. Intrinsics, when set, go out
// first at most once per intrinsics interval.
func (c *Connector) SendRGBFrame(img image.Image) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ctx := context.Background()

	c.maybeSendIntrinsics(ctx)

	start := c.clock.Now()

	data, err := EncodeJPEG(img, c.cfg.JPEGQuality)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping RGB frame")
		return err
	}

	c.perf.record(ctx, FrameTypeRGB, c.clock.Since(start))

	return c.sendFrame(ctx, Header{Type: FrameTypeRGB, FrameID: c.nextRGBID()}, data)
}

// SendDepthFrame PNG-packs 16-bit depth and sends it on the shared depth and
// point-cloud sequence.
func (c *Connector) SendDepthFrame(depth *image.Gray16) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ctx := context.Background()
	start := c.clock.Now()

	data, err := EncodeDepthPNG(depth)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping depth frame")
		return err
	}

	c.perf.record(ctx, FrameTypeDepth, c.clock.Since(start))

	return c.sendFrame(ctx, Header{Type: FrameTypeDepth, FrameID: c.nextCloudID()}, data)
}

// SendPointCloud quantizes and sends points. An empty cloud sends nothing.
func (c *Connector) SendPointCloud(points []Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if len(points) == 0 {
		return nil
	}

	ctx := context.Background()
	start := c.clock.Now()
	data := QuantizePoints(points)

	c.perf.record(ctx, FrameTypePointCloud, c.clock.Since(start))

	h := Header{
		Type:       FrameTypePointCloud,
		FrameID:    c.nextCloudID(),
		PointCount: uint32(len(points)),
	}

	return c.sendFrame(ctx, h, data)
}

func (c *Connector) nextRGBID() uint32 {
	c.idMu.Lock()
	defer c.idMu.Unlock()

	id := c.rgbID
	c.rgbID++

	return id
}

func (c *Connector) nextCloudID() uint32 {
	c.idMu.Lock()
	defer c.idMu.Unlock()

	id := c.cloudID
	c.cloudID++

	return id
}

func (c *Connector) maybeSendIntrinsics(ctx context.Context) {
	c.intrMu.Lock()
	defer c.intrMu.Unlock()

	if c.intrinsics == nil {
		return
	}

	now := c.clock.Now()
	if !c.lastIntrinsics.IsZero() && now.Sub(c.lastIntrinsics) < time.Duration(c.cfg.IntrinsicsInterval) {
		return
	}

	packet, err := c.intrinsics.MarshalBinary()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode intrinsics")
		return
	}

	if err := c.sendPacket(ctx, packet); err != nil {
		c.logger.Debug().Err(err).Msg("Intrinsics send failed")
	}

	c.lastIntrinsics = now
}

func (c *Connector) sendFrame(ctx context.Context, h Header, payload []byte) error {
	packets, err := BuildPackets(h, payload, c.cfg.ChunkSize)
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", h.Type.String()).Msg("Dropping unfragmentable frame")
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	var errs []error

	for _, p := range packets {
		if err := c.sendPacket(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}

	metrics.RecordFrameSent(ctx, transportUDP, h.Type.String(), len(packets), len(payload))

	return errors.Join(errs...)
}

// sendPacket tries every destination; one failing does not skip the rest.
func (c *Connector) sendPacket(ctx context.Context, packet []byte) error {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	var errs []error

	for _, dst := range c.dests {
		if _, err := c.conn.WriteToUDP(packet, dst); err != nil {
			metrics.RecordSendError(ctx, transportUDP)
			errs = append(errs, fmt.Errorf("send to %s: %w", dst, err))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		c.logger.Debug().Err(err).Msg("UDP send failed")

		return err
	}

	return nil
}

func addrStrings(addrs []*net.UDPAddr) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}

	return out
}
