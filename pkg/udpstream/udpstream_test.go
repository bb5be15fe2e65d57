package udpstream

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Type: FrameTypeRGB, FrameID: 0xA1B2C3D4, FragmentSeq: 3, FragmentTotal: 9}
	b := h.AppendBinary(nil)

	require.Len(t, b, HeaderSize)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0xA1, 0xB2, 0xC3, 0xD4, 0x00, 0x03, 0x00, 0x09}, b)

	got, rest, err := ParseHeader(append(b, 0x42))
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, []byte{0x42}, rest)

	pc := Header{Type: FrameTypePointCloud, FrameID: 7, FragmentTotal: 1, PointCount: 1000}
	b = pc.AppendBinary(nil)
	require.Len(t, b, PointCloudHeaderSize)

	got, _, err = ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, pc, got)

	_, _, err = ParseHeader(b[:10])
	require.ErrorIs(t, err, ErrShortPacket)

	b[0] = 0
	_, _, err = ParseHeader(b)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestFragmentCount(t *testing.T) {
	tests := []struct {
		length, chunk, header int
	}{
		{0, 1200, HeaderSize},
		{1, 1200, HeaderSize},
		{1187, 1200, HeaderSize},
		{1188, 1200, HeaderSize},
		{50000, 1200, HeaderSize},
		{9 * 1000, 1200, PointCloudHeaderSize},
		{1000, 64, PointCloudHeaderSize},
	}

	for _, tt := range tests {
		payload := make([]byte, tt.length)
		_, _ = rand.New(rand.NewSource(int64(tt.length))).Read(payload)

		frags, err := Fragment(payload, tt.chunk, tt.header)
		require.NoError(t, err)

		per := tt.chunk - tt.header
		assert.Len(t, frags, (tt.length+per-1)/per)

		var joined []byte
		for _, f := range frags {
			assert.LessOrEqual(t, len(f), per)
			joined = append(joined, f...)
		}

		assert.Equal(t, len(payload), len(joined))
		assert.Equal(t, payload, append([]byte{}, joined...)[:len(payload)])
	}

	_, err := Fragment([]byte{1}, 13, HeaderSize)
	require.ErrorIs(t, err, ErrChunkTooSmall)
}

func TestBuildAndReassemble(t *testing.T) {
	payload := make([]byte, 5000)
	_, _ = rand.New(rand.NewSource(1)).Read(payload)

	packets, err := BuildPackets(Header{Type: FrameTypeDepth, FrameID: 42}, payload, 1200)
	require.NoError(t, err)
	require.Len(t, packets, 5)

	for _, p := range packets {
		assert.LessOrEqual(t, len(p), 1200)
	}

	shuffled := append([][]byte{}, packets...)
	rand.New(rand.NewSource(2)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	h, got, err := Reassemble(shuffled)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeDepth, h.Type)
	assert.Equal(t, uint32(42), h.FrameID)
	assert.Equal(t, uint16(5), h.FragmentTotal)
	assert.Equal(t, payload, got)

	_, _, err = Reassemble(packets[:4])
	require.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestQuantizePoints(t *testing.T) {
	b := QuantizePoints([]Point{{X: 1.234, Y: -0.5, Z: 2.0, R: 10, G: 20, B: 30}})
	require.Len(t, b, 9)

	// 1234 = 0x04D2, -500 = 0xFE0C, 2000 = 0x07D0
	assert.Equal(t, []byte{0x04, 0xD2, 0xFE, 0x0C, 0x07, 0xD0, 10, 20, 30}, b)

	pts, err := DecodePoints(b)
	require.NoError(t, err)
	assert.Equal(t, []QuantizedPoint{{X: 1234, Y: -500, Z: 2000, R: 10, G: 20, B: 30}}, pts)

	_, err = DecodePoints(b[:8])
	require.ErrorIs(t, err, ErrBadPointPayload)
}

func TestQuantizeWraps(t *testing.T) {
	pts, err := DecodePoints(QuantizePoints([]Point{{X: 40}}))
	require.NoError(t, err)
	assert.Equal(t, int16(40000-65536), pts[0].X)
}

func TestDepthPNGRoundTrip(t *testing.T) {
	depth := image.NewGray16(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			depth.SetGray16(x, y, color.Gray16{Y: uint16(y*4096 + x*97)})
		}
	}

	b, err := EncodeDepthPNG(depth)
	require.NoError(t, err)

	got, err := DecodeDepthPNG(b)
	require.NoError(t, err)
	assert.Equal(t, depth.Pix, got.Pix)

	_, err = EncodeDepthPNG(nil)
	require.ErrorIs(t, err, ErrEncoding)
}

func testIntrinsics() Intrinsics {
	return Intrinsics{
		RGB:   CameraIntrinsics{Fx: 615.2, Fy: 615.9, PPX: 320.5, PPY: 240.25, Width: 640, Height: 480},
		Depth: CameraIntrinsics{Fx: 385.1, Fy: 385.1, PPX: 318.0, PPY: 239.5, Width: 848, Height: 480},
		Extrinsics: Extrinsics{
			Rotation:    [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
			Translation: [3]float32{0.015, -0.0002, 0.0001},
		},
	}
}

func TestIntrinsicsPacket(t *testing.T) {
	in := testIntrinsics()

	b, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 100)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, b[:4])

	got, err := UnmarshalIntrinsics(b)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = UnmarshalIntrinsics(b[:99])
	require.ErrorIs(t, err, ErrBadIntrinsics)
}

type fakeWriter struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   map[string][][]byte
	closed bool
}

func newFakeWriter(fail ...string) *fakeWriter {
	fw := &fakeWriter{fail: map[string]bool{}, sent: map[string][][]byte{}}
	for _, f := range fail {
		fw.fail[f] = true
	}

	return fw
}

var errUnreachable = errors.New("network unreachable")

func (f *fakeWriter) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[addr.String()] {
		return 0, errUnreachable
	}

	f.sent[addr.String()] = append(f.sent[addr.String()], append([]byte{}, b...))

	return len(b), nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	return nil
}

func (f *fakeWriter) packets(addr string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sent[addr]
}

func newFakeConnector(t *testing.T, fw *fakeWriter, cfg Config, clk clock.Clock) *Connector {
	t.Helper()

	c := NewConnector(WithConfig(cfg), WithClock(clk))
	c.listen = func() (packetWriter, error) { return fw, nil }

	require.NoError(t, c.Connect("10.0.0.9", 5000))

	return c
}

func TestFanOutSurvivesFailingDestination(t *testing.T) {
	fw := newFakeWriter("10.0.0.9:5000")
	cfg := DefaultConfig()
	cfg.LocalhostPort = 6000
	cfg.ExtraDestinations = []Destination{{IP: "10.0.0.20", Port: 7000}}

	c := newFakeConnector(t, fw, cfg, clock.NewMock())
	assert.Equal(t, []string{"10.0.0.9:5000", "127.0.0.1:6000", "10.0.0.20:7000"}, c.Destinations())

	err := c.SendPointCloud([]Point{{X: 1}, {Y: 1}})
	require.ErrorIs(t, err, errUnreachable)

	assert.Len(t, fw.packets("127.0.0.1:6000"), 1)
	assert.Len(t, fw.packets("10.0.0.20:7000"), 1)
	assert.Empty(t, fw.packets("10.0.0.9:5000"))
}

func TestDepthAndPointCloudShareCounter(t *testing.T) {
	fw := newFakeWriter()
	c := newFakeConnector(t, fw, DefaultConfig(), clock.NewMock())

	require.NoError(t, c.SendDepthFrame(image.NewGray16(image.Rect(0, 0, 4, 4))))
	require.NoError(t, c.SendPointCloud([]Point{{X: 0.1}}))
	require.NoError(t, c.SendRGBFrame(image.NewRGBA(image.Rect(0, 0, 8, 8))))

	var ids []uint32

	for _, p := range fw.packets("10.0.0.9:5000") {
		h, _, err := ParseHeader(p)
		require.NoError(t, err)

		ids = append(ids, h.FrameID)
	}

	// depth 0, point cloud 1 on the shared counter; rgb starts its own at 0
	assert.Equal(t, []uint32{0, 1, 0}, ids)
}

func TestFrameIDWraps(t *testing.T) {
	c := NewConnector()

	c.rgbID = math.MaxUint32
	assert.Equal(t, uint32(math.MaxUint32), c.nextRGBID())
	assert.Equal(t, uint32(0), c.nextRGBID())

	c.cloudID = math.MaxUint32
	c.nextCloudID()
	assert.Equal(t, uint32(0), c.nextCloudID())
}

func TestIntrinsicsPiggybackOnRGB(t *testing.T) {
	fw := newFakeWriter()
	mock := clock.NewMock()
	c := newFakeConnector(t, fw, DefaultConfig(), mock)

	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))

	// nothing until intrinsics are set
	require.NoError(t, c.SendRGBFrame(frame))

	c.SetCameraIntrinsics(testIntrinsics())
	require.NoError(t, c.SendPointCloud([]Point{{X: 1}}))
	require.NoError(t, c.SendRGBFrame(frame))
	require.NoError(t, c.SendRGBFrame(frame))

	mock.Add(DefaultIntrinsicsInterval)
	require.NoError(t, c.SendRGBFrame(frame))

	count := 0

	for _, p := range fw.packets("10.0.0.9:5000") {
		if len(p) == IntrinsicsPacketLen && p[0] == 0xCA {
			count++
		}
	}

	assert.Equal(t, 2, count)
}

func TestStatsResetOnFlush(t *testing.T) {
	fw := newFakeWriter()
	mock := clock.NewMock()
	c := newFakeConnector(t, fw, DefaultConfig(), mock)

	require.NoError(t, c.SendPointCloud([]Point{{X: 1}}))
	require.NoError(t, c.SendPointCloud([]Point{{X: 2}}))
	require.NoError(t, c.SendRGBFrame(image.NewRGBA(image.Rect(0, 0, 8, 8))))

	s := c.Stats()
	assert.Equal(t, 2, s.PointCloudFrames)
	assert.Equal(t, 1, s.RGBFrames)
	assert.Len(t, s.PointCloudEncode, 2)

	mock.Add(DefaultLogInterval)
	require.NoError(t, c.SendPointCloud([]Point{{X: 3}}))

	s = c.Stats()
	assert.Zero(t, s.PointCloudFrames)
	assert.Zero(t, s.RGBFrames)
	assert.Empty(t, s.PointCloudEncode)
	assert.Equal(t, mock.Now(), s.Since)
}

func TestEncodingFailureDropsFrame(t *testing.T) {
	fw := newFakeWriter()
	c := newFakeConnector(t, fw, DefaultConfig(), clock.NewMock())

	require.ErrorIs(t, c.SendRGBFrame(nil), ErrEncoding)
	require.ErrorIs(t, c.SendDepthFrame(nil), ErrEncoding)

	assert.Empty(t, fw.packets("10.0.0.9:5000"))
	assert.Equal(t, uint32(0), c.rgbID)
	assert.Equal(t, uint32(0), c.cloudID)
	assert.Zero(t, c.Stats().RGBFrames)
}

func TestNotConnected(t *testing.T) {
	c := NewConnector()

	assert.False(t, c.IsConnected())
	require.ErrorIs(t, c.SendRGBFrame(image.NewRGBA(image.Rect(0, 0, 2, 2))), ErrNotConnected)
	require.ErrorIs(t, c.SendPointCloud([]Point{{}}), ErrNotConnected)

	fw := newFakeWriter()
	c = newFakeConnector(t, fw, DefaultConfig(), clock.NewMock())
	c.Disconnect()

	assert.True(t, fw.closed)
	require.ErrorIs(t, c.SendDepthFrame(image.NewGray16(image.Rect(0, 0, 2, 2))), ErrNotConnected)
}

func TestConnectorOverLoopback(t *testing.T) {
	primary, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer primary.Close()

	mirror, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer mirror.Close()

	cfg := DefaultConfig()
	cfg.ChunkSize = 64
	cfg.LocalhostPort = mirror.LocalAddr().(*net.UDPAddr).Port

	c := NewConnector(WithConfig(cfg))
	require.NoError(t, c.Connect("127.0.0.1", primary.LocalAddr().(*net.UDPAddr).Port))
	defer c.Disconnect()

	points := make([]Point, 20)
	for i := range points {
		points[i] = Point{X: float32(i) / 10, Y: -1, Z: 0.5, R: uint8(i), G: 2, B: 3}
	}

	require.NoError(t, c.SendPointCloud(points))

	for _, conn := range []*net.UDPConn{primary, mirror} {
		var packets [][]byte

		buf := make([]byte, 2048)

		// 180 bytes of points over 47-byte fragments
		for len(packets) < 4 {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

			n, _, err := conn.ReadFromUDP(buf)
			require.NoError(t, err)

			packets = append(packets, append([]byte{}, buf[:n]...))
		}

		h, payload, err := Reassemble(packets)
		require.NoError(t, err)
		assert.Equal(t, uint32(20), h.PointCount)

		decoded, err := DecodePoints(payload)
		require.NoError(t, err)
		require.Len(t, decoded, 20)
		assert.Equal(t, int16(1900), decoded[19].X)
		assert.Equal(t, int16(-1000), decoded[19].Y)
		assert.Equal(t, uint8(19), decoded[19].R)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"chunk too small", func(c *Config) { c.ChunkSize = 17 }, false},
		{"chunk too big", func(c *Config) { c.ChunkSize = 70000 }, false},
		{"quality", func(c *Config) { c.JPEGQuality = 101 }, false},
		{"bad mirror", func(c *Config) { c.ExtraDestinations = []Destination{{IP: "", Port: 1}} }, false},
		{"good mirror", func(c *Config) { c.ExtraDestinations = []Destination{{IP: "10.0.0.1", Port: 1}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			if tt.ok {
				require.NoError(t, cfg.Validate())
			} else {
				require.Error(t, cfg.Validate())
			}
		})
	}
}
