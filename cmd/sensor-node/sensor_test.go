package main

import (
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

type fakeNode struct {
	peer    bool
	config  []interface{}
	actions []models.Action

	rgb, depth, clouds int
	lastCloud          []udpstream.Point
	control            []interface{}
}

func (*fakeNode) Start(context.Context) error { return nil }
func (*fakeNode) Stop(context.Context) error  { return nil }

func (f *fakeNode) IsConnected() (bool, bool) { return true, f.peer }

func (f *fakeNode) GetActions() []models.Action {
	out := f.actions
	f.actions = nil

	return out
}

func (f *fakeNode) GetLatestConfig() (bool, []interface{}) {
	if f.config == nil {
		return false, nil
	}

	out := f.config
	f.config = nil

	return true, out
}

func (f *fakeNode) SendRGBFrame(image.Image) error { f.rgb++; return nil }

func (f *fakeNode) SendDepthFrame(*image.Gray16) error { f.depth++; return nil }

func (f *fakeNode) SendPointCloud(points []udpstream.Point) error {
	f.clouds++
	f.lastCloud = points

	return nil
}

func (f *fakeNode) SendControl(v interface{}) bool {
	f.control = append(f.control, v)
	return true
}

func (*fakeNode) ControlMessages() []json.RawMessage { return nil }

func newTestSensor(t *testing.T, node *fakeNode) *sensor {
	t.Helper()

	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	return newSensor(cfg, node, clock.NewMock(), logger.NewTestLogger())
}

func TestSendFramesNeedsPeer(t *testing.T) {
	node := &fakeNode{}
	s := newTestSensor(t, node)

	s.sendFrames()
	assert.Zero(t, node.rgb)

	node.peer = true
	s.sendFrames()
	assert.Equal(t, 1, node.rgb)
	assert.Equal(t, 1, node.depth)
	assert.Equal(t, 1, node.clouds)
	assert.Len(t, node.lastCloud, defaultPoints)
}

func TestApplyConfig(t *testing.T) {
	node := &fakeNode{peer: true, config: []interface{}{false, true, true, 300.0}}
	s := newTestSensor(t, node)

	s.housekeeping()
	s.sendFrames()

	assert.Zero(t, node.rgb)
	assert.Equal(t, 1, node.depth)
	assert.Len(t, node.lastCloud, 300)
	require.Len(t, node.control, 1)
}

func TestApplyConfigIgnoresWrongTypes(t *testing.T) {
	s := newTestSensor(t, &fakeNode{})

	s.applyConfig([]interface{}{"yes", nil})

	st, _ := s.current()
	assert.True(t, st.rgb)
	assert.True(t, st.depth)
}

func TestActions(t *testing.T) {
	node := &fakeNode{peer: true}
	s := newTestSensor(t, node)

	s.sendFrames()
	s.sendFrames()

	node.actions = []models.Action{
		{Name: "sphere_radius", Params: []interface{}{2.0}},
		{Name: "unknown"},
	}
	s.housekeeping()

	st, tick := s.current()
	assert.InDelta(t, 2.0, st.radius, 1e-9)
	assert.Equal(t, uint32(2), tick)

	node.actions = []models.Action{{Name: "reset"}}
	s.housekeeping()

	st, tick = s.current()
	assert.InDelta(t, defaultRadius, st.radius, 1e-9)
	assert.Zero(t, tick)
}

func TestSyntheticFrames(t *testing.T) {
	rgb := gradientFrame(4, 3, 7)
	assert.Equal(t, uint8(255), rgb.RGBAAt(3, 0).R)
	assert.Equal(t, uint8(255), rgb.RGBAAt(0, 2).G)
	assert.Equal(t, uint8(7), rgb.RGBAAt(1, 1).B)

	depth := depthRamp(5, 2, 0)
	assert.Equal(t, uint16(nearMM), depth.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(farMM), depth.Gray16At(4, 1).Y)

	points := spherePoints(100, 1, 0)
	require.Len(t, points, 100)

	for _, p := range points {
		// centered 1.5m in front of the camera
		r := (p.X*p.X + p.Y*p.Y + (p.Z-1.5)*(p.Z-1.5))
		assert.InDelta(t, 1.0, r, 1e-3)
	}

	in := syntheticIntrinsics(320, 240)
	assert.Equal(t, 320, in.RGB.Width)
	assert.InDelta(t, 160, in.RGB.PPX, 1e-6)
}

func TestSchemasValidate(t *testing.T) {
	cs, as := sensorSchemas()

	require.NoError(t, cs.Validate())
	require.NoError(t, as.Validate())
	assert.Len(t, cs.Defaults(), 4)
	assert.Equal(t, []string{"reset", "sphere_radius"}, as.Names())
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sensor", cfg.NodeName)
	assert.Equal(t, defaultFrameRate, cfg.FrameRate)
	assert.Equal(t, "stream", cfg.ServicePort)

	cfg.FrameRate = 500
	require.ErrorIs(t, cfg.Validate(), errInvalidConfig)
}
