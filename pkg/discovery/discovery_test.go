package discovery

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/noderadar/pkg/logger"
)

func startListener(t *testing.T, service string) *Listener {
	t.Helper()

	l := NewListener(service, 0, logger.NewTestLogger(), WithBindAddress("127.0.0.1"))
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(l.Stop)

	return l
}

func send(t *testing.T, addr net.Addr, payload []byte) {
	t.Helper()

	conn, err := net.Dial("udp4", addr.String())
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	_, err = conn.Write(payload)
	require.NoError(t, err)
}

func announce(t *testing.T, addr net.Addr, ann Announcement) {
	t.Helper()

	b, err := json.Marshal(ann)
	require.NoError(t, err)

	send(t, addr, b)
}

func TestListenerCachesMatchingService(t *testing.T) {
	l := startListener(t, "XR Quest")

	_, ok := l.Latest()
	assert.False(t, ok)
	assert.Nil(t, l.Remote())

	send(t, l.LocalAddr(), []byte("not json"))
	announce(t, l.LocalAddr(), Announcement{Service: "Other", IP: "10.0.0.2", Ports: map[string]int{"stream": 1}})
	announce(t, l.LocalAddr(), Announcement{Service: "XR Quest", IP: "10.0.0.1", Ports: map[string]int{"stream": 9001}})

	require.Eventually(t, func() bool {
		_, ok := l.Latest()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	rec, _ := l.Latest()
	assert.Equal(t, "XR Quest", rec.ServiceName)
	assert.Equal(t, "10.0.0.1", rec.IP)
	assert.Equal(t, map[string]int{"stream": 9001}, rec.Ports)
	assert.False(t, rec.LastSeen.IsZero())

	remote := l.Remote()
	require.NotNil(t, remote)
	assert.Equal(t, "10.0.0.1", remote.RemoteIP)
	assert.Equal(t, 9001, remote.RemotePorts["stream"])
}

func TestListenerKeepsOnlyLatest(t *testing.T) {
	l := startListener(t, "XR Quest")

	announce(t, l.LocalAddr(), Announcement{Service: "XR Quest", IP: "10.0.0.1", Ports: map[string]int{"stream": 9001}})
	announce(t, l.LocalAddr(), Announcement{Service: "XR Quest", IP: "10.0.0.7", Ports: map[string]int{"control": 9002}})

	require.Eventually(t, func() bool {
		rec, ok := l.Latest()
		return ok && rec.IP == "10.0.0.7"
	}, 2*time.Second, 10*time.Millisecond)

	rec, _ := l.Latest()
	assert.Equal(t, map[string]int{"control": 9002}, rec.Ports)

	// callers get copies
	rec.Ports["control"] = 1

	again, _ := l.Latest()
	assert.Equal(t, 9002, again.Ports["control"])
}

func TestListenerRestartSwitchesService(t *testing.T) {
	l := startListener(t, "XR Quest")

	require.NoError(t, l.Restart(context.Background(), "Robot Arm"))
	assert.Equal(t, "Robot Arm", l.ServiceName())
	require.NotNil(t, l.LocalAddr())

	announce(t, l.LocalAddr(), Announcement{Service: "XR Quest", IP: "10.0.0.1"})
	announce(t, l.LocalAddr(), Announcement{Service: "Robot Arm", IP: "10.0.0.3", Ports: map[string]int{"udp": 5005}})

	require.Eventually(t, func() bool {
		rec, ok := l.Latest()
		return ok && rec.IP == "10.0.0.3"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, l.Restart(context.Background(), ""))
	assert.Equal(t, "Robot Arm", l.ServiceName())
}

func TestListenerStop(t *testing.T) {
	l := NewListener("", 0, nil, WithBindAddress("127.0.0.1"))
	assert.Equal(t, DefaultServiceName, l.ServiceName())

	require.NoError(t, l.Start(context.Background()))
	require.NotNil(t, l.LocalAddr())

	l.Stop()
	assert.Nil(t, l.LocalAddr())

	// second stop is a no-op
	l.Stop()
}

func TestAnnouncerReachesListener(t *testing.T) {
	l := startListener(t, "XR Quest")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewAnnouncer(
		Announcement{IP: "192.168.1.100", Ports: map[string]int{"stream": 9001, "control": 9002}},
		WithTarget(l.LocalAddr().String()),
		WithInterval(20*time.Millisecond),
		WithAnnouncerLogger(logger.NewTestLogger()),
	)

	errCh := make(chan error, 1)

	go func() { errCh <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		rec, ok := l.Latest()
		return ok && rec.Ports["control"] == 9002
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestAnnouncerBadTarget(t *testing.T) {
	a := NewAnnouncer(Announcement{}, WithTarget("not-an-address"))
	require.Error(t, a.Run(context.Background()))
}
