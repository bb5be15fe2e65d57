package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/noderadar/pkg/models"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:10081", cfg.ListenAddr)
	assert.Equal(t, models.Duration(time.Second), cfg.NodeExpiry)
	assert.Equal(t, models.Duration(10*time.Millisecond), cfg.PollInterval)
	assert.Equal(t, "XR Quest", cfg.Discovery.ServiceName)
	assert.Equal(t, 9999, cfg.Discovery.Port)
	assert.False(t, cfg.Discovery.Enabled)
}

func TestConfigFromJSON(t *testing.T) {
	doc := `{
		"listen_addr": "0.0.0.0:10081",
		"node_expiry": "2s",
		"poll_interval": "20ms",
		"discovery": {"enabled": true, "service_name": "Lab", "port": 9998},
		"cors": {"allowed_origins": ["*"]},
		"nats": {"enabled": true, "url": "nats://127.0.0.1:4222"}
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.Duration(2*time.Second), cfg.NodeExpiry)
	assert.Equal(t, models.Duration(20*time.Millisecond), cfg.PollInterval)
	assert.Equal(t, "Lab", cfg.Discovery.ServiceName)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "NODERADAR_EVENTS", cfg.NATS.Stream)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"nats without url", Config{NATS: models.NATSConfig{Enabled: true}}},
		{"bad discovery port", Config{Discovery: DiscoveryConfig{Port: 70000}}},
		{"poll slower than expiry", Config{
			NodeExpiry:   models.Duration(time.Second),
			PollInterval: models.Duration(2 * time.Second),
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.cfg.Validate(), errInvalidConfig)
		})
	}
}

func TestExpiryOverlay(t *testing.T) {
	var overlay expiryOverlay

	require.NoError(t, json.Unmarshal([]byte(`{"node_expiry":"3s","listen_addr":"ignored"}`), &overlay))
	assert.Equal(t, models.Duration(3*time.Second), overlay.NodeExpiry)
}
