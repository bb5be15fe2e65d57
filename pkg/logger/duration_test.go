package logger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Duration
		wantErr  bool
	}{
		{name: "string", input: `"5s"`, expected: Duration(5 * time.Second)},
		{name: "nanoseconds", input: `5000000000`, expected: Duration(5 * time.Second)},
		{name: "compound", input: `"1m30s"`, expected: Duration(90 * time.Second)},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bad type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestOTelConfigFromJSON(t *testing.T) {
	var config OTelConfig

	err := json.Unmarshal([]byte(`{
		"enabled": true,
		"endpoint": "collector:4317",
		"service_name": "noderadar-registry",
		"batch_timeout": "10s",
		"insecure": true,
		"headers": {"x-api-key": "k"}
	}`), &config)
	require.NoError(t, err)

	assert.True(t, config.Enabled)
	assert.Equal(t, "collector:4317", config.Endpoint)
	assert.Equal(t, "noderadar-registry", config.ServiceName)
	assert.Equal(t, Duration(10*time.Second), config.BatchTimeout)
	assert.True(t, config.Insecure)
	assert.Equal(t, "k", config.Headers["x-api-key"])
}
