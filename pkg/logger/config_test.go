package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearLoggingEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{"LOG_LEVEL", "LOG_OUTPUT", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"} {
		t.Setenv(key, "")
		t.Setenv(EnvPrefix+key, "")
	}
}

func TestDefaultConfigForComponent(t *testing.T) {
	clearLoggingEnv(t)

	cfg := DefaultConfigFor("registry")
	assert.Equal(t, "noderadar-registry", cfg.OTel.ServiceName)
	assert.Equal(t, Duration(5*time.Second), cfg.OTel.BatchTimeout)

	assert.Equal(t, "noderadar", DefaultConfig().OTel.ServiceName)
}

func TestDefaultConfigPrefersPrefixedEnv(t *testing.T) {
	clearLoggingEnv(t)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("NODERADAR_LOG_LEVEL", "debug")
	t.Setenv("NODERADAR_OTEL_LOGS_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "authorization=token, x-tenant = lab ,broken")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT", "250ms")

	cfg := DefaultConfigFor("sensor-node")

	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.OTel.Enabled)
	assert.Equal(t, map[string]string{"authorization": "token", "x-tenant": "lab"}, cfg.OTel.Headers)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.OTel.BatchTimeout)

	t.Setenv("NODERADAR_LOG_LEVEL", "")
	assert.Equal(t, "warn", DefaultConfig().Level)
}

func TestApplyDefaultsKeepsFileValues(t *testing.T) {
	clearLoggingEnv(t)

	cfg := &Config{Level: "error"}
	cfg.ApplyDefaults("registry")

	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, "noderadar-registry", cfg.OTel.ServiceName)
	assert.Equal(t, Duration(5*time.Second), cfg.OTel.BatchTimeout)

	cfg = &Config{OTel: OTelConfig{ServiceName: "custom"}}
	cfg.ApplyDefaults("registry")
	assert.Equal(t, "custom", cfg.OTel.ServiceName)
	assert.Equal(t, "info", cfg.Level)
}
