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

package logger

import (
	"context"
	"os"
	"strings"
	"time"
)

const (
	defaultServiceName  = "noderadar"
	defaultBatchTimeout = 5 * time.Second

	// EnvPrefix namespaces logging variables, e.g. NODERADAR_LOG_LEVEL. The
	// unprefixed name is read when the prefixed one is unset.
	EnvPrefix = "NODERADAR_"
)

// DefaultConfig builds a logging config from the environment.
func DefaultConfig() *Config {
	return DefaultConfigFor("")
}

// DefaultConfigFor is DefaultConfig for one binary. Its OTel service name is
// "noderadar-<component>" unless OTEL_SERVICE_NAME is set.
func DefaultConfigFor(component string) *Config {
	return &Config{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:      getEnvBoolOrDefault("DEBUG", false),
		Output:     getEnvOrDefault("LOG_OUTPUT", "stdout"),
		TimeFormat: getEnvOrDefault("LOG_TIME_FORMAT", ""),
		OTel:       otelConfigFor(component),
	}
}

// DefaultOTelConfig returns the OTel log exporter settings for the shared service name.
func DefaultOTelConfig() OTelConfig {
	return otelConfigFor("")
}

// ApplyDefaults fills the fields a config file left empty. The environment
// only supplies values the file did not set.
func (c *Config) ApplyDefaults(component string) {
	def := DefaultConfigFor(component)

	if c.Level == "" {
		c.Level = def.Level
	}

	if c.Output == "" {
		c.Output = def.Output
	}

	c.Debug = c.Debug || def.Debug

	if c.OTel.ServiceName == "" {
		c.OTel.ServiceName = def.OTel.ServiceName
	}

	if c.OTel.BatchTimeout <= 0 {
		c.OTel.BatchTimeout = def.OTel.BatchTimeout
	}
}

func serviceNameFor(component string) string {
	if component == "" {
		return defaultServiceName
	}

	return defaultServiceName + "-" + component
}

func otelConfigFor(component string) OTelConfig {
	batchTimeout := defaultBatchTimeout

	if timeoutStr := lookupEnv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"); timeoutStr != "" {
		if d, err := time.ParseDuration(timeoutStr); err == nil {
			batchTimeout = d
		}
	}

	return OTelConfig{
		Enabled:      getEnvBoolOrDefault("OTEL_LOGS_ENABLED", false),
		Endpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", ""),
		Headers:      parseHeaders(lookupEnv("OTEL_EXPORTER_OTLP_LOGS_HEADERS")),
		ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", serviceNameFor(component)),
		BatchTimeout: Duration(batchTimeout),
		Insecure:     getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_LOGS_INSECURE", false),
	}
}

// parseHeaders reads "k1=v1,k2=v2".
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok && strings.TrimSpace(k) != "" {
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return headers
}

func lookupEnv(key string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}

	return os.Getenv(key)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := lookupEnv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(lookupEnv(key)) {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func InitWithDefaults(ctx context.Context) error {
	return Init(ctx, DefaultConfig())
}
