package main

import "os"

const defaultKVBucket = "noderadar-config"

// envNATSURL returns the NATS URL used for CONFIG_SOURCE=kv, if any.
func envNATSURL() string {
	if os.Getenv("CONFIG_SOURCE") != "kv" {
		return ""
	}

	return os.Getenv("NATS_URL")
}

func envKVBucket() string {
	if b := os.Getenv("KV_BUCKET"); b != "" {
		return b
	}

	return defaultKVBucket
}
