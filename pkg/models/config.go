package models

// CORSConfig lists the origins allowed to call the HTTP API and open websockets.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// NATSConfig enables lifecycle event publishing and KV-backed config.
type NATSConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Stream   string `json:"stream,omitempty"`
	KVBucket string `json:"kv_bucket,omitempty"`
}
