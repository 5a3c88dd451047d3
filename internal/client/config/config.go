package config

import "time"

// Auth modes accepted in AuthMode.
const (
	AuthModeBiometric = "biometric"
	AuthModeStandard  = "standard"
)

// Config holds runtime settings for the facevote CLI.
//
// Fields:
//   - ServerURL: base URL of the facevote HTTP API.
//   - HealthAddr: host:port of the server gRPC health endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: per-request timeout for lookups and ballot submission.
//   - RecognitionTimeout: timeout for the face recognition call. It must be
//     longer than the server-side recognition timeout.
//   - AuthMode: "biometric" or "standard".
//   - DataDir: directory holding the local receipts database.
type Config struct {
	ServerURL           string
	HealthAddr          string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	RecognitionTimeout  time.Duration
	AuthMode            string
	DataDir             string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.RecognitionTimeout = 45 * time.Second
	c.AuthMode = AuthModeBiometric
	c.DataDir = "."
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
