package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		expected    func() *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-s", "secret", "-t", "5",
				"-r", "/usr/bin/recognize", "-m", "map.json", "-w", "12",
				"-voters", "voters.json", "-redis", "localhost:6379", "-require-token=false", "-trust-proxy", "-archive",
				"-b", "bucket", "-e", "http://endpoint", "-l", "debug",
			},
			expected: func() *Config {
				c := defaults()
				c.EndpointAddrHTTP = "127.0.0.1:9090"
				c.EndpointAddrGRPC = ":6000"
				c.DatabaseDSN = "db"
				c.VotersFile = "voters.json"
				c.SecretKey = "secret"
				c.VoterTokenValidityDuration = 5 * time.Minute
				c.RecognizerCommand = "/usr/bin/recognize"
				c.UsernameMappingFile = "map.json"
				c.RecognitionTimeout = 12 * time.Second
				c.RedisAddr = "localhost:6379"
				c.RequireVoterToken = false
				c.TrustProxy = true
				c.ArchiveTranscripts = true
				c.S3Bucket = "bucket"
				c.S3BaseEndpoint = "http://endpoint"
				c.LogLevel = "debug"
				return c
			},
		},
		{
			name:     "unknown flags ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-x", "1", "-a", ":1"},
			expected: func() *Config { c := defaults(); c.EndpointAddrHTTP = ":1"; return c },
		},
		{
			name:        "bad int panics",
			args:        []string{"cmd", "-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := defaults()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected()))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
