package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/facevote/internal/flagx"
	"github.com/dmitrijs2005/facevote/internal/timex"
)

// ConfigEnvVar names the environment variable consulted when neither -c
// nor -config is given.
const ConfigEnvVar = "FACEVOTE_CLIENT_CONFIG"

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	HealthAddr          string         `json:"health_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	RecognitionTimeout  timex.Duration `json:"recognition_timeout"`
	AuthMode            string         `json:"auth_mode"`
	DataDir             string         `json:"data_dir"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c/-config, then FACEVOTE_CLIENT_CONFIG. When
// neither is set no JSON is loaded. Fields absent from the file keep their
// current values. Read or unmarshal errors panic.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(ConfigEnvVar)
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.HealthAddr, jc.HealthAddr)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RecognitionTimeout.Duration > 0 {
		cfg.RecognitionTimeout = jc.RecognitionTimeout.Duration
	}
	setString(&cfg.AuthMode, jc.AuthMode)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
