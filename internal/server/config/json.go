package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/facevote/internal/flagx"
	"github.com/dmitrijs2005/facevote/internal/timex"
)

// ConfigEnvVar names the environment variable consulted when neither -c
// nor -config is given.
const ConfigEnvVar = "FACEVOTE_SERVER_CONFIG"

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
// Pointers distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	EndpointAddrHTTP           string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC           string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                string         `json:"database_dsn"`
	VotersFile                 string         `json:"voters_file"`
	SecretKey                  string         `json:"secret_key"`
	VoterTokenValidityDuration timex.Duration `json:"voter_token_validity_duration"`
	RequireVoterToken          *bool          `json:"require_voter_token"`
	TrustProxy                 *bool          `json:"trust_proxy"`
	RecognizerCommand          string         `json:"recognizer_command"`
	RecognizerArgs             []string       `json:"recognizer_args"`
	RecognizerDir              string         `json:"recognizer_dir"`
	UsernameMappingFile        string         `json:"username_mapping_file"`
	RecognitionDuration        int            `json:"recognition_duration"`
	ConfidenceThreshold        *int           `json:"confidence_threshold"`
	RecognitionTimeout         timex.Duration `json:"recognition_timeout"`
	RedisAddr                  string         `json:"redis_addr"`
	AttemptLimit               int            `json:"attempt_limit"`
	AttemptWindow              timex.Duration `json:"attempt_window"`
	ArchiveTranscripts         *bool          `json:"archive_transcripts"`
	S3RootUser                 string         `json:"s3_root_user"`
	S3RootPassword             string         `json:"s3_root_password"`
	S3Bucket                   string         `json:"s3_bucket"`
	S3Region                   string         `json:"s3_region"`
	S3BaseEndpoint             string         `json:"s3_base_endpoint"`
	LogLevel                   string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// FACEVOTE_SERVER_CONFIG) onto config. Fields absent from the file keep
// their current values. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(ConfigEnvVar)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.VotersFile, c.VotersFile)
	setString(&config.SecretKey, c.SecretKey)
	if c.VoterTokenValidityDuration.Duration > 0 {
		config.VoterTokenValidityDuration = c.VoterTokenValidityDuration.Duration
	}
	if c.RequireVoterToken != nil {
		config.RequireVoterToken = *c.RequireVoterToken
	}
	if c.TrustProxy != nil {
		config.TrustProxy = *c.TrustProxy
	}
	setString(&config.RecognizerCommand, c.RecognizerCommand)
	if c.RecognizerArgs != nil {
		config.RecognizerArgs = c.RecognizerArgs
	}
	setString(&config.RecognizerDir, c.RecognizerDir)
	setString(&config.UsernameMappingFile, c.UsernameMappingFile)
	if c.RecognitionDuration > 0 {
		config.RecognitionDuration = c.RecognitionDuration
	}
	if c.ConfidenceThreshold != nil {
		config.ConfidenceThreshold = *c.ConfidenceThreshold
	}
	if c.RecognitionTimeout.Duration > 0 {
		config.RecognitionTimeout = c.RecognitionTimeout.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	if c.AttemptLimit > 0 {
		config.AttemptLimit = c.AttemptLimit
	}
	if c.AttemptWindow.Duration > 0 {
		config.AttemptWindow = c.AttemptWindow.Duration
	}
	if c.ArchiveTranscripts != nil {
		config.ArchiveTranscripts = *c.ArchiveTranscripts
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
