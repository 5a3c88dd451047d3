package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/facevote/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-voters string        JSON file with voters to import on start
//	-s string   voter token HMAC secret key
//	-t int      voter token validity, minutes
//	-r string   recognizer command
//	-m string   username mapping file
//	-w int      recognition timeout, seconds
//	-redis string         Redis address for the attempt limiter
//	-require-token bool   require voter tokens on ballot submission
//	-trust-proxy bool     key the attempt limiter on X-Forwarded-For
//	-archive bool         archive recognition transcripts to S3
//	-b string   S3 bucket name
//	-e string   S3 base endpoint
//	-l string   log level (debug, info, warn, error)
//
// Durations are accepted as integers in the unit shown above. Boolean
// flags must use the -flag=value form when set to false.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-s", "-t", "-r", "-m", "-w",
		"-voters", "-redis", "-require-token", "-trust-proxy", "-archive", "-b", "-e", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.VotersFile, "voters", config.VotersFile, "voters file to import")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	voterTokenValidity := fs.Int("t", int(config.VoterTokenValidityDuration.Minutes()), "voter_token_validity_duration (in minutes)")

	fs.StringVar(&config.RecognizerCommand, "r", config.RecognizerCommand, "recognizer command")
	fs.StringVar(&config.UsernameMappingFile, "m", config.UsernameMappingFile, "username mapping file")

	recognitionTimeout := fs.Int("w", int(config.RecognitionTimeout.Seconds()), "recognition timeout (in seconds)")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for the attempt limiter")
	fs.BoolVar(&config.RequireVoterToken, "require-token", config.RequireVoterToken, "require voter token on ballot submission")
	fs.BoolVar(&config.TrustProxy, "trust-proxy", config.TrustProxy, "trust X-Forwarded-For from a reverse proxy")
	fs.BoolVar(&config.ArchiveTranscripts, "archive", config.ArchiveTranscripts, "archive recognition transcripts")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.VoterTokenValidityDuration = time.Duration(*voterTokenValidity) * time.Minute
	config.RecognitionTimeout = time.Duration(*recognitionTimeout) * time.Second
}
