package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/facevote/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the HTTP API
//	-g string   address and port of the gRPC health endpoint
//	-i int      online check interval (in seconds)
//	-t int      request timeout (in seconds)
//	-w int      face recognition timeout (in seconds)
//	-mode string  "biometric" or "standard"
//	-data string  directory for the local receipts database
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-i", "-t", "-w", "-mode", "-data", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server API")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the server health endpoint")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	recognitionTimeout := fs.Int("w", int(cfg.RecognitionTimeout.Seconds()), "face recognition timeout (in seconds)")
	fs.StringVar(&cfg.AuthMode, "mode", cfg.AuthMode, "authentication mode (biometric or standard)")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.RecognitionTimeout = time.Duration(*recognitionTimeout) * time.Second
}
