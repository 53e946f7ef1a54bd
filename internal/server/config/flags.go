package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-D", "-d", "-r", "-s", "-t", "-f", "-k", "-l", "-b"}

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   metrics bind address (e.g., ":9090")
//	-D string   database driver: pgx or sqlite
//	-d string   database DSN
//	-r int      database connect attempts
//	-s string   session HMAC secret key
//	-t int      session validity, minutes
//	-f string   NVD base URL
//	-k string   default keyword for ingestion ("" = no filter)
//	-l string   log level
//	-b string   S3 archive bucket ("" disables the archive)
//
// args are filtered first so flags owned by other components are ignored.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for metrics")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.DBConnectAttempts, "r", config.DBConnectAttempts, "database connect attempts")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")

	fs.StringVar(&config.FeedBaseURL, "f", config.FeedBaseURL, "NVD base URL")
	fs.StringVar(&config.FeedKeyword, "k", config.FeedKeyword, "default keyword search")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags...)); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
