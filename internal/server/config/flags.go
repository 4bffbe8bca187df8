package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":4000")
//	-m string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t int      token validity, minutes
//	-x int      per-request timeout, seconds
//	-o string   comma-separated CORS origins
//	-k string   storage backend: local | s3
//	-f string   upload directory (local storage)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
//	-n string   log backend: slog | logrus
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-m", "-d", "-s", "-t", "-x", "-o", "-k", "-f",
		"-u", "-p", "-b", "-g", "-e", "-l", "-n",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run HTTP server")
	fs.StringVar(&config.HealthAddrGRPC, "m", config.HealthAddrGRPC, "address and port of gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	requestTimeout := fs.Int("x", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	fs.StringVar(&config.CORSAllowedOrigins, "o", config.CORSAllowedOrigins, "CORS allowed origins, comma-separated")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "cover storage backend (local|s3)")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory for local storage")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "n", config.LogBackend, "log backend (slog|logrus)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
