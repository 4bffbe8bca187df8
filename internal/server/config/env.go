package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading the environment. Variables already set in
// the process environment are not overridden by it.
var envFile = ".env"

// parseEnv overlays values from environment variables. PORT is accepted for
// compatibility with PaaS hosts and becomes ":<PORT>".
func parseEnv(config *Config) {
	_ = godotenv.Load(envFile)

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		config.HTTPAddr = ":" + port
	}
	lookupString("HTTP_ADDR", &config.HTTPAddr)
	lookupString("HEALTH_ADDR", &config.HealthAddrGRPC)
	lookupString("DATABASE_DSN", &config.DatabaseDSN)
	lookupString("SECRET", &config.SecretKey)
	lookupDuration("TOKEN_TTL", &config.TokenValidityDuration)
	lookupDuration("REQUEST_TIMEOUT", &config.RequestTimeout)
	lookupString("CORS_ALLOWED_ORIGINS", &config.CORSAllowedOrigins)
	lookupString("STORAGE_BACKEND", &config.StorageBackend)
	lookupString("UPLOAD_DIR", &config.UploadDir)
	lookupInt64("MAX_UPLOAD_SIZE", &config.MaxUploadSize)
	lookupString("S3_ROOT_USER", &config.S3RootUser)
	lookupString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	lookupString("S3_BUCKET", &config.S3Bucket)
	lookupString("S3_REGION", &config.S3Region)
	lookupString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	lookupString("LOG_LEVEL", &config.LogLevel)
	lookupString("LOG_BACKEND", &config.LogBackend)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// malformed numeric values are ignored and the previous value is kept
func lookupDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func lookupInt64(key string, dst *int64) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
