package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gopherblog/internal/flagx"
	"github.com/dmitrijs2005/gopherblog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "24h"-style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	HealthAddrGRPC        string         `json:"health_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	CORSAllowedOrigins    string         `json:"cors_allowed_origins"`
	StorageBackend        string         `json:"storage_backend"`
	UploadDir             string         `json:"upload_dir"`
	MaxUploadSize         int64          `json:"max_upload_size"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	LogLevel              string         `json:"log_level"`
	LogBackend            string         `json:"log_backend"`
}

// parseJson overlays values from the file named by -c/-config. Fields absent
// from the file keep their current value. An unreadable or invalid file
// panics, as a broken config file is a deployment error.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	setString(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.UploadDir, c.UploadDir)
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
