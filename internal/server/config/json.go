package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cvewatch/internal/flagx"
	"github.com/dmitrijs2005/cvewatch/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Durations use
// timex.Duration so files may say "30s" or integer nanoseconds. Only keys
// present in the file override the current values.
type JsonConfig struct {
	HTTPAddr                *string         `json:"http_addr"`
	MetricsAddr             *string         `json:"metrics_addr"`
	DatabaseDriver          *string         `json:"database_driver"`
	DatabaseDSN             *string         `json:"database_dsn"`
	DBConnectAttempts       *int            `json:"db_connect_attempts"`
	DBConnectUnit           *timex.Duration `json:"db_connect_unit"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	FeedBaseURL             *string         `json:"feed_base_url"`
	FeedKeyword             *string         `json:"feed_keyword"`
	FeedAPIKey              *string         `json:"feed_api_key"`
	FeedTimeout             *timex.Duration `json:"feed_timeout"`
	AdminUsername           *string         `json:"admin_username"`
	AdminPassword           *string         `json:"admin_password"`
	LogLevel                *string         `json:"log_level"`
	S3RootUser              *string         `json:"s3_root_user"`
	S3RootPassword          *string         `json:"s3_root_password"`
	S3Bucket                *string         `json:"s3_bucket"`
	S3Region                *string         `json:"s3_region"`
	S3BaseEndpoint          *string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config in args, if any, and copies
// the keys it sets into config. A missing or malformed file panics: the
// operator asked for it explicitly.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
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

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.DBConnectAttempts != nil {
		config.DBConnectAttempts = *c.DBConnectAttempts
	}
	if c.DBConnectUnit != nil {
		config.DBConnectUnit = c.DBConnectUnit.Duration
	}
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setString(&config.FeedBaseURL, c.FeedBaseURL)
	setString(&config.FeedKeyword, c.FeedKeyword)
	setString(&config.FeedAPIKey, c.FeedAPIKey)
	if c.FeedTimeout != nil {
		config.FeedTimeout = c.FeedTimeout.Duration
	}
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
