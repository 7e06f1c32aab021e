package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int      `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string   `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	CORSAllowedOrigins     []string `mapstructure:"cors_allowed_origins"     validate:"dive,required"`
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout_seconds"     validate:"gt=0"`
	WriteTimeoutSeconds    int      `mapstructure:"write_timeout_seconds"    validate:"gt=0"`
	IdleTimeoutSeconds     int      `mapstructure:"idle_timeout_seconds"     validate:"gt=0"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
	MaxBodyBytes           int64    `mapstructure:"max_body_bytes"           validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" for deployments,
	// "sqlite" for local development.
	Driver                 string `mapstructure:"driver"                    validate:"required,oneof=postgres sqlite"`
	URL                    string `mapstructure:"url"                       validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0,lt=44640"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lt=525600,gtfield=TokenLifetimeMinutes"`
	IdleTimeoutMinutes          int    `mapstructure:"idle_timeout_minutes"           validate:"required,gt=0"`
	SessionTouchIntervalSeconds int    `mapstructure:"session_touch_interval_seconds" validate:"gte=0"`
}

// JobsConfig controls the background job runner.
type JobsConfig struct {
	WorkerCount          int `mapstructure:"worker_count"           validate:"gt=0"`
	QueueSize            int `mapstructure:"queue_size"             validate:"gt=0"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"gt=0"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// RefreshTokenLifetime returns the refresh token lifetime as a duration.
func (c AuthConfig) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshTokenLifetimeMinutes) * time.Minute
}

// IdleTimeout returns how long a session may stay inactive before it is rejected.
func (c AuthConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// SessionTouchInterval returns the minimum spacing between last-seen updates.
func (c AuthConfig) SessionTouchInterval() time.Duration {
	return time.Duration(c.SessionTouchIntervalSeconds) * time.Second
}
