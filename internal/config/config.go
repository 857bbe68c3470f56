package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Redis    *RedisConfig
	Postgres *PostgresConfig
	Tracer   *TracerConfig
	Auth     *AuthConfig
	Typing   *TypingConfig
	Email    *EmailConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
	// AllowedOrigins gates websocket upgrades; empty allows any origin
	// (development only).
	AllowedOrigins []string
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type TracerConfig struct {
	Address string
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type TypingConfig struct {
	Expiry        time.Duration
	SweepInterval time.Duration
}

// EmailConfig configures the SMTP welcome-mail sender. An empty host
// disables sending.
type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	From      string
	ClientURL string
}
