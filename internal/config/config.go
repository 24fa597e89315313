package config

import "time"

type Config struct {
	Service     *ServiceConfig
	Redis       *RedisConfig
	Postgres    *PostgresConfig
	WS          *WSConfig
	Worker      *WorkerConfig
	Logger      *LoggerConfig
	Tracer      *TracerConfig
	SecretToken string
	TokenTTL    time.Duration
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
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

type WSConfig struct {
	// SendTimeout bounds how long a broadcast waits on one peer's
	// outbound queue before the peer is treated as dead.
	SendTimeout     time.Duration
	ReadBufferSize  int
	WriteBufferSize int
}

type WorkerConfig struct {
	NotificationGroup string
	// ActivityRetention bounds how long audit records are kept before
	// the daily sweep removes them.
	ActivityRetention time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
	// File enables a rotating file sink when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type TracerConfig struct {
	Address string
	Enabled bool
}
