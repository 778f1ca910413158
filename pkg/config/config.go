package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Profiles ProfilesConfig
	Engine   EngineConfig
	Log      LogConfig
}

type ServerConfig struct {
	Address      string
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	MaxPoolConns int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

type ProfilesConfig struct {
	BaseURL string
}

type EngineConfig struct {
	LockRetries             int
	LockRetryBackoff        time.Duration
	ReopenOnConfirmedCancel bool
	DefaultMaxParticipants  int
	DefaultMinRequired      int
}

type LogConfig struct {
	Level  string
	Format string
}

func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s pool_max_conns=%d",
		dc.Host,
		dc.Port,
		dc.Name,
		dc.User,
		dc.Password,
		dc.MaxPoolConns,
	)
}

func (dc *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dc.User,
		dc.Password,
		dc.Host,
		dc.Port,
		dc.Name,
	)
}

func NewConfig() (*Config, error) {
	serverCfg, err := newServerConfig()
	if err != nil {
		return nil, fmt.Errorf("server config error: %w", err)
	}

	dbCfg, err := newDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config error: %w", err)
	}

	redisCfg, err := newRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("redis config error: %w", err)
	}

	engineCfg, err := newEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("engine config error: %w", err)
	}

	return &Config{
		Server:   serverCfg,
		Database: dbCfg,
		Kafka:    newKafkaConfig(),
		Redis:    redisCfg,
		Profiles: newProfilesConfig(),
		Engine:   engineCfg,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

func newServerConfig() (ServerConfig, error) {
	writeTimeout, err := getDurationFromEnv("SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("write timeout parse error: %w", err)
	}

	readTimeout, err := getDurationFromEnv("SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read timeout parse error: %w", err)
	}

	idleTimeout, err := getDurationFromEnv("SERVER_IDLE_TIMEOUT", "30s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("idle timeout parse error: %w", err)
	}

	return ServerConfig{
		Address:      getEnvOrDefault("SERVER_ADDRESS", ":5000"),
		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func newDatabaseConfig() (DatabaseConfig, error) {
	maxConns, err := strconv.Atoi(getEnvOrDefault("MAX_CONNS", "99"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("max connections parse error: %w", err)
	}

	return DatabaseConfig{
		Host:         getEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:         getEnvOrDefault("POSTGRES_PORT", "5432"),
		Name:         getEnvOrDefault("POSTGRES_DB", "fishcrew"),
		User:         getEnvOrDefault("POSTGRES_USER", "postgres"),
		Password:     getEnvOrDefault("POSTGRES_PASSWORD", ""),
		MaxPoolConns: maxConns,
	}, nil
}

func newKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: strings.Split(getEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), ","),
		Topic:   getEnvOrDefault("KAFKA_TOPIC", "trip-transitions"),
	}
}

func newRedisConfig() (RedisConfig, error) {
	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("redis db parse error: %w", err)
	}

	ttl, err := getDurationFromEnv("SNAPSHOT_CACHE_TTL", "30s")
	if err != nil {
		return RedisConfig{}, fmt.Errorf("snapshot ttl parse error: %w", err)
	}

	return RedisConfig{
		Addr:        getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password:    getEnvOrDefault("REDIS_PASSWORD", ""),
		DB:          db,
		SnapshotTTL: ttl,
	}, nil
}

func newProfilesConfig() ProfilesConfig {
	return ProfilesConfig{
		BaseURL: getEnvOrDefault("PROFILES_URL", "http://profiles.internal/v1"),
	}
}

func newEngineConfig() (EngineConfig, error) {
	retries, err := strconv.Atoi(getEnvOrDefault("TRIP_LOCK_RETRIES", "3"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("lock retries parse error: %w", err)
	}

	backoff, err := getDurationFromEnv("TRIP_LOCK_BACKOFF", "50ms")
	if err != nil {
		return EngineConfig{}, fmt.Errorf("lock backoff parse error: %w", err)
	}

	reopen, err := strconv.ParseBool(getEnvOrDefault("REOPEN_ON_CONFIRMED_CANCEL", "true"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("reopen flag parse error: %w", err)
	}

	maxP, err := strconv.Atoi(getEnvOrDefault("DEFAULT_MAX_PARTICIPANTS", "8"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("default max participants parse error: %w", err)
	}

	minR, err := strconv.Atoi(getEnvOrDefault("DEFAULT_MIN_REQUIRED", "6"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("default min required parse error: %w", err)
	}

	return EngineConfig{
		LockRetries:             retries,
		LockRetryBackoff:        backoff,
		ReopenOnConfirmedCancel: reopen,
		DefaultMaxParticipants:  maxP,
		DefaultMinRequired:      minR,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationFromEnv(key, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(getEnvOrDefault(key, defaultValue))
}
