// Package config loads per-service configuration from the environment, in
// the style of the teacher's src/config/config.go and
// infrastructure/database/postgres/config.go: typed getters, a default
// baked in for every key, loaded once at process start and treated as
// immutable thereafter.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Token    TokenConfig
	RPC      RPCConfig
	Kafka    KafkaConfig
	Limits   PrivilegeLimits
	PinRules PinPolicy
}

type ServerConfig struct {
	Host string
	Port string
}

func (s ServerConfig) Addr() string { return ":" + s.Port }

type DatabaseConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int32
	MaxIdleConns    int32
	ConnMaxLifetime time.Duration
}

func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type LoggingConfig struct {
	Level  string
	Format string
}

// TokenConfig carries the HMAC signing material and lifetime for bearer
// tokens (spec.md §4.5): access tokens live 30 minutes and verification is
// local against a shared secret.
type TokenConfig struct {
	Secret       string
	AccessTTL    time.Duration
	RevokeCache  time.Duration
	AuthInternal string // base URL for Auth's internal revocation feed
}

// RPCConfig governs request deadlines propagated to downstream calls
// (spec.md §5): 10s per outbound RPC, 30s end-to-end, and a generous
// compensation window (≥3x the RPC timeout) for the transfer
// compensating-credit path.
type RPCConfig struct {
	CallTimeout        time.Duration
	RequestDeadline    time.Duration
	CompensateTimeout  time.Duration
	AccountsBaseURL    string
	UsersBaseURL       string
}

type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	ClientID string
}

// PrivilegeLimits is the fixed SILVER/GOLD/PREMIUM cap table of spec.md §3.
// Cents are used here (scale 2) to avoid importing platform/money into the
// lowest-level config package.
type PrivilegeLimits struct {
	DailyAmountCapCents map[string]int64
	DailyCountCap       map[string]int
}

func DefaultPrivilegeLimits() PrivilegeLimits {
	return PrivilegeLimits{
		DailyAmountCapCents: map[string]int64{
			"SILVER":  10_000_000, // 100,000.00
			"GOLD":    50_000_000, // 500,000.00
			"PREMIUM": 100_000_000,
		},
		DailyCountCap: map[string]int{
			"SILVER":  10,
			"GOLD":    20,
			"PREMIUM": 50,
		},
	}
}

// PinPolicy is the "dynamic configuration bag" of spec.md §9.
type PinPolicy struct {
	MinLen            int
	MaxLen            int
	RejectUniform     bool
	RejectSequential  bool
	PhoneMin          int
	PhoneMax          int
}

func DefaultPinPolicy() PinPolicy {
	return PinPolicy{
		MinLen:           4,
		MaxLen:           6,
		RejectUniform:    true,
		RejectSequential: true,
		PhoneMin:         10,
		PhoneMax:         20,
	}
}

// Load reads configuration for the named service, applying service-specific
// default ports so each of the four binaries can run side by side without
// additional flags.
func Load(service string) *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", defaultPort(service)),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", defaultDBName(service)),
			User:            getEnv("DB_USER", "gdb"),
			Password:        getEnv("DB_PASSWORD", "gdb_dev_password"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    int32(getEnvAsInt("DB_MAX_OPEN_CONNS", 20)),
			MaxIdleConns:    int32(getEnvAsInt("DB_MAX_IDLE_CONNS", 5)),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Token: TokenConfig{
			Secret:       getEnv("TOKEN_SECRET", "dev-only-shared-hmac-secret-change-me"),
			AccessTTL:    getEnvAsDuration("TOKEN_ACCESS_TTL", 30*time.Minute),
			RevokeCache:  getEnvAsDuration("TOKEN_REVOCATION_CACHE_TTL", 30*time.Second),
			AuthInternal: getEnv("AUTH_INTERNAL_BASE_URL", "http://localhost:8004/api/v1/internal/auth"),
		},
		RPC: RPCConfig{
			CallTimeout:       getEnvAsDuration("RPC_CALL_TIMEOUT", 10*time.Second),
			RequestDeadline:   getEnvAsDuration("RPC_REQUEST_DEADLINE", 30*time.Second),
			CompensateTimeout: getEnvAsDuration("RPC_COMPENSATE_TIMEOUT", 35*time.Second),
			AccountsBaseURL:   getEnv("ACCOUNTS_BASE_URL", "http://localhost:8001"),
			UsersBaseURL:      getEnv("USERS_BASE_URL", "http://localhost:8003"),
		},
		Kafka: KafkaConfig{
			Enabled:  getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID: getEnv("KAFKA_CLIENT_ID", service),
		},
		Limits:   DefaultPrivilegeLimits(),
		PinRules: DefaultPinPolicy(),
	}
}

func defaultPort(service string) string {
	switch service {
	case "accounts":
		return "8001"
	case "transactions":
		return "8002"
	case "users":
		return "8003"
	case "auth":
		return "8004"
	default:
		return "8080"
	}
}

func defaultDBName(service string) string {
	switch service {
	case "accounts":
		return "accounts_db"
	case "transactions":
		return "transactions_db"
	case "users":
		return "users_db"
	case "auth":
		return "auth_db"
	default:
		return service + "_db"
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
