package config

import (
	"os"
	"strconv"
	"time"
)

type EngineConfig struct {
	Port        string
	Environment string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	OracleCfg   OracleConfig
	WorkerCfg   WorkerConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

// OracleConfig controls external data source access. SandboxMode serves
// clearly-flagged mock observations instead of calling providers; it is never
// used as a fallback for a failed live fetch.
type OracleConfig struct {
	WeatherAPIKey  string
	WeatherBaseURL string
	FlightAPIKey   string
	FlightBaseURL  string
	FetchTimeout   time.Duration
	FetchRetries   int
	CacheTTL       time.Duration
	SandboxMode    bool
}

type WorkerConfig struct {
	NumWorkers      int
	QueueSize       int
	ProcessInterval time.Duration
}

func (c *EngineConfig) IsProduction() bool {
	return c.Environment == "production"
}

func New() *EngineConfig {
	return &EngineConfig{
		Port:        getEnvOrDefault("PORT", "8086"),
		Environment: getEnvOrDefault("ENVIRONMENT", "production"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "parametric_insurance"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		OracleCfg: OracleConfig{
			WeatherAPIKey:  getEnvOrDefault("WEATHER_API_KEY", ""),
			WeatherBaseURL: getEnvOrDefault("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/weather"),
			FlightAPIKey:   getEnvOrDefault("FLIGHT_API_KEY", ""),
			FlightBaseURL:  getEnvOrDefault("FLIGHT_API_URL", "http://api.aviationstack.com/v1/flights"),
			FetchTimeout:   getEnvDuration("ORACLE_FETCH_TIMEOUT", 300*time.Second),
			FetchRetries:   getEnvInt("ORACLE_FETCH_RETRIES", 3),
			CacheTTL:       getEnvDuration("ORACLE_CACHE_TTL", 10*time.Minute),
			SandboxMode:    getEnvBool("ORACLE_SANDBOX_MODE", false),
		},
		WorkerCfg: WorkerConfig{
			NumWorkers:      getEnvInt("WORKER_POOL_SIZE", 4),
			QueueSize:       getEnvInt("WORKER_QUEUE_SIZE", 64),
			ProcessInterval: getEnvDuration("CLAIM_PROCESS_INTERVAL", 15*time.Minute),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
