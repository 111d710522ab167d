package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	DatabaseURL string
	RedisAddr   string

	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string

	// Runner selects how accepted jobs reach the processor: "inline" keeps
	// them in-process, "kafka" publishes them for a separate worker.
	Runner   string
	SpoolDir string

	WorkerCount int
	MaxFileSize int64
	MaxFrames   int

	WatsonxURL       string
	WatsonxAPIKey    string
	WatsonxProjectID string
	WatsonxModel     string

	PoseServerURL    string
	ReasoningTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:             getEnv("SERVICE_PORT", "8082"),
		Env:              getEnv("ENV", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "analysis-jobs"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "analysis-workers"),
		Runner:           getEnv("RUNNER", "inline"),
		SpoolDir:         getEnv("SPOOL_DIR", os.TempDir()),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 4),
		MaxFileSize:      getEnvAsInt64("MAX_FILE_SIZE", 1024*1024*1024),
		MaxFrames:        getEnvAsInt("MAX_FRAMES", 1000),
		WatsonxURL:       getEnv("WATSONX_URL", ""),
		WatsonxAPIKey:    getEnv("WATSONX_API_KEY", ""),
		WatsonxProjectID: getEnv("WATSONX_PROJECT_ID", ""),
		WatsonxModel:     getEnv("WATSONX_MODEL", "granite-3.0-8b-instruct"),
		PoseServerURL:    getEnv("POSE_SERVER_URL", ""),
		ReasoningTimeout: getEnvAsDuration("REASONING_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
