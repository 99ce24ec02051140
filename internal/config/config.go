package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the server and worker.
type Config struct {
	// HTTP
	Port string

	// Postgres queue backend. When DatabaseURL is empty both binaries fall
	// back to a single-process in-memory store.
	DatabaseURL   string
	MigrationsDir string

	// NATS dispatch. Optional; store polling covers job pickup without it.
	NATSURL string

	// Worker pool
	WorkerCount  int
	PollInterval int // seconds

	// Crew pipeline
	PipelinePath string

	// LLM provider: "openai", "anthropic" or "ollama".
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		NATSURL:       getEnv("NATS_URL", ""),
		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		PollInterval:  getEnvInt("POLL_INTERVAL_SECONDS", 1),
		PipelinePath:  getEnv("PIPELINE_CONFIG", "config/pipeline.yaml"),

		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
