package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "config/pipeline.yaml", cfg.PipelinePath)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 1, cfg.PollInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("WORKER_COUNT", "5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, 5, cfg.WorkerCount)
}

func TestLoadIgnoresInvalidInts(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("POLL_INTERVAL_SECONDS", "-3")

	cfg := Load()
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 1, cfg.PollInterval)
}
