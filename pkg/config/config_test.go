package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("TAVILY_API_KEY", "")
	t.Setenv("HUGGINGFACE_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Default()

	if cfg.MainModel != "llama-3.3-70b-versatile" {
		t.Errorf("MainModel = %q", cfg.MainModel)
	}
	if cfg.RouterModel != "llama-3.1-8b-instant" {
		t.Errorf("RouterModel = %q", cfg.RouterModel)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d", cfg.MaxTokens)
	}
	if cfg.LLMBaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("LLMBaseURL = %q", cfg.LLMBaseURL)
	}
	if cfg.EmbeddingDimensions != 384 {
		t.Errorf("EmbeddingDimensions = %d", cfg.EmbeddingDimensions)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Memory.STMMaxMessages != 20 {
		t.Errorf("STMMaxMessages = %d", cfg.Memory.STMMaxMessages)
	}
	if cfg.Memory.SummaryThreshold != 10 {
		t.Errorf("SummaryThreshold = %d", cfg.Memory.SummaryThreshold)
	}
	if got := cfg.Runtime.ToolTimeout().Seconds(); got != 15 {
		t.Errorf("ToolTimeout = %vs", got)
	}
	if got := cfg.Memory.STMTTL().Seconds(); got != 3600 {
		t.Errorf("STMTTL = %vs", got)
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")
	t.Setenv("TAVILY_API_KEY", "tvly_env")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg := Default()

	if cfg.GroqKey != "gsk_env" {
		t.Errorf("GroqKey = %q", cfg.GroqKey)
	}
	if cfg.TavilyKey != "tvly_env" {
		t.Errorf("TavilyKey = %q", cfg.TavilyKey)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestConfigFileOverridesEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("groq_key: gsk_file\nredis:\n  addr: \"10.0.0.5:6379\"\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.GroqKey != "gsk_file" {
		t.Errorf("GroqKey = %q, file value should win", cfg.GroqKey)
	}
	if cfg.Redis.Addr != "10.0.0.5:6379" {
		t.Errorf("Redis.Addr = %q, file value should win", cfg.Redis.Addr)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Default()
	cfg.GroqKey = "gsk_test"
	cfg.MainModel = "llama-3.1-70b-versatile"
	cfg.Temperature = 0.4
	cfg.Memory.SummaryThreshold = 6
	cfg.Runtime.ToolTimeoutSeconds = 30

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.GroqKey != cfg.GroqKey {
		t.Errorf("GroqKey = %q, want %q", loaded.GroqKey, cfg.GroqKey)
	}
	if loaded.MainModel != cfg.MainModel {
		t.Errorf("MainModel = %q, want %q", loaded.MainModel, cfg.MainModel)
	}
	if loaded.Temperature != cfg.Temperature {
		t.Errorf("Temperature = %v, want %v", loaded.Temperature, cfg.Temperature)
	}
	if loaded.Memory.SummaryThreshold != 6 {
		t.Errorf("SummaryThreshold = %d", loaded.Memory.SummaryThreshold)
	}
	if loaded.Runtime.ToolTimeoutSeconds != 30 {
		t.Errorf("ToolTimeoutSeconds = %d", loaded.Runtime.ToolTimeoutSeconds)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	valid := Default()
	valid.GroqKey = "gsk_test"
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing groq key", func(c *Config) { c.GroqKey = "" }},
		{"missing main model", func(c *Config) { c.MainModel = "" }},
		{"window too small", func(c *Config) { c.Memory.STMMaxMessages = 1 }},
		{"zero summary threshold", func(c *Config) { c.Memory.SummaryThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.GroqKey = "gsk_test"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
