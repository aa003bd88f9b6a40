package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// API Keys
	GroqKey        string `yaml:"groq_key"`
	TavilyKey      string `yaml:"tavily_key"`
	HuggingFaceKey string `yaml:"huggingface_key"`

	// Model Configuration
	MainModel    string  `yaml:"main_model"`
	RouterModel  string  `yaml:"router_model"`
	RefinerModel string  `yaml:"refiner_model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`

	// LLMBaseURL is the OpenAI-compatible chat API endpoint.
	LLMBaseURL string `yaml:"llm_base_url"`

	// SystemPrompt is the base persona for the response generator.
	SystemPrompt string `yaml:"system_prompt"`

	// Embeddings
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`

	// Redis (short-term memory)
	Redis RedisConfig `yaml:"redis"`

	// Memory behavior
	Memory MemoryConfig `yaml:"memory"`

	// Runtime Configuration
	Runtime RuntimeConfig `yaml:"runtime"`
}

// RedisConfig holds Redis connection settings for the short-term memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// MemoryConfig controls the two-tier memory model.
type MemoryConfig struct {
	// STMMaxMessages bounds the sliding window per session.
	STMMaxMessages int `yaml:"stm_max_messages"`
	// STMTTLSeconds is the window expiry, refreshed on every write.
	STMTTLSeconds int `yaml:"stm_ttl_seconds"`
	// SummaryThreshold is the window length that triggers summarization.
	SummaryThreshold int `yaml:"summary_threshold"`
}

// RuntimeConfig holds runtime configuration
type RuntimeConfig struct {
	// ToolTimeoutSeconds bounds each tool branch in the dispatcher fan-out.
	ToolTimeoutSeconds int  `yaml:"tool_timeout_seconds"`
	EnableMetrics      bool `yaml:"enable_metrics"`
	MetricsPort        int  `yaml:"metrics_port"`
}

// STMTTL returns the short-term memory TTL as a duration.
func (m MemoryConfig) STMTTL() time.Duration {
	return time.Duration(m.STMTTLSeconds) * time.Second
}

// ToolTimeout returns the per-branch dispatch timeout as a duration.
func (r RuntimeConfig) ToolTimeout() time.Duration {
	return time.Duration(r.ToolTimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration populated from defaults and environment only.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MainModel == "" {
		c.MainModel = "llama-3.3-70b-versatile"
	}
	if c.RouterModel == "" {
		c.RouterModel = "llama-3.1-8b-instant"
	}
	if c.RefinerModel == "" {
		c.RefinerModel = "llama-3.1-8b-instant"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.LLMBaseURL == "" {
		c.LLMBaseURL = "https://api.groq.com/openai/v1"
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are a helpful, knowledgeable assistant."
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.EmbeddingDimensions == 0 {
		c.EmbeddingDimensions = 384
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Memory.STMMaxMessages == 0 {
		c.Memory.STMMaxMessages = 20
	}
	if c.Memory.STMTTLSeconds == 0 {
		c.Memory.STMTTLSeconds = 3600
	}
	if c.Memory.SummaryThreshold == 0 {
		c.Memory.SummaryThreshold = 10
	}
	if c.Runtime.ToolTimeoutSeconds == 0 {
		c.Runtime.ToolTimeoutSeconds = 15
	}
	if c.Runtime.MetricsPort == 0 {
		c.Runtime.MetricsPort = 8080
	}

	// Load API keys from environment if not in config
	if c.GroqKey == "" {
		c.GroqKey = os.Getenv("GROQ_API_KEY")
	}
	if c.TavilyKey == "" {
		c.TavilyKey = os.Getenv("TAVILY_API_KEY")
	}
	if c.HuggingFaceKey == "" {
		c.HuggingFaceKey = os.Getenv("HUGGINGFACE_API_KEY")
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" && c.Redis.Addr == "localhost:6379" {
		c.Redis.Addr = addr
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GroqKey == "" {
		return fmt.Errorf("groq_key is required (or set GROQ_API_KEY)")
	}
	if c.MainModel == "" {
		return fmt.Errorf("main_model is required")
	}
	if c.Memory.STMMaxMessages < 2 {
		return fmt.Errorf("stm_max_messages must be at least 2, got %d", c.Memory.STMMaxMessages)
	}
	if c.Memory.SummaryThreshold < 1 {
		return fmt.Errorf("summary_threshold must be at least 1, got %d", c.Memory.SummaryThreshold)
	}
	return nil
}
