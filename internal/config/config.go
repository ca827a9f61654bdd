// Package config provides file-and-environment configuration for the
// analysis dashboard server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// AIConfig selects and authenticates the inference backend.
type AIConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	GeminiAPIKey   string `yaml:"geminiApiKey"`
	GeminiBaseURL  string `yaml:"geminiBaseUrl"`
	OpenAIAPIKey   string `yaml:"openaiApiKey"`
	OpenAIBaseURL  string `yaml:"openaiBaseUrl"`
	OllamaBaseURL  string `yaml:"ollamaBaseUrl"`
}

// SessionConfig tunes the session hub.
type SessionConfig struct {
	MaxSessions            int `yaml:"maxSessions"`
	MaxAgeMinutes          int `yaml:"maxAgeMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// UploadConfig tunes chunked uploads.
type UploadConfig struct {
	MaxFileSizeMB   int `yaml:"maxFileSizeMb"`
	ChunkTTLMinutes int `yaml:"chunkTtlMinutes"`
}

// LoggingConfig controls the rotating structured log.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			BindAddress:  "0.0.0.0",
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 300,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		AI: AIConfig{
			Provider:       "gemini",
			Model:          "",
			TimeoutSeconds: 120,
		},
		Session: SessionConfig{
			MaxSessions:            50,
			MaxAgeMinutes:          30,
			CleanupIntervalMinutes: 5,
		},
		Upload: UploadConfig{
			MaxFileSizeMB:   64,
			ChunkTTLMinutes: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "./logs/server.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, creating it with
// defaults on first run, then applies environment overrides. An empty
// path skips the file entirely.
func LoadConfig(configPath string) (*Config, error) {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	config := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := config.Save(configPath); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config.applyEnvironmentOverrides()
	return config, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Data analysis dashboard configuration.\n# Auto-generated on first run; environment variables override these values.\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.BindAddress = getEnv("BIND_ADDRESS", c.Server.BindAddress)
	c.Server.AllowOrigins = getEnv("ALLOW_ORIGINS", c.Server.AllowOrigins)

	c.AI.Provider = getEnv("AI_PROVIDER", c.AI.Provider)
	c.AI.Model = getEnv("AI_MODEL", c.AI.Model)
	c.AI.TimeoutSeconds = getEnvAsInt("AI_TIMEOUT_SECONDS", c.AI.TimeoutSeconds)
	c.AI.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.AI.GeminiAPIKey)
	c.AI.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.AI.GeminiBaseURL)
	c.AI.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.AI.OpenAIAPIKey)
	c.AI.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.AI.OpenAIBaseURL)
	c.AI.OllamaBaseURL = getEnv("OLLAMA_BASE_URL", c.AI.OllamaBaseURL)

	c.Session.MaxSessions = getEnvAsInt("MAX_SESSIONS", c.Session.MaxSessions)
	c.Session.MaxAgeMinutes = getEnvAsInt("SESSION_MAX_AGE_MINUTES", c.Session.MaxAgeMinutes)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
}

// GetServerAddr returns the address the HTTP server binds to.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AITimeout returns the remote call timeout as a duration.
func (c *AIConfig) AITimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxAge returns the session expiry age as a duration.
func (c *SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

// CleanupInterval returns the janitor tick as a duration.
func (c *SessionConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}

// ChunkTTL returns how long pending chunked uploads are kept.
func (c *UploadConfig) ChunkTTL() time.Duration {
	return time.Duration(c.ChunkTTLMinutes) * time.Minute
}

// MaxFileSize returns the upload size cap in bytes.
func (c *UploadConfig) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
