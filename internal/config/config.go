package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the settings resolved for one invocation
type Config struct {
	APIKey          string
	Model           string
	SystemPrompt    string
	Temperature     float64
	MaxTokens       uint
	Input           string
	ConnectTimeout  time.Duration
	SendTemperature bool
	Interactive     bool
	Save            string
	DryRun          bool
	Verbosity       int
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Model:          "gpt-4o-mini",
		SystemPrompt:   "You are a friendly assistant.",
		Temperature:    0.75,
		MaxTokens:      100,
		ConnectTimeout: 10 * time.Second,
	}
}

// APIEndpoints holds API endpoint configurations
type APIEndpoints struct {
	OpenAI string
	Turso  string
}

// DefaultAPIEndpoints returns the default API endpoints
func DefaultAPIEndpoints() *APIEndpoints {
	return &APIEndpoints{
		OpenAI: "https://api.openai.com/v1/chat/completions",
		Turso:  "https://log-seungjin.turso.io/v2/pipeline",
	}
}

// Constants for the application
const (
	AppName    = "ask"
	AppDir     = "ask"
	AppVersion = "1.0.0"
)

// Environment variable names
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvModel           = "OPENAI_MODEL_NAME"
	EnvPrompt          = "OPENAI_PROMPT_TEXT"
	EnvTemperature     = "OPENAI_TEMPERATURE"
	EnvMaxTokens       = "OPENAI_MAX_TOKENS"
	EnvConnectTimeout  = "OPENAI_CONNECT_TIMEOUT"
	EnvSendTemperature = "OPENAI_SEND_TEMPERATURE"
	EnvConfigPath      = "ASK_CONFIG"
	EnvVerbosity       = "ASK_VERBOSITY"
	EnvTursoKey        = "TURSO_API_KEY"
)

// ErrMissingKey is returned when no API key is available from any source.
var ErrMissingKey = errors.New("API key not set")

// Error reports a setting that could not be resolved.
type Error struct {
	Setting string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Setting, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// appDir returns <UserConfigDir>/ask without creating it.
func appDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, AppDir), nil
}

// DefaultConfigPath returns the default YAML config file location, or "" when
// the user config directory is unknown.
func DefaultConfigPath() string {
	dir, err := appDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultHistoryDir returns the directory saved conversations live in.
func DefaultHistoryDir() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}
