package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML config file. Unset fields fall through to the
// built-in defaults.
type File struct {
	Key             *string  `yaml:"key"`
	Model           *string  `yaml:"model"`
	Prompt          *string  `yaml:"prompt"`
	Temperature     *float64 `yaml:"temperature"`
	MaxTokens       *uint    `yaml:"max_tokens"`
	ConnectTimeout  *string  `yaml:"connect_timeout"`
	SendTemperature *bool    `yaml:"send_temperature"`
}

// LoadFile reads a YAML config file. A missing file is not an error.
func LoadFile(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, &Error{Setting: "file", Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, &Error{Setting: "file", Err: fmt.Errorf("failed to decode %s: %w", path, err)}
	}
	return f, nil
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set are left alone, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return &Error{Setting: "dotenv", Err: fmt.Errorf("failed to load %s: %w", p, err)}
		}
	}
	return nil
}
