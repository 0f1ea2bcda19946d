package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("ask", pflag.ContinueOnError)
	Bind(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestResolveDefaults(t *testing.T) {
	fs := newFlags(t, "-k", "sk-test", "hello", "world")
	cfg, err := Resolve(fs, fs.Args(), envMap(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "You are a friendly assistant.", cfg.SystemPrompt)
	assert.Equal(t, 0.75, cfg.Temperature)
	assert.Equal(t, uint(100), cfg.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.False(t, cfg.SendTemperature)
	assert.Equal(t, "hello world", cfg.Input)
	assert.True(t, cfg.HasInput())
}

func TestResolveEnvFallback(t *testing.T) {
	fs := newFlags(t, "question")
	env := envMap(map[string]string{
		EnvOpenAIKey:      "sk-env",
		EnvModel:          "gpt-4o",
		EnvPrompt:         "Be brief.",
		EnvTemperature:    "0.2",
		EnvMaxTokens:      "42",
		EnvConnectTimeout: "3s",
	})
	cfg, err := Resolve(fs, fs.Args(), env, nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "Be brief.", cfg.SystemPrompt)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, uint(42), cfg.MaxTokens)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
}

func TestResolvePrecedence(t *testing.T) {
	model := "file-model"
	prompt := "file prompt"
	tokens := uint(7)
	file := &File{Model: &model, Prompt: &prompt, MaxTokens: &tokens}

	fs := newFlags(t, "--key", "sk-flag", "--model", "flag-model")
	env := envMap(map[string]string{EnvOpenAIKey: "sk-env", EnvModel: "env-model", EnvPrompt: "env prompt"})
	cfg, err := Resolve(fs, fs.Args(), env, file)
	require.NoError(t, err)

	assert.Equal(t, "sk-flag", cfg.APIKey)
	assert.Equal(t, "flag-model", cfg.Model)
	assert.Equal(t, "env prompt", cfg.SystemPrompt)
	assert.Equal(t, uint(7), cfg.MaxTokens)
}

func TestResolveMissingKey(t *testing.T) {
	fs := newFlags(t, "hello")
	_, err := Resolve(fs, fs.Args(), envMap(map[string]string{EnvOpenAIKey: ""}), nil)
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, FlagKey, cerr.Setting)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestResolveDryRunWithoutKey(t *testing.T) {
	fs := newFlags(t, "--dry-run", "hello")
	cfg, err := Resolve(fs, fs.Args(), envMap(nil), nil)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Empty(t, cfg.APIKey)
}

func TestResolveBadEnvNumber(t *testing.T) {
	fs := newFlags(t, "-k", "sk")
	_, err := Resolve(fs, fs.Args(), envMap(map[string]string{EnvMaxTokens: "lots"}), nil)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, EnvMaxTokens, cerr.Setting)
}

func TestHasInput(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{""}, false},
		{[]string{"", " "}, false},
		{[]string{"hi"}, true},
	} {
		fs := newFlags(t, append([]string{"-k", "sk", "--"}, tc.args...)...)
		cfg, err := Resolve(fs, fs.Args(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, cfg.HasInput(), "args %q", tc.args)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-4.1\nmax_tokens: 256\nconnect_timeout: 2s\nsend_temperature: true\n"), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, f.Model)
	assert.Equal(t, "gpt-4.1", *f.Model)
	assert.Equal(t, uint(256), *f.MaxTokens)
	assert.Nil(t, f.Key)

	fs := newFlags(t, "-k", "sk")
	cfg, err := Resolve(fs, fs.Args(), nil, f)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.SendTemperature)

	missing, err := LoadFile(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, missing.Model)
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unterminated"), 0o644))

	_, err := LoadFile(path)
	var cerr *Error
	assert.True(t, errors.As(err, &cerr))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_MODEL_NAME=from-dotenv\nOPENAI_PROMPT_TEXT=dotenv prompt\n"), 0o644))
	t.Setenv(EnvModel, "already-set")
	t.Setenv(EnvPrompt, "")
	os.Unsetenv(EnvPrompt)

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "already-set", os.Getenv(EnvModel))
	assert.Equal(t, "dotenv prompt", os.Getenv(EnvPrompt))
}

func TestConfigPath(t *testing.T) {
	fs := newFlags(t, "--config", "/tmp/ask.yaml")
	assert.Equal(t, "/tmp/ask.yaml", ConfigPath(fs, envMap(map[string]string{EnvConfigPath: "/etc/ask.yaml"})))

	fs = newFlags(t)
	assert.Equal(t, "/etc/ask.yaml", ConfigPath(fs, envMap(map[string]string{EnvConfigPath: "/etc/ask.yaml"})))
}
