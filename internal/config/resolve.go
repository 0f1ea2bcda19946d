package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Flag names
const (
	FlagKey             = "key"
	FlagModel           = "model"
	FlagPrompt          = "prompt"
	FlagTemp            = "temp"
	FlagMaxTokens       = "max-tokens"
	FlagConnectTimeout  = "connect-timeout"
	FlagSendTemperature = "send-temperature"
	FlagInteractive     = "interactive"
	FlagSave            = "save"
	FlagDryRun          = "dry-run"
	FlagConfig          = "config"
	FlagVerbose         = "verbose"
)

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Bind registers the resolver's flags on fs.
func Bind(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.StringP(FlagKey, "k", "", "API key used as the bearer token (env "+EnvOpenAIKey+")")
	fs.StringP(FlagModel, "m", d.Model, "model identifier (env "+EnvModel+")")
	fs.StringP(FlagPrompt, "p", d.SystemPrompt, "system prompt (env "+EnvPrompt+")")
	fs.Float64P(FlagTemp, "t", d.Temperature, "sampling temperature (env "+EnvTemperature+")")
	fs.UintP(FlagMaxTokens, "s", d.MaxTokens, "response token budget (env "+EnvMaxTokens+")")
	fs.Duration(FlagConnectTimeout, d.ConnectTimeout, "connection establishment timeout (env "+EnvConnectTimeout+")")
	fs.Bool(FlagSendTemperature, false, "include the temperature in the request body (env "+EnvSendTemperature+")")
	fs.BoolP(FlagInteractive, "i", false, "start an interactive chat session")
	fs.String(FlagSave, "", "save the conversation to history under this name")
	fs.Bool(FlagDryRun, false, "print the request body instead of sending it")
	fs.String(FlagConfig, "", "path to a YAML config file (env "+EnvConfigPath+")")
	fs.CountP(FlagVerbose, "v", "increase log verbosity (env "+EnvVerbosity+")")
}

// ConfigPath returns the config file to read: flag, then env, then the
// default location.
func ConfigPath(fs *pflag.FlagSet, env LookupFunc) string {
	if fs.Changed(FlagConfig) {
		p, _ := fs.GetString(FlagConfig)
		return p
	}
	if v, ok := lookup(env, EnvConfigPath); ok {
		return v
	}
	return DefaultConfigPath()
}

// Resolve builds the Config for one invocation. Each setting is taken from
// its flag when given, else from the environment, else from the config
// file, else from the default. args are joined with single spaces into the
// user input. The key is required unless the run is a dry run.
func Resolve(fs *pflag.FlagSet, args []string, env LookupFunc, file *File) (*Config, error) {
	if file == nil {
		file = &File{}
	}
	cfg := DefaultConfig()
	r := resolver{fs: fs, env: env}

	cfg.APIKey = r.str(FlagKey, EnvOpenAIKey, file.Key, "")
	cfg.Model = r.str(FlagModel, EnvModel, file.Model, cfg.Model)
	cfg.SystemPrompt = r.str(FlagPrompt, EnvPrompt, file.Prompt, cfg.SystemPrompt)

	var err error
	if cfg.Temperature, err = r.float(FlagTemp, EnvTemperature, file.Temperature, cfg.Temperature); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = r.unsigned(FlagMaxTokens, EnvMaxTokens, file.MaxTokens, cfg.MaxTokens); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = r.duration(FlagConnectTimeout, EnvConnectTimeout, file.ConnectTimeout, cfg.ConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.SendTemperature, err = r.boolean(FlagSendTemperature, EnvSendTemperature, file.SendTemperature, false); err != nil {
		return nil, err
	}
	if cfg.Verbosity, err = r.verbosity(); err != nil {
		return nil, err
	}

	cfg.Interactive, _ = fs.GetBool(FlagInteractive)
	cfg.Save, _ = fs.GetString(FlagSave)
	cfg.DryRun, _ = fs.GetBool(FlagDryRun)
	cfg.Input = strings.Join(args, " ")

	if cfg.APIKey == "" && !cfg.DryRun {
		return nil, &Error{Setting: FlagKey, Err: fmt.Errorf("%w: use --%s or %s", ErrMissingKey, FlagKey, EnvOpenAIKey)}
	}
	return cfg, nil
}

// HasInput reports whether the joined input carries anything to send.
func (c *Config) HasInput() bool {
	return strings.TrimSpace(c.Input) != ""
}

type resolver struct {
	fs  *pflag.FlagSet
	env LookupFunc
}

func lookup(env LookupFunc, key string) (string, bool) {
	if env == nil {
		return "", false
	}
	v, ok := env(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r resolver) str(flag, envKey string, file *string, def string) string {
	if r.fs.Changed(flag) {
		v, _ := r.fs.GetString(flag)
		return v
	}
	if v, ok := lookup(r.env, envKey); ok {
		return v
	}
	if file != nil {
		return *file
	}
	return def
}

func (r resolver) float(flag, envKey string, file *float64, def float64) (float64, error) {
	if r.fs.Changed(flag) {
		return r.fs.GetFloat64(flag)
	}
	if v, ok := lookup(r.env, envKey); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, &Error{Setting: envKey, Err: err}
		}
		return f, nil
	}
	if file != nil {
		return *file, nil
	}
	return def, nil
}

func (r resolver) unsigned(flag, envKey string, file *uint, def uint) (uint, error) {
	if r.fs.Changed(flag) {
		return r.fs.GetUint(flag)
	}
	if v, ok := lookup(r.env, envKey); ok {
		n, err := strconv.ParseUint(v, 10, strconv.IntSize)
		if err != nil {
			return 0, &Error{Setting: envKey, Err: err}
		}
		return uint(n), nil
	}
	if file != nil {
		return *file, nil
	}
	return def, nil
}

func (r resolver) duration(flag, envKey string, file *string, def time.Duration) (time.Duration, error) {
	if r.fs.Changed(flag) {
		return r.fs.GetDuration(flag)
	}
	if v, ok := lookup(r.env, envKey); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, &Error{Setting: envKey, Err: err}
		}
		return d, nil
	}
	if file != nil {
		d, err := time.ParseDuration(*file)
		if err != nil {
			return 0, &Error{Setting: "connect_timeout", Err: err}
		}
		return d, nil
	}
	return def, nil
}

func (r resolver) boolean(flag, envKey string, file *bool, def bool) (bool, error) {
	if r.fs.Changed(flag) {
		return r.fs.GetBool(flag)
	}
	if v, ok := lookup(r.env, envKey); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, &Error{Setting: envKey, Err: err}
		}
		return b, nil
	}
	if file != nil {
		return *file, nil
	}
	return def, nil
}

func (r resolver) verbosity() (int, error) {
	if r.fs.Changed(FlagVerbose) {
		return r.fs.GetCount(FlagVerbose)
	}
	if v, ok := lookup(r.env, EnvVerbosity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &Error{Setting: EnvVerbosity, Err: err}
		}
		return n, nil
	}
	return 0, nil
}
