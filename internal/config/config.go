// Package config loads rohan's settings. Sources, lowest precedence first:
// built-in defaults, rohan.config.{json,yaml,yml}, ROHAN_* environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// FileName is the config file base name searched for in the working
// directory.
const FileName = "rohan.config"

// EnvPrefix prefixes environment overrides, e.g. ROHAN_WORKERS.
const EnvPrefix = "ROHAN"

// Config holds every setting.
type Config struct {
	Workers      int           `mapstructure:"workers"`
	RPM          int           `mapstructure:"rpm"`
	BatchSize    int           `mapstructure:"batch_size"`
	PromptDir    string        `mapstructure:"prompt_dir"`
	Model        string        `mapstructure:"model"`
	APIBase      string        `mapstructure:"api_base"`
	APIKeyEnv    string        `mapstructure:"api_key_env"`
	ResponsePath string        `mapstructure:"response_path"`
	Target       string        `mapstructure:"target"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Pacing       string        `mapstructure:"pacing"`
	Overwrite    bool          `mapstructure:"overwrite"`
	Retry        RetryConfig   `mapstructure:"retry"`
	LogFile      string        `mapstructure:"log_file"`
	LogLevel     string        `mapstructure:"log_level"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// RetryConfig controls completion retries.
type RetryConfig struct {
	Attempts        int           `mapstructure:"attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// Defaults.
const (
	DefaultWorkers      = 4
	DefaultBatchSize    = 5
	DefaultModel        = "gpt-4o-mini"
	DefaultAPIBase      = "https://api.openai.com/v1"
	DefaultAPIKeyEnv    = "OPENAI_API_KEY"
	DefaultResponsePath = "$.choices[0].message.content"
	DefaultTarget       = "http://localhost:8080"
	DefaultTimeout      = 2 * time.Minute
	DefaultPacing       = "window"
	DefaultLogLevel     = "info"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("rpm", 0)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("prompt_dir", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("api_base", DefaultAPIBase)
	v.SetDefault("api_key_env", DefaultAPIKeyEnv)
	v.SetDefault("response_path", DefaultResponsePath)
	v.SetDefault("target", DefaultTarget)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("pacing", DefaultPacing)
	v.SetDefault("overwrite", false)
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.initial_interval", time.Second)
	v.SetDefault("retry.max_interval", 30*time.Second)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", DefaultLogLevel)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"workers":    "workers",
	"rpm":        "rpm",
	"batch-size": "batch_size",
	"prompt-dir": "prompt_dir",
	"model":      "model",
	"api-base":   "api_base",
	"timeout":    "timeout",
	"pacing":     "pacing",
	"overwrite":  "overwrite",
	"target":     "target",
	"log-file":   "log_file",
	"log-level":  "log_level",
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigFile is an explicit config path. When empty, Dir is searched
	// for rohan.config.{json,yaml,yml}; a missing file is not an error.
	ConfigFile string
	// Dir defaults to the working directory.
	Dir string
	// Flags, when set, override every other source for flags the user
	// actually passed.
	Flags *pflag.FlagSet
}

// Load builds a Config from all sources.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Pacing = strings.ToLower(strings.TrimSpace(cfg.Pacing))
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := gotenv.Load(path); err != nil {
		return false, fmt.Errorf("error loading %s: %w", path, err)
	}
	return true, nil
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
