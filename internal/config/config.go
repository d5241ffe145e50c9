// Package config loads taskdesk settings from defaults, a yaml file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TASKDESK_API_URL
const EnvPrefix = "TASKDESK"

// Config is the effective configuration
type Config struct {
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	DataDir string        `mapstructure:"data_dir"`
	LogFile string        `mapstructure:"log_file"`
	Debug   bool          `mapstructure:"debug"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		APIURL:  "http://127.0.0.1:8000",
		Timeout: 10 * time.Second,
	}
}

// Load reads configuration. file may be empty, in which case config.yaml is
// looked up in the user config directory; a missing file is not an error.
// flags may be nil.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("data_dir", "")
	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// no config file, defaults apply
		case file != "" && errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s: %w", file, err)
		default:
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_url %q: scheme must be http or https", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be greater than zero", c.Timeout)
	}
	return nil
}

// bindFlags maps the dashed flag names onto config keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"api_url":  "api-url",
		"timeout":  "timeout",
		"data_dir": "data-dir",
		"log_file": "log-file",
		"debug":    "debug",
	} {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskdesk"), nil
}

// DefaultLogFile is where logs go when log_file is unset
func DefaultLogFile() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "taskdesk", "taskdesk.log"), nil
}
