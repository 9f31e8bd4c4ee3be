package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshp123/pinentry-picker/internal/logging"
	"github.com/joshp123/pinentry-picker/internal/picker"
)

// EnvPrefix prefixes environment overrides, e.g. PINENTRY_PICKER_LOG_LEVEL.
const EnvPrefix = "PINENTRY_PICKER"

// ConfigEnv names an explicit config file when --config is not given.
const ConfigEnv = EnvPrefix + "_CONFIG"

// Config holds application configuration.
type Config struct {
	Picker  PickerConfig  `mapstructure:"picker"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	// Path is the config file that was read, empty when none was.
	Path string `mapstructure:"-"`
}

// PickerConfig describes how the external picker is launched.
type PickerConfig struct {
	Command string `mapstructure:"command"`
	// Args default to anyrun's embedded mode flags when Command is anyrun
	// and no args were configured.
	Args               []string      `mapstructure:"args"`
	Format             string        `mapstructure:"format"`
	Timeout            time.Duration `mapstructure:"timeout"`
	CancelExitCodes    []int         `mapstructure:"cancel_exit_codes"`
	InheritEnvironment bool          `mapstructure:"inherit_environment"`
	// Env holds KEY=VALUE entries. A list keeps the case of the keys,
	// which viper folds for tables.
	Env []string `mapstructure:"env"`
}

type SessionConfig struct {
	LenientUnknown bool `mapstructure:"lenient_unknown"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// FlagKeys maps command line flags onto config keys.
var FlagKeys = map[string]string{
	"picker":          "picker.command",
	"picker-arg":      "picker.args",
	"format":          "picker.format",
	"picker-timeout":  "picker.timeout",
	"lenient-unknown": "session.lenient_unknown",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-file":        "log.file",
}

type LoadOptions struct {
	// File is an explicit config path. It must exist.
	File string
	// Flags, when set, override every other source for the keys in FlagKeys.
	Flags *pflag.FlagSet
}

// Load reads configuration from defaults, a TOML file, the environment and
// flags, in increasing order of precedence.
func Load(options LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// picker.args has no default, so Unmarshal only sees its variable once bound.
	if err := v.BindEnv("picker.args"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if options.Flags != nil {
		for name, key := range FlagKeys {
			flag := options.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	path, explicit := configPath(options.File)
	if path != "" && (explicit || fileExists(path)) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// An untouched --picker-arg still unmarshals to an empty slice. Only
	// args configured somewhere replace the anyrun defaults.
	if !v.IsSet("picker.args") {
		c.Picker.Args = nil
	}
	c.Path = v.ConfigFileUsed()
	return c, nil
}

func setDefaults(v *viper.Viper) {
	defaults := picker.DefaultOptions()
	v.SetDefault("picker.command", defaults.Command)
	v.SetDefault("picker.format", string(defaults.Format))
	v.SetDefault("picker.timeout", "0s")
	v.SetDefault("picker.cancel_exit_codes", []int{})
	v.SetDefault("picker.inherit_environment", defaults.InheritEnvironment)
	v.SetDefault("picker.env", []string{})
	v.SetDefault("session.lenient_unknown", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("log.file", "")
}

// configPath picks the file to read: the explicit path, then $ConfigEnv,
// then config.toml under the XDG config directory.
func configPath(file string) (string, bool) {
	if file != "" {
		return file, true
	}
	if path := os.Getenv(ConfigEnv); path != "" {
		return path, true
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pinentry-picker", "config.toml"), false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate rejects settings the picker gateway or logger would refuse.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Picker.Command) == "" {
		return errors.New("picker.command must not be empty")
	}
	if _, err := picker.ParseFormat(c.Picker.Format); err != nil {
		return fmt.Errorf("picker.format: %w", err)
	}
	if c.Picker.Timeout < 0 {
		return fmt.Errorf("picker.timeout must not be negative, got %s", c.Picker.Timeout)
	}
	if _, err := parseEnv(c.Picker.Env); err != nil {
		return fmt.Errorf("picker.env: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// PickerOptions converts the picker section into gateway options.
func (c Config) PickerOptions() (picker.Options, error) {
	format, err := picker.ParseFormat(c.Picker.Format)
	if err != nil {
		return picker.Options{}, err
	}
	env, err := parseEnv(c.Picker.Env)
	if err != nil {
		return picker.Options{}, err
	}
	args := append([]string{}, c.Picker.Args...)
	if c.Picker.Args == nil && c.Picker.Command == picker.DefaultCommand {
		args = append(args, picker.DefaultArgs...)
	}
	return picker.Options{
		Command:            c.Picker.Command,
		Args:               args,
		Format:             format,
		Timeout:            c.Picker.Timeout,
		CancelExitCodes:    append([]int{}, c.Picker.CancelExitCodes...),
		InheritEnvironment: c.Picker.InheritEnvironment,
		Environment:        env,
	}, nil
}

func parseEnv(entries []string) (map[string]string, error) {
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("entry %q is not KEY=VALUE", entry)
		}
		env[key] = value
	}
	return env, nil
}

func (c Config) LogConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
}
