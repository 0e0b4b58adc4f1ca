// Package config loads platen settings from flags, PLATEN_* environment
// variables and an optional platen.yaml, in that order of precedence,
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/chazu/platen/pkg/arrange"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory and
	// in DefaultDir.
	FileName  = "platen.yaml"
	envPrefix = "PLATEN"
	appName   = "platen"
)

// Keys.
const (
	KeyAssetsDir     = "assets_dir"
	KeyCatalog       = "catalog"
	KeyWorkers       = "workers"
	KeyLogLevel      = "log_level"
	KeyEvalTimeout   = "eval_timeout"
	KeyArrangeStep   = "arrange.step"
	KeyArrangeMargin = "arrange.margin"
)

// ErrExists is returned by WriteDefault when the target file exists.
var ErrExists = errors.New("config: file already exists")

type Config struct {
	AssetsDir   string        `mapstructure:"assets_dir" yaml:"assets_dir"`
	Catalog     bool          `mapstructure:"catalog" yaml:"catalog"`
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	LogLevel    string        `mapstructure:"log_level" yaml:"log_level"`
	EvalTimeout time.Duration `mapstructure:"eval_timeout" yaml:"eval_timeout"`
	Arrange     Arrange       `mapstructure:"arrange" yaml:"arrange"`
}

// Arrange holds the arrangement search settings in millimetres.
type Arrange struct {
	Step   float64 `mapstructure:"step" yaml:"step"`
	Margin float64 `mapstructure:"margin" yaml:"margin"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	a := arrange.DefaultOptions()
	return Config{
		AssetsDir:   "assets",
		Catalog:     true,
		Workers:     4,
		LogLevel:    "info",
		EvalTimeout: 5 * time.Second,
		Arrange:     Arrange{Step: a.Step, Margin: a.Margin},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"assets-dir":   KeyAssetsDir,
	"catalog":      KeyCatalog,
	"workers":      KeyWorkers,
	"log-level":    KeyLogLevel,
	"eval-timeout": KeyEvalTimeout,
	"step":         KeyArrangeStep,
	"margin":       KeyArrangeMargin,
}

// Load resolves the configuration. file names an explicit config file and
// must exist; when empty, platen.yaml is looked up in the working
// directory and then DefaultDir, and its absence is not an error. Flags in
// flags that carry a config key override everything else once set.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault(KeyAssetsDir, def.AssetsDir)
	v.SetDefault(KeyCatalog, def.Catalog)
	v.SetDefault(KeyWorkers, def.Workers)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyEvalTimeout, def.EvalTimeout)
	v.SetDefault(KeyArrangeStep, def.Arrange.Step)
	v.SetDefault(KeyArrangeMargin, def.Arrange.Margin)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and the log level.
func (c Config) Validate() error {
	if c.AssetsDir == "" {
		return fmt.Errorf("config: %s must not be empty", KeyAssetsDir)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: %s must be at least 1, got %d", KeyWorkers, c.Workers)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("config: %s must be positive, got %s", KeyEvalTimeout, c.EvalTimeout)
	}
	if !(c.Arrange.Step > 0) {
		return fmt.Errorf("config: %s must be positive, got %g", KeyArrangeStep, c.Arrange.Step)
	}
	if !(c.Arrange.Margin >= 0) {
		return fmt.Errorf("config: %s must not be negative, got %g", KeyArrangeMargin, c.Arrange.Margin)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: %s: %w", KeyLogLevel, err)
	}
	return l, nil
}

// ArrangeOptions returns arrangement options for these settings.
func (c Config) ArrangeOptions(log *slog.Logger) arrange.Options {
	return arrange.Options{
		Step:    c.Arrange.Step,
		Margin:  c.Arrange.Margin,
		Workers: c.Workers,
		Logger:  log,
	}
}

// DefaultDir returns the per-user config directory:
// $XDG_CONFIG_HOME/platen (or ~/.config/platen) on Linux and the
// platform's user config directory elsewhere.
func DefaultDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// fileConfig is the on-disk form; durations are written as strings.
type fileConfig struct {
	AssetsDir   string  `yaml:"assets_dir"`
	Catalog     bool    `yaml:"catalog"`
	Workers     int     `yaml:"workers"`
	LogLevel    string  `yaml:"log_level"`
	EvalTimeout string  `yaml:"eval_timeout"`
	Arrange     Arrange `yaml:"arrange"`
}

// Marshal encodes c in the platen.yaml layout.
func Marshal(c Config) ([]byte, error) {
	data, err := yaml.Marshal(fileConfig{
		AssetsDir:   c.AssetsDir,
		Catalog:     c.Catalog,
		Workers:     c.Workers,
		LogLevel:    c.LogLevel,
		EvalTimeout: c.EvalTimeout.String(),
		Arrange:     c.Arrange,
	})
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default settings as YAML to path, creating its
// directory. An existing file is left alone and ErrExists returned.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	data, err := Marshal(Defaults())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte("# platen configuration\n"), data...), 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
