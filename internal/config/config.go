package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nested keys: HFMP2_TENSOR__MAX_BYTES sets tensor.max_bytes.
const EnvPrefix = "HFMP2_"

// FileName is the config file looked up in the working directory.
const FileName = "hfmp2.yaml"

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// TensorConfig tunes the dense two-electron tensor build.
type TensorConfig struct {
	DetectConflicts bool  `yaml:"detect_conflicts" koanf:"detect_conflicts"`
	MaxBytes        int64 `yaml:"max_bytes" koanf:"max_bytes"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	TopPairs int `yaml:"top_pairs" koanf:"top_pairs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DataDir   string       `yaml:"data_dir" koanf:"data_dir"`
	Format    string       `yaml:"format" koanf:"format"`
	Output    string       `yaml:"output" koanf:"output"`
	TUI       bool         `yaml:"tui" koanf:"tui"`
	Verbose   bool         `yaml:"verbose" koanf:"verbose"`
	LogFormat string       `yaml:"log_format" koanf:"log_format"`
	Tensor    TensorConfig `yaml:"tensor" koanf:"tensor"`
	Report    ReportConfig `yaml:"report" koanf:"report"`
}

// flagKeys maps CLI flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"detect-conflicts": "tensor.detect_conflicts",
	"max-tensor-bytes": "tensor.max_bytes",
	"top-pairs":        "report.top_pairs",
}

// Load builds the configuration from defaults, the config file, HFMP2_
// environment variables and explicitly set flags, in increasing precedence.
// It returns the config file used, or "" when none was found.
func Load(cfgFile string, flags *pflag.FlagSet) (*AppConfig, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), kyaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// findConfigFile picks the config file to read.
// Priority: explicit path > ./hfmp2.yaml > ~/.config/hfmp2/config.yaml.
// An explicit path must exist; the fallbacks are optional.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return "", nil
	}
	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	}
	return "", nil
}

// Validate checks enumerated fields and limits.
func (c *AppConfig) Validate() error {
	if !slices.Contains([]string{"auto", "yaml", "fcidump", "sqlite"}, c.Format) {
		return fmt.Errorf("%w: format %q (want auto|yaml|fcidump|sqlite)", ErrInvalidConfig, c.Format)
	}
	if !slices.Contains([]string{"text", "markdown", "json", "plain"}, c.Output) {
		return fmt.Errorf("%w: output %q (want text|markdown|json|plain)", ErrInvalidConfig, c.Output)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format %q (want text|json)", ErrInvalidConfig, c.LogFormat)
	}
	if c.Tensor.MaxBytes < 0 {
		return fmt.Errorf("%w: tensor.max_bytes must not be negative", ErrInvalidConfig)
	}
	if c.Report.TopPairs < 1 {
		return fmt.Errorf("%w: report.top_pairs must be at least 1, got %d", ErrInvalidConfig, c.Report.TopPairs)
	}
	return nil
}

// ResolveInput joins a relative molecule path onto dataDir. Absolute paths
// and an empty dataDir leave name unchanged.
func ResolveInput(dataDir, name string) string {
	if dataDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is ~/.config/hfmp2/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hfmp2", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Format:    "auto",
		Output:    "text",
		LogFormat: "text",
		Report:    ReportConfig{TopPairs: 5},
	}
}

func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"data_dir":                d.DataDir,
		"format":                  d.Format,
		"output":                  d.Output,
		"tui":                     d.TUI,
		"verbose":                 d.Verbose,
		"log_format":              d.LogFormat,
		"tensor.detect_conflicts": d.Tensor.DetectConflicts,
		"tensor.max_bytes":        d.Tensor.MaxBytes,
		"report.top_pairs":        d.Report.TopPairs,
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.Output = strings.ToLower(cfg.Output)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.Format == "" {
		cfg.Format = "auto"
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}
