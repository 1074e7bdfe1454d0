package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sant0-9/promptfmt/internal/theme"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. PROMPTFMT_API_KEY.
const EnvPrefix = "PROMPTFMT"

type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Stream      bool    `yaml:"stream" mapstructure:"stream"`

	ContextStyle string `yaml:"context_style,omitempty" mapstructure:"context_style"`
	Theme        string `yaml:"theme,omitempty" mapstructure:"theme"`
	FormatsDir   string `yaml:"formats_dir,omitempty" mapstructure:"formats_dir"`

	path string
}

func DefaultConfig() *Config {
	return &Config{
		Provider:     "gemini",
		Model:        "gemini-2.5-flash",
		Temperature:  0.2,
		MaxTokens:    8192,
		ContextStyle: "Professional",
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "promptfmt"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the default config file. It returns nil, nil when no file exists.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path with environment overrides applied.
// It returns nil, nil when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// LoadOrDefault is Load for one-shot commands: a missing file yields the
// defaults, still with environment overrides applied.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if err != nil || cfg != nil {
		return cfg, err
	}

	v := newViper()
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if path, err := ConfigPath(); err == nil {
		cfg.path = path
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("api_key", "")
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("stream", d.Stream)
	v.SetDefault("context_style", d.ContextStyle)
	v.SetDefault("theme", "")
	v.SetDefault("formats_dir", "")
	return v
}

// Path returns the file the config is saved to.
func (c *Config) Path() (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	return ConfigPath()
}

// SetPath redirects Save to another file.
func (c *Config) SetPath(path string) {
	c.path = path
}

func (c *Config) Save() error {
	path, err := c.Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// SaveTheme persists the theme preference.
func (c *Config) SaveTheme(t theme.Theme) error {
	c.Theme = string(t)
	return c.Save()
}

// FormatsPath returns the format library directory.
func (c *Config) FormatsPath() (string, error) {
	if c.FormatsDir != "" {
		if rest, ok := strings.CutPrefix(c.FormatsDir, "~/"); ok {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, rest), nil
		}
		return c.FormatsDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "formats"), nil
}
