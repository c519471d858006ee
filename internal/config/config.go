// Package config provides configuration management for autoreveal using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// Configuration comes from .autoreveal.yml, environment variables with the
// AUTOREVEAL_ prefix, and flags, in ascending precedence. All paths are
// relative to the working directory, which is also the directory served over
// HTTP.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/autoreveal/autoreveal/internal/errors"
)

type Config struct {
	Slides      SlidesConfig      `yaml:"slides" mapstructure:"slides"`
	Template    TemplateConfig    `yaml:"template" mapstructure:"template"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
	Languages   LanguagesConfig   `yaml:"languages" mapstructure:"languages"`
}

type SlidesConfig struct {
	// Dir is the slides root; its immediate subdirectories are the slides,
	// ordered by name.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Entry is the per-folder entry document name.
	Entry string `yaml:"entry" mapstructure:"entry"`
}

type TemplateConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Host string `yaml:"host" mapstructure:"host"`
	// Root is the directory served as static files.
	Root string `yaml:"root" mapstructure:"root"`
	// AllowedOrigins extends the origins accepted on the websocket
	// reload channel beyond the serve host itself.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type DevelopmentConfig struct {
	Watch        bool          `yaml:"watch" mapstructure:"watch"`
	LiveReload   bool          `yaml:"live_reload" mapstructure:"live_reload"`
	PushReload   bool          `yaml:"push_reload" mapstructure:"push_reload"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

type LanguagesConfig struct {
	// File optionally points at a YAML mapping of extension to language
	// tag, merged over the built-in table before a build starts.
	File string `yaml:"file" mapstructure:"file"`
}

// Load builds the configuration from viper's current state and applies
// defaults and validation.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError("unmarshaling configuration", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Slides.Dir == "" {
		config.Slides.Dir = "slides"
	}
	if config.Slides.Entry == "" {
		config.Slides.Entry = "index.html"
	}
	if config.Template.Path == "" {
		config.Template.Path = "base.html"
	}
	if config.Output.Path == "" {
		config.Output.Path = "index.html"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8085
	}
	if config.Server.Root == "" {
		config.Server.Root = "."
	}
	if config.Development.PollInterval <= 0 {
		config.Development.PollInterval = time.Second
	}
}

// Validate rejects configurations that cannot work or that reach outside the
// project directory.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.NewConfigError(fmt.Sprintf("invalid port %d", c.Server.Port), nil)
	}

	for name, path := range map[string]string{
		"slides.dir":    c.Slides.Dir,
		"template.path": c.Template.Path,
		"output.path":   c.Output.Path,
		"server.root":   c.Server.Root,
	} {
		if path == "" {
			return errors.NewConfigError(name+" must not be empty", nil)
		}
		if strings.Contains(path, "..") {
			return errors.NewConfigError(name+" must not contain directory traversal: "+path, nil)
		}
	}

	return nil
}
