// Package config loads kiosk settings from the environment, plus an
// optional YAML profile describing the deployment's language catalog.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, environment-driven.
type Config struct {
	Addr         string        `env:"KIOSK_ADDR" envDefault:":8080"`
	APIBaseURL   string        `env:"KIOSK_API_BASE_URL"`
	TemplatesDir string        `env:"KIOSK_TEMPLATES_DIR" envDefault:"templates"`
	PublicDir    string        `env:"KIOSK_PUBLIC_DIR" envDefault:"public"`
	ProfilePath  string        `env:"KIOSK_PROFILE"`
	SQLitePath   string        `env:"KIOSK_SQLITE_PATH"`
	SigningKey   string        `env:"KIOSK_COOKIE_SIGNING_KEY"`
	Environment  string        `env:"KIOSK_ENV" envDefault:"dev"`
	QuietPeriod  time.Duration `env:"KIOSK_DEBOUNCE_QUIET" envDefault:"500ms"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses Config from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Prod reports whether the process runs in the production environment.
func (c Config) Prod() bool { return c.Environment == "prod" }

// Profile describes one kiosk deployment: which languages the onboarding
// selector offers and the fallback when a visitor has no stored preference.
type Profile struct {
	DefaultLanguage string            `yaml:"default_language"`
	Languages       []ProfileLanguage `yaml:"languages"`
}

// ProfileLanguage is a selectable language in the kiosk profile.
type ProfileLanguage struct {
	Tag  string `yaml:"tag"`
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// DefaultProfile is used when no profile file is configured.
func DefaultProfile() Profile {
	return Profile{
		DefaultLanguage: "english",
		Languages: []ProfileLanguage{
			{Tag: "english", Code: "en", Name: "English"},
			{Tag: "hindi", Code: "hi", Name: "हिन्दी"},
		},
	}
}

// LoadProfile reads the YAML profile at c.ProfilePath, falling back to the
// default profile when no path is set.
func (c Config) LoadProfile() (Profile, error) {
	if c.ProfilePath == "" {
		return DefaultProfile(), nil
	}
	raw, err := os.ReadFile(c.ProfilePath)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", c.ProfilePath, err)
	}
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", c.ProfilePath, err)
	}
	if p.DefaultLanguage == "" {
		p.DefaultLanguage = "english"
	}
	if len(p.Languages) == 0 {
		p.Languages = DefaultProfile().Languages
	}
	return p, nil
}
