package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/content"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Site    SiteConfig        `yaml:"site"`
	Feed    FeedConfig        `yaml:"feed"`
	DevTo   DevToConfig       `yaml:"devto"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	return c.Feed.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Env      string     `yaml:"env"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Mode maps the configured environment to a content mode.
func (c *ApplicationConfig) Mode() content.Mode {
	if c.Env == string(content.ModeDevelopment) {
		return content.ModeDevelopment
	}
	return content.ModeProduction
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required,
			validation.In(string(content.ModeProduction), string(content.ModeDevelopment))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig holds the path to the content directory.
type ContentConfig struct {
	Dir string `yaml:"dir"`
	// HighlightStyle selects the chroma style for fenced code blocks.
	HighlightStyle string `yaml:"highlight_style"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SiteConfig describes the published site, used by feeds and absolute
// link rewriting.
type SiteConfig struct {
	Host        string `yaml:"host"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Copyright   string `yaml:"copyright"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Title, validation.Required),
	)
}

// FeedConfig holds RSS feed configuration.
type FeedConfig struct {
	MaxItems int `yaml:"max_items"`
}

// Validate validates the feed configuration.
func (c *FeedConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxItems, validation.Required, validation.Min(1)),
	)
}

// DevToConfig holds credentials for the dev.to article lookup. The
// lookup is optional: an empty key disables it.
type DevToConfig struct {
	APIKey string `yaml:"api_key"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Env:      string(content.ModeProduction),
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Dir:            "./content",
			HighlightStyle: "monokai",
		},
		Site: SiteConfig{
			Host:        "https://www.example.dev",
			Title:       "ansuz",
			Description: "Personal site content service",
			Author:      "owner@example.dev",
			Copyright:   "All rights reserved",
		},
		Feed: FeedConfig{
			MaxItems: 20,
		},
	}
}
