package internal

import "github.com/starford/ansuz/internal/devto"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	devto  *devto.Client
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDevToClient overrides the dev.to client, used by tests.
func WithDevToClient(c *devto.Client) Option {
	return func(a *application) {
		a.devto = c
	}
}
