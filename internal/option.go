package internal

import "github.com/starford/coursemover/internal/session"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	client session.Client
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClient replaces the Studio client built from the configuration.
func WithClient(c session.Client) Option {
	return func(a *application) {
		a.client = c
	}
}
