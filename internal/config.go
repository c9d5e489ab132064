package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/coursemover/internal/studio"
	"github.com/starford/coursemover/internal/studiostub"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Auth   AuthConfig        `yaml:"auth"`
	Studio StudioConfig      `yaml:"studio"`
	Stub   StubConfig        `yaml:"stub"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Studio.Validate(); err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	if err := c.Stub.Validate(); err != nil {
		return fmt.Errorf("stub: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
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

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// StudioConfig locates the Studio endpoints. XBlockURLRoot and OutlineURL may
// be relative to BaseURL.
type StudioConfig struct {
	BaseURL       string        `yaml:"base_url"`
	XBlockURLRoot string        `yaml:"xblock_url_root"`
	OutlineURL    string        `yaml:"outline_url"`
	Token         string        `yaml:"token"`
	CSRFToken     string        `yaml:"csrf_token"`
	Timeout       time.Duration `yaml:"timeout"`
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// Validate validates the studio configuration.
func (c *StudioConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.XBlockURLRoot, validation.Required),
		validation.Field(&c.OutlineURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// ClientConfig converts to the studio client settings.
func (c *StudioConfig) ClientConfig() studio.Config {
	return studio.Config{
		BaseURL:       c.BaseURL,
		XBlockURLRoot: c.XBlockURLRoot,
		OutlineURL:    c.OutlineURL,
		Token:         c.Token,
		CSRFToken:     c.CSRFToken,
		Timeout:       c.Timeout,
	}
}

// StubConfig configures the stub Studio server.
//
// Persist writes applied moves back to Fixture.
type StubConfig struct {
	Port    int    `yaml:"port"`
	Fixture string `yaml:"fixture"`
	Token   string `yaml:"token"`
	Persist bool   `yaml:"persist"`
}

// Address returns the stub server address.
func (c *StubConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the stub configuration.
func (c *StubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values. The
// studio defaults point at a stub started with the default stub settings.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Studio: StudioConfig{
			BaseURL:       "http://localhost:8081",
			XBlockURLRoot: studiostub.DefaultXBlockURLRoot,
			OutlineURL:    studiostub.DefaultOutlinePath + "/course-v1:Demo+Course+Run?format=concise",
			Timeout:       30 * time.Second,
		},
		Stub: StubConfig{
			Port:    8081,
			Fixture: "config/outline.json",
		},
	}
}
