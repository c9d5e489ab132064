package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/coursemover/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestStudioConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StudioConfig)
		wantErr bool
	}{
		{"defaults", func(*StudioConfig) {}, false},
		{"missing base url", func(c *StudioConfig) { c.BaseURL = "" }, true},
		{"relative base url", func(c *StudioConfig) { c.BaseURL = "/studio" }, true},
		{"missing xblock root", func(c *StudioConfig) { c.XBlockURLRoot = "" }, true},
		{"missing outline url", func(c *StudioConfig) { c.OutlineURL = "" }, true},
		{"negative timeout", func(c *StudioConfig) { c.Timeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Studio
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStudioConfig_ClientConfig(t *testing.T) {
	cfg := NewDefaultConfig().Studio
	cfg.Token = "t"
	cfg.CSRFToken = "csrf"
	cc := cfg.ClientConfig()
	if cc.BaseURL != cfg.BaseURL || cc.XBlockURLRoot != "/xblock" || cc.Token != "t" || cc.CSRFToken != "csrf" || cc.Timeout != 30*time.Second {
		t.Errorf("client config = %+v", cc)
	}
}

func TestStubConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Stub.Port = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "stub") {
		t.Errorf("err = %v, want stub port error", err)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("STUDIO_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `app:
  log_level: debug
  http:
    port: 9000
studio:
  base_url: https://studio.example.com
  token: ${STUDIO_TOKEN}
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 9000 || cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Studio.Token != "from-env" || cfg.Studio.Timeout != 5*time.Second || cfg.Studio.XBlockURLRoot != "/xblock" {
		t.Errorf("studio = %+v", cfg.Studio)
	}
}
