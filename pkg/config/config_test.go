package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	s.valid = true
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "studio")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Port: 8080}
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "studio" || s.Port != 8080 || !s.valid {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	path := writeFile(t, "name: x\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := sample{Port: 1}
	if err := LoadWithDefaults(missing, "", &s); err != nil || !s.valid {
		t.Fatalf("missing file with valid defaults: %v", err)
	}

	fallback := writeFile(t, "port: 9090\n")
	var f sample
	if err := LoadWithDefaults(missing, fallback, &f); err != nil || f.Port != 9090 {
		t.Fatalf("fallback: %+v, %v", f, err)
	}

	var bad sample
	if err := LoadWithDefaults(missing, "", &bad); err == nil {
		t.Error("missing file with invalid defaults should fail validation")
	}
}
