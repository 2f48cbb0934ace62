package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFindsConfigInParentDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	toml := `
[environments.dev]
postgres_url = "postgres://localhost/dev"
`
	if err := os.WriteFile(filepath.Join(root, "pgschemaplan.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(oldWd) }()
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env, err := cfg.Environment("dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.PostgresURL != "postgres://localhost/dev" {
		t.Errorf("got %q", env.PostgresURL)
	}
}

func TestEnvironmentNotFound(t *testing.T) {
	cfg := &Config{Environments: map[string]EnvironmentConfig{"dev": {PostgresURL: "x"}}}
	if _, err := cfg.Environment("prod"); err == nil {
		t.Error("expected an error for a missing environment")
	}
}
