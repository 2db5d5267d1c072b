package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeTempConfig(t, "blob:\n  hotThreshold: 1MB\nservice:\n  listenAddress: 0.0.0.0:8080\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Blob.HotThreshold != ByteSize(1_000_000) {
		t.Fatalf("expected 1MB hot threshold, got %v", cfg.Blob.HotThreshold)
	}
	if cfg.Service.ListenAddress != "0.0.0.0:8080" {
		t.Fatalf("expected overridden listen address, got %v", cfg.Service.ListenAddress)
	}
	if cfg.Pattern.DefaultIgnoreSyntax != IgnoreSyntaxGitignore {
		t.Fatalf("expected default ignore syntax to survive, got %v", cfg.Pattern.DefaultIgnoreSyntax)
	}
}

func TestLoadRejectsInvalidIgnoreSyntax(t *testing.T) {
	path := writeTempConfig(t, "pattern:\n  defaultIgnoreSyntax: bogus\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for an unknown ignore syntax")
	}
}

func TestLoadRejectsZeroIdleTimeout(t *testing.T) {
	path := writeTempConfig(t, "service:\n  idleSessionTimeout: 0s\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for a zero idle session timeout")
	}
}
