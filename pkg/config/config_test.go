package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Port != "3000" || cfg.UserID != "default" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestBuildConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "db_path: /tmp/test.db\nport: \"8080\"\nuser_id: tenant-9\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" || cfg.Port != "8080" || cfg.UserID != "tenant-9" {
		t.Errorf("config file not applied: %+v", cfg)
	}
}

func TestBuildFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("user", "", "")
	if err := flags.Parse([]string{"--db", "/tmp/flag.db", "--user", "tenant-3"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build("", flags)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" || cfg.UserID != "tenant-3" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestBuildMissingExplicitFile(t *testing.T) {
	if _, err := Build("/nonexistent/config.yaml", nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
