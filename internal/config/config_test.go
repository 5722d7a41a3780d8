package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sync.LikeRollback != RollbackSymmetric {
		t.Fatalf("expected default rollback, got %q", cfg.Sync.LikeRollback)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.API.Timeout)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com/v1
  timeout: 3s
storage:
  bucket: media
sync:
  like_rollback: flag_only
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Storage.Bucket != "media" {
		t.Fatalf("expected bucket media, got %q", cfg.Storage.Bucket)
	}
	if cfg.Storage.Region != "us-east-1" {
		t.Fatalf("expected default region kept, got %q", cfg.Storage.Region)
	}
	if cfg.Sync.LikeRollback != RollbackFlagOnly {
		t.Fatalf("expected flag_only, got %q", cfg.Sync.LikeRollback)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  bucket: media\n")
	t.Setenv("SYNCPHOTO_STORAGE_BUCKET", "from-env")
	t.Setenv("SYNCPHOTO_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Bucket != "from-env" {
		t.Fatalf("expected env bucket, got %q", cfg.Storage.Bucket)
	}
	if cfg.Server.Addr() != "localhost:9090" {
		t.Fatalf("expected localhost:9090, got %q", cfg.Server.Addr())
	}
}

func TestLoadEnvParseError(t *testing.T) {
	t.Setenv("SYNCPHOTO_SERVER_PORT", "not-an-int")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to parse env") {
		t.Fatalf("expected env parse error, got %v", err)
	}
}

func TestLoadRejectsUnknownRollback(t *testing.T) {
	path := writeConfig(t, "sync:\n  like_rollback: sometimes\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "api: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
