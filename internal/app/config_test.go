package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contentpilot/contentpilot-backend/internal/factory"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("MODAL_AUTH_TOKEN", "")
	t.Setenv("HTTP_ADDR", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("HTTP.Addr: want=:8080 got=%q", cfg.HTTP.Addr)
	}
	if cfg.Factory.DraftURL != factory.DefaultDraftURL || cfg.Factory.ProdURL != factory.DefaultProdURL || cfg.Factory.InpaintURL != factory.DefaultInpaintURL {
		t.Fatalf("factory urls: got=%+v", cfg.Factory)
	}
	if cfg.Factory.AuthToken != "" {
		t.Fatalf("Factory.AuthToken: want empty got=%q", cfg.Factory.AuthToken)
	}
	if cfg.Factory.Timeout != 300*time.Second {
		t.Fatalf("Factory.Timeout: want=300s got=%s", cfg.Factory.Timeout)
	}
	if cfg.Workspace.ReadyDelay != 1500*time.Millisecond || cfg.Workspace.PlanDays != 7 {
		t.Fatalf("workspace: got=%+v", cfg.Workspace)
	}
	if cfg.Pinecone.NamespacePrefix != "cp" || cfg.Redis.Channel != "contentpilot.events" {
		t.Fatalf("prefix/channel: got=%q/%q", cfg.Pinecone.NamespacePrefix, cfg.Redis.Channel)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contentpilot.yaml")
	body := `
http:
  addr: ":9090"
  maxUploadBytes: 1024
factory:
  authToken: file-token
  timeout: 45s
workspace:
  planDays: 14
  readyDelay: 250ms
database:
  driver: postgres
  dsn: postgres://localhost/cp
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("MODAL_AUTH_TOKEN", "env-token")
	t.Setenv("READY_DELAY_MS", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.HTTP.MaxUploadBytes != 1024 {
		t.Fatalf("http from file: got=%+v", cfg.HTTP)
	}
	if cfg.Factory.AuthToken != "env-token" {
		t.Fatalf("env override: want=env-token got=%q", cfg.Factory.AuthToken)
	}
	if cfg.Factory.Timeout != 45*time.Second {
		t.Fatalf("Factory.Timeout: want=45s got=%s", cfg.Factory.Timeout)
	}
	if cfg.Workspace.PlanDays != 14 {
		t.Fatalf("PlanDays: want=14 got=%d", cfg.Workspace.PlanDays)
	}
	if cfg.Workspace.ReadyDelay != 0 {
		t.Fatalf("ReadyDelay: want=0 got=%s", cfg.Workspace.ReadyDelay)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://localhost/cp" {
		t.Fatalf("database: got=%+v", cfg.Database)
	}
	// Untouched keys keep their defaults.
	if cfg.Factory.DraftURL != factory.DefaultDraftURL {
		t.Fatalf("DraftURL: want default got=%q", cfg.Factory.DraftURL)
	}
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig: expected parse error")
	}
}

func TestLoadConfigRejectsNonPositivePlanDays(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Chdir(t.TempDir())
	t.Setenv("PLAN_DAYS", "-3")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig: expected validation error")
	}
}

func TestLoadConfigCORSOriginsFromEnv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Chdir(t.TempDir())
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://admin.example.com" {
		t.Fatalf("CORSOrigins: got=%v", cfg.HTTP.CORSOrigins)
	}
}
