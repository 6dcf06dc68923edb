package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Data.CatalogPath != "data/imdb_cleaned.csv" {
		t.Errorf("CatalogPath = %q", cfg.Data.CatalogPath)
	}
	if cfg.Embedding.Dimension != 256 {
		t.Errorf("Dimension = %d, want 256", cfg.Embedding.Dimension)
	}
	if cfg.Recommend.TopK != 5 || cfg.Recommend.Oversample != 2 {
		t.Errorf("Recommend = %+v, want top_k=5 oversample=2", cfg.Recommend)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.AppName != "MovieChatbot" {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
recommend:
  top_k: 10
  filter_expr: 'item.rating < 6.0'
session:
  backend: redis
  redis_addr: localhost:6379
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// 显式覆盖的字段生效
	if cfg.Recommend.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.Recommend.TopK)
	}
	if cfg.Recommend.FilterExpr != "item.rating < 6.0" {
		t.Errorf("FilterExpr = %q", cfg.Recommend.FilterExpr)
	}
	if cfg.Session.Backend != "redis" || cfg.Session.RedisAddr != "localhost:6379" {
		t.Errorf("Session = %+v", cfg.Session)
	}

	// 未覆盖的字段保留默认值
	if cfg.Embedding.Dimension != 256 {
		t.Errorf("Dimension = %d, want default 256", cfg.Embedding.Dimension)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default :8080", cfg.Server.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("recommend: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of invalid yaml should fail")
	}
}
