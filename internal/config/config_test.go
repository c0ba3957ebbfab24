package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("QUOTATION_TAG", "")
	t.Setenv("REFCACHE_TTL", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("DB_MAX_CONNS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.QuotationTag != 1 {
		t.Errorf("expected default quotation tag 1, got %d", cfg.QuotationTag)
	}
	if cfg.RefCacheTTL != 10*time.Minute {
		t.Errorf("expected default TTL 10m, got %s", cfg.RefCacheTTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"bad tag", map[string]string{"DATABASE_URL": "postgres://x", "QUOTATION_TAG": "abc"}},
		{"non-positive tag", map[string]string{"DATABASE_URL": "postgres://x", "QUOTATION_TAG": "0"}},
		{"bad ttl", map[string]string{"DATABASE_URL": "postgres://x", "REFCACHE_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QUOTATION_TAG", "")
			t.Setenv("REFCACHE_TTL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}
