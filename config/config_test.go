package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9090
  max_upload_mb: 8
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
store:
  driver: "postgres"
  database_url: "postgres://localhost/jobtracker"
  max_conns: 4
storage:
  driver: "minio"
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
redis:
  url: "redis://localhost:6379/0"
rate_limit:
  requests: 10
  window_seconds: 30
web:
  enabled: true
  api_base_url: "http://api.internal/api"
  request_timeout_seconds: 3
log:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.MaxUploadBytes() != 8<<20 {
		t.Errorf("Expected 8MB upload limit, got %d", cfg.MaxUploadBytes())
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Store.Driver != StorePostgres {
		t.Errorf("Expected postgres store, got %s", cfg.Store.Driver)
	}
	if cfg.Store.MaxConns != 4 {
		t.Errorf("Expected max_conns 4, got %d", cfg.Store.MaxConns)
	}
	if cfg.Storage.Driver != StorageMinio {
		t.Errorf("Expected minio storage, got %s", cfg.Storage.Driver)
	}
	if cfg.Minio.Bucket != "test-bucket" {
		t.Errorf("Expected bucket test-bucket, got %s", cfg.Minio.Bucket)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("Expected redis url, got %s", cfg.Redis.URL)
	}
	if cfg.RateLimit.Requests != 10 || cfg.RateLimit.WindowSeconds != 30 {
		t.Errorf("Unexpected rate limit %+v", cfg.RateLimit)
	}
	if !cfg.Web.Enabled || cfg.Web.APIBaseURL != "http://api.internal/api" {
		t.Errorf("Unexpected web config %+v", cfg.Web)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVER_PORT", "")
	path := writeTempConfig(t, `
auth:
  jwt_secret: "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.MaxUploadBytes() != 16<<20 {
		t.Errorf("Expected default 16MB upload limit, got %d", cfg.MaxUploadBytes())
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[0] != "127.0.0.1" || cfg.Server.TrustedProxies[1] != "::1" {
		t.Errorf("Expected loopback-only trusted proxies, got %v", cfg.Server.TrustedProxies)
	}
	if cfg.Auth.TokenExpireHours != 168 {
		t.Errorf("Expected default token_expire_hours 168, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("Expected default memory store, got %s", cfg.Store.Driver)
	}
	if cfg.Storage.Driver != StorageLocal || cfg.Storage.UploadDir != "uploads" {
		t.Errorf("Expected default local storage in uploads, got %+v", cfg.Storage)
	}
	if cfg.Web.APIBaseURL != "http://localhost:5000/api" {
		t.Errorf("Expected API base derived from port, got %s", cfg.Web.APIBaseURL)
	}
	if cfg.Web.RequestTimeoutSeconds != 10 {
		t.Errorf("Expected default request timeout 10, got %d", cfg.Web.RequestTimeoutSeconds)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("WEB_ENABLED", "true")

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("Expected jwt secret from env, got %s", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != StorePostgres {
		t.Errorf("Expected DATABASE_URL to select postgres, got %s", cfg.Store.Driver)
	}
	if !cfg.Web.Enabled {
		t.Error("Expected WEB_ENABLED to turn the UI on")
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeTempConfig(t, "server:\n  port: 8000\n")

	if _, err := Load(path); err == nil {
		t.Error("Expected error when jwt secret is missing")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "invalid: yaml: content:")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "memory and local",
			cfg: Config{
				Auth:    AuthConfig{JWTSecret: "s"},
				Store:   StoreConfig{Driver: StoreMemory},
				Storage: StorageConfig{Driver: StorageLocal},
			},
		},
		{
			name: "postgres without url",
			cfg: Config{
				Auth:    AuthConfig{JWTSecret: "s"},
				Store:   StoreConfig{Driver: StorePostgres},
				Storage: StorageConfig{Driver: StorageLocal},
			},
			wantErr: true,
		},
		{
			name: "minio without endpoint",
			cfg: Config{
				Auth:    AuthConfig{JWTSecret: "s"},
				Store:   StoreConfig{Driver: StoreMemory},
				Storage: StorageConfig{Driver: StorageMinio},
			},
			wantErr: true,
		},
		{
			name: "unknown store",
			cfg: Config{
				Auth:    AuthConfig{JWTSecret: "s"},
				Store:   StoreConfig{Driver: "sqlite"},
				Storage: StorageConfig{Driver: StorageLocal},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
