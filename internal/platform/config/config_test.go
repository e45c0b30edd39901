package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"CONFIG_FILE", "PORT", "APP_ENVIRONMENT", "LOG_LEVEL",
	"STORE_DRIVER", "STORE_URL", "STORE_KEY", "STORE_TABLE", "STORE_MAX_CONNS",
	"STORE_MAX_LIMIT", "STORE_SEED", "STORE_PROBE_TTL", "STORE_QUERY_TIMEOUT",
	"FIREBASE_PROJECT_ID", "CORS_ALLOWED_ORIGINS", "DOCS_SPEC_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENVIRONMENT", "Development")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Port != "8080" || c.Addr() != ":8080" {
		t.Fatalf("expected default port, got %q", c.Port)
	}
	if !c.IsDevelopment() {
		t.Fatal("expected development environment")
	}
	if c.Store.Driver != DriverMemory {
		t.Fatalf("expected memory driver in development, got %q", c.Store.Driver)
	}
	if c.Store.Table != "tickets" || c.Store.MaxLimit != 100 {
		t.Fatalf("unexpected store defaults: %+v", c.Store)
	}
	if c.Store.ProbeTTL != 30*time.Second || c.Store.QueryTimeout != 5*time.Second {
		t.Fatalf("unexpected duration defaults: %+v", c.Store)
	}
	if c.DocsSpecPath != "api/openapi.json" {
		t.Fatalf("expected default docs path, got %q", c.DocsSpecPath)
	}
}

func TestLoad_PostgresRequiresURLAndKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error without store credentials")
	}
	if !strings.Contains(err.Error(), "STORE_URL") || !strings.Contains(err.Error(), "STORE_KEY") {
		t.Fatalf("expected both missing keys reported, got %v", err)
	}
}

func TestLoad_PostgresFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "postgres://postgres@db.example.supabase.co:5432/postgres")
	t.Setenv("STORE_KEY", "secret")
	t.Setenv("STORE_MAX_CONNS", "8")
	t.Setenv("STORE_PROBE_TTL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Store.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", c.Store.Driver)
	}
	if c.Store.MaxConns != 8 || c.Store.ProbeTTL != time.Minute {
		t.Fatalf("unexpected store config: %+v", c.Store)
	}
	if !slices.Equal(c.CORSAllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins: %v", c.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidEnvValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENVIRONMENT", "development")
	t.Setenv("STORE_MAX_CONNS", "lots")
	t.Setenv("STORE_PROBE_TTL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid env values")
	}
	if !strings.Contains(err.Error(), "STORE_MAX_CONNS") || !strings.Contains(err.Error(), "STORE_PROBE_TTL") {
		t.Fatalf("expected both invalid keys reported, got %v", err)
	}
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "9090"
environment: production
store:
  driver: firestore
  table: tickets_v2
  probe_ttl: 10s
firebase_project_id: from-file
cors_allowed_origins:
  - https://app.example
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FIREBASE_PROJECT_ID", "from-env")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Port != "9090" || c.Store.Driver != DriverFirestore || c.Store.Table != "tickets_v2" {
		t.Fatalf("unexpected config from file: %+v", c)
	}
	if c.Store.ProbeTTL != 10*time.Second {
		t.Fatalf("expected probe ttl from file, got %v", c.Store.ProbeTTL)
	}
	if c.FirebaseProjectID != "from-env" {
		t.Fatalf("expected env to override file, got %q", c.FirebaseProjectID)
	}
}

func TestLoad_ZeroProbeTTLFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENVIRONMENT", "development")
	t.Setenv("STORE_PROBE_TTL", "0s")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Store.ProbeTTL != 0 {
		t.Fatalf("expected explicit zero probe ttl to be kept, got %v", c.Store.ProbeTTL)
	}
}

func TestLoad_ZeroProbeTTLFromFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
environment: development
store:
  probe_ttl: 0s
`)
	t.Setenv("CONFIG_FILE", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Store.ProbeTTL != 0 {
		t.Fatalf("expected explicit zero probe ttl to be kept, got %v", c.Store.ProbeTTL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := writeFile(t, "store: [unterminated")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_FirestoreDevelopmentProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "firestore")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.FirebaseProjectID != DemoProjectID {
		t.Fatalf("expected demo project, got %q", c.FirebaseProjectID)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:  "8080",
			Store: StoreConfig{Driver: DriverMemory, Table: "tickets", MaxLimit: 100},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
		{"firestore without project", func(c *Config) { c.Store.Driver = DriverFirestore }},
		{"empty table", func(c *Config) { c.Store.Table = "" }},
		{"zero max limit", func(c *Config) { c.Store.MaxLimit = 0 }},
		{"negative ttl", func(c *Config) { c.Store.ProbeTTL = -time.Second }},
		{"negative seed", func(c *Config) { c.Store.Seed = -1 }},
		{"wildcard mixed", func(c *Config) { c.CORSAllowedOrigins = []string{"*", "https://a.example"} }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
