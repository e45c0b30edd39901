// Package config loads server configuration from an optional YAML file and
// environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// EnvDevelopment enables local defaults such as the demo Firebase project.
const EnvDevelopment = "development"

// DemoProjectID is used for the Firestore emulator in development.
const DemoProjectID = "demo-test-project"

// Config is the process configuration.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Store StoreConfig `yaml:"store"`

	FirebaseProjectID  string   `yaml:"firebase_project_id"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	DocsSpecPath       string   `yaml:"docs_spec_path"`
}

// StoreConfig selects and tunes the ticket store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// URL is the connection string of the postgres driver.
	URL string `yaml:"url"`
	// Key is the store access key, used as the database password.
	Key          string        `yaml:"key"`
	Table        string        `yaml:"table"`
	MaxConns     int           `yaml:"max_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	ProbeTTL     time.Duration `yaml:"probe_ttl"`
	MaxLimit     int           `yaml:"max_limit"`
	// Seed inserts sample rows into the memory driver.
	Seed int `yaml:"seed"`

	// probeTTLSet records an explicit probe_ttl, so zero disables the cache.
	probeTTLSet bool
}

// Load reads CONFIG_FILE when set, applies environment overrides and
// defaults, then validates the result.
func Load() (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path, ok := getEnvStr("CONFIG_FILE"); ok {
		c, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = &Config{}
	}

	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile parses the YAML file at path without defaults or env overrides.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	var presence struct {
		Store struct {
			ProbeTTL *time.Duration `yaml:"probe_ttl"`
		} `yaml:"store"`
	}
	if err := yaml.Unmarshal(b, &presence); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.Store.probeTTLSet = presence.Store.ProbeTTL != nil
	return &c, nil
}

// IsDevelopment reports whether the process runs in local development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Store.Driver == "" {
		if c.IsDevelopment() {
			c.Store.Driver = DriverMemory
		} else {
			c.Store.Driver = DriverPostgres
		}
	}
	if c.Store.Table == "" {
		c.Store.Table = "tickets"
	}
	if c.Store.QueryTimeout == 0 {
		c.Store.QueryTimeout = 5 * time.Second
	}
	if c.Store.ProbeTTL == 0 && !c.Store.probeTTLSet {
		c.Store.ProbeTTL = 30 * time.Second
	}
	if c.Store.MaxLimit == 0 {
		c.Store.MaxLimit = 100
	}
	if c.DocsSpecPath == "" {
		c.DocsSpecPath = "api/openapi.json"
	}
	if c.Store.Driver == DriverFirestore && c.FirebaseProjectID == "" && c.IsDevelopment() {
		c.FirebaseProjectID = DemoProjectID
	}
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := getEnvStr("PORT"); ok {
		c.Port = v
	}
	if v, ok := getEnvStr("APP_ENVIRONMENT"); ok {
		c.Environment = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if v, ok := getEnvStr("STORE_DRIVER"); ok {
		c.Store.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORE_URL"); ok {
		c.Store.URL = v
	}
	if v, ok := getEnvStr("STORE_KEY"); ok {
		c.Store.Key = v
	}
	if v, ok := getEnvStr("STORE_TABLE"); ok {
		c.Store.Table = v
	}

	var errs []error
	if v, ok, err := getEnvInt("STORE_MAX_CONNS"); ok {
		c.Store.MaxConns = v
	} else if err != nil {
		errs = append(errs, err)
	}
	if v, ok, err := getEnvInt("STORE_MAX_LIMIT"); ok {
		c.Store.MaxLimit = v
	} else if err != nil {
		errs = append(errs, err)
	}
	if v, ok, err := getEnvInt("STORE_SEED"); ok {
		c.Store.Seed = v
	} else if err != nil {
		errs = append(errs, err)
	}
	if v, ok, err := getEnvDur("STORE_PROBE_TTL"); ok {
		c.Store.ProbeTTL = v
		c.Store.probeTTLSet = true
	} else if err != nil {
		errs = append(errs, err)
	}
	if v, ok, err := getEnvDur("STORE_QUERY_TIMEOUT"); ok {
		c.Store.QueryTimeout = v
	} else if err != nil {
		errs = append(errs, err)
	}

	if v, ok := getEnvStr("FIREBASE_PROJECT_ID"); ok {
		c.FirebaseProjectID = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("DOCS_SPEC_PATH"); ok {
		c.DocsSpecPath = v
	}
	return errors.Join(errs...)
}

// Validate checks the values needed at startup. Missing store connection
// parameters are reported here, never per request.
func (c *Config) Validate() error {
	var errs []error

	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("STORE_URL is required for the postgres driver"))
		}
		if c.Store.Key == "" {
			errs = append(errs, errors.New("STORE_KEY is required for the postgres driver"))
		}
	case DriverFirestore:
		if c.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Store.Table == "" {
		errs = append(errs, errors.New("store table must not be empty"))
	}
	if c.Store.MaxConns < 0 {
		errs = append(errs, errors.New("STORE_MAX_CONNS must not be negative"))
	}
	if c.Store.MaxLimit < 1 {
		errs = append(errs, errors.New("STORE_MAX_LIMIT must be positive"))
	}
	if c.Store.ProbeTTL < 0 || c.Store.QueryTimeout < 0 {
		errs = append(errs, errors.New("store durations must not be negative"))
	}
	if c.Store.Seed < 0 {
		errs = append(errs, errors.New("STORE_SEED must not be negative"))
	}
	if slices.Contains(c.CORSAllowedOrigins, "*") && len(c.CORSAllowedOrigins) > 1 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS cannot mix * with explicit origins"))
	}
	return errors.Join(errs...)
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid integer %q", key, s)
	}
	return i, true, nil
}

func getEnvDur(key string) (time.Duration, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid duration %q", key, s)
	}
	return d, true, nil
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}
