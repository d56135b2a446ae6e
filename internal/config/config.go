// Package config loads application configuration from environment variables
// and an optional TOML file.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration.
type Config struct {
	GitHubToken string
	// Organization, GitHubTeams, Unit and Value are the defaults for analyses
	// started from the command line.
	Organization string
	GitHubTeams  []string
	Unit         string
	Value        int

	ListenAddr        string
	DBPath            string
	SecretKey         []byte // 32-byte AES-256 key; nil when LEADTIME_SECRET_KEY is unset.
	RateLimitCooldown time.Duration

	// File is the TOML file the configuration was read from, if any.
	File string
}

// fileConfig is the layout of the optional TOML file. The secret key is only
// ever read from the environment.
type fileConfig struct {
	GitHubToken       string   `toml:"github_token"`
	Organization      string   `toml:"organization"`
	Teams             []string `toml:"teams"`
	Unit              string   `toml:"unit"`
	Value             int      `toml:"value"`
	ListenAddr        string   `toml:"listen_addr"`
	DBPath            string   `toml:"db_path"`
	RateLimitCooldown string   `toml:"rate_limit_cooldown"`
}

// HasGitHubToken returns true when a GitHub token was configured.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load builds the configuration from defaults, then the TOML file named by
// LEADTIME_CONFIG (if set), then LEADTIME_* environment variables, each layer
// overriding the previous one.
//
// Defaults: LEADTIME_UNIT (month), LEADTIME_VALUE (3), LEADTIME_LISTEN_ADDR
// (127.0.0.1:8080), LEADTIME_DB_PATH (leadtime.db), LEADTIME_RATE_LIMIT_COOLDOWN (1s).
// The GitHub token is optional; it can be provided per analysis or stored via the API.
func Load() (*Config, error) {
	cfg := &Config{
		GitHubTeams:       []string{},
		Unit:              "month",
		Value:             3,
		ListenAddr:        "127.0.0.1:8080",
		DBPath:            "leadtime.db",
		RateLimitCooldown: time.Second,
	}

	if path, ok := os.LookupEnv("LEADTIME_CONFIG"); ok && path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("LEADTIME_CONFIG %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("LEADTIME_CONFIG %s: unknown key %q", path, undecoded[0].String())
	}

	c.File = path
	setString(&c.GitHubToken, fc.GitHubToken)
	setString(&c.Organization, fc.Organization)
	setString(&c.Unit, fc.Unit)
	setString(&c.ListenAddr, fc.ListenAddr)
	setString(&c.DBPath, fc.DBPath)
	if teams := cleanSlugs(fc.Teams); len(teams) > 0 {
		c.GitHubTeams = teams
	}
	if fc.Value != 0 {
		if fc.Value < 1 {
			return fmt.Errorf("LEADTIME_CONFIG %s: value must be at least 1, got %d", path, fc.Value)
		}
		c.Value = fc.Value
	}
	if fc.RateLimitCooldown != "" {
		d, err := parseCooldown(fc.RateLimitCooldown)
		if err != nil {
			return fmt.Errorf("LEADTIME_CONFIG %s: rate_limit_cooldown: %w", path, err)
		}
		c.RateLimitCooldown = d
	}

	return nil
}

func (c *Config) loadEnv() error {
	lookupString(&c.GitHubToken, "LEADTIME_GITHUB_TOKEN")
	lookupString(&c.Organization, "LEADTIME_ORG")
	lookupString(&c.Unit, "LEADTIME_UNIT")
	lookupString(&c.ListenAddr, "LEADTIME_LISTEN_ADDR")
	lookupString(&c.DBPath, "LEADTIME_DB_PATH")

	if v, ok := os.LookupEnv("LEADTIME_GITHUB_TEAMS"); ok && v != "" {
		c.GitHubTeams = cleanSlugs(strings.Split(v, ","))
	}

	if v, ok := os.LookupEnv("LEADTIME_VALUE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return fmt.Errorf("LEADTIME_VALUE must be a positive integer, got %q", v)
		}
		c.Value = n
	}

	if v, ok := os.LookupEnv("LEADTIME_RATE_LIMIT_COOLDOWN"); ok {
		d, err := parseCooldown(v)
		if err != nil {
			return fmt.Errorf("LEADTIME_RATE_LIMIT_COOLDOWN: %w", err)
		}
		c.RateLimitCooldown = d
	}

	// Optional encryption key for stored credentials: 64 hex chars decode to 32 bytes.
	if v, ok := os.LookupEnv("LEADTIME_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return fmt.Errorf("LEADTIME_SECRET_KEY must be hex-encoded: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("LEADTIME_SECRET_KEY must decode to 32 bytes (64 hex chars), got %d bytes", len(key))
		}
		c.SecretKey = key
	}

	return nil
}

func parseCooldown(v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", v)
	}
	return d, nil
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// cleanSlugs trims slugs and drops empty ones.
func cleanSlugs(raw []string) []string {
	slugs := []string{}
	for _, slug := range raw {
		slug = strings.TrimSpace(slug)
		if slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}
