// Package config loads auditor settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete auditor configuration.
type Config struct {
	Client ClientConfig `yaml:"client" json:"client"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// ClientConfig is used by the editor side: review, mark, status and friends.
type ClientConfig struct {
	// Endpoint is the base URL of the audit service.
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	Author     string        `yaml:"author" json:"author"`
	Extensions []string      `yaml:"extensions" json:"extensions"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// ServerConfig is used by the development audit service.
type ServerConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	RepoPath string `yaml:"repo_path" json:"repo_path"`
	// RedisURL selects the Redis store. Empty keeps state in memory.
	RedisURL         string   `yaml:"redis_url" json:"redis_url"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes" json:"excluded_prefixes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: ClientConfig{
			Endpoint:   "http://localhost:3000/",
			Author:     "auditor",
			Extensions: []string{"cpp", "h", "go"},
			Timeout:    10 * time.Second,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
	}
}

// Addr is the listen address of the service.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultPath is ~/.config/auditor/auditor.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "auditor", "auditor.yaml")
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("AUDITOR_ENDPOINT"); ok {
		c.Client.Endpoint = v
	}
	if v, ok := lookup("AUDITOR_AUTHOR"); ok {
		c.Client.Author = v
	}
	if v, ok := lookup("AUDITOR_EXTENSIONS"); ok {
		c.Client.Extensions = SplitList(v)
	}
	if v, ok := lookup("AUDITOR_REPO_PATH"); ok {
		c.Server.RepoPath = v
	}
	if v, ok := lookup("AUDITOR_REDIS_URL"); ok {
		c.Server.RedisURL = v
	}
	if v, ok := lookup("AUDITOR_EXCLUDED_PREFIXES"); ok {
		c.Server.ExcludedPrefixes = SplitList(v)
	}
	if v, ok := lookup("AUDITOR_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUDITOR_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.Client.Endpoint == "" {
		return errors.New("client endpoint is required")
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client timeout must not be negative: %s", c.Client.Timeout)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
