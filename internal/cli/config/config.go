package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const ConfigFileName = "cruisemate.json"

// Server represents a CruiseMate backend the CLI can talk to
type Server struct {
	URL   string `json:"url"`   // API base URL, e.g. http://127.0.0.1:8000/api/
	Alias string `json:"alias"`
}

// Validate checks that the server URL is usable as an API base
func (s *Server) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", ConfigFileName)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("server '%s' has an invalid URL: %w", s.Alias, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server '%s' URL must start with http:// or https://", s.Alias)
	}
	if u.Host == "" {
		return fmt.Errorf("server '%s' URL has no host", s.Alias)
	}
	return nil
}

// Config represents the CLI project configuration file
type Config struct {
	Servers []Server `json:"servers"`
}

// DefaultConfig returns a configuration pointing at a local backend
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				URL:   "http://127.0.0.1:8000/api/",
				Alias: "local",
			},
		},
	}
}

// FindConfigFile searches for cruisemate.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find cruisemate.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its URL
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].URL == rawURL {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", rawURL)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}

// AddServer appends a server unless one with the same URL exists.
// It reports whether the server was added.
func (c *Config) AddServer(s Server) bool {
	if _, err := c.GetServerByURL(s.URL); err == nil {
		return false
	}
	c.Servers = append(c.Servers, s)
	return true
}
