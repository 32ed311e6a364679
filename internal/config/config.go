package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration.
type Config struct {
	Strava StravaConfig `json:"strava"`
	Home   HomeConfig   `json:"home"`
	OpenAI OpenAIConfig `json:"openai"`
}

// StravaConfig holds Strava API credentials. Token refresh flows are out
// of scope here; the access token is used as-is.
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
}

// HomeConfig holds the coordinates used for weather fetches.
type HomeConfig struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OpenAIConfig holds the optional key for AI daily briefings.
type OpenAIConfig struct {
	APIKey string `json:"api_key"`
}

// ErrNoConfig is returned when the config file doesn't exist.
var ErrNoConfig = errors.New("config file not found")

// Load reads the configuration from ~/.velo/config.json.
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.velo/config.json.
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists.
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // config exists, don't overwrite
	}

	example := Config{
		Strava: StravaConfig{
			ClientID:     "YOUR_CLIENT_ID",
			ClientSecret: "YOUR_CLIENT_SECRET",
			AccessToken:  "YOUR_ACCESS_TOKEN",
		},
	}

	return Save(&example)
}

// Validate checks that the config can support a sync.
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.AccessToken == "" || c.Strava.AccessToken == "YOUR_ACCESS_TOKEN" {
		return errors.New("strava.access_token is required")
	}
	if (c.Home.Lat != 0 || c.Home.Lon != 0) &&
		(c.Home.Lat < -90 || c.Home.Lat > 90 || c.Home.Lon < -180 || c.Home.Lon > 180) {
		return fmt.Errorf("home coordinates (%v, %v) out of range", c.Home.Lat, c.Home.Lon)
	}
	return nil
}

// HasHome reports whether weather fetches are configured.
func (c *Config) HasHome() bool {
	return c.Home.Lat != 0 || c.Home.Lon != 0
}

// getConfigPath returns the path to the config file.
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".velo", "config.json"), nil
}

// GetConfigDir returns the path to the config directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".velo"), nil
}
