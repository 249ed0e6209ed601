package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/dayflowhq/dayflow-client/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".dayflow", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".dayflow", "logs", "client.log")
	DefaultDataDir     = filepath.Join(home, "Dayflow")
	DefaultServerURL   = "https://api.dayflow.app"
	DefaultClientAddr  = "localhost:7438"
)

// Config is the client daemon configuration.
type Config struct {
	DataDir    string `json:"data_dir"`
	Email      string `json:"email"`
	ServerURL  string `json:"server_url"`
	ClientAddr string `json:"client_addr"`
	AuthToken  string `json:"auth_token"`
	Path       string `json:"-"`
}

// Validate normalizes the config in place and reports the first problem.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	c.DataDir = dataDir

	if c.Path != "" {
		path, err := utils.ResolvePath(c.Path)
		if err != nil {
			return fmt.Errorf("config path: %w", err)
		}
		c.Path = path
	}

	addr, err := mail.ParseAddress(c.Email)
	if err != nil {
		return fmt.Errorf("email %q: %w", c.Email, err)
	}
	c.Email = strings.ToLower(addr.Address)

	if err := validateURL(c.ServerURL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}

	if c.ClientAddr == "" {
		c.ClientAddr = DefaultClientAddr
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// DatabasePath is where the local queue database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, ".dayflow", "client.db")
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
