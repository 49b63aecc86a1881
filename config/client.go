package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Client holds the settings of the contacts CLI and TUI.
type Client struct {
	API API `yaml:"api"`
	UI  UI  `yaml:"ui"`
}

// API holds how the client reaches the contacts server.
type API struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`
}

// UI holds list presentation settings.
type UI struct {
	PageSize int `yaml:"page_size"`
}

func DefaultClient() Client {
	return Client{
		API: API{
			Server:  "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		UI: UI{
			PageSize: 6,
		},
	}
}

// ClientPaths returns the config files read by the client, lowest priority
// first: the user config, then the one in the working directory.
func ClientPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "contacts", "config.yaml"))
	}

	return append(paths, ".contacts.yaml")
}

// LoadClient merges the given files over the defaults. Later paths win and
// missing files are skipped. Unknown keys are an error.
func LoadClient(paths ...string) (*Client, error) {
	cfg := DefaultClient()

	for _, path := range paths {
		layer, err := loadClientLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// ApplyEnv applies CONTACTS_SERVER and CONTACTS_TIMEOUT.
func (c *Client) ApplyEnv() error {
	if v := os.Getenv("CONTACTS_SERVER"); v != "" {
		c.API.Server = v
	}
	if v := os.Getenv("CONTACTS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_TIMEOUT %q: %w", v, err)
		}
		c.API.Timeout = d
	}

	return nil
}

func (c *Client) Validate() error {
	if c.API.Server == "" {
		return errors.New("config: api.server cannot be empty")
	}
	u, err := url.Parse(c.API.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.server must be an http(s) URL, got %q", c.API.Server)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.UI.PageSize < 1 || c.UI.PageSize > 100 {
		return fmt.Errorf("config: ui.page_size must be between 1 and 100, got %d", c.UI.PageSize)
	}

	return nil
}

type rawClient struct {
	API *rawAPI `yaml:"api"`
	UI  *rawUI  `yaml:"ui"`
}

type rawAPI struct {
	Server  *string        `yaml:"server"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawUI struct {
	PageSize *int `yaml:"page_size"`
}

func loadClientLayer(path string) (*rawClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawClient
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// A file holding only comments decodes to EOF.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

func (c *Client) merge(layer *rawClient) {
	if layer.API != nil {
		if layer.API.Server != nil {
			c.API.Server = *layer.API.Server
		}
		if layer.API.Timeout != nil {
			c.API.Timeout = *layer.API.Timeout
		}
	}
	if layer.UI != nil && layer.UI.PageSize != nil {
		c.UI.PageSize = *layer.UI.PageSize
	}
}
