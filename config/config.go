package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"mcp-mqtt/mcp"
	"mcp-mqtt/validate"
)

const (
	AppName = "mcp-mqtt"
	// EnvPrefix prefixes every environment override, e.g. MCP_MQTT_BROKER_URL.
	EnvPrefix = "MCP_MQTT"

	DefaultServerName = "mcp-mqtt"
	DefaultBrokerURL  = "tcp://localhost:1883"
	DefaultKeepAlive  = 30 * time.Second
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Broker  BrokerConfig  `yaml:"broker"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`

	Roles     []RoleConfig     `yaml:"roles,omitempty" ignored:"true"`
	Resources []ResourceConfig `yaml:"resources,omitempty" ignored:"true"`
}

// ServerConfig names this server on the broker.
type ServerConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// ID is the MQTT client id; generated when empty.
	ID string `yaml:"id,omitempty"`
}

// BrokerConfig holds the MQTT connection settings.
type BrokerConfig struct {
	URL                string        `yaml:"url"`
	Username           string        `yaml:"username,omitempty"`
	Password           string        `yaml:"password,omitempty"`
	CAFile             string        `yaml:"ca_file,omitempty" split_words:"true"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify,omitempty" split_words:"true"`
	KeepAlive          time.Duration `yaml:"keep_alive" split_words:"true"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout,omitempty" split_words:"true"`
	QoS                byte          `yaml:"qos"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// JournalConfig enables the SQLite call journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RoleConfig is announced as-is in the server online notification.
type RoleConfig struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description,omitempty"`
	AllowedMethods   []string `yaml:"allowed_methods,omitempty"`
	AllowedTools     []string `yaml:"allowed_tools,omitempty"`
	AllowedResources []string `yaml:"allowed_resources,omitempty"`
}

// ResourceConfig exposes a local file as a readable resource.
type ResourceConfig struct {
	URI         string `yaml:"uri"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	MIMEType    string `yaml:"mime_type,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Path        string `yaml:"path"`
}

var brokerSchemes = map[string]bool{
	"tcp": true, "mqtt": true, "ssl": true, "tls": true, "mqtts": true, "ws": true, "wss": true,
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// GetConfig loads configuration from file and environment variables
// and validates the result.
func GetConfig(customPath string) (*Config, error) {
	cfg, err := GetConfigNoValidate(customPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigNoValidate loads configuration like GetConfig but skips
// validation, so a broken file can still be inspected.
func GetConfigNoValidate(customPath string) (*Config, error) {
	cfg := &Config{}

	// 1. Load from YAML file
	configPath, err := ResolveConfigPath(customPath)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err == nil { // File exists and is readable
			// Expand env vars before unmarshalling
			expandedFile := os.ExpandEnv(string(file))
			if err := yaml.Unmarshal([]byte(expandedFile), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			// File exists but is not readable for some reason
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		} else if customPath != "" {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
	}

	// 2. Override with environment variables
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// 3. Fill defaults
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = DefaultServerName
	}
	if c.Server.ID == "" {
		c.Server.ID = "mcp-server-" + uuid.NewString()
	}
	if c.Broker.URL == "" {
		c.Broker.URL = DefaultBrokerURL
	}
	if c.Broker.KeepAlive == 0 {
		c.Broker.KeepAlive = DefaultKeepAlive
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validate.ValidateServerName(c.Server.Name); err != nil {
		result = multierror.Append(result, fmt.Errorf("server.name: %w", err))
	}
	if err := validate.ValidateServerID(c.Server.ID); err != nil {
		result = multierror.Append(result, fmt.Errorf("server.id: %w", err))
	}

	if u, err := url.Parse(c.Broker.URL); err != nil {
		result = multierror.Append(result, fmt.Errorf("broker.url: %w", err))
	} else if !brokerSchemes[u.Scheme] || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("broker.url: %q must be scheme://host:port with scheme tcp, mqtt, ssl, tls, mqtts, ws or wss", c.Broker.URL))
	}
	if c.Broker.QoS > 2 {
		result = multierror.Append(result, fmt.Errorf("broker.qos: must be 0, 1 or 2, got %d", c.Broker.QoS))
	}
	if c.Broker.KeepAlive < time.Second || c.Broker.KeepAlive > 65535*time.Second {
		result = multierror.Append(result, fmt.Errorf("broker.keep_alive: %s is outside 1s-65535s", c.Broker.KeepAlive))
	}
	if c.Broker.ConnectTimeout < 0 {
		result = multierror.Append(result, errors.New("broker.connect_timeout: must not be negative"))
	}
	if c.Broker.CAFile != "" {
		if _, err := os.Stat(c.Broker.CAFile); err != nil {
			result = multierror.Append(result, fmt.Errorf("broker.ca_file: %w", err))
		}
	}

	if !logLevels[strings.ToLower(c.Log.Level)] {
		result = multierror.Append(result, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		result = multierror.Append(result, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	roleNames := make(map[string]bool, len(c.Roles))
	for i, r := range c.Roles {
		if r.Name == "" {
			result = multierror.Append(result, fmt.Errorf("roles[%d]: name is required", i))
			continue
		}
		if roleNames[r.Name] {
			result = multierror.Append(result, fmt.Errorf("roles[%d]: duplicate role %q", i, r.Name))
		}
		roleNames[r.Name] = true
	}

	uris := make(map[string]bool, len(c.Resources))
	for i, r := range c.Resources {
		if err := validate.ValidateURI(r.URI); err != nil {
			result = multierror.Append(result, fmt.Errorf("resources[%d].uri: %w", i, err))
		} else if uris[r.URI] {
			result = multierror.Append(result, fmt.Errorf("resources[%d].uri: duplicate %q", i, r.URI))
		}
		uris[r.URI] = true
		if r.Name == "" {
			result = multierror.Append(result, fmt.Errorf("resources[%d].name: required", i))
		}
		if r.Path == "" {
			result = multierror.Append(result, fmt.Errorf("resources[%d].path: required", i))
		}
	}

	return result.ErrorOrNil()
}

// RoleList converts the configured roles.
func (c *Config) RoleList() []mcp.Role {
	roles := make([]mcp.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		roles = append(roles, mcp.Role{
			Name:             r.Name,
			Description:      r.Description,
			AllowedMethods:   r.AllowedMethods,
			AllowedTools:     r.AllowedTools,
			AllowedResources: r.AllowedResources,
		})
	}
	return roles
}

// ResourceList converts the configured resources and returns the file path
// backing each uri.
func (c *Config) ResourceList() ([]mcp.Resource, map[string]string) {
	resources := make([]mcp.Resource, 0, len(c.Resources))
	paths := make(map[string]string, len(c.Resources))
	for _, r := range c.Resources {
		resources = append(resources, mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
			Title:       r.Title,
		})
		paths[r.URI] = r.Path
	}
	return resources, paths
}

// ResolveConfigPath returns customPath, or the default
// ~/.config/mcp-mqtt/config.yaml.
func ResolveConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName, "config.yaml"), nil
}
