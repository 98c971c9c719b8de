package cmd

import (
	"fmt"
	"io"
	"os"

	"mcp-mqtt/config"

	"gopkg.in/yaml.v3"
)

// ConfigCmd prints the effective settings.
type ConfigCmd struct{}

// Run implements the config command execution
func (c *ConfigCmd) Run(g *Globals) error {
	return ShowSettings(g, os.Stdout)
}

// ShowSettings loads application settings and prints a masked YAML to w.
func ShowSettings(g *Globals, w io.Writer) error {
	// Use shared loader without validation. It errors only when a custom --config is invalid.
	cfg, err := config.GetConfigNoValidate(g.Config)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	out, err := renderMaskedConfigYAML(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	return nil
}

// renderMaskedConfigYAML returns YAML of config with secrets masked.
func renderMaskedConfigYAML(cfg *config.Config) (string, error) {
	safe := *cfg
	safe.Broker.Password = maskSecret(cfg.Broker.Password)

	b, err := yaml.Marshal(&safe)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(b), nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	// Keep last 4 characters if reasonably long, else mask fully
	if len(s) > 8 {
		return "[masked]..." + s[len(s)-4:]
	}
	return "[masked]"
}
