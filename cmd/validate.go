package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"

	"mcp-mqtt/config"
)

// ValidateCmd checks the configuration without connecting.
type ValidateCmd struct{}

// Run implements the validate command execution
func (c *ValidateCmd) Run(g *Globals) error {
	return c.run(g, os.Stdout)
}

func (c *ValidateCmd) run(g *Globals, w io.Writer) error {
	cfg, err := config.GetConfig(g.Config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var result *multierror.Error
	for i, r := range cfg.Resources {
		info, err := os.Stat(r.Path)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("resources[%d].path: %w", i, err))
		case info.IsDir():
			result = multierror.Append(result, fmt.Errorf("resources[%d].path: %s is a directory", i, r.Path))
		}
	}
	if _, err := buildRegistry(cfg, false, false); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	fmt.Fprintf(w, "configuration OK: server %q, broker %s, %d roles, %d resources\n",
		cfg.Server.Name, cfg.Broker.URL, len(cfg.Roles), len(cfg.Resources))
	return nil
}
