package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"mcp-mqtt/config"
	"mcp-mqtt/store"
)

var errJournalNotConfigured = errors.New("journal not configured: set journal.path or MCP_MQTT_JOURNAL_PATH")

// ToolsCmd lists the tools that serve would register.
type ToolsCmd struct {
	Demo   bool   `help:"Include the demo tools"`
	Format string `help:"Output format: table, json or yaml" default:"table"`
}

// ResourcesCmd lists the configured resources.
type ResourcesCmd struct {
	Docs   bool   `help:"Include the built-in documentation resources"`
	Format string `help:"Output format: table, json or yaml" default:"table"`
}

// HistoryCmd shows the call journal.
type HistoryCmd struct {
	Limit  int           `help:"Number of entries to show" default:"50"`
	Format string        `help:"Output format: table, json or yaml" default:"table"`
	Prune  time.Duration `help:"Delete entries older than this before listing (e.g. 720h)"`
}

// Run implements the tools command execution
func (c *ToolsCmd) Run(g *Globals) error {
	return c.run(g, os.Stdout)
}

func (c *ToolsCmd) run(g *Globals, w io.Writer) error {
	format, err := store.ParseOutputFormat(c.Format)
	if err != nil {
		return err
	}
	cfg, err := config.GetConfig(g.Config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	reg, err := buildRegistry(cfg, c.Demo, false)
	if err != nil {
		return err
	}
	return store.ViewTools(w, reg.Tools(), format)
}

// Run implements the resources command execution
func (c *ResourcesCmd) Run(g *Globals) error {
	return c.run(g, os.Stdout)
}

func (c *ResourcesCmd) run(g *Globals, w io.Writer) error {
	format, err := store.ParseOutputFormat(c.Format)
	if err != nil {
		return err
	}
	cfg, err := config.GetConfig(g.Config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	reg, err := buildRegistry(cfg, false, c.Docs)
	if err != nil {
		return err
	}
	return store.ViewResources(w, reg.Resources(), format)
}

// Run implements the history command execution
func (c *HistoryCmd) Run(g *Globals) error {
	return c.run(context.Background(), g, os.Stdout)
}

func (c *HistoryCmd) run(ctx context.Context, g *Globals, w io.Writer) error {
	format, err := store.ParseOutputFormat(c.Format)
	if err != nil {
		return err
	}
	if c.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	cfg, err := config.GetConfigNoValidate(g.Config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if cfg.Journal.Path == "" {
		return errJournalNotConfigured
	}
	journal, err := store.InitDatabase(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer journal.Close()

	if c.Prune > 0 {
		n, err := journal.Prune(ctx, time.Now().Add(-c.Prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d entries\n", n)
	}

	entries, err := journal.Recent(ctx, c.Limit)
	if err != nil {
		return err
	}
	return store.ViewHistory(w, entries, format)
}
