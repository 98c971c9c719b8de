package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

var (
	// Version information - set by version.go
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Path to config file (default ~/.config/mcp-mqtt/config.yaml)" placeholder:"PATH"`
	Debug  bool   `help:"Log at debug level"`
}

// CLI represents the command line interface structure using Kong
type CLI struct {
	Globals

	Serve     ServeCmd     `cmd:"" help:"Connect to the broker and serve tools and resources"`
	Tools     ToolsCmd     `cmd:"" help:"List the tools this server would expose"`
	Resources ResourcesCmd `cmd:"" help:"List the resources this server would expose"`
	History   HistoryCmd   `cmd:"" help:"Display recent calls from the journal"`
	Config    ConfigCmd    `cmd:"" help:"Show the effective configuration with secrets masked"`
	Validate  ValidateCmd  `cmd:"" help:"Check the configuration and resource files"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command structure
type VersionCmd struct{}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("mcp-mqtt"),
		kong.Description("MCP server over MQTT v5"),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s, built %s)", appVersion, appCommit, appDate),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)
	return kong.New(cli, options...)
}

// Execute is the main entry point for all commands
func Execute() error {
	cli := &CLI{}

	parser, err := newParser(cli)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	return ctx.Run(&cli.Globals)
}

// Run implements the version command execution
func (v *VersionCmd) Run() error {
	return v.run(os.Stdout)
}

func (v *VersionCmd) run(w io.Writer) error {
	fmt.Fprintf(w, "mcp-mqtt version %s\n", appVersion)
	fmt.Fprintf(w, "commit: %s\n", appCommit)
	fmt.Fprintf(w, "built at: %s\n", appDate)
	return nil
}
