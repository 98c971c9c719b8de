// Package main implements mcp-mqtt, a Model Context Protocol server that
// talks to its clients through an MQTT v5 broker.
package main

import (
	"fmt"
	"os"

	"mcp-mqtt/cmd"
)

func main() {
	cmd.SetVersionInfo(Version, Commit, Date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
