package mcp

import (
	"context"
	"fmt"
	"strings"
)

const (
	DocsMIMEType    = "text/markdown"
	DocsOverviewURI = "resource://mcp-mqtt/overview"
	DocsToolsURI    = "resource://mcp-mqtt/tools"
)

// Docs serves the built-in documentation pages. The tools page is rendered
// from the registry on every read.
type Docs struct {
	registry   *Registry
	serverName string
	next       Readable
}

// NewDocs returns the documentation reader for reg. Reads of any uri other
// than the documentation pages are passed to next, which may be nil.
func NewDocs(reg *Registry, serverName string, next Readable) *Docs {
	return &Docs{registry: reg, serverName: serverName, next: next}
}

// Resources describes the documentation pages.
func (d *Docs) Resources() []Resource {
	return []Resource{
		{
			URI:         DocsOverviewURI,
			Name:        "overview",
			Title:       "mcp-mqtt overview",
			Description: "Topic layout and session lifecycle of this server.",
			MIMEType:    DocsMIMEType,
		},
		{
			URI:         DocsToolsURI,
			Name:        "tools",
			Title:       "mcp-mqtt tools",
			Description: "Every published tool with its positional arguments.",
			MIMEType:    DocsMIMEType,
		},
	}
}

func (d *Docs) Read(ctx context.Context, uri string) ([]byte, error) {
	switch uri {
	case DocsOverviewURI:
		return []byte(strings.ReplaceAll(overviewMarkdown, "{server_name}", d.serverName)), nil
	case DocsToolsURI:
		return []byte(d.toolsMarkdown()), nil
	}
	if d.next == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	return d.next.Read(ctx, uri)
}

func (d *Docs) toolsMarkdown() string {
	var b strings.Builder
	b.WriteString("# Tools\n\n")
	tools := d.registry.Tools()
	if len(tools) == 0 {
		b.WriteString("This server publishes no tools.\n")
		return b.String()
	}
	b.WriteString("Arguments are positional: pass them in kwargs in the order listed.\n\n")
	b.WriteString("| Tool | Arguments | Description |\n| --- | --- | --- |\n")
	for _, t := range tools {
		args := make([]string, 0, len(t.Args))
		for _, a := range t.Args {
			args = append(args, a.Name+" ("+a.Type.String()+")")
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", t.Name, strings.Join(args, ", "), t.Description)
	}
	return b.String()
}

const overviewMarkdown = `# {server_name}

Use this document to find the topics this server listens and answers on.

## Topics
| Topic | Direction | Purpose |
| --- | --- | --- |
| $mcp-server/<server-id>/{server_name} | client to server | initialize requests |
| $mcp-server/presence/<server-id>/{server_name} | server to client | retained online notice, emptied when offline |
| $mcp-rpc/<client-id>/<server-id>/{server_name} | both | requests and responses after initialize |
| $mcp-client/presence/<client-id> | client to server | an empty message ends the session |

Every request must carry the MCP-MQTT-CLIENT-ID user property.

## Session lifecycle
1. Subscribe to the presence topic and wait for notifications/server/online.
2. Publish initialize on the control topic. The reply arrives on your rpc topic.
3. Send notifications/initialized, then tools/list, tools/call, resources/list or resources/read.
4. Publish an empty message on your presence topic when leaving.

## Errors
- tools/call with an unknown tool or mismatched kwargs answers -32601.
- tools/call with malformed params answers -32600.
- A tool that fails returns a result with isError set.
- resources/read for an unknown uri is not answered.
`
