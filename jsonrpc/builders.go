package jsonrpc

import (
	"encoding/json"

	"mcp-mqtt/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ProtocolVersion is the MCP revision advertised in initialize results.
	ProtocolVersion = "2024-11-05"

	implementationName    = "mcp"
	implementationVersion = "0.0.1"

	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodServerOnline  = "notifications/server/online"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
)

type roleInfo struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	AllowedMethods   []string `json:"allowed_methods,omitempty"`
	AllowedTools     []string `json:"allowed_tools,omitempty"`
	AllowedResources []string `json:"allowed_resources,omitempty"`
}

type serverOnlineParams struct {
	ServerName  string `json:"server_name"`
	Description string `json:"description,omitempty"`
	Meta        struct {
		RBAC struct {
			Roles []roleInfo `json:"roles"`
		} `json:"rbac"`
	} `json:"meta"`
}

type propertySchema struct {
	Description string `json:"description,omitempty"`
	// Type is a JSON Schema type name, except for booleans which peers
	// expect as the literal true.
	Type any `json:"type"`
}

type inputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type toolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema inputSchema `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []toolInfo `json:"tools"`
}

type resourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	Title       string `json:"title,omitempty"`
}

type resourcesListResult struct {
	Contents []resourceInfo `json:"contents"`
}

type resourceText struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
}

type resourceReadResult struct {
	Contents []resourceText `json:"contents"`
}

func result(id ID, v any) Message {
	data, err := json.Marshal(v)
	if err != nil {
		return InternalError(id, "failed to encode result", err)
	}
	return Message{ID: id, Outcome: Success(data)}
}

// ServerOnline builds the retained notification announcing the server and
// the roles it offers.
func ServerOnline(name, description string, roles []mcp.Role) Message {
	var p serverOnlineParams
	p.ServerName = name
	p.Description = description
	p.Meta.RBAC.Roles = make([]roleInfo, 0, len(roles))
	for _, r := range roles {
		p.Meta.RBAC.Roles = append(p.Meta.RBAC.Roles, roleInfo{
			Name:             r.Name,
			Description:      r.Description,
			AllowedMethods:   r.AllowedMethods,
			AllowedTools:     r.AllowedTools,
			AllowedResources: r.AllowedResources,
		})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return Message{Method: MethodServerOnline}
	}
	return Message{Method: MethodServerOnline, Params: data}
}

// ErrorResponse builds an error reply for id.
func ErrorResponse(id ID, code int64, message string) Message {
	return Message{ID: id, Outcome: Failure(code, message, "")}
}

// InitializeResult answers initialize, advertising tools and resources only
// when some are registered.
func InitializeResult(id ID, hasTools, hasResources bool) Message {
	caps := &sdk.ServerCapabilities{}
	if hasTools {
		caps.Tools = &sdk.ToolCapabilities{ListChanged: true}
	}
	if hasResources {
		caps.Resources = &sdk.ResourceCapabilities{ListChanged: true}
	}
	return result(id, &sdk.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      &sdk.Implementation{Name: implementationName, Version: implementationVersion},
		Capabilities:    caps,
	})
}

func argSchemaType(t mcp.ArgType) any {
	switch t {
	case mcp.TypeReal:
		return "number"
	case mcp.TypeInteger:
		return "integer"
	case mcp.TypeBoolean:
		return true
	default:
		return "string"
	}
}

// ToolListResult describes every tool with an object input schema whose
// properties are all required.
func ToolListResult(id ID, tools []mcp.Tool) Message {
	res := toolsListResult{Tools: make([]toolInfo, 0, len(tools))}
	for _, t := range tools {
		schema := inputSchema{
			Type:       "object",
			Properties: make(map[string]propertySchema, len(t.Args)),
			Required:   make([]string, 0, len(t.Args)),
		}
		for _, a := range t.Args {
			schema.Properties[a.Name] = propertySchema{Description: a.Description, Type: argSchemaType(a.Type)}
			schema.Required = append(schema.Required, a.Name)
		}
		res.Tools = append(res.Tools, toolInfo{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return result(id, res)
}

// ToolCallResult wraps a tool's text output as a single text content item.
func ToolCallResult(id ID, text string) Message {
	return result(id, &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	})
}

// ToolCallError reports a failed tool invocation as a tool result flagged isError.
func ToolCallError(id ID, text string) Message {
	return result(id, &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
		IsError: true,
	})
}

// ResourceListResult lists the resource catalog under "contents".
func ResourceListResult(id ID, resources []mcp.Resource) Message {
	res := resourcesListResult{Contents: make([]resourceInfo, 0, len(resources))}
	for _, r := range resources {
		res.Contents = append(res.Contents, resourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
			Title:       r.Title,
		})
	}
	return result(id, res)
}

// ResourceReadResult wraps text read from resource.
func ResourceReadResult(id ID, resource mcp.Resource, text string) Message {
	return result(id, resourceReadResult{Contents: []resourceText{{
		URI:      resource.URI,
		Name:     resource.Name,
		MIMEType: resource.MIMEType,
		Title:    resource.Title,
		Text:     text,
	}}})
}
