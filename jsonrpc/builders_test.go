package jsonrpc

import (
	"context"
	"encoding/json"
	"testing"

	"mcp-mqtt/mcp"

	"github.com/stretchr/testify/require"
)

func encodeString(t *testing.T, m Message) string {
	t.Helper()
	data, err := Encode(m)
	require.NoError(t, err)
	return string(data)
}

func noopTool(name string, args ...mcp.ArgSpec) mcp.Tool {
	return mcp.Tool{
		Name:    name,
		Args:    args,
		Handler: mcp.ToolFunc(func(context.Context, mcp.Arguments) (string, error) { return "", nil }),
	}
}

func TestServerOnline(t *testing.T) {
	m := ServerOnline("demo", "A demo server", []mcp.Role{
		{Name: "admin", Description: "everything", AllowedMethods: []string{"tools/call"}, AllowedTools: []string{"add"}},
		{Name: "guest"},
	})
	require.Equal(t, MethodServerOnline, m.Method)
	require.False(t, m.ID.IsSet())
	require.JSONEq(t, `{
		"jsonrpc":"2.0",
		"method":"notifications/server/online",
		"params":{
			"server_name":"demo",
			"description":"A demo server",
			"meta":{"rbac":{"roles":[
				{"name":"admin","description":"everything","allowed_methods":["tools/call"],"allowed_tools":["add"]},
				{"name":"guest"}
			]}}
		}
	}`, encodeString(t, m))

	m = ServerOnline("bare", "", nil)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/server/online",
		"params":{"server_name":"bare","meta":{"rbac":{"roles":[]}}}}`, encodeString(t, m))
}

func TestInitializeResult(t *testing.T) {
	type initialize struct {
		ID     int64 `json:"id"`
		Result struct {
			ProtocolVersion string            `json:"protocolVersion"`
			ServerInfo      map[string]string `json:"serverInfo"`
			Capabilities    map[string]struct {
				ListChanged bool `json:"listChanged"`
			} `json:"capabilities"`
		} `json:"result"`
	}

	var got initialize
	require.NoError(t, json.Unmarshal([]byte(encodeString(t, InitializeResult(IntID(1), true, true))), &got))
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "2024-11-05", got.Result.ProtocolVersion)
	require.Equal(t, "mcp", got.Result.ServerInfo["name"])
	require.Equal(t, "0.0.1", got.Result.ServerInfo["version"])
	require.True(t, got.Result.Capabilities["tools"].ListChanged)
	require.True(t, got.Result.Capabilities["resources"].ListChanged)

	got = initialize{}
	require.NoError(t, json.Unmarshal([]byte(encodeString(t, InitializeResult(IntID(2), true, false))), &got))
	require.Contains(t, got.Result.Capabilities, "tools")
	require.NotContains(t, got.Result.Capabilities, "resources")
}

func TestToolListResult(t *testing.T) {
	tools := []mcp.Tool{
		noopTool("mix",
			mcp.ArgSpec{Name: "s", Description: "a string", Type: mcp.TypeString},
			mcp.ArgSpec{Name: "x", Type: mcp.TypeReal},
			mcp.ArgSpec{Name: "n", Type: mcp.TypeInteger},
			mcp.ArgSpec{Name: "b", Type: mcp.TypeBoolean},
		),
		noopTool("ping"),
	}
	tools[0].Description = "mixed types"

	require.JSONEq(t, `{"jsonrpc":"2.0","id":"l","result":{"tools":[
		{"name":"mix","description":"mixed types","inputSchema":{
			"type":"object",
			"properties":{
				"s":{"description":"a string","type":"string"},
				"x":{"type":"number"},
				"n":{"type":"integer"},
				"b":{"type":true}
			},
			"required":["s","x","n","b"]}},
		{"name":"ping","inputSchema":{"type":"object","properties":{},"required":[]}}
	]}}`, encodeString(t, ToolListResult(StringID("l"), tools)))
}

func TestToolCallResult(t *testing.T) {
	require.JSONEq(t, `{"jsonrpc":"2.0","id":5,"result":{"content":[{"type":"text","text":"5"}]}}`,
		encodeString(t, ToolCallResult(IntID(5), "5")))

	var got struct {
		Result struct {
			Content []map[string]any `json:"content"`
			IsError bool             `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(encodeString(t, ToolCallError(IntID(6), "boom"))), &got))
	require.True(t, got.Result.IsError)
	require.Equal(t, "boom", got.Result.Content[0]["text"])
}

func TestResourceResults(t *testing.T) {
	resources := []mcp.Resource{
		{URI: "file:///a.txt", Name: "a", Description: "first", MIMEType: "text/plain", Title: "A"},
		{URI: "file:///b.txt", Name: "b"},
	}
	require.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"contents":[
		{"uri":"file:///a.txt","name":"a","description":"first","mimeType":"text/plain","title":"A"},
		{"uri":"file:///b.txt","name":"b"}
	]}}`, encodeString(t, ResourceListResult(IntID(3), resources)))

	require.JSONEq(t, `{"jsonrpc":"2.0","id":4,"result":{"contents":[
		{"uri":"file:///a.txt","name":"a","mimeType":"text/plain","title":"A","text":"hello"}
	]}}`, encodeString(t, ResourceReadResult(IntID(4), resources[0], "hello")))
}

func TestErrorHelpers(t *testing.T) {
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"Invalid params"}}`,
		encodeString(t, InvalidParams(IntID(1))))
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`,
		encodeString(t, MethodNotFound(IntID(1))))
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"read failed"}}`,
		encodeString(t, InternalError(IntID(1), "read failed", nil)))
}
