package jsonrpc

import (
	"encoding/json"
	"fmt"

	"mcp-mqtt/mcp"

	"github.com/google/jsonschema-go/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	toolCallSchema = &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "arguments"},
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
			"arguments": {
				Type:     "object",
				Required: []string{"kwargs"},
				Properties: map[string]*jsonschema.Schema{
					"kwargs": {
						Type:                 "object",
						AdditionalProperties: &jsonschema.Schema{Types: []string{"string", "number", "boolean"}},
					},
				},
			},
		},
	}

	resourceReadSchema = &jsonschema.Schema{
		Type:     "object",
		Required: []string{"uri"},
		Properties: map[string]*jsonschema.Schema{
			"uri": {Type: "string"},
		},
	}

	toolCallResolved     = mustResolve(toolCallSchema)
	resourceReadResolved = mustResolve(resourceReadSchema)
)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	rs, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("jsonrpc: invalid params schema: %v", err))
	}
	return rs
}

func validateParams(m Message, rs *jsonschema.Resolved) error {
	if len(m.Params) == 0 {
		return fmt.Errorf("%w: params missing", ErrInvalidParams)
	}
	var instance any
	if err := json.Unmarshal(m.Params, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := rs.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// DecodeToolCall extracts the tool name and the keyword arguments of a
// tools/call request, in the order the caller wrote them. JSON numbers are
// always decoded as reals; narrowing to integers is the registry's job.
func DecodeToolCall(m Message) (string, []mcp.Argument, error) {
	if err := validateParams(m, toolCallResolved); err != nil {
		return "", nil, err
	}

	var p struct {
		Name      string `json:"name"`
		Arguments struct {
			Kwargs json.RawMessage `json:"kwargs"`
		} `json:"arguments"`
	}
	if err := json.Unmarshal(m.Params, &p); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	kwargs := orderedmap.New[string, any]()
	if err := kwargs.UnmarshalJSON(p.Arguments.Kwargs); err != nil {
		return "", nil, fmt.Errorf("%w: kwargs: %v", ErrInvalidParams, err)
	}

	args := make([]mcp.Argument, 0, kwargs.Len())
	for pair := kwargs.Oldest(); pair != nil; pair = pair.Next() {
		var v mcp.Value
		switch x := pair.Value.(type) {
		case string:
			v = mcp.StringValue(x)
		case float64:
			v = mcp.RealValue(x)
		case bool:
			v = mcp.BooleanValue(x)
		default:
			return "", nil, fmt.Errorf("%w: argument %s has unsupported type %T", ErrInvalidParams, pair.Key, pair.Value)
		}
		args = append(args, mcp.Argument{Name: pair.Key, Value: v})
	}
	return p.Name, args, nil
}

// DecodeResourceRead extracts the target uri of a resources/read request.
func DecodeResourceRead(m Message) (string, error) {
	if err := validateParams(m, resourceReadResolved); err != nil {
		return "", err
	}
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(m.Params, &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p.URI, nil
}
