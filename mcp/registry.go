package mcp

import (
	"context"
	"fmt"
	"strings"

	"mcp-mqtt/validate"
)

// Registry is the tool and resource catalog of one server. Registration must
// complete before the server starts dispatching; afterwards the catalog is
// read-only and safe for concurrent readers.
type Registry struct {
	tools     []Tool
	toolIndex map[string]int

	resources     []Resource
	resourceIndex map[string]int
	reader        Readable
}

// NewRegistry returns an empty catalog.
func NewRegistry() *Registry {
	return &Registry{
		toolIndex:     make(map[string]int),
		resourceIndex: make(map[string]int),
	}
}

// RegisterTools copies tools into the catalog. Names must be valid tool
// names and unique across all registered tools.
func (r *Registry) RegisterTools(tools ...Tool) error {
	for _, t := range tools {
		if err := validate.ValidateToolName(t.Name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTool, err)
		}
		if t.Handler == nil {
			return fmt.Errorf("%w: %s has no handler", ErrInvalidTool, t.Name)
		}
		if _, exists := r.toolIndex[t.Name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		seen := make(map[string]struct{}, len(t.Args))
		for _, a := range t.Args {
			if a.Name == "" {
				return fmt.Errorf("%w: %s has an unnamed argument", ErrInvalidTool, t.Name)
			}
			if _, dup := seen[a.Name]; dup {
				return fmt.Errorf("%w: %s declares argument %s twice", ErrInvalidTool, t.Name, a.Name)
			}
			seen[a.Name] = struct{}{}
		}

		copied := t
		copied.Args = append([]ArgSpec(nil), t.Args...)
		r.toolIndex[t.Name] = len(r.tools)
		r.tools = append(r.tools, copied)
	}
	return nil
}

// RegisterResources copies resources into the catalog and installs reader as
// the shared read callback. A later call replaces the reader.
func (r *Registry) RegisterResources(reader Readable, resources ...Resource) error {
	if reader == nil && len(resources) > 0 {
		return ErrNoReader
	}
	for _, res := range resources {
		if strings.TrimSpace(res.URI) == "" || strings.TrimSpace(res.Name) == "" {
			return fmt.Errorf("%w: uri and name are required", ErrInvalidResource)
		}
		if _, exists := r.resourceIndex[res.URI]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateResource, res.URI)
		}
		r.resourceIndex[res.URI] = len(r.resources)
		r.resources = append(r.resources, res)
	}
	if reader != nil {
		r.reader = reader
	}
	return nil
}

// FindTool looks a tool up by exact name.
func (r *Registry) FindTool(name string) (Tool, bool) {
	i, ok := r.toolIndex[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// FindResource looks a resource up by exact uri.
func (r *Registry) FindResource(uri string) (Resource, bool) {
	i, ok := r.resourceIndex[uri]
	if !ok {
		return Resource{}, false
	}
	return r.resources[i], true
}

// Tools returns the catalog in registration order.
func (r *Registry) Tools() []Tool {
	return append([]Tool(nil), r.tools...)
}

// Resources returns the resources in registration order.
func (r *Registry) Resources() []Resource {
	return append([]Resource(nil), r.resources...)
}

func (r *Registry) HasTools() bool     { return len(r.tools) > 0 }
func (r *Registry) HasResources() bool { return len(r.resources) > 0 }

// Read delegates to the shared reader for a registered uri.
func (r *Registry) Read(ctx context.Context, uri string) ([]byte, error) {
	if _, ok := r.resourceIndex[uri]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	if r.reader == nil {
		return nil, ErrNoReader
	}
	return r.reader.Read(ctx, uri)
}

// ValidateAndCoerce checks supplied against the tool's declared arguments.
// Matching is positional: the counts must be equal and the i-th supplied name
// must equal the i-th declared name. Integer-declared slots that arrived as
// reals are narrowed by truncation; everything else passes through as decoded.
func ValidateAndCoerce(tool Tool, supplied []Argument) (Arguments, error) {
	if len(supplied) != len(tool.Args) {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, tool.Name, len(tool.Args), len(supplied))
	}

	out := make(Arguments, len(supplied))
	for i, spec := range tool.Args {
		arg := supplied[i]
		if arg.Name != spec.Name {
			return nil, fmt.Errorf("%w: %s position %d is %q, got %q", ErrArgumentName, tool.Name, i, spec.Name, arg.Name)
		}
		if spec.Type == TypeInteger && arg.Value.Type == TypeReal {
			arg.Value = IntegerValue(TruncateReal(arg.Value.Real))
		}
		out[i] = arg
	}
	return out, nil
}
