// Package demo provides the example tools and the file backed resource
// reader served by "serve --demo".
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"mcp-mqtt/mcp"
)

// MaxResourceSize caps how much of a file a single read returns.
const MaxResourceSize = 1 << 20

// Tools returns the example tool set.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "add",
			Description: "Adds two numbers",
			Args: []mcp.ArgSpec{
				{Name: "a", Description: "First number", Type: mcp.TypeInteger},
				{Name: "b", Description: "Second number", Type: mcp.TypeInteger},
			},
			Handler: mcp.ToolFunc(add),
		},
		{
			Name:        "echo",
			Description: "Returns the message, optionally upper-cased",
			Args: []mcp.ArgSpec{
				{Name: "message", Description: "Text to echo", Type: mcp.TypeString},
				{Name: "shout", Description: "Upper-case the reply", Type: mcp.TypeBoolean},
			},
			Handler: mcp.ToolFunc(echo),
		},
		{
			Name:        "scale",
			Description: "Multiplies a value by a factor",
			Args: []mcp.ArgSpec{
				{Name: "value", Description: "Value to scale", Type: mcp.TypeReal},
				{Name: "factor", Description: "Multiplier", Type: mcp.TypeReal},
			},
			Handler: mcp.ToolFunc(scale),
		},
	}
}

func add(_ context.Context, args mcp.Arguments) (string, error) {
	a, b := args.Int("a"), args.Int("b")
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return "", errors.New("integer overflow")
	}
	return strconv.FormatInt(sum, 10), nil
}

func echo(_ context.Context, args mcp.Arguments) (string, error) {
	msg := args.Text("message")
	if args.Bool("shout") {
		msg = strings.ToUpper(msg)
	}
	return msg, nil
}

func scale(_ context.Context, args mcp.Arguments) (string, error) {
	v := args.Real("value") * args.Real("factor")
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", fmt.Errorf("result is not finite")
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// FileReader serves resources from local files, keyed by uri.
type FileReader struct {
	paths map[string]string
}

// NewFileReader maps each resource uri to the file backing it.
func NewFileReader(paths map[string]string) *FileReader {
	cp := make(map[string]string, len(paths))
	for k, v := range paths {
		cp[k] = v
	}
	return &FileReader{paths: cp}
}

// Read returns at most MaxResourceSize bytes of the file behind uri.
func (r *FileReader) Read(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := r.paths[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mcp.ErrResourceNotFound, uri)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxResourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

// Register adds the demo tools to reg.
func Register(reg *mcp.Registry) error {
	if err := reg.RegisterTools(Tools()...); err != nil {
		return fmt.Errorf("failed to register demo tools: %w", err)
	}
	return nil
}
