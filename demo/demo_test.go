package demo

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mcp-mqtt/mcp"
)

func call(t *testing.T, name string, supplied ...mcp.Argument) (string, error) {
	t.Helper()
	reg := mcp.NewRegistry()
	require.NoError(t, Register(reg))
	tool, ok := reg.FindTool(name)
	require.True(t, ok, name)
	args, err := mcp.ValidateAndCoerce(tool, supplied)
	require.NoError(t, err)
	return tool.Handler.Call(context.Background(), args)
}

func TestAdd(t *testing.T) {
	out, err := call(t, "add", mcp.Argument{Name: "a", Value: mcp.RealValue(2)}, mcp.Argument{Name: "b", Value: mcp.RealValue(3)})
	require.NoError(t, err)
	require.Equal(t, "5", out)

	_, err = call(t, "add",
		mcp.Argument{Name: "a", Value: mcp.RealValue(math.MaxInt64)},
		mcp.Argument{Name: "b", Value: mcp.RealValue(math.MaxInt64)})
	require.Error(t, err)
}

func TestEcho(t *testing.T) {
	out, err := call(t, "echo", mcp.Argument{Name: "message", Value: mcp.StringValue("hi")}, mcp.Argument{Name: "shout", Value: mcp.BooleanValue(true)})
	require.NoError(t, err)
	require.Equal(t, "HI", out)

	out, err = call(t, "echo", mcp.Argument{Name: "message", Value: mcp.StringValue("hi")}, mcp.Argument{Name: "shout", Value: mcp.BooleanValue(false)})
	require.NoError(t, err)
	require.Equal(t, "hi", out)
}

func TestScale(t *testing.T) {
	out, err := call(t, "scale", mcp.Argument{Name: "value", Value: mcp.RealValue(1.5)}, mcp.Argument{Name: "factor", Value: mcp.RealValue(3)})
	require.NoError(t, err)
	require.Equal(t, "4.5", out)

	_, err = call(t, "scale", mcp.Argument{Name: "value", Value: mcp.RealValue(math.MaxFloat64)}, mcp.Argument{Name: "factor", Value: mcp.RealValue(10)})
	require.Error(t, err)
}

func TestFileReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motd.txt")
	require.NoError(t, os.WriteFile(path, []byte("welcome"), 0o600))

	r := NewFileReader(map[string]string{
		"file:///motd":    path,
		"file:///missing": filepath.Join(dir, "missing.txt"),
	})

	data, err := r.Read(context.Background(), "file:///motd")
	require.NoError(t, err)
	require.Equal(t, "welcome", string(data))

	_, err = r.Read(context.Background(), "file:///missing")
	require.Error(t, err)

	_, err = r.Read(context.Background(), "file:///unknown")
	require.True(t, errors.Is(err, mcp.ErrResourceNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Read(ctx, "file:///motd")
	require.ErrorIs(t, err, context.Canceled)
}
