package mcp

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mcp-mqtt/validate"
)

func addTool() Tool {
	return Tool{
		Name:        "add",
		Description: "Adds two numbers",
		Args: []ArgSpec{
			{Name: "a", Description: "First number", Type: TypeInteger},
			{Name: "b", Description: "Second number", Type: TypeInteger},
		},
		Handler: ToolFunc(func(_ context.Context, args Arguments) (string, error) {
			return strconv.FormatInt(args.Int("a")+args.Int("b"), 10), nil
		}),
	}
}

func TestRegisterTools(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.HasTools())
	require.NoError(t, r.RegisterTools(addTool()))
	require.True(t, r.HasTools())

	got, ok := r.FindTool("add")
	require.True(t, ok)
	require.Equal(t, "Adds two numbers", got.Description)
	require.Len(t, got.Args, 2)

	_, ok = r.FindTool("sub")
	require.False(t, ok)

	err := r.RegisterTools(addTool())
	require.True(t, errors.Is(err, ErrDuplicateTool), "got %v", err)

	err = r.RegisterTools(Tool{Name: "noop"})
	require.True(t, errors.Is(err, ErrInvalidTool), "got %v", err)

	bad := addTool()
	bad.Name = "twice"
	bad.Args[1].Name = "a"
	err = r.RegisterTools(bad)
	require.True(t, errors.Is(err, ErrInvalidTool), "got %v", err)
}

func TestRegisterToolsRejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"", "has space", "slash/name", "plus+", "hash#", strings.Repeat("x", 65)} {
		r := NewRegistry()
		tool := addTool()
		tool.Name = name
		err := r.RegisterTools(tool)
		require.ErrorIs(t, err, ErrInvalidTool, "name %q", name)
		require.ErrorIs(t, err, validate.ErrInvalidToolName, "name %q", name)
		require.False(t, r.HasTools())
	}

	r := NewRegistry()
	tool := addTool()
	tool.Name = "math.add_v2-beta"
	require.NoError(t, r.RegisterTools(tool))
}

func TestRegisterToolsCopiesArgs(t *testing.T) {
	r := NewRegistry()
	tool := addTool()
	require.NoError(t, r.RegisterTools(tool))

	tool.Args[0].Name = "mutated"
	got, _ := r.FindTool("add")
	require.Equal(t, "a", got.Args[0].Name)
}

func TestRegisterResources(t *testing.T) {
	r := NewRegistry()
	reader := ReadFunc(func(_ context.Context, uri string) ([]byte, error) {
		return []byte("content of " + uri), nil
	})

	require.ErrorIs(t, r.RegisterResources(nil, Resource{URI: "file:///a", Name: "a"}), ErrNoReader)
	require.NoError(t, r.RegisterResources(reader,
		Resource{URI: "file:///a", Name: "a", MIMEType: "text/plain"},
		Resource{URI: "file:///b", Name: "b"},
	))
	require.True(t, r.HasResources())
	require.Len(t, r.Resources(), 2)

	res, ok := r.FindResource("file:///a")
	require.True(t, ok)
	require.Equal(t, "text/plain", res.MIMEType)

	_, ok = r.FindResource("file:///missing")
	require.False(t, ok)

	data, err := r.Read(context.Background(), "file:///b")
	require.NoError(t, err)
	require.Equal(t, "content of file:///b", string(data))

	_, err = r.Read(context.Background(), "file:///missing")
	require.ErrorIs(t, err, ErrResourceNotFound)

	require.ErrorIs(t, r.RegisterResources(reader, Resource{URI: "file:///a", Name: "again"}), ErrDuplicateResource)
	require.ErrorIs(t, r.RegisterResources(reader, Resource{URI: "", Name: "x"}), ErrInvalidResource)
}

func TestValidateAndCoerce(t *testing.T) {
	mixed := Tool{
		Name: "mixed",
		Args: []ArgSpec{
			{Name: "n", Type: TypeInteger},
			{Name: "x", Type: TypeReal},
			{Name: "s", Type: TypeString},
			{Name: "ok", Type: TypeBoolean},
		},
		Handler: ToolFunc(func(context.Context, Arguments) (string, error) { return "", nil }),
	}

	cases := []struct {
		name     string
		tool     Tool
		supplied []Argument
		want     Arguments
		wantErr  error
	}{
		{
			name:     "integer slots truncate reals",
			tool:     addTool(),
			supplied: []Argument{{"a", RealValue(3.0)}, {"b", RealValue(-2.9)}},
			want:     Arguments{{"a", IntegerValue(3)}, {"b", IntegerValue(-2)}},
		},
		{
			name: "other slots pass through",
			tool: mixed,
			supplied: []Argument{
				{"n", RealValue(7.5)},
				{"x", RealValue(1.25)},
				{"s", StringValue("hi")},
				{"ok", BooleanValue(true)},
			},
			want: Arguments{
				{"n", IntegerValue(7)},
				{"x", RealValue(1.25)},
				{"s", StringValue("hi")},
				{"ok", BooleanValue(true)},
			},
		},
		{
			name:     "too few arguments",
			tool:     addTool(),
			supplied: []Argument{{"a", RealValue(1)}},
			wantErr:  ErrArgumentCount,
		},
		{
			name:     "too many arguments",
			tool:     addTool(),
			supplied: []Argument{{"a", RealValue(1)}, {"b", RealValue(2)}, {"c", RealValue(3)}},
			wantErr:  ErrArgumentCount,
		},
		{
			name:     "names are matched by position",
			tool:     addTool(),
			supplied: []Argument{{"b", RealValue(1)}, {"a", RealValue(2)}},
			wantErr:  ErrArgumentName,
		},
		{
			name:     "unknown name",
			tool:     addTool(),
			supplied: []Argument{{"a", RealValue(1)}, {"z", RealValue(2)}},
			wantErr:  ErrArgumentName,
		},
		{
			name: "no arguments declared or supplied",
			tool: Tool{Name: "ping"},
			want: Arguments{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateAndCoerce(tc.tool, tc.supplied)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestArgumentsAccessors(t *testing.T) {
	args := Arguments{
		{"n", IntegerValue(4)},
		{"x", RealValue(2.5)},
		{"s", StringValue("text")},
		{"b", BooleanValue(true)},
	}
	require.Equal(t, int64(4), args.Int("n"))
	require.Equal(t, int64(2), args.Int("x"))
	require.Equal(t, 4.0, args.Real("n"))
	require.Equal(t, "text", args.Text("s"))
	require.True(t, args.Bool("b"))
	require.Equal(t, "", args.Text("missing"))
	require.Equal(t, int64(4), args[0].Value.Any())
}
