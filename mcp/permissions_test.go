package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func rbacRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterTools(addTool()))
	reader := ReadFunc(func(context.Context, string) ([]byte, error) { return nil, nil })
	require.NoError(t, r.RegisterResources(reader, Resource{URI: "file:///a", Name: "a"}))
	return r
}

func TestUnknownRoleTargets(t *testing.T) {
	r := rbacRegistry(t)
	unknown := r.UnknownRoleTargets([]Role{
		{Name: "user", AllowedTools: []string{"add", "sub"}, AllowedResources: []string{"file:///a", "file:///z"}},
	})

	require.Equal(t, []string{"tool:sub", "resource:file:///z"}, unknown, "role order")
}

func TestUnknownRoleTargets_MethodsOnly(t *testing.T) {
	r := rbacRegistry(t)
	unknown := r.UnknownRoleTargets([]Role{
		{Name: "viewer", AllowedMethods: []string{"tools/list", "resources/list"}},
		{Name: "empty"},
	})
	require.Empty(t, unknown, "allowed methods are not catalog targets")
}

func TestUnknownRoleTargets_EmptyCatalog(t *testing.T) {
	unknown := NewRegistry().UnknownRoleTargets([]Role{
		{Name: "admin", AllowedTools: []string{"add"}, AllowedResources: []string{"file:///a"}},
	})
	require.Contains(t, unknown, "tool:add")
	require.Contains(t, unknown, "resource:file:///a")
}
