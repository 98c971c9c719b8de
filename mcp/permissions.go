package mcp

// Role is RBAC metadata announced with the server-online notification.
// The server passes roles through; it does not enforce them.
type Role struct {
	Name             string
	Description      string
	AllowedMethods   []string
	AllowedTools     []string
	AllowedResources []string
}

// UnknownRoleTargets returns the tool names and resource uris referenced by
// roles that are not in the catalog, in role order.
func (r *Registry) UnknownRoleTargets(roles []Role) []string {
	var unknown []string
	for _, role := range roles {
		for _, name := range role.AllowedTools {
			if _, ok := r.FindTool(name); !ok {
				unknown = append(unknown, "tool:"+name)
			}
		}
		for _, uri := range role.AllowedResources {
			if _, ok := r.FindResource(uri); !ok {
				unknown = append(unknown, "resource:"+uri)
			}
		}
	}
	return unknown
}
