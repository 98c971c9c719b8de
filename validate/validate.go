package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Patterns and length constraints are exported for reuse (e.g., JSON Schema).
const (
	// SegmentPattern matches one MQTT topic level that is safe to embed in
	// a topic name: no separators, no wildcards, no leading '$'.
	SegmentPattern = `^[^/+#$\x00][^/+#\x00]*$`
	// ServerNamePattern allows '/' separated levels, none of them empty.
	ServerNamePattern = `^[^/+#$\x00][^/+#\x00]*(?:/[^/+#\x00]+)*$`
	ToolNamePattern   = `^[A-Za-z0-9_.-]{1,64}$`

	SegmentMax    = 128
	ServerNameMax = 256
)

var (
	reSegment    = regexp.MustCompile(SegmentPattern)
	reServerName = regexp.MustCompile(ServerNamePattern)
	reToolName   = regexp.MustCompile(ToolNamePattern)
)

// Sentinel errors for classification by callers.
var (
	ErrInvalidClientID   = errors.New("invalid client id")
	ErrInvalidServerID   = errors.New("invalid server id")
	ErrInvalidServerName = errors.New("invalid server name")
	ErrInvalidToolName   = errors.New("invalid tool name")
	ErrInvalidURI        = errors.New("invalid resource uri")
)

func segment(s string) bool {
	return len(s) <= SegmentMax && reSegment.MatchString(s)
}

// ValidateClientID checks that a remote client id can be embedded as a
// single level of the rpc and presence topics.
func ValidateClientID(s string) error {
	if !segment(s) {
		return fmt.Errorf("%w: %q must be 1-%d chars without '/', '+', '#' or a leading '$'", ErrInvalidClientID, s, SegmentMax)
	}
	return nil
}

// ValidateServerID applies the client id rule to this server's own id.
func ValidateServerID(s string) error {
	if !segment(s) {
		return fmt.Errorf("%w: %q must be 1-%d chars without '/', '+', '#' or a leading '$'", ErrInvalidServerID, s, SegmentMax)
	}
	return nil
}

// ValidateServerName checks a server name, which may span several topic
// levels such as "devices/calculator".
func ValidateServerName(s string) error {
	if len(s) > ServerNameMax || !reServerName.MatchString(s) {
		return fmt.Errorf("%w: %q must be 1-%d chars of non-empty levels without '+', '#' or a leading '$'", ErrInvalidServerName, s, ServerNameMax)
	}
	return nil
}

// ValidateToolName checks tool name rule: 1-64 chars, alnum, dot, underscore, or hyphen.
func ValidateToolName(s string) error {
	if !reToolName.MatchString(s) {
		return fmt.Errorf("%w: %q must be 1-64 chars, alnum, dot, underscore, or hyphen only", ErrInvalidToolName, s)
	}
	return nil
}

// ValidateURI requires a scheme followed by "://" or ':' and a non-empty rest.
func ValidateURI(s string) error {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || scheme == "" || strings.TrimLeft(rest, "/") == "" {
		return fmt.Errorf("%w: %q must look like scheme:path", ErrInvalidURI, s)
	}
	return nil
}
