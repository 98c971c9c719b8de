// Package topic builds and classifies the MQTT topics of the MCP over MQTT
// taxonomy.
//
//	$mcp-server/<serverID>/<serverName>             control (initialize)
//	$mcp-server/presence/<serverID>/<serverName>    server presence, retained
//	$mcp-server/capability/<serverID>/<serverName>  capability changes
//	$mcp-rpc/<clientID>/<serverID>/<serverName>     per-client rpc, both ways
//	$mcp-client/presence/<clientID>                 client presence
package topic

import "strings"

const (
	ServerPrefix         = "$mcp-server/"
	PresencePrefix       = "$mcp-server/presence/"
	CapabilityPrefix     = "$mcp-server/capability/"
	RPCPrefix            = "$mcp-rpc/"
	ClientPresencePrefix = "$mcp-client/presence/"
)

// Class is the kind of an inbound topic.
type Class int

const (
	ClassUnknown Class = iota
	ClassControl
	ClassClientPresence
	ClassRPC
)

func (c Class) String() string {
	switch c {
	case ClassControl:
		return "control"
	case ClassClientPresence:
		return "client_presence"
	case ClassRPC:
		return "rpc"
	default:
		return "unknown"
	}
}

func Control(serverID, serverName string) string {
	return ServerPrefix + serverID + "/" + serverName
}

func Presence(serverID, serverName string) string {
	return PresencePrefix + serverID + "/" + serverName
}

func Capability(serverID, serverName string) string {
	return CapabilityPrefix + serverID + "/" + serverName
}

// RPC is the topic a client and this server exchange requests and
// responses on after initialize.
func RPC(clientID, serverID, serverName string) string {
	return RPCPrefix + clientID + "/" + serverID + "/" + serverName
}

func ClientPresence(clientID string) string {
	return ClientPresencePrefix + clientID
}

// Set holds the server scoped topics of one server.
type Set struct {
	Control    string
	Presence   string
	Capability string
}

// ForServer derives the server scoped topics.
func ForServer(serverID, serverName string) Set {
	return Set{
		Control:    Control(serverID, serverName),
		Presence:   Presence(serverID, serverName),
		Capability: Capability(serverID, serverName),
	}
}

// Classify returns every class t matches, in dispatch order: control,
// client presence, rpc. Matching is by prefix.
func (s Set) Classify(t string) []Class {
	var classes []Class
	if strings.HasPrefix(t, s.Control) {
		classes = append(classes, ClassControl)
	}
	if strings.HasPrefix(t, ClientPresencePrefix) {
		classes = append(classes, ClassClientPresence)
	}
	if strings.HasPrefix(t, RPCPrefix) {
		classes = append(classes, ClassRPC)
	}
	return classes
}

// ClientFromRPC extracts the client id segment of an rpc topic.
func ClientFromRPC(t string) (string, bool) {
	rest, ok := strings.CutPrefix(t, RPCPrefix)
	if !ok {
		return "", false
	}
	id, _, found := strings.Cut(rest, "/")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
