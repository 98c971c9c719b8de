package jsonrpc

import "errors"

// Standard JSON-RPC/MCP error codes used in this project.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Sentinel errors returned by the decoders.
var (
	ErrParse         = errors.New("payload is not a JSON object")
	ErrVersion       = errors.New("jsonrpc version must be \"2.0\"")
	ErrInvalidParams = errors.New("invalid params")
)

// InvalidParams answers a tools/call whose params could not be decoded. The
// code is -32600 with the message "Invalid params", as MCP-over-MQTT peers expect.
func InvalidParams(id ID) Message {
	return ErrorResponse(id, CodeInvalidRequest, "Invalid params")
}

// MethodNotFound answers a tools/call naming an unknown tool or mismatching its schema.
func MethodNotFound(id ID) Message {
	return ErrorResponse(id, CodeMethodNotFound, "Method not found")
}

// InternalError answers a request whose handler failed.
func InternalError(id ID, msg string, err error) Message {
	m := ErrorResponse(id, CodeInternalError, msg)
	if err != nil {
		m.Outcome.Error.Data = err.Error()
	}
	return m
}
