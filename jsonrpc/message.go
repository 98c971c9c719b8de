// Package jsonrpc implements the JSON-RPC 2.0 envelope used on every MCP topic:
// the message model, the wire codec, MCP response builders and the decoders
// for tools/call and resources/read parameters.
package jsonrpc

import (
	"encoding/json"
	"strconv"
)

// Version is the only protocol version Decode accepts.
const Version = "2.0"

type idKind uint8

const (
	idNone idKind = iota
	idInt
	idString
)

// ID is a request id: absent, an integer or a string. The zero value is absent.
type ID struct {
	kind idKind
	num  int64
	str  string
}

// NoID is the absent id carried by notifications.
var NoID ID

func IntID(n int64) ID     { return ID{kind: idInt, num: n} }
func StringID(s string) ID { return ID{kind: idString, str: s} }

// IsSet reports whether the id is present.
func (id ID) IsSet() bool { return id.kind != idNone }

// Int returns the integer id.
func (id ID) Int() (int64, bool) { return id.num, id.kind == idInt }

// Text returns the string id.
func (id ID) Text() (string, bool) { return id.str, id.kind == idString }

// String formats the id for logs.
func (id ID) String() string {
	switch id.kind {
	case idInt:
		return strconv.FormatInt(id.num, 10)
	case idString:
		return strconv.Quote(id.str)
	default:
		return "none"
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idInt:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case idString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

// OutcomeKind selects which member of Outcome is meaningful.
type OutcomeKind uint8

const (
	OutcomeNone OutcomeKind = iota
	OutcomeSuccess
	OutcomeFailure
)

// Error is a JSON-RPC error object. Empty Message and Data are omitted on the wire.
type Error struct {
	Code    int64
	Message string
	Data    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "jsonrpc error " + strconv.FormatInt(e.Code, 10)
	}
	return "jsonrpc error " + strconv.FormatInt(e.Code, 10) + ": " + e.Message
}

// Outcome is the response half of a message: nothing, a result document or an error.
type Outcome struct {
	Kind   OutcomeKind
	Result json.RawMessage
	Error  *Error
}

// Success wraps a result document.
func Success(result json.RawMessage) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: result}
}

// Failure builds an error outcome.
func Failure(code int64, message, data string) Outcome {
	return Outcome{Kind: OutcomeFailure, Error: &Error{Code: code, Message: message, Data: data}}
}

// Message is a decoded or to-be-encoded JSON-RPC envelope. Requests and
// notifications carry Method (and usually Params); responses carry an Outcome.
type Message struct {
	ID      ID
	Method  string
	Params  json.RawMessage
	Outcome Outcome
}

// IsNotification reports whether the message is a method call without an id.
func (m Message) IsNotification() bool {
	return m.Method != "" && !m.ID.IsSet()
}
