package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mcp-mqtt/mcp"
)

type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *ID             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

// Encode renders m as a compact JSON-RPC 2.0 object.
func Encode(m Message) ([]byte, error) {
	w := wireMessage{
		JSONRPC: Version,
		Method:  m.Method,
		Params:  m.Params,
	}
	if m.ID.IsSet() {
		id := m.ID
		w.ID = &id
	}
	switch m.Outcome.Kind {
	case OutcomeSuccess:
		w.Result = m.Outcome.Result
		if len(w.Result) == 0 {
			w.Result = json.RawMessage("null")
		}
	case OutcomeFailure:
		e := m.Outcome.Error
		if e == nil {
			e = &Error{}
		}
		w.Error = &wireError{Code: e.Code, Message: e.Message, Data: e.Data}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonrpc message: %w", err)
	}
	return data, nil
}

// Decode parses a wire payload. Only a payload that is not a JSON object or
// that lacks "jsonrpc":"2.0" is rejected; every other member is read
// opportunistically and left unset when absent or malformed.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var version string
	raw, ok := fields["jsonrpc"]
	if !ok || json.Unmarshal(raw, &version) != nil || version != Version {
		return Message{}, ErrVersion
	}

	var m Message
	m.ID = decodeID(fields["id"])

	if raw, ok := fields["method"]; ok {
		var method string
		if json.Unmarshal(raw, &method) == nil {
			m.Method = method
		}
	}
	if raw, ok := fields["params"]; ok {
		m.Params = raw
	}

	if raw, ok := fields["result"]; ok {
		m.Outcome = Success(raw)
	} else if raw, ok := fields["error"]; ok {
		if e, ok := decodeError(raw); ok {
			m.Outcome = Outcome{Kind: OutcomeFailure, Error: e}
		}
	}
	return m, nil
}

func decodeID(raw json.RawMessage) ID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return NoID
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return StringID(s)
		}
		return NoID
	}
	if n, ok := decodeInteger(raw); ok {
		return IntID(n)
	}
	return NoID
}

// decodeInteger reads a JSON number, truncating any fraction.
func decodeInteger(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return mcp.TruncateReal(f), true
}

func decodeError(raw json.RawMessage) (*Error, bool) {
	var obj struct {
		Code    json.RawMessage `json:"code"`
		Message json.RawMessage `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}

	e := &Error{}
	if code, ok := decodeInteger(bytes.TrimSpace(obj.Code)); ok {
		e.Code = code
	}
	var s string
	if len(obj.Message) > 0 && json.Unmarshal(obj.Message, &s) == nil {
		e.Message = s
	}
	s = ""
	if len(obj.Data) > 0 && json.Unmarshal(obj.Data, &s) == nil {
		e.Data = s
	}
	return e, true
}
