package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	params := json.RawMessage(`{"name":"add","arguments":{"kwargs":{"a":1}}}`)
	result := json.RawMessage(`{"content":[{"type":"text","text":"5"}]}`)

	cases := []struct {
		name string
		msg  Message
	}{
		{"request int id", Message{ID: IntID(1), Method: MethodToolsCall, Params: params}},
		{"request string id", Message{ID: StringID("req-7"), Method: MethodToolsList}},
		{"notification", Message{Method: MethodInitialized}},
		{"notification with params", Message{Method: MethodServerOnline, Params: json.RawMessage(`{"server_name":"s"}`)}},
		{"success int id", Message{ID: IntID(42), Outcome: Success(result)}},
		{"success string id", Message{ID: StringID("x"), Outcome: Success(result)}},
		{"success no id", Message{Outcome: Success(result)}},
		{"error int id", Message{ID: IntID(3), Outcome: Failure(CodeMethodNotFound, "Method not found", "")}},
		{"error string id with data", Message{ID: StringID("e"), Outcome: Failure(-1, "boom", "details")}},
		{"error no id bare code", Message{Outcome: Failure(CodeInvalidRequest, "", "")}},
		{"negative id", Message{ID: IntID(-9), Method: MethodResourcesList}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := Encode(tc.msg)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, tc.msg, got)
		})
	}
}

func TestEncodeShape(t *testing.T) {
	data, err := Encode(Message{ID: IntID(1), Outcome: Failure(CodeMethodNotFound, "Method not found", "")})
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`, string(data))

	data, err = Encode(Message{Method: MethodInitialized})
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, string(data))

	data, err = Encode(Message{ID: StringID("a"), Outcome: Success(nil)})
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"a","result":null}`, string(data))
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]struct {
		payload string
		want    error
	}{
		"empty":           {"", ErrParse},
		"garbage":         {"{not json", ErrParse},
		"array":           {`[1,2]`, ErrParse},
		"string":          {`"2.0"`, ErrParse},
		"null":            {`null`, ErrVersion},
		"missing version": {`{"method":"tools/list","id":1}`, ErrVersion},
		"wrong version":   {`{"jsonrpc":"1.0","method":"tools/list","id":1}`, ErrVersion},
		"numeric version": {`{"jsonrpc":2.0,"method":"tools/list"}`, ErrVersion},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tc.payload))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeOpportunistic(t *testing.T) {
	m, err := Decode([]byte(`{"jsonrpc":"2.0","id":2.7,"method":5,"error":"bad"}`))
	require.NoError(t, err)
	n, ok := m.ID.Int()
	require.True(t, ok)
	require.Equal(t, int64(2), n)
	require.Empty(t, m.Method)
	require.Equal(t, OutcomeNone, m.Outcome.Kind)

	m, err = Decode([]byte(`{"jsonrpc":"2.0","id":true,"method":"tools/list"}`))
	require.NoError(t, err)
	require.False(t, m.ID.IsSet())
	require.True(t, m.IsNotification())

	m, err = Decode([]byte(`{"jsonrpc":"2.0","id":null}`))
	require.NoError(t, err)
	require.False(t, m.ID.IsSet())

	m, err = Decode([]byte(`{"jsonrpc":"2.0","id":"9","error":{"code":"x","message":1,"data":"d"}}`))
	require.NoError(t, err)
	s, ok := m.ID.Text()
	require.True(t, ok)
	require.Equal(t, "9", s)
	require.Equal(t, OutcomeFailure, m.Outcome.Kind)
	require.Equal(t, &Error{Code: 0, Data: "d"}, m.Outcome.Error)

	// result wins over error when both are present
	m, err = Decode([]byte(`{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":1}}`))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, m.Outcome.Kind)
	require.JSONEq(t, `{}`, string(m.Outcome.Result))
}

func TestIDString(t *testing.T) {
	require.Equal(t, "7", IntID(7).String())
	require.Equal(t, `"abc"`, StringID("abc").String())
	require.Equal(t, "none", NoID.String())
}
