package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mcp-mqtt/jsonrpc"
	"mcp-mqtt/mcp"
	"mcp-mqtt/metrics"
	"mcp-mqtt/store"
)

// callTool answers a tools/call request. It always produces a reply.
func (s *Server) callTool(ctx context.Context, clientID string, req jsonrpc.Message) jsonrpc.Message {
	entry := store.Entry{At: time.Now(), ClientID: clientID, Method: req.Method}

	name, supplied, err := jsonrpc.DecodeToolCall(req)
	if err != nil {
		entry.Outcome, entry.Detail = store.OutcomeInvalidParams, err.Error()
		s.record(ctx, entry)
		s.log.Debug("invalid tools/call params", zap.String("client_id", clientID), zap.Error(err))
		return jsonrpc.InvalidParams(req.ID)
	}
	entry.Target = name

	tool, ok := s.registry.FindTool(name)
	if !ok {
		entry.Outcome, entry.Detail = store.OutcomeNotFound, "unknown tool"
		s.record(ctx, entry)
		s.metrics.ToolCalls.WithLabelValues(name, store.OutcomeNotFound).Inc()
		return jsonrpc.MethodNotFound(req.ID)
	}

	args, err := mcp.ValidateAndCoerce(tool, supplied)
	if err != nil {
		entry.Outcome, entry.Detail = store.OutcomeNotFound, err.Error()
		s.record(ctx, entry)
		s.metrics.ToolCalls.WithLabelValues(name, store.OutcomeNotFound).Inc()
		s.log.Debug("tool arguments rejected", zap.String("tool", name), zap.Error(err))
		return jsonrpc.MethodNotFound(req.ID)
	}

	if ce := s.log.Check(zap.DebugLevel, "calling tool"); ce != nil {
		values := make(map[string]any, len(args))
		for _, a := range args {
			values[a.Name] = a.Value.Any()
		}
		ce.Write(zap.String("tool", name), zap.String("client_id", clientID), zap.Any("arguments", values))
	}

	start := time.Now()
	text, err := invoke(ctx, tool, args)
	entry.Duration = time.Since(start)
	s.metrics.ToolDuration.WithLabelValues(name).Observe(entry.Duration.Seconds())

	if err != nil {
		entry.Outcome, entry.Detail = store.OutcomeToolError, err.Error()
		s.record(ctx, entry)
		s.metrics.ToolCalls.WithLabelValues(name, store.OutcomeToolError).Inc()
		s.log.Warn("tool failed", zap.String("tool", name), zap.String("client_id", clientID), zap.Error(err))
		return jsonrpc.ToolCallError(req.ID, err.Error())
	}

	entry.Outcome = store.OutcomeOK
	s.record(ctx, entry)
	s.metrics.ToolCalls.WithLabelValues(name, store.OutcomeOK).Inc()
	return jsonrpc.ToolCallResult(req.ID, text)
}

// invoke runs the tool callback, turning a panic into an error so one bad
// tool cannot take the connection down.
func invoke(ctx context.Context, tool mcp.Tool, args mcp.Arguments) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, r)
		}
	}()
	return tool.Handler.Call(ctx, args)
}

// readResource answers a resources/read request. It reports false when no
// reply must be sent: undecodable params or an unknown uri.
func (s *Server) readResource(ctx context.Context, clientID string, req jsonrpc.Message) (jsonrpc.Message, bool) {
	uri, err := jsonrpc.DecodeResourceRead(req)
	if err != nil {
		s.metrics.Dropped(metrics.ReasonBadParams)
		s.log.Debug("invalid resources/read params", zap.String("client_id", clientID), zap.Error(err))
		return jsonrpc.Message{}, false
	}

	entry := store.Entry{At: time.Now(), ClientID: clientID, Method: req.Method, Target: uri}

	res, ok := s.registry.FindResource(uri)
	if !ok {
		s.metrics.Dropped(metrics.ReasonUnknownURI)
		s.log.Debug("unknown resource", zap.String("uri", uri), zap.String("client_id", clientID))
		entry.Outcome = store.OutcomeNotFound
		s.record(ctx, entry)
		return jsonrpc.Message{}, false
	}

	start := time.Now()
	data, err := s.registry.Read(ctx, uri)
	entry.Duration = time.Since(start)
	if err != nil {
		entry.Outcome, entry.Detail = store.OutcomeReadError, err.Error()
		s.record(ctx, entry)
		s.log.Warn("resource read failed", zap.String("uri", uri), zap.Error(err))
		return jsonrpc.InternalError(req.ID, "Resource read failed", err), true
	}

	entry.Outcome = store.OutcomeOK
	s.record(ctx, entry)
	return jsonrpc.ResourceReadResult(req.ID, res, string(data)), true
}
