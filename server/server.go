// Package server routes MCP over MQTT traffic for one server identity.
//
// A Server is the single context object of a running process: it owns the
// tool and resource catalog, the set of initialized clients and the
// transport it answers on. Inbound messages are classified by topic and
// every matching branch runs in order: control, client presence, rpc.
package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mcp-mqtt/jsonrpc"
	"mcp-mqtt/logging"
	"mcp-mqtt/mcp"
	"mcp-mqtt/metrics"
	"mcp-mqtt/session"
	"mcp-mqtt/store"
	"mcp-mqtt/topic"
	"mcp-mqtt/transport"
	"mcp-mqtt/validate"
)

// Transport is the broker side of the server.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
	Subscribe(ctx context.Context, topic string, noLocal bool) error
}

// Journal records handled tool calls and resource reads.
type Journal interface {
	Record(ctx context.Context, e store.Entry) error
}

// Options configure a Server.
type Options struct {
	Name        string
	Description string
	// ServerID is the MQTT client id of this server.
	ServerID string
	Roles    []mcp.Role

	Registry  *mcp.Registry
	Sessions  *session.Registry
	Transport Transport

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Journal Journal
}

// Server dispatches inbound messages. It implements transport.Handler.
type Server struct {
	name        string
	description string
	serverID    string
	roles       []mcp.Role
	topics      topic.Set

	registry  *mcp.Registry
	sessions  *session.Registry
	transport Transport

	log     *zap.Logger
	metrics *metrics.Metrics
	journal Journal
}

var _ transport.Handler = (*Server)(nil)

// New validates opts and builds a server. Nil Registry, Sessions, Logger
// and Metrics get empty defaults.
func New(opts Options) (*Server, error) {
	if err := validate.ValidateServerName(opts.Name); err != nil {
		return nil, err
	}
	if err := validate.ValidateServerID(opts.ServerID); err != nil {
		return nil, err
	}
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}

	s := &Server{
		name:        opts.Name,
		description: opts.Description,
		serverID:    opts.ServerID,
		roles:       append([]mcp.Role(nil), opts.Roles...),
		topics:      topic.ForServer(opts.ServerID, opts.Name),
		registry:    opts.Registry,
		sessions:    opts.Sessions,
		transport:   opts.Transport,
		log:         logging.OrNop(opts.Logger).Named("server"),
		metrics:     opts.Metrics,
		journal:     opts.Journal,
	}
	if s.registry == nil {
		s.registry = mcp.NewRegistry()
	}
	if s.sessions == nil {
		s.sessions = session.NewRegistry()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if unknown := s.registry.UnknownRoleTargets(s.roles); len(unknown) > 0 {
		s.log.Warn("roles reference unregistered targets", zap.Strings("targets", unknown))
	}
	return s, nil
}

// Topics returns the server scoped topics.
func (s *Server) Topics() topic.Set {
	return s.topics
}

// Sessions exposes the client registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// OnConnect subscribes to the control topic, restores the subscriptions of
// known clients and announces the server on its presence topic. It runs on
// every (re)connect.
func (s *Server) OnConnect(ctx context.Context) error {
	if err := s.transport.Subscribe(ctx, s.topics.Control, false); err != nil {
		return fmt.Errorf("failed to subscribe to control topic: %w", err)
	}

	for _, clientID := range s.sessions.List() {
		if err := s.subscribeClient(ctx, clientID); err != nil {
			s.log.Warn("failed to restore client subscription", zap.String("client_id", clientID), zap.Error(err))
		}
	}

	online, err := jsonrpc.Encode(jsonrpc.ServerOnline(s.name, s.description, s.roles))
	if err != nil {
		return fmt.Errorf("failed to encode server online notification: %w", err)
	}
	if err := s.transport.Publish(ctx, s.topics.Presence, online, true); err != nil {
		return fmt.Errorf("failed to announce server: %w", err)
	}

	s.log.Info("server online",
		zap.String("control_topic", s.topics.Control),
		zap.String("presence_topic", s.topics.Presence),
		zap.Int("tools", len(s.registry.Tools())),
		zap.Int("resources", len(s.registry.Resources())),
	)
	return nil
}

// Shutdown clears the retained presence message so clients see the server
// go offline. Call it before a clean disconnect.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.transport.Publish(ctx, s.topics.Presence, []byte{}, true); err != nil {
		return fmt.Errorf("failed to clear presence: %w", err)
	}
	s.log.Info("server offline")
	return nil
}

// HandleMessage processes one inbound message. Failures are logged and
// counted; nothing is returned to the transport.
func (s *Server) HandleMessage(ctx context.Context, msg transport.Message) {
	classes := s.topics.Classify(msg.Topic)
	if len(classes) == 0 {
		s.drop(metrics.ReasonUnrouted, msg.Topic, nil)
		return
	}

	for _, class := range classes {
		s.metrics.MessagesReceived.WithLabelValues(class.String()).Inc()
		switch class {
		case topic.ClassControl:
			s.handleControl(ctx, msg)
		case topic.ClassClientPresence:
			s.handleClientPresence(msg)
		case topic.ClassRPC:
			s.handleRPC(ctx, msg)
		}
	}
}

func (s *Server) drop(reason, topicName string, err error, fields ...zap.Field) {
	s.metrics.Dropped(reason)
	fields = append(fields, zap.String("reason", reason), zap.String("topic", topicName))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.log.Debug("message dropped", fields...)
}

func (s *Server) subscribeClient(ctx context.Context, clientID string) error {
	if err := s.transport.Subscribe(ctx, topic.RPC(clientID, s.serverID, s.name), true); err != nil {
		return err
	}
	if err := s.transport.Subscribe(ctx, topic.ClientPresence(clientID), false); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleControl(ctx context.Context, msg transport.Message) {
	req, err := jsonrpc.Decode(msg.Payload)
	if err != nil {
		s.drop(metrics.ReasonDecode, msg.Topic, err)
		return
	}
	if req.Method != jsonrpc.MethodInitialize {
		s.drop(metrics.ReasonNotInitialize, msg.Topic, nil, zap.String("method", req.Method))
		return
	}
	if req.IsNotification() {
		s.drop(metrics.ReasonNoID, msg.Topic, nil)
		return
	}

	clientID := msg.Property(transport.ClientIDProperty)
	if clientID == "" {
		s.drop(metrics.ReasonNoClientID, msg.Topic, nil)
		return
	}
	if err := validate.ValidateClientID(clientID); err != nil {
		s.drop(metrics.ReasonBadClientID, msg.Topic, err)
		return
	}

	rpcTopic := topic.RPC(clientID, s.serverID, s.name)
	if s.sessions.Insert(clientID) {
		if err := s.subscribeClient(ctx, clientID); err != nil {
			// forget the client so the next initialize retries the subscription
			s.sessions.Remove(clientID)
			s.metrics.Dropped(metrics.ReasonSubscribe)
			s.log.Warn("failed to subscribe to client topics", zap.String("client_id", clientID), zap.Error(err))
		} else {
			s.log.Info("client initialized", zap.String("client_id", clientID), zap.String("rpc_topic", rpcTopic))
		}
		s.metrics.Sessions.Set(float64(s.sessions.Len()))
	}

	s.reply(ctx, rpcTopic, jsonrpc.MethodInitialize,
		jsonrpc.InitializeResult(req.ID, s.registry.HasTools(), s.registry.HasResources()))
}

func (s *Server) handleClientPresence(msg transport.Message) {
	if len(msg.Payload) > 0 {
		return
	}
	clientID, ok := session.ClientFromPresenceTopic(msg.Topic)
	if !ok {
		return
	}
	if s.sessions.Remove(clientID) {
		s.metrics.Sessions.Set(float64(s.sessions.Len()))
		s.log.Info("client offline", zap.String("client_id", clientID))
	}
}

func (s *Server) handleRPC(ctx context.Context, msg transport.Message) {
	req, err := jsonrpc.Decode(msg.Payload)
	if err != nil {
		s.drop(metrics.ReasonDecode, msg.Topic, err)
		return
	}
	if req.Method == "" {
		s.drop(metrics.ReasonNoMethod, msg.Topic, nil)
		return
	}

	clientID, _ := topic.ClientFromRPC(msg.Topic)
	if !s.sessions.Contains(clientID) {
		s.log.Debug("request from uninitialized client", zap.String("client_id", clientID), zap.String("method", req.Method))
	}

	switch req.Method {
	case jsonrpc.MethodInitialized:
		s.log.Debug("client confirmed initialization", zap.String("client_id", clientID))
	case jsonrpc.MethodToolsList:
		s.reply(ctx, msg.Topic, req.Method, jsonrpc.ToolListResult(req.ID, s.registry.Tools()))
	case jsonrpc.MethodToolsCall:
		s.reply(ctx, msg.Topic, req.Method, s.callTool(ctx, clientID, req))
	case jsonrpc.MethodResourcesList:
		s.reply(ctx, msg.Topic, req.Method, jsonrpc.ResourceListResult(req.ID, s.registry.Resources()))
	case jsonrpc.MethodResourcesRead:
		if resp, ok := s.readResource(ctx, clientID, req); ok {
			s.reply(ctx, msg.Topic, req.Method, resp)
		}
	default:
		s.drop(metrics.ReasonUnknownMethod, msg.Topic, nil, zap.String("method", req.Method))
	}
}

func (s *Server) reply(ctx context.Context, topicName, method string, resp jsonrpc.Message) {
	data, err := jsonrpc.Encode(resp)
	if err != nil {
		s.log.Error("failed to encode response", zap.String("method", method), zap.Error(err))
		return
	}
	if err := s.transport.Publish(ctx, topicName, data, false); err != nil {
		s.drop(metrics.ReasonPublish, topicName, err, zap.String("method", method))
		return
	}

	outcome := "result"
	if resp.Outcome.Kind == jsonrpc.OutcomeFailure {
		outcome = "error"
	}
	s.metrics.Responses.WithLabelValues(method, outcome).Inc()
}

func (s *Server) record(ctx context.Context, e store.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn("failed to journal call", zap.String("method", e.Method), zap.Error(err))
	}
}
