// Package transport connects the server to an MQTT v5 broker.
//
// Inbound publishes are queued in arrival order and handed to a single
// worker goroutine, so the handler never runs on the client's read loop
// and may itself publish or subscribe.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/mb/v3"
	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"go.uber.org/zap"

	"mcp-mqtt/logging"
)

const (
	// ClientIDProperty carries the sender's client id on every request.
	ClientIDProperty = "MCP-MQTT-CLIENT-ID"
	// ComponentTypeProperty is sent on CONNECT to identify the peer role.
	ComponentTypeProperty = "MCP-COMPONENT-TYPE"
	ComponentServer       = "mcp-server"
)

var (
	ErrNotStarted = errors.New("transport not started")
	ErrStarted    = errors.New("transport already started")
)

// Message is one inbound publish.
type Message struct {
	Topic          string
	Payload        []byte
	UserProperties map[string]string
}

// Property returns the user property key, or "" when absent.
func (m Message) Property(key string) string {
	return m.UserProperties[key]
}

// Handler consumes connection events and inbound messages. Both methods
// are called from the same goroutine.
type Handler interface {
	OnConnect(ctx context.Context) error
	HandleMessage(ctx context.Context, msg Message)
}

// Options configure the broker connection.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	// CAFile enables TLS verification against the given PEM bundle.
	CAFile             string
	InsecureSkipVerify bool
	KeepAlive          time.Duration
	ConnectTimeout     time.Duration
	QoS                byte
	// WillTopic receives an empty retained message when the connection is
	// lost without a clean disconnect.
	WillTopic string
}

// newConnectionManager is replaced in tests.
var newConnectionManager = autopaho.NewConnection

type event struct {
	connected bool
	msg       Message
}

// Connection is an autopaho backed client. Create with New, then Start.
type Connection struct {
	opts   Options
	broker *url.URL
	tlsCfg *tls.Config
	log    *zap.Logger

	mu      sync.Mutex
	cm      *autopaho.ConnectionManager
	handler Handler
	queue   *mb.MB[event]
	done    chan struct{}
}

// New validates opts. No network activity happens until Start.
func New(opts Options, log *zap.Logger) (*Connection, error) {
	broker, err := url.Parse(opts.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url %q: %w", opts.BrokerURL, err)
	}
	if broker.Scheme == "" || broker.Host == "" {
		return nil, fmt.Errorf("invalid broker url %q: scheme and host are required", opts.BrokerURL)
	}
	if opts.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("invalid qos %d", opts.QoS)
	}

	tlsCfg, err := loadTLS(opts)
	if err != nil {
		return nil, err
	}

	return &Connection{
		opts:   opts,
		broker: broker,
		tlsCfg: tlsCfg,
		log:    logging.OrNop(log).Named("transport"),
		queue:  mb.New[event](0),
		done:   make(chan struct{}),
	}, nil
}

func loadTLS(opts Options) (*tls.Config, error) {
	if opts.CAFile == "" && !opts.InsecureSkipVerify {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: opts.InsecureSkipVerify} //nolint:gosec
	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func (c *Connection) clientConfig() autopaho.ClientConfig {
	keepAlive := c.opts.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{c.broker},
		TlsCfg:                        c.tlsCfg,
		KeepAlive:                     uint16(keepAlive / time.Second),
		ConnectTimeout:                c.opts.ConnectTimeout,
		CleanStartOnInitialConnection: true,
		ConnectUsername:               c.opts.Username,
		ConnectPacketBuilder:          c.buildConnect,
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError: func(err error) {
			c.log.Warn("broker connection attempt failed", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID:          c.opts.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){c.onPublishReceived},
			OnClientError: func(err error) {
				c.log.Warn("mqtt client error", zap.Error(err))
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				c.log.Warn("broker requested disconnect", zap.Uint8("reason_code", d.ReasonCode))
			},
		},
	}
	if c.opts.Password != "" {
		cfg.ConnectPassword = []byte(c.opts.Password)
	}
	if c.opts.WillTopic != "" {
		cfg.WillMessage = &paho.WillMessage{
			Topic:   c.opts.WillTopic,
			Payload: []byte{},
			QoS:     c.opts.QoS,
			Retain:  true,
		}
	}
	return cfg
}

func (c *Connection) buildConnect(cp *paho.Connect, _ *url.URL) (*paho.Connect, error) {
	if cp.Properties == nil {
		cp.Properties = &paho.ConnectProperties{}
	}
	cp.Properties.User = append(cp.Properties.User, paho.UserProperty{
		Key:   ComponentTypeProperty,
		Value: ComponentServer,
	})
	return cp, nil
}

func (c *Connection) onConnectionUp(_ *autopaho.ConnectionManager, _ *paho.Connack) {
	c.log.Info("connected to broker", zap.String("broker", c.broker.Redacted()))
	if err := c.queue.Add(context.Background(), event{connected: true}); err != nil {
		c.log.Debug("connect event not queued", zap.Error(err))
	}
}

func (c *Connection) onPublishReceived(pr paho.PublishReceived) (bool, error) {
	msg := Message{
		Topic:   pr.Packet.Topic,
		Payload: pr.Packet.Payload,
	}
	if pr.Packet.Properties != nil && len(pr.Packet.Properties.User) > 0 {
		msg.UserProperties = make(map[string]string, len(pr.Packet.Properties.User))
		for _, p := range pr.Packet.Properties.User {
			if _, seen := msg.UserProperties[p.Key]; !seen {
				msg.UserProperties[p.Key] = p.Value
			}
		}
	}
	if err := c.queue.Add(context.Background(), event{msg: msg}); err != nil {
		return false, fmt.Errorf("failed to queue inbound message: %w", err)
	}
	return true, nil
}

// Start connects to the broker in the background and begins delivering
// events to h. The connection is retried until ctx is cancelled or Close
// is called.
func (c *Connection) Start(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		return ErrStarted
	}

	cm, err := newConnectionManager(ctx, c.clientConfig())
	if err != nil {
		return fmt.Errorf("failed to start mqtt connection: %w", err)
	}
	c.cm = cm
	c.handler = h

	// connect events queued before this point wait in the queue
	go c.run(ctx)
	return nil
}

func (c *Connection) run(ctx context.Context) {
	defer close(c.done)
	for {
		ev, err := c.queue.WaitOne(ctx)
		if err != nil {
			if !errors.Is(err, mb.ErrClosed) && !errors.Is(err, context.Canceled) {
				c.log.Warn("inbound queue stopped", zap.Error(err))
			}
			return
		}
		if ev.connected {
			if err := c.handler.OnConnect(ctx); err != nil {
				c.log.Error("connection setup failed", zap.Error(err))
			}
			continue
		}
		c.handler.HandleMessage(ctx, ev.msg)
	}
}

func (c *Connection) manager() (*autopaho.ConnectionManager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cm == nil {
		return nil, ErrNotStarted
	}
	return c.cm, nil
}

// AwaitConnection blocks until the first connection is up or ctx ends.
func (c *Connection) AwaitConnection(ctx context.Context) error {
	cm, err := c.manager()
	if err != nil {
		return err
	}
	return cm.AwaitConnection(ctx)
}

// Publish sends payload on topic with the configured QoS.
func (c *Connection) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	cm, err := c.manager()
	if err != nil {
		return err
	}
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     c.opts.QoS,
		Retain:  retain,
	}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to topic. With noLocal the broker does not echo
// this client's own publishes back.
func (c *Connection) Subscribe(ctx context.Context, topic string, noLocal bool) error {
	cm, err := c.manager()
	if err != nil {
		return err
	}
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic:   topic,
			QoS:     c.opts.QoS,
			NoLocal: noLocal,
		}},
	}); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects cleanly and waits for the worker to drain.
func (c *Connection) Close(ctx context.Context) error {
	cm, err := c.manager()
	if err != nil {
		return err
	}
	disconnectErr := cm.Disconnect(ctx)
	_ = c.queue.Close()

	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if disconnectErr != nil {
		// already down; the broker fires the will instead
		c.log.Debug("disconnect", zap.Error(disconnectErr))
	}
	return nil
}

// Done is closed once the inbound worker has exited.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
