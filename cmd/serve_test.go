package cmd

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mcp-mqtt/config"
	"mcp-mqtt/mcp"
	"mcp-mqtt/metrics"
	"mcp-mqtt/transport"
)

type fakeConn struct {
	startErr error
	done     chan struct{}
	await    func(ctx context.Context) error

	starts atomic.Int32
	closes atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (c *fakeConn) Start(context.Context, transport.Handler) error {
	c.starts.Add(1)
	return c.startErr
}

func (c *fakeConn) AwaitConnection(ctx context.Context) error {
	if c.await != nil {
		return c.await(ctx)
	}
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closes.Add(1)
	return nil
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

type fakeHandler struct {
	shutdowns atomic.Int32
}

func (h *fakeHandler) OnConnect(context.Context) error                  { return nil }
func (h *fakeHandler) HandleMessage(context.Context, transport.Message) {}
func (h *fakeHandler) Shutdown(context.Context) error {
	h.shutdowns.Add(1)
	return nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "motd.txt")
	require.NoError(t, os.WriteFile(file, []byte("welcome"), 0o600))
	cfg := &config.Config{Resources: []config.ResourceConfig{
		{URI: "file:///motd.txt", Name: "motd", Path: file},
	}}

	reg, err := buildRegistry(cfg, true, true)
	require.NoError(t, err)
	require.True(t, reg.HasTools())
	require.True(t, reg.HasResources())
	_, ok := reg.FindTool("add")
	require.True(t, ok, "demo tool add not registered")

	data, err := reg.Read(context.Background(), "file:///motd.txt")
	require.NoError(t, err)
	require.Equal(t, "welcome", string(data))

	resources := reg.Resources()
	require.Len(t, resources, 3)
	require.Equal(t, mcp.DocsOverviewURI, resources[0].URI)
	docs, err := reg.Read(context.Background(), mcp.DocsToolsURI)
	require.NoError(t, err)
	require.Contains(t, string(docs), "| add |")

	_, err = reg.Read(context.Background(), "file:///other.txt")
	require.ErrorIs(t, err, mcp.ErrResourceNotFound)

	reg, err = buildRegistry(&config.Config{}, false, false)
	require.NoError(t, err)
	require.False(t, reg.HasTools())
	require.False(t, reg.HasResources())
}

func TestBuildRegistryDuplicateResource(t *testing.T) {
	cfg := &config.Config{Resources: []config.ResourceConfig{
		{URI: "file:///a", Name: "a", Path: "/a"},
		{URI: "file:///a", Name: "b", Path: "/b"},
	}}
	_, err := buildRegistry(cfg, false, false)
	require.ErrorIs(t, err, mcp.ErrDuplicateResource)
}

func TestTransportOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Name = "demo/calc"
	cfg.Server.ID = "srv1"
	cfg.Broker.URL = "ssl://broker:8883"
	cfg.Broker.Username = "u"
	cfg.Broker.Password = "p"
	cfg.Broker.KeepAlive = 45 * time.Second
	cfg.Broker.QoS = 1

	opts := transportOptions(cfg)
	require.Equal(t, cfg.Broker.URL, opts.BrokerURL)
	require.Equal(t, "srv1", opts.ClientID)
	require.Equal(t, "u", opts.Username)
	require.Equal(t, "p", opts.Password)
	require.Equal(t, 45*time.Second, opts.KeepAlive)
	require.Equal(t, byte(1), opts.QoS)
	require.Equal(t, "$mcp-server/presence/srv1/demo/calc", opts.WillTopic)
}

func TestMetricsServer(t *testing.T) {
	srv := metricsServer(":0", metrics.New())
	require.Equal(t, ":0", srv.Addr)
	require.NotNil(t, srv.Handler)
}

func TestServeStartFailureStopsMetricsListener(t *testing.T) {
	cfg := &config.Config{}
	cfg.Metrics.Listen = freeAddr(t)
	conn := newFakeConn()
	conn.startErr = errors.New("no server urls provided")

	err := serve(context.Background(), zap.NewNop(), cfg, metrics.New(), conn, &fakeHandler{})
	require.ErrorContains(t, err, "no server urls provided")
	require.Equal(t, int32(1), conn.starts.Load())
	require.Zero(t, conn.closes.Load())

	// the listener is released before serve returns
	l, err := net.Listen("tcp", cfg.Metrics.Listen)
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestServeWarnsWhileBrokerUnreachable(t *testing.T) {
	orig := firstConnectWait
	firstConnectWait = 20 * time.Millisecond
	t.Cleanup(func() { firstConnectWait = orig })

	core, logs := observer.New(zapcore.DebugLevel)
	cfg := &config.Config{}
	cfg.Broker.URL = "tcp://unreachable:1883"
	conn := newFakeConn()
	conn.await = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	h := &fakeHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, zap.New(core), cfg, metrics.New(), conn, h) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("broker not reachable yet, still retrying").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
	require.Equal(t, int32(1), h.shutdowns.Load())
	require.Equal(t, int32(1), conn.closes.Load())
}

func TestServeStopsWhenWorkerExits(t *testing.T) {
	conn := newFakeConn()
	close(conn.done)
	h := &fakeHandler{}

	err := serve(context.Background(), zap.NewNop(), &config.Config{}, metrics.New(), conn, h)
	require.ErrorContains(t, err, "inbound worker stopped")
	require.Zero(t, h.shutdowns.Load())
}
