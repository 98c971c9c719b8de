package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcp-mqtt/config"
	"mcp-mqtt/demo"
	"mcp-mqtt/logging"
	"mcp-mqtt/mcp"
	"mcp-mqtt/metrics"
	"mcp-mqtt/server"
	"mcp-mqtt/store"
	"mcp-mqtt/topic"
	"mcp-mqtt/transport"
)

const shutdownTimeout = 5 * time.Second

// ServeCmd runs the server until interrupted.
type ServeCmd struct {
	Demo bool `help:"Register the demo tools (add, echo, scale)"`
	Docs bool `help:"Publish the built-in documentation resources"`
}

// Run implements the serve command execution
func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := config.GetConfig(g.Config)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	level := cfg.Log.Level
	if g.Debug {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg, err := buildRegistry(cfg, s.Demo, s.Docs)
	if err != nil {
		return err
	}

	var journal server.Journal
	if cfg.Journal.Path != "" {
		j, err := store.InitDatabase(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer j.Close()
		journal = j
	}

	m := metrics.New()

	conn, err := transport.New(transportOptions(cfg), log)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Name:        cfg.Server.Name,
		Description: cfg.Server.Description,
		ServerID:    cfg.Server.ID,
		Roles:       cfg.RoleList(),
		Registry:    reg,
		Transport:   conn,
		Logger:      log,
		Metrics:     m,
		Journal:     journal,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(sigCtx, log, cfg, m, conn, srv)
}

// brokerConn is the part of transport.Connection that serve drives.
type brokerConn interface {
	Start(ctx context.Context, h transport.Handler) error
	AwaitConnection(ctx context.Context) error
	Close(ctx context.Context) error
	Done() <-chan struct{}
}

// handler is the part of server.Server that serve drives.
type handler interface {
	transport.Handler
	Shutdown(ctx context.Context) error
}

// firstConnectWait is how long serve waits for the first broker connection
// before warning that the broker is unreachable.
var firstConnectWait = 10 * time.Second

// serve runs the metrics listener and the broker session until parent is
// cancelled, then announces the server offline and disconnects.
func serve(parent context.Context, log *zap.Logger, cfg *config.Config, m *metrics.Metrics, conn brokerConn, srv handler) error {
	runCtx, cancel := context.WithCancel(parent)
	defer cancel()
	group, ctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Listen != "" {
		httpSrv := metricsServer(cfg.Metrics.Listen, m)
		group.Go(func() error {
			log.Info("serving metrics", zap.String("listen", cfg.Metrics.Listen))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	// the mqtt session outlives the signal so the offline notice can still go out
	connCtx, cancelConn := context.WithCancel(context.Background())
	defer cancelConn()
	if err := conn.Start(connCtx, srv); err != nil {
		cancel()
		_ = group.Wait()
		return err
	}
	log.Info("starting server",
		zap.String("server_id", cfg.Server.ID),
		zap.String("server_name", cfg.Server.Name),
		zap.String("broker", cfg.Broker.URL),
	)

	group.Go(func() error {
		waitCtx, cancelWait := context.WithTimeout(ctx, firstConnectWait)
		defer cancelWait()
		if err := conn.AwaitConnection(waitCtx); err != nil && ctx.Err() == nil {
			log.Warn("broker not reachable yet, still retrying",
				zap.String("broker", cfg.Broker.URL),
				zap.Duration("waited", firstConnectWait),
				zap.Error(err),
			)
		}
		return nil
	})

	group.Go(func() error {
		select {
		case <-ctx.Done():
		case <-conn.Done():
			return errors.New("inbound worker stopped")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to announce shutdown", zap.Error(err))
		}
		return conn.Close(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildRegistry collects the demo tools and documentation pages when
// enabled and the file backed resources declared in cfg.
func buildRegistry(cfg *config.Config, withDemo, withDocs bool) (*mcp.Registry, error) {
	reg := mcp.NewRegistry()
	if withDemo {
		if err := demo.Register(reg); err != nil {
			return nil, err
		}
	}

	resources, paths := cfg.ResourceList()
	var reader mcp.Readable
	if len(resources) > 0 {
		reader = demo.NewFileReader(paths)
	}
	if withDocs {
		docs := mcp.NewDocs(reg, cfg.Server.Name, reader)
		resources = append(docs.Resources(), resources...)
		reader = docs
	}
	if len(resources) > 0 {
		if err := reg.RegisterResources(reader, resources...); err != nil {
			return nil, fmt.Errorf("failed to register resources: %w", err)
		}
	}
	return reg, nil
}

func transportOptions(cfg *config.Config) transport.Options {
	return transport.Options{
		BrokerURL:          cfg.Broker.URL,
		ClientID:           cfg.Server.ID,
		Username:           cfg.Broker.Username,
		Password:           cfg.Broker.Password,
		CAFile:             cfg.Broker.CAFile,
		InsecureSkipVerify: cfg.Broker.InsecureSkipVerify,
		KeepAlive:          cfg.Broker.KeepAlive,
		ConnectTimeout:     cfg.Broker.ConnectTimeout,
		QoS:                cfg.Broker.QoS,
		WillTopic:          topic.Presence(cfg.Server.ID, cfg.Server.Name),
	}
}

func metricsServer(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
