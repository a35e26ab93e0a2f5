package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/docmesh-go/internal/core/service"
	"github.com/yndnr/docmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/docmesh-go/internal/infra/confloader"
	"github.com/yndnr/docmesh-go/internal/infra/shutdown"
	"github.com/yndnr/docmesh-go/internal/peer"
	"github.com/yndnr/docmesh-go/internal/server/config"
	"github.com/yndnr/docmesh-go/internal/server/httpserver"
	"github.com/yndnr/docmesh-go/internal/server/peerserver"
	"github.com/yndnr/docmesh-go/internal/storage"
	"github.com/yndnr/docmesh-go/internal/storage/memory"
	"github.com/yndnr/docmesh-go/internal/telemetry/logger"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
	"github.com/yndnr/docmesh-go/internal/xmlproc"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:    "docmesh-server",
		Usage:   "Peer-aware document server",
		Version: buildinfo.String("docmesh-server"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file", EnvVars: []string{"DOCMESH_CONFIG"}},
			&cli.StringFlag{Name: "addr", Usage: "Document HTTP listen address (server.http.addr)"},
			&cli.StringFlag{Name: "peer-addr", Usage: "Peer RPC listen address (server.peer.addr)"},
			&cli.IntFlag{Name: "workers", Usage: "Connection handlers (server.http.workers)"},
			&cli.StringFlag{Name: "storage", Usage: "Store backend: badger, bolt, postgres, memory (storage.backend)"},
			&cli.StringFlag{Name: "data-dir", Usage: "Data directory for file backends (storage.data_dir)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error (log.level)"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	backends := storage.NewRegistry()
	backends.Register(storage.BackendMemory, memory.Open)

	cfg, err := loadConfig(c, backends)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting docmesh-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", c.String("config"))
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	n, err := newNode(cfg, backends, slogLogger)
	if err != nil {
		return err
	}

	sh := shutdown.NewHandler(shutdownTimeout, slogLogger)
	sh.OnShutdown("storage", func(context.Context) error { return n.backend.Close() })

	ctx, cancel := context.WithCancelCause(c.Context)
	defer cancel(nil)

	if path := c.String("config"); path != "" {
		if err := watchConfig(ctx, path, slogLogger, func() { reloadConfig(c, backends, cfg, log) }); err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		}
	}

	// Registered after storage so they stop first.
	if n.peerSrv != nil {
		sh.OnShutdown("peer server", n.peerSrv.Shutdown)
		go func() {
			err := n.peerSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("peer server error", "error", err)
				cancel(fmt.Errorf("peer server: %w", err))
			}
		}()
	}

	sh.OnShutdown("http server", n.httpSrv.Shutdown)
	go func() {
		log.Info("document server listening", "addr", cfg.Server.HTTP.Addr)
		err := n.httpSrv.ListenAndServe(ctx)
		if err != nil && !errors.Is(err, httpserver.ErrServerClosed) {
			log.Error("document server error", "error", err)
			cancel(fmt.Errorf("document server: %w", err))
		}
	}()

	log.Info("server started, press Ctrl+C to stop", "peers", n.peers.Names())
	if err := sh.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, environment and
// flags, then verifies it.
func loadConfig(c *cli.Context, backends *storage.Registry) (*config.ServerConfig, error) {
	cfg := config.Default()

	flags := map[string]any{
		"server.http.addr": c.String("addr"),
		"server.peer.addr": c.String("peer-addr"),
		"storage.backend":  c.String("storage"),
		"storage.data_dir": c.String("data-dir"),
		"log.level":        c.String("log-level"),
	}
	if c.IsSet("workers") {
		flags["server.http.workers"] = c.Int("workers")
	}

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg, backends); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// watchConfig calls reload whenever the file at path is written.
func watchConfig(ctx context.Context, path string, log *slog.Logger, reload func()) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		return err
	}
	w.OnChange(func(string) { reload() })

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Warn("configuration watcher stopped", "error", err)
		}
	}()
	return nil
}

// reloadConfig re-reads every source and applies log.level. Other settings
// are bound at startup and only take effect after a restart.
func reloadConfig(c *cli.Context, backends *storage.Registry, running *config.ServerConfig, log logger.Logger) {
	next, err := loadConfig(c, backends)
	if err != nil {
		log.Warn("configuration reload rejected", "error", err)
		return
	}

	if level := strings.ToLower(next.Log.Level); level != "" && level != logger.GetLevel() {
		if err := logger.SetLevel(level); err != nil {
			log.Warn("configuration reload rejected", "error", err)
			return
		}
		log.Info("log level changed", "level", level)
	}

	next.Log.Level = running.Log.Level
	if !reflect.DeepEqual(next, running) {
		log.Warn("configuration changed on disk, restart to apply settings other than log.level")
	}
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// node is one wired docmesh process.
type node struct {
	backend storage.Backend
	peers   *peer.Registry
	service *service.Service
	metrics *metric.Registry
	httpSrv *httpserver.Server
	peerSrv *peerserver.Server
}

// newNode opens the store, dials the peers and builds both servers. It
// starts nothing.
func newNode(cfg *config.ServerConfig, backends *storage.Registry, log *slog.Logger) (*node, error) {
	metrics := metric.NewRegistry()

	storeOpts := cfg.StorageOptions()
	storeOpts.Logger = log.With("component", "storage")
	backend, err := backends.Open(cfg.Storage.Backend, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	if b, ok := backend.(*storage.BadgerBackend); ok {
		b.RegisterMetrics(metrics.Registerer())
	}

	peers, err := peer.Dial(cfg.PeerServers(), peer.ClientOptions{
		Metrics: metrics,
		Logger:  log.With("component", "peer"),
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("dial peers: %w", err)
	}

	svc := service.New(backend, peers, xmlproc.NewLibXML(log), service.Options{
		Metrics: metrics,
		Logger:  log,
	})
	metrics.MustRegisterCollector(metric.NewDocumentCollector(svc.CountDocuments, log))

	handler := httpserver.Chain(
		httpserver.NewRouter(svc.Controllers(), log),
		httpserver.AccessLog(),
		httpserver.Metrics(metrics),
		httpserver.Recover(),
	)

	n := &node{
		backend: backend,
		peers:   peers,
		service: svc,
		metrics: metrics,
		httpSrv: httpserver.New(cfg.HTTPServerConfig(), handler, log, metrics),
	}
	if cfg.Server.Peer.Addr != "" {
		n.peerSrv = peerserver.New(cfg.PeerServerConfig(), svc, metrics, log)
	}

	log.Info("node initialized",
		"storage", cfg.Storage.Backend,
		"peers", peers.Len(),
		"workers", cfg.Server.HTTP.Workers)
	return n, nil
}
