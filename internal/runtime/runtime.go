package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/rzbill/myriad/internal/config"
	"github.com/rzbill/myriad/internal/dashboard"
	"github.com/rzbill/myriad/internal/logstore"
	"github.com/rzbill/myriad/internal/metrics"
	"github.com/rzbill/myriad/internal/registry"
	pebblestore "github.com/rzbill/myriad/internal/storage/pebble"
	"github.com/rzbill/myriad/internal/widget"
	"github.com/rzbill/myriad/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger defaults to a nop logger.
	Logger log.Logger
	// Metrics defaults to a fresh collector set.
	Metrics *metrics.Metrics
	// Publisher sends widget actions. Defaults to one that only logs them.
	Publisher widget.Publisher
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Runtime wires storage, history and dashboard for a single-node instance.
type Runtime struct {
	config    cfgpkg.Config
	logger    log.Logger
	metrics   *metrics.Metrics
	store     logstore.Store
	registry  *registry.Registry
	dashboard *dashboard.Dashboard
}

// Open initializes the store, the registry and the dashboard. When
// Config.Dashboard.File names an existing layout, it is loaded and every
// widget with logging enabled replays its stored history.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	backend, _ := logstore.ParseBackend(cfg.Storage.Backend)
	fsync, err := pebblestore.ParseFsyncMode(cfg.Storage.Fsync)
	if err != nil {
		return nil, err
	}
	dataDir := cfg.Storage.DataDir
	if dataDir == "" && backend != logstore.BackendMemory {
		dataDir = cfgpkg.DefaultDataDir()
	}
	store, err := logstore.Open(logstore.Options{
		Backend:    backend,
		DataDir:    dataDir,
		Fsync:      fsync,
		QuotaBytes: cfg.Storage.QuotaBytes,
		Metrics:    m,
	})
	if err != nil {
		return nil, err
	}

	reg := registry.New(registry.Options{
		Store:          store,
		DefaultLimitKB: cfg.History.DefaultLimitKB,
		KeyPrefix:      cfg.Storage.KeyPrefix,
		Logger:         logger,
		Metrics:        m,
		Clock:          opts.Clock,
	})

	pub := opts.Publisher
	if pub == nil {
		plog := logger.WithComponent("publisher")
		pub = widget.PublisherFunc(func(topic, payload string) error {
			plog.Info("publish", log.Str("topic", topic), log.Int("bytes", len(payload)))
			return nil
		})
	}
	dash := dashboard.New(widget.Deps{
		Registry:  reg,
		Publisher: pub,
		Logger:    logger,
		Clock:     opts.Clock,
	})
	if f := cfg.Dashboard.File; f != "" {
		if err := dash.LoadFile(f); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load dashboard %s: %w", f, err)
		}
	}

	logger.WithComponent("runtime").Info("runtime opened",
		log.Str("backend", string(backend)), log.Str("data_dir", dataDir),
		log.Int("widgets", len(dash.List())))
	return &Runtime{
		config:    cfg,
		logger:    logger,
		metrics:   m,
		store:     store,
		registry:  reg,
		dashboard: dash,
	}, nil
}

// Close saves the dashboard layout (when configured) and closes the store.
func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	var saveErr error
	if f := r.config.Dashboard.File; f != "" {
		saveErr = r.dashboard.SaveFile(f)
	}
	err := r.store.Close()
	r.store = nil
	return errors.Join(saveErr, err)
}

// CheckHealth reports whether the store is usable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p, ok := r.store.(interface{ Ping() error }); ok {
		return p.Ping()
	}
	return nil
}

// Dispatch delivers an incoming message to the dashboard and counts it.
func (r *Runtime) Dispatch(topic string, payload []byte) int {
	r.metrics.Dispatched.Inc()
	return r.dashboard.Dispatch(topic, payload)
}

// Store exposes the underlying store (internal use only).
func (r *Runtime) Store() logstore.Store { return r.store }

// Registry returns the per-widget history registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Dashboard returns the widget host.
func (r *Runtime) Dashboard() *dashboard.Dashboard { return r.dashboard }

// Metrics returns the collector set.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Logger returns the root logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
