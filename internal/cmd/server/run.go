package serverrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/myriad/internal/config"
	"github.com/rzbill/myriad/internal/runtime"
	grpcserver "github.com/rzbill/myriad/internal/server/grpc"
	httpserver "github.com/rzbill/myriad/internal/server/http"
	logpkg "github.com/rzbill/myriad/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// ResolveConfig loads path (defaults when empty), overlays MYRIAD_*
// variables and validates the result.
func ResolveConfig(path string) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}

// processLogger builds the logger from cfg, falling back to text at the
// parsed level (or info) when cfg cannot be applied.
func processLogger(cfg *logpkg.Config) logpkg.Logger {
	l, err := logpkg.ApplyConfig(cfg)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	l.Warn("invalid log config, using text output", logpkg.Err(err))
	return l
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = processLogger(&cfg.Log)
		// Pebble and net/http write through the standard library logger.
		logpkg.RedirectStdLog(procLogger)
	}
	if cfg.Storage.DataDir == "" && cfg.Storage.Backend != "memory" {
		cfg.Storage.DataDir = cfgpkg.DefaultDataDir()
	}

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}

	procLogger.Info("Starting Myriad server",
		logpkg.Str("grpc", cfg.GRPC.Addr),
		logpkg.Str("http", cfg.HTTP.Addr),
		logpkg.Str("backend", cfg.Storage.Backend),
		logpkg.Str("data_dir", cfg.Storage.DataDir),
		logpkg.Float64("default_limit_kb", cfg.History.DefaultLimitKB),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	gsrv := grpcserver.New(rt, procLogger)
	hsrv := httpserver.New(rt, procLogger)

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		srvErrs []error
	)
	fail := func(name string, err error) {
		errMu.Lock()
		srvErrs = append(srvErrs, fmt.Errorf("%s: %w", name, err))
		errMu.Unlock()
		stop()
	}
	if cfg.GRPC.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, cfg.GRPC.Addr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server failed", logpkg.Err(err))
				fail("grpc", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, cfg.HTTP.Addr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			fail("http", err)
		}
	}()

	<-sctx.Done()
	// Stop servers before closing the store.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	if err := rt.Close(); err != nil {
		procLogger.Error("runtime close failed", logpkg.Err(err))
		srvErrs = append(srvErrs, err)
	}
	procLogger.Info("Myriad server stopped")
	return errors.Join(srvErrs...)
}
