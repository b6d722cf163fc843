// Command apertium-apy runs the HTTP API gateway fronting locally-installed
// MT subprocess toolchains.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apertium/apertium-apy/internal/config"
	"github.com/apertium/apertium-apy/internal/httpapi"
	"github.com/apertium/apertium-apy/internal/locale"
	"github.com/apertium/apertium-apy/internal/missingtokens"
	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pool"
	"github.com/apertium/apertium-apy/internal/redisx"
	"github.com/apertium/apertium-apy/internal/stats"
	"github.com/apertium/apertium-apy/internal/systemdwatchdog"
	"github.com/apertium/apertium-apy/internal/translate"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := locale.CheckUTF8(); err != nil {
		fmt.Fprintln(os.Stderr, "apertium-apy: refusing to start:", err)
		return 1
	}

	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "apertium-apy:", err)
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "apertium-apy: invalid configuration:", err)
		return 1
	}
	config.ApplyDaemonDefaults(cfg)
	if cfg.Daemon {
		// No self-forking: this gateway runs as a single foreground process
		// and is daemonized by its supervisor (systemd, per the watchdog
		// integration below), the same stance spec.md §9 takes on
		// --num-processes. --daemon is accepted but otherwise a no-op.
	}

	log, syncLog, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apertium-apy: logger setup failed:", err)
		return 1
	}
	defer syncLog()
	log = log.Named("main")

	inv, err := modes.Discover(cfg.PairsPath, cfg.NonpairsPath, log)
	if err != nil {
		log.Error("mode discovery failed", zap.Error(err))
		return 1
	}

	sources := make(map[modes.PairKey]string, len(inv.Pairs))
	for _, entry := range inv.Pairs {
		sources[entry.Pair] = entry.ModeFilePath
	}
	cache := modes.NewCache(log, sources)

	p := pool.New(log, pool.Config{
		MaxPipesPerPair:  cfg.MaxPipesPerPair,
		MinPipesPerPair:  cfg.MinPipesPerPair,
		MaxUsersPerPipe:  cfg.MaxUsersPerPipe,
		MaxIdleSecs:      cfg.MaxIdleSecs,
		RestartPipeAfter: cfg.RestartPipeAfter,
	}, cache)

	st := stats.New(log, cfg.StatPeriodMaxAge, true)

	var unseen *missingtokens.Store
	if cfg.RedisAddr != "" {
		rdb := redisx.NewClient(cfg.RedisAddr, cfg.RedisDB, log)
		defer rdb.Close()
		unseen = missingtokens.NewStore(log, rdb, "apy:unknown:", cfg.UnknownMemoryLimit)
	} else {
		unseen = missingtokens.NewStore(log, nil, "apy:unknown:", cfg.UnknownMemoryLimit)
	}

	svc := translate.New(log, p, st, unseen, cfg.Timeout)
	srv := httpapi.New(log, cfg, cache, inv, p, svc, st)

	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        srv.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.Timeout + 30*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	watchdog, hasWatchdog := systemdwatchdog.New(log)
	watchdogDone := make(chan struct{})
	if hasWatchdog {
		go watchdog.Run(watchdogDone)
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.SSLCert != "" {
			log.Info("serving HTTPS", zap.Int("port", cfg.Port))
			err = httpServer.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
		} else {
			log.Info("serving HTTP", zap.Int("port", cfg.Port))
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	if hasWatchdog {
		watchdog.NotifyReady()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, draining")
	case err := <-serveErr:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown did not complete cleanly", zap.Error(err))
	}

	if hasWatchdog {
		close(watchdogDone)
	}

	p.Shutdown()

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	if err := unseen.Close(flushCtx); err != nil {
		log.Warn("final missing-token flush failed", zap.Error(err))
	}

	log.Info("shutdown complete")
	return 0
}

// buildLogger constructs the process-wide Zap logger, following the
// teacher's production-config-with-tweaks approach but writing to
// --log-path when one is configured instead of always going to stderr.
func buildLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.TimeKey = "ts"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.DisableStacktrace = true

	if cfg.LogPath != "" {
		logConfig.OutputPaths = []string{cfg.LogPath}
		logConfig.ErrorOutputPaths = []string{cfg.LogPath}
	}

	log, err := logConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}
