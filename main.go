// Package main provides a live audio processor that captures from an
// input device, runs each block through a stereo dynamics engine, and
// renders to an output device. Parameters persist across restarts and
// are editable over a local WebSocket control surface.
//
// Usage:
//
//	micwire [-config path/to/params.json] [-listen :8090] [-log path]
//
// If -config is not specified, the parameter file lives in the per-user
// configuration directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/micwire/micwire/internal/audio"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/session"
	"github.com/micwire/micwire/internal/types"
	"github.com/micwire/micwire/internal/util"
)

func main() {
	configPath := flag.String("config", "", "Path to parameter file (default: per-user config dir)")
	listenAddr := flag.String("listen", ":8090", "Control server listen address")
	logPath := flag.String("log", "", "Write logs to this file instead of stderr")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		slog.Info("version info", "version", Version, "commit", Commit, "build_time", BuildTime)
		return
	}

	if *logPath != "" {
		if err := util.ValidatePath("log", *logPath); err != nil {
			slog.Error("invalid log path", "error", err)
			os.Exit(1)
		}
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	}

	if *configPath == "" {
		path, err := params.DefaultPath()
		if err != nil {
			slog.Error("failed to resolve parameter file location", "error", err)
			os.Exit(1)
		}
		*configPath = path
	}

	slog.Info("using parameter file", "path", *configPath)

	store, err := params.Load(*configPath)
	if err != nil {
		slog.Error("failed to load parameters", "error", err)
		os.Exit(1)
	}

	saver := params.NewSaver(store, types.DebounceWindow)
	go saver.Run()

	host, err := audio.NewHost()
	if err != nil {
		slog.Error("failed to initialize audio backend", "error", err)
		os.Exit(1)
	}

	adapter := engine.NewAdapter(engine.NewCompressor(), store)
	watcher := audio.NewPollWatcher(host, types.WatchPollInterval)
	pipeline := session.NewSupervisor(host, adapter, store, watcher)
	go pipeline.Run()

	srv := NewServer(store, adapter, pipeline, host, *logPath)
	httpServer := srv.Start(*listenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, util.ShutdownSignals()...)
	<-sigChan

	slog.Info("shutting down")

	// Stop version checker goroutine
	srv.version.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), types.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	pipeline.Stop()
	saver.Stop()
	if err := host.Close(); err != nil {
		slog.Error("error closing audio backend", "error", err)
	}

	slog.Info("shutdown complete")
}
