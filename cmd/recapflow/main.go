package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"recapflow/internal/checkpoint"
	"recapflow/internal/config"
	"recapflow/internal/logger"
	"recapflow/internal/runner"
	"recapflow/internal/summarizer"
	"recapflow/internal/watcher"
)

func main() {
	ctx := context.Background()

	cfgPath := os.Getenv("RECAPFLOW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Error(ctx, "GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Paths.Output, 0755); err != nil {
		log.Error(ctx, "Failed to create output directory: %v", err)
		os.Exit(1)
	}

	sum, err := summarizer.New(ctx, apiKey, cfg, log)
	if err != nil {
		log.Error(ctx, "Failed to create summarizer: %v", err)
		os.Exit(1)
	}

	run := runner.New(cfg, sum, checkpoint.FileStoreFactory(cfg.Paths.Output), log)

	// One-shot mode: summarize the transcript given on the command line.
	if len(os.Args) > 1 {
		if err := run.Run(ctx, os.Args[1]); err != nil {
			log.Error(ctx, "Run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if !cfg.Watch.Enabled {
		fmt.Fprintln(os.Stderr, "usage: recapflow <transcript-file> (or enable watch mode in config)")
		os.Exit(1)
	}

	w, err := watcher.New(cfg.Paths.Input, run.Run, log)
	if err != nil {
		log.Error(ctx, "Failed to create watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	log.Info(ctx, "Monitoring %s, output in %s", cfg.Paths.Input, cfg.Paths.Output)
	log.Info(ctx, "Press Ctrl+C to stop")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Watcher error: %v", err)
		cancel()
		os.Exit(1)
	}

	cancel()
	log.Info(ctx, "Stopped")
}
