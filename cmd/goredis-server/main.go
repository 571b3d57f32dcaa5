package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wangbo/goredis-server/internal/config"
	"github.com/wangbo/goredis-server/internal/logctx"
	"github.com/wangbo/goredis-server/internal/server"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse configuration: %v\n", err)
		os.Exit(1)
	}

	logctx.SetLevel(cfg.LogLevel)
	logctx.Info("starting goredis-server", "host", cfg.Host, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logctx.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil {
		logctx.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}

	logctx.Info("server shut down cleanly")
}
