package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aisites/siteeditor/internal/app"
	"github.com/aisites/siteeditor/internal/config"
	"github.com/aisites/siteeditor/internal/logging"
	"github.com/aisites/siteeditor/internal/web"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "Path to config file (JSON or YAML)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	addr := flag.String("addr", "", "HTTP bind address override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	logger := logging.BuildLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	server := web.NewServer(logger, a.Editor, a.Store, a.EditLog())
	if err := server.ListenAndServe(ctx, cfg.Listen); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
