package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/aisites/siteeditor/internal/app"
	"github.com/aisites/siteeditor/internal/config"
	"github.com/aisites/siteeditor/internal/logging"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "Path to config file (JSON or YAML)")
	logLevel := flag.String("log-level", "debug", "Log level (debug, info, warn, error)")
	site := flag.String("site", "", "Site id to edit (required)")
	command := flag.String("command", "", "Edit command in natural language (required)")
	flag.Parse()

	if *site == "" || *command == "" {
		fmt.Fprintf(os.Stderr, "Usage: edit -site <id> -command <text>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logging.BuildLogger(*logLevel, "text")
	if err := run(logger, *configPath, *site, *command); err != nil {
		logger.Error("edit failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, site, command string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.Editor.Edit(ctx, site, command)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", res.Message())
	fmt.Printf("mode=%s applied=%d skipped=%d failed=%d snippets=%d duration=%s\n",
		res.Mode, res.Report.Applied, res.Report.Skipped, res.Report.Failed, res.Snippets, res.Duration)
	for _, op := range res.Report.Results {
		if op.Err != nil {
			fmt.Printf("  op %d %s: %s (%v)\n", op.Index, op.Kind, op.Outcome, op.Err)
		}
	}
	return nil
}
